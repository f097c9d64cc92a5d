package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"daybook/internal/api"
	"daybook/internal/config"
	"daybook/internal/logging"
	"daybook/internal/publish"
	"daybook/internal/statestore"
)

// commandContext lazily builds the shared pieces every command needs: config,
// logger, API client, local state store. Commands pull only what they use.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	clientOnce sync.Once
	client     *api.Client
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		outputs := []string{"stderr"}
		if strings.TrimSpace(cfg.Paths.LogDir) != "" {
			outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "daybook.log"))
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: outputs,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ensureClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	c.clientOnce.Do(func() {
		c.client = api.New(cfg.Server.BaseURL, time.Duration(cfg.Server.ReadTimeout)*time.Second, logger)
	})
	return c.client, nil
}

// withStore opens the local state store for the duration of fn. The store
// holds the state-dir lock; commands keep it open only as long as needed.
func (c *commandContext) withStore(fn func(*statestore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := statestore.Open(cfg.Paths.StateDir)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// orchestrator builds the publish orchestrator. When the state store is
// unavailable (locked by another process) the orchestrator runs without
// preference persistence rather than failing the command.
func (c *commandContext) orchestrator(store *statestore.Store) (*publish.Orchestrator, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	var prefs publish.Preferences
	if store != nil {
		prefs = store
	}
	return publish.NewOrchestrator(client, prefs, logger), nil
}
