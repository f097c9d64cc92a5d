package main

import (
	"testing"
	"time"

	"daybook/internal/config"
)

func TestAutosaveTimingFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Autosave.Debounce = 2
	cfg.Autosave.MaxWait = 9

	timing := autosaveTiming(&cfg)
	if timing.Debounce != 2*time.Second {
		t.Fatalf("debounce = %v, want 2s from config", timing.Debounce)
	}
	if timing.MaxWait != 9*time.Second {
		t.Fatalf("max wait = %v, want 9s from config", timing.MaxWait)
	}
}

func TestAutosaveTimingDefaults(t *testing.T) {
	cfg := config.Default()
	timing := autosaveTiming(&cfg)
	if timing.Debounce != 5*time.Second || timing.MaxWait != 30*time.Second {
		t.Fatalf("timing = %+v, want the 5s/30s defaults", timing)
	}
}
