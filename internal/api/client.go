package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"daybook/internal/autosave"
	"daybook/internal/logging"
	"daybook/internal/notify"
	"daybook/internal/publish"
)

const clientUserAgent = "Daybook/0.1.0"

// Client talks to the diary-store backend.
type Client struct {
	baseURL string
	read    *http.Client
	write   *http.Client
	logger  *slog.Logger
}

// New builds a client. readTimeout bounds status and job reads; writes run
// without a client-side timeout.
func New(baseURL string, readTimeout time.Duration, logger *slog.Logger) *Client {
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		read:    &http.Client{Timeout: readTimeout},
		write:   &http.Client{},
		logger:  logging.WithComponent(logger, "api"),
	}
}

// CreateJob creates a publish run for a date over the given targets.
func (c *Client) CreateJob(ctx context.Context, date, content string, targetIDs []int64) (*publish.Job, error) {
	var payload jobPayload
	body := createJobRequest{Date: date, Content: content, TargetIDs: targetIDs}
	if err := c.do(ctx, c.write, http.MethodPost, "/jobs", nil, body, &payload); err != nil {
		return nil, err
	}
	return payload.toJob(), nil
}

// StartJob asks the server to execute a run in the background. Idempotent:
// the server reports an already-executing run instead of erroring.
func (c *Client) StartJob(ctx context.Context, jobID int64, concurrency int) (bool, error) {
	var payload startJobResponse
	path := fmt.Sprintf("/jobs/%d/start", jobID)
	if err := c.do(ctx, c.write, http.MethodPost, path, nil, startJobRequest{Concurrency: concurrency}, &payload); err != nil {
		return false, err
	}
	return payload.AlreadyRunning, nil
}

// PublishOne executes a single target of a run. Legacy client-driven mode.
func (c *Client) PublishOne(ctx context.Context, jobID, accountID int64) (publish.Item, error) {
	var payload itemPayload
	path := fmt.Sprintf("/jobs/%d/items/%d", jobID, accountID)
	if err := c.do(ctx, c.write, http.MethodPost, path, nil, nil, &payload); err != nil {
		return publish.Item{}, err
	}
	return payload.toItem(), nil
}

// GetJob fetches a run with its items.
func (c *Client) GetJob(ctx context.Context, jobID int64) (*publish.Job, error) {
	var payload jobPayload
	path := fmt.Sprintf("/jobs/%d", jobID)
	if err := c.do(ctx, c.read, http.MethodGet, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toJob(), nil
}

// ListJobs returns recent runs, newest first, optionally filtered by date.
func (c *Client) ListJobs(ctx context.Context, date string, limit int) ([]publish.Summary, error) {
	query := url.Values{}
	if strings.TrimSpace(date) != "" {
		query.Set("date", date)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payloads []jobSummaryPayload
	if err := c.do(ctx, c.read, http.MethodGet, "/jobs", query, nil, &payloads); err != nil {
		return nil, err
	}
	summaries := make([]publish.Summary, 0, len(payloads))
	for _, payload := range payloads {
		summaries = append(summaries, payload.toSummary())
	}
	return summaries, nil
}

// FetchDraft returns the draft for a date; servers answer an empty draft
// when none exists yet.
func (c *Client) FetchDraft(ctx context.Context, date string) (autosave.Draft, error) {
	var payload draftPayload
	path := "/drafts/" + url.PathEscape(date)
	if err := c.do(ctx, c.read, http.MethodGet, path, nil, nil, &payload); err != nil {
		return autosave.Draft{}, err
	}
	draft := autosave.Draft{Date: date, Content: payload.Content}
	if payload.UpdatedAt != nil {
		draft.UpdatedAt = *payload.UpdatedAt
	}
	return draft, nil
}

// SaveDraft upserts the draft for a date and returns the server timestamp.
func (c *Client) SaveDraft(ctx context.Context, date, content string) (time.Time, error) {
	var payload draftPayload
	path := "/drafts/" + url.PathEscape(date)
	if err := c.do(ctx, c.write, http.MethodPut, path, nil, draftPutRequest{Content: content}, &payload); err != nil {
		return time.Time{}, err
	}
	if payload.UpdatedAt != nil {
		return *payload.UpdatedAt, nil
	}
	return time.Now().UTC(), nil
}

// LatestStatuses returns the newest status record per account. Older servers
// lack the latest-per-account endpoint; a 404 falls back to the plain feed.
func (c *Client) LatestStatuses(ctx context.Context, limit int) ([]notify.StatusRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	records, err := c.fetchStatuses(ctx, "/status/latest", query)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return c.fetchStatuses(ctx, "/status", query)
		}
		return nil, err
	}
	return records, nil
}

func (c *Client) fetchStatuses(ctx context.Context, path string, query url.Values) ([]notify.StatusRecord, error) {
	var payloads []statusRecordPayload
	if err := c.do(ctx, c.read, http.MethodGet, path, query, nil, &payloads); err != nil {
		return nil, err
	}
	records := make([]notify.StatusRecord, 0, len(payloads))
	for _, payload := range payloads {
		records = append(records, payload.toRecord())
	}
	return records, nil
}

// TriggerSync schedules one ad hoc sync for an account.
func (c *Client) TriggerSync(ctx context.Context, accountID int64) error {
	path := fmt.Sprintf("/status/trigger/%d", accountID)
	return c.do(ctx, c.write, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, query url.Values, body, out any) error {
	operation := method + " " + path

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Wrap(ErrTransport, operation+": encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Wrap(ErrTransport, operation, err)
	}
	req.Header.Set("User-Agent", clientUserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if client == c.write {
		// Correlates retried or duplicated writes in server logs.
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The caller moved on; whatever comes back now must not produce
			// side effects.
			return Wrap(ErrStale, operation, ctx.Err())
		}
		return Wrap(ErrTransport, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %w", operation, &StatusError{
			Code:    resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(ErrTransport, operation+": decode response", err)
	}
	return nil
}

// readErrorMessage extracts the server's error text. FastAPI-style backends
// put it under "detail"; anything else is used verbatim.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var structured struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && strings.TrimSpace(structured.Detail) != "" {
		return strings.TrimSpace(structured.Detail)
	}
	return strings.TrimSpace(string(raw))
}
