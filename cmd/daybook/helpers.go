package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"daybook/internal/publish"
)

// parseTargetIDs parses a comma-separated id list ("3,7,12").
func parseTargetIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid account id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTargetIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// readContent loads job content from a file, or from stdin when path is "-"
// or empty and stdin is piped.
func readContent(path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("no content: pass --file or pipe content on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func jobItemRows(job *publish.Job) [][]string {
	rows := make([][]string, 0, len(job.Items))
	for _, item := range job.Items {
		errText := item.ErrorMessage
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.AccountID, 10),
			string(item.Status),
			item.RemoteRef,
			errText,
		})
	}
	return rows
}

func renderJob(job *publish.Job) string {
	return renderTable(
		[]string{"Account", "Status", "Remote ID", "Error"},
		jobItemRows(job),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func jobProgressLine(job *publish.Job) string {
	succeeded, failed := job.Counts()
	return fmt.Sprintf("job %d: %d/%d done (%d succeeded, %d failed)",
		job.ID, job.Done(), job.Total(), succeeded, failed)
}
