package api

import (
	"time"

	"daybook/internal/notify"
	"daybook/internal/publish"
)

type jobPayload struct {
	ID               int64         `json:"id"`
	Date             string        `json:"date"`
	Content          string        `json:"content"`
	TargetAccountIDs []int64       `json:"target_account_ids"`
	CreatedAt        *time.Time    `json:"created_at"`
	Items            []itemPayload `json:"items"`
}

type itemPayload struct {
	AccountID    int64  `json:"account_id"`
	Status       string `json:"status"`
	RemoteID     string `json:"remote_id"`
	ErrorMessage string `json:"error_message"`
}

type jobSummaryPayload struct {
	ID               int64      `json:"id"`
	Date             string     `json:"date"`
	TargetAccountIDs []int64    `json:"target_account_ids"`
	CreatedAt        *time.Time `json:"created_at"`
	SuccessCount     int        `json:"success_count"`
	FailedCount      int        `json:"failed_count"`
}

type createJobRequest struct {
	Date      string  `json:"date"`
	Content   string  `json:"content"`
	TargetIDs []int64 `json:"target_ids"`
}

type startJobRequest struct {
	Concurrency int `json:"concurrency"`
}

type startJobResponse struct {
	AlreadyRunning bool `json:"already_running"`
}

type draftPayload struct {
	Content   string     `json:"content"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type draftPutRequest struct {
	Content string `json:"content"`
}

type statusRecordPayload struct {
	ID                 int64      `json:"id"`
	EntityID           int64      `json:"entity_id"`
	Status             string     `json:"status"`
	StartedAt          *time.Time `json:"started_at"`
	DiariesCount       int        `json:"diaries_count"`
	PairedDiariesCount int        `json:"paired_diaries_count"`
	ErrorMessage       string     `json:"error_message"`
}

func (p jobPayload) toJob() *publish.Job {
	job := &publish.Job{
		ID:               p.ID,
		Date:             p.Date,
		Content:          p.Content,
		TargetAccountIDs: p.TargetAccountIDs,
	}
	if p.CreatedAt != nil {
		job.CreatedAt = *p.CreatedAt
	}
	for _, item := range p.Items {
		job.Items = append(job.Items, item.toItem())
	}
	return job
}

func (p itemPayload) toItem() publish.Item {
	return publish.Item{
		AccountID:    p.AccountID,
		Status:       publish.ParseStatus(p.Status),
		RemoteRef:    p.RemoteID,
		ErrorMessage: p.ErrorMessage,
	}
}

func (p jobSummaryPayload) toSummary() publish.Summary {
	summary := publish.Summary{
		ID:               p.ID,
		Date:             p.Date,
		TargetAccountIDs: p.TargetAccountIDs,
		Succeeded:        p.SuccessCount,
		Failed:           p.FailedCount,
	}
	if p.CreatedAt != nil {
		summary.CreatedAt = *p.CreatedAt
	}
	return summary
}

func (p statusRecordPayload) toRecord() notify.StatusRecord {
	record := notify.StatusRecord{
		ID:                 p.ID,
		AccountID:          p.EntityID,
		Status:             publish.ParseStatus(p.Status),
		DiariesCount:       p.DiariesCount,
		PairedDiariesCount: p.PairedDiariesCount,
		ErrorMessage:       p.ErrorMessage,
	}
	if p.StartedAt != nil {
		record.StartedAt = *p.StartedAt
	}
	return record
}
