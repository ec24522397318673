package domain

import (
	"fmt"
	"time"
)

// Phase is a state of a single reconciliation pass
type Phase string

const (
	PhaseFetching    Phase = "FETCHING"
	PhaseReconciling Phase = "RECONCILING"
	PhaseApplying    Phase = "APPLYING"
	PhaseLogging     Phase = "LOGGING"
	PhaseDone        Phase = "DONE"
	PhaseFailed      Phase = "FAILED"
)

// Audit log status values
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// SyncStats holds the item counts of a pass
type SyncStats struct {
	KVTotal        int `json:"kvTotal"`
	SheetTotal     int `json:"sheetTotal"`
	UpdatedInKV    int `json:"updatedInKV"`
	UpdatedInSheet int `json:"updatedInSheet"`
}

// SyncResult is the outcome of one pass and the only thing callers of the orchestrator see
type SyncResult struct {
	RunID    string    `json:"runId"`
	Success  bool      `json:"success"`
	Duration int64     `json:"duration"` // milliseconds
	Error    string    `json:"error,omitempty"`
	Stats    SyncStats `json:"stats"`
	Phase    Phase     `json:"phase"`
	FailedAt Phase     `json:"failedAt,omitempty"`
	Skipped  bool      `json:"skipped,omitempty"`
}

// Status returns the audit status string for the result
func (r *SyncResult) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusFailure
}

// SyncLogEntry is one row of the Logs sheet
type SyncLogEntry struct {
	Timestamp    time.Time
	Success      bool
	Stats        SyncStats
	Duration     time.Duration
	ErrorMessage string
}

// NewSyncLogEntry builds the audit entry for a finished pass
func NewSyncLogEntry(at time.Time, result *SyncResult) SyncLogEntry {
	return SyncLogEntry{
		Timestamp:    at,
		Success:      result.Success,
		Stats:        result.Stats,
		Duration:     time.Duration(result.Duration) * time.Millisecond,
		ErrorMessage: result.Error,
	}
}

// Row renders the entry as the A:H columns of the Logs sheet
func (e SyncLogEntry) Row() []string {
	status := StatusFailure
	if e.Success {
		status = StatusSuccess
	}
	return []string{
		e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		status,
		fmt.Sprint(e.Stats.KVTotal),
		fmt.Sprint(e.Stats.SheetTotal),
		fmt.Sprint(e.Stats.UpdatedInKV),
		fmt.Sprint(e.Stats.UpdatedInSheet),
		fmt.Sprintf("%dms", e.Duration.Milliseconds()),
		e.ErrorMessage,
	}
}
