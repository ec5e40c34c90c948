package models

import "time"

// AnalysisTrigger says what started a system analysis run.
type AnalysisTrigger string

const (
	AnalysisTriggerManual    AnalysisTrigger = "manual"    // API request
	AnalysisTriggerScheduled AnalysisTrigger = "scheduled" // watcher cron
)

// Analysis is the result of a system health analysis: the model's summary of
// the Home Assistant error log and the entity availability census.
type Analysis struct {
	ID                string          `json:"id"`
	Trigger           AnalysisTrigger `json:"trigger"`
	Summary           string          `json:"summary"`
	EntityCount       int             `json:"entity_count"`
	UnavailableCount  int             `json:"unavailable_count"`
	ErrorLogLineCount int             `json:"error_log_line_count"`
	CreatedAt         time.Time       `json:"created_at"`
}
