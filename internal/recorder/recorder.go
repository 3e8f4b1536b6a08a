package recorder

import (
	"time"

	"github.com/google/uuid"

	"StockLens/internal/model"
)

// Triggers identify what started an analysis run.
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
	TriggerCommand  = "command"
	TriggerCLI      = "cli"
)

// AnalysisRecord is one persisted analysis run.
type AnalysisRecord struct {
	RunID      uuid.UUID
	Trigger    string
	Start      time.Time
	End        time.Time
	Result     *model.AnalysisResult
	RecordedAt time.Time
}

// NewAnalysisRecord stamps result with a fresh run ID.
func NewAnalysisRecord(result *model.AnalysisResult, trigger string, start, end time.Time) *AnalysisRecord {
	return &AnalysisRecord{
		RunID:      uuid.New(),
		Trigger:    trigger,
		Start:      start,
		End:        end,
		Result:     result,
		RecordedAt: time.Now(),
	}
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	// RecentAnalyses returns up to limit records for symbol, newest first.
	RecentAnalyses(symbol string, limit int) ([]*AnalysisRecord, error)
	Close() error
}
