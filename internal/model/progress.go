package model

// Stage is the phase an orchestration run is in.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageProcessing Stage = "processing"
	StageFusing     Stage = "fusing"
	StageAnalyzing  Stage = "analyzing"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Progress is a point-in-time snapshot of an orchestration run.
type Progress struct {
	RunID            string     `json:"run_id,omitempty"`
	Stage            Stage      `json:"stage"`
	TotalSources     int        `json:"total_sources"`
	CompletedSources int        `json:"completed_sources"`
	CurrentSource    SourceType `json:"current_source,omitempty"`
}
