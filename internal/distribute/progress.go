package distribute

// Phase identifies a stage of a delivery.
type Phase string

const (
	// PhasePreparing is emitted once before the chunk loop starts.
	PhasePreparing Phase = "preparing"
	// PhaseUploading is emitted after each chunk resolves.
	PhaseUploading Phase = "uploading"
	// PhaseFinalizing is emitted when manifest publishing begins.
	PhaseFinalizing Phase = "finalizing"
)

// Progress is a transient snapshot of a delivery in flight. It is produced
// for the caller's progress callback and never persisted.
type Progress struct {
	// Phase is the current delivery stage.
	Phase Phase
	// CurrentUnit is the number of resolved units so far.
	CurrentUnit int
	// TotalUnits is the total number of units in this phase.
	TotalUnits int
	// FractionCompleted is overall completion in [0, 1]. It reaches 1 only
	// when the final (manifest or direct wrap) publish succeeds.
	FractionCompleted float64
	// ETASeconds estimates the remaining time from the configured relay
	// count and rate-limit interval.
	ETASeconds float64
	// Description is a short human-readable status line.
	Description string
}

// ProgressFunc receives progress snapshots during a delivery.
type ProgressFunc func(Progress)
