package model

// Phase identifies the installation phase a progress event belongs to
type Phase string

const (
	PhaseResolve    Phase = "resolve"
	PhaseFetch      Phase = "fetch"
	PhaseReassemble Phase = "reassemble"
	PhaseExtract    Phase = "extract"
	PhaseMerge      Phase = "merge"
	PhaseConfigure  Phase = "configure"
	PhaseModel      Phase = "model"
)

// ProgressEvent is a point-in-time report emitted while a run advances
type ProgressEvent struct {
	Phase      Phase
	Component  string // Component being processed, empty for run-level events
	Item       string // Current file or object name
	ItemIndex  int    // 1-based index of the current item
	ItemCount  int    // Total items in this phase, 0 when unknown
	BytesDone  int64
	BytesTotal int64 // 0 when unknown
	Message    string
}

// ProgressFunc receives progress events. Implementations must return
// quickly and must not block the pipeline.
type ProgressFunc func(ev ProgressEvent)

// Report emits an event if the function is non-nil
func (f ProgressFunc) Report(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}
