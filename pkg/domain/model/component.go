package model

import "time"

// ComponentStatus is the terminal status of one component within a run
type ComponentStatus string

const (
	// StatusExtracted means the component payload was fetched, extracted
	// and merged into the target
	StatusExtracted ComponentStatus = "extracted"

	// StatusSkippedEmpty means the component declared no files
	StatusSkippedEmpty ComponentStatus = "skipped_empty"

	// StatusSkippedIncomplete means not every declared file could be
	// staged, so nothing of the component was installed
	StatusSkippedIncomplete ComponentStatus = "skipped_incomplete"

	// StatusFailed means an unrecoverable error occurred for this component
	StatusFailed ComponentStatus = "failed"
)

// Stage identifies the pipeline stage that produced a result
type Stage string

const (
	StageResolve    Stage = "resolve"
	StageFetch      Stage = "fetch"
	StageReassemble Stage = "reassemble"
	StageExtract    Stage = "extract"
	StageMerge      Stage = "merge"
)

// ComponentResult records how a single component fared
type ComponentResult struct {
	Component string
	Status    ComponentStatus
	Stage     Stage  // Stage the pipeline ended at for this component
	Strategy  string // Extraction strategy that succeeded, if any
	Files     int
	Bytes     int64
	Err       error
}

// RunState is the aggregate outcome of an installation run
type RunState string

const (
	// RunOK means every component extracted or was empty
	RunOK RunState = "ok"

	// RunPartial means the installation is usable but at least one
	// component was skipped as incomplete
	RunPartial RunState = "partial"

	// RunFailed means at least one component failed outright
	RunFailed RunState = "failed"
)

// RunSummary aggregates the component results of one installation run
type RunSummary struct {
	RunID      string
	Tag        string // Resolved release tag
	Target     string
	Results    []ComponentResult
	Model      *ModelFetchResult // nil when the model step did not run
	StartedAt  time.Time
	FinishedAt time.Time
}

// State derives the run state from the component results. Empty components
// do not degrade the state; incomplete skips degrade it to partial; any
// failure wins over everything else.
func (s *RunSummary) State() RunState {
	state := RunOK
	for _, r := range s.Results {
		switch r.Status {
		case StatusFailed:
			return RunFailed
		case StatusSkippedIncomplete:
			state = RunPartial
		}
	}
	return state
}

// Extracted counts components that fully installed
func (s *RunSummary) Extracted() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == StatusExtracted {
			n++
		}
	}
	return n
}

// Skipped counts components that were skipped, empty or incomplete
func (s *RunSummary) Skipped() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == StatusSkippedEmpty || r.Status == StatusSkippedIncomplete {
			n++
		}
	}
	return n
}
