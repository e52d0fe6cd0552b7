package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

const elapsedRounding = 100 * time.Millisecond

// Reporter renders progress events and the final run summary for a
// human watching the terminal. Log output is separate; the reporter
// writes the narrative an installer user expects.
type Reporter struct {
	out  io.Writer
	mu   sync.Mutex
	good func(a ...interface{}) string
	warn func(a ...interface{}) string
	bad  func(a ...interface{}) string
	dim  func(a ...interface{}) string
}

// Option is a functional option for the reporter
type Option func(*reporterConfig)

type reporterConfig struct {
	out     io.Writer
	colored bool
}

// WithWriter redirects reporter output, mainly for tests
func WithWriter(w io.Writer) Option {
	return func(cfg *reporterConfig) {
		cfg.out = w
	}
}

// WithColor toggles ANSI colors
func WithColor(enabled bool) Option {
	return func(cfg *reporterConfig) {
		cfg.colored = enabled
	}
}

// New creates a new console reporter
func New(opts ...Option) *Reporter {
	cfg := &reporterConfig{
		out:     os.Stdout,
		colored: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Disabling is explicit; enabling stays with the package's own
	// terminal detection so piped output never gets escape codes
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if !cfg.colored {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	return &Reporter{
		out:  cfg.out,
		good: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		bad:  mk(color.FgRed),
		dim:  mk(color.Faint),
	}
}

// Progress returns the callback to hand to the use case layer
func (r *Reporter) Progress() model.ProgressFunc {
	return func(ev model.ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()

		switch ev.Phase {
		case model.PhaseResolve:
			fmt.Fprintf(r.out, "==> %s\n", ev.Message)

		case model.PhaseFetch:
			// One line per file start; byte updates stay quiet
			if ev.BytesDone == 0 {
				fmt.Fprintf(r.out, "  [%d/%d] %s: downloading %s %s\n",
					ev.ItemIndex, ev.ItemCount, ev.Component, ev.Item, r.dim(sizeHint(ev.BytesTotal)))
			}

		case model.PhaseReassemble:
			fmt.Fprintf(r.out, "  %s: assembling archive\n", ev.Component)

		case model.PhaseExtract:
			fmt.Fprintf(r.out, "  %s: extracting %s\n", ev.Component, ev.Item)

		case model.PhaseMerge:
			fmt.Fprintf(r.out, "  %s: merging into target\n", ev.Component)

		case model.PhaseConfigure:
			fmt.Fprintf(r.out, "==> %s\n", ev.Message)

		case model.PhaseModel:
			if ev.BytesDone == 0 {
				fmt.Fprintf(r.out, "  [%d/%d] model: %s %s\n",
					ev.ItemIndex, ev.ItemCount, ev.Item, r.dim(sizeHint(ev.BytesTotal)))
			}
		}
	}
}

// Summary prints the final run report
func (r *Reporter) Summary(s *model.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Release %s installed to %s\n", s.Tag, s.Target)

	var totalBytes int64
	for _, res := range s.Results {
		totalBytes += res.Bytes
		switch res.Status {
		case model.StatusExtracted:
			fmt.Fprintf(r.out, "  %s %-20s %d files, %s (%s)\n",
				r.good("ok"), res.Component, res.Files, humanize.Bytes(uint64(res.Bytes)), res.Strategy)
		case model.StatusSkippedEmpty:
			fmt.Fprintf(r.out, "  %s %-20s empty component\n", r.dim("--"), res.Component)
		case model.StatusSkippedIncomplete:
			fmt.Fprintf(r.out, "  %s %-20s incomplete, skipped\n", r.warn("!!"), res.Component)
		case model.StatusFailed:
			fmt.Fprintf(r.out, "  %s %-20s failed at %s stage\n", r.bad("xx"), res.Component, res.Stage)
		}
	}

	if s.Model != nil {
		fmt.Fprintf(r.out, "  %s %-20s %d files, %s\n",
			r.good("ok"), "model "+s.Model.Model, s.Model.Files, humanize.Bytes(uint64(s.Model.Bytes)))
	}

	elapsed := s.FinishedAt.Sub(s.StartedAt)
	switch s.State() {
	case model.RunOK:
		fmt.Fprintf(r.out, "%s in %s, %s written\n",
			r.good("Installation complete"), elapsed.Round(elapsedRounding), humanize.Bytes(uint64(totalBytes)))
	case model.RunPartial:
		fmt.Fprintf(r.out, "%s: %d installed, %d skipped\n",
			r.warn("Installation partially complete"), s.Extracted(), s.Skipped())
	case model.RunFailed:
		fmt.Fprintf(r.out, "%s\n", r.bad("Installation failed"))
	}
}

// Failure prints the fatal error and what the user can do about it
func (r *Reporter) Failure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s %v\n", r.bad("Error:"), err)

	if hint := Remediation(err); hint != "" {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, hint)
	}
}

func sizeHint(n int64) string {
	if n <= 0 {
		return ""
	}
	return "(" + humanize.Bytes(uint64(n)) + ")"
}
