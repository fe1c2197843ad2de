// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/observability"
	"github.com/xkilldash9x/pagecomp/internal/runner"
)

// TextReporter prints one status line per check as results arrive, followed
// by the state report or error of failed checks, and a summary on Close.
type TextReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	pass, fail, dim *color.Color

	mu     sync.Mutex
	total  int
	failed int
	err    error
}

// NewTextReporter writes plain text to writer, coloured when colored is set.
func NewTextReporter(writer io.WriteCloser, colored bool) *TextReporter {
	r := &TextReporter{
		writer: writer,
		logger: observability.GetLogger().Named("text_reporter"),
		pass:   color.New(color.FgGreen, color.Bold),
		fail:   color.New(color.FgRed, color.Bold),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.pass, r.fail, r.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func label(res runner.CheckResult) string {
	if res.Path == "" {
		return res.Page
	}
	return res.Page + " " + res.Path
}

// Write prints the result. After the first write error every later call
// returns that error.
func (r *TextReporter) Write(res runner.CheckResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}

	r.total++
	var b strings.Builder
	status := r.pass.Sprint("PASS")
	if !res.Passed {
		r.failed++
		status = r.fail.Sprint("FAIL")
	}
	fmt.Fprintf(&b, "%s %s %s\n", status, label(res), r.dim.Sprintf("(%s)", res.Duration.Round(time.Millisecond)))
	// Problem lines already carry their indent; the header is brought in line
	// with them.
	for i, line := range res.Report {
		if i == 0 {
			line = "    " + line
		}
		b.WriteString(line + "\n")
	}
	if res.Err != nil {
		fmt.Fprintf(&b, "    error: %v\n", res.Err)
	}

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		r.err = fmt.Errorf("failed to write text report: %w", err)
		r.logger.Error("Failed to write result.", zap.Error(err))
	}
	return r.err
}

// Close prints the summary and closes the writer.
func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err == nil {
		summary := r.pass.Sprintf("%d checks, %d failed", r.total, r.failed)
		if r.failed > 0 {
			summary = r.fail.Sprintf("%d checks, %d failed", r.total, r.failed)
		}
		if _, err := fmt.Fprintf(r.writer, "\n%s\n", summary); err != nil {
			r.err = fmt.Errorf("failed to write text report: %w", err)
		}
	}
	if err := r.writer.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("failed to close output writer: %w", err)
	}
	return r.err
}
