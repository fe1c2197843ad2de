// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/xkilldash9x/pagecomp/internal/runner"
)

// Supported formats.
const (
	FormatText  = "text"
	FormatJUnit = "junit"
)

// Reporter defines the interface for writing check results to an output.
type Reporter interface {
	// Write processes a single check result.
	Write(result runner.CheckResult) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// Options tune the reporter New builds.
type Options struct {
	// NoColor disables coloured text output even on a terminal.
	NoColor bool
	// SuiteName names the JUnit root element.
	SuiteName string
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// NopCloser returns w with a Close that does nothing, for writers the
// reporter must not close, such as stdout.
func NopCloser(w io.Writer) io.WriteCloser {
	return &nopWriteCloser{w}
}

// New creates a new reporter based on the specified format and output path.
// Colour is only used when writing to a terminal stdout.
func New(format, outputPath string, opts Options) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = NopCloser(os.Stdout)
		opts.NoColor = opts.NoColor || color.NoColor
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
		opts.NoColor = true
	}

	r, err := NewWithWriter(format, writer, opts)
	if err != nil && !isStdOut {
		_ = writer.Close()
	}
	return r, err
}

// NewWithWriter creates a reporter for format that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, opts Options) (Reporter, error) {
	switch format {
	case FormatText, "":
		return NewTextReporter(writer, !opts.NoColor), nil
	case FormatJUnit:
		return NewJUnitReporter(writer, opts.SuiteName), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
