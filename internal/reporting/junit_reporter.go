// internal/reporting/junit_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/observability"
	"github.com/xkilldash9x/pagecomp/internal/runner"
)

// DefaultSuiteName names the JUnit root element when none is configured.
const DefaultSuiteName = "pagecomp"

// JUnitReporter implements the Reporter interface for JUnit XML. Results are
// buffered and the document is written on Close, one testsuite per page and
// one testcase per check. It is thread safe.
type JUnitReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	name   string

	mu     sync.Mutex
	order  []string
	suites map[string][]runner.CheckResult
}

// NewJUnitReporter creates a reporter that writes JUnit XML.
func NewJUnitReporter(writer io.WriteCloser, suiteName string) *JUnitReporter {
	if suiteName == "" {
		suiteName = DefaultSuiteName
	}
	return &JUnitReporter{
		writer: writer,
		logger: observability.GetLogger().Named("junit_reporter"),
		name:   suiteName,
		suites: make(map[string][]runner.CheckResult),
	}
}

// Write buffers a result under its page.
func (r *JUnitReporter) Write(res runner.CheckResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suites[res.Page]; !ok {
		r.order = append(r.order, res.Page)
	}
	r.suites[res.Page] = append(r.suites[res.Page], res)
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Document builds the XML document for the results written so far.
func (r *JUnitReporter) Document() *etree.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", r.name)

	var tests, failures, errs int
	var total time.Duration
	for _, page := range r.order {
		results := r.suites[page]
		suite := root.CreateElement("testsuite")
		suite.CreateAttr("name", page)

		var sFailures, sErrors int
		var sTime time.Duration
		for _, res := range results {
			tc := suite.CreateElement("testcase")
			tc.CreateAttr("name", caseName(res))
			tc.CreateAttr("classname", page)
			tc.CreateAttr("time", seconds(res.Duration))
			sTime += res.Duration

			switch {
			case res.Err != nil:
				sErrors++
				e := tc.CreateElement("error")
				e.CreateAttr("message", res.Err.Error())
				e.CreateAttr("type", fmt.Sprintf("%T", res.Err))
				e.SetText(res.Err.Error())
			case !res.Passed:
				sFailures++
				f := tc.CreateElement("failure")
				if len(res.Report) > 0 {
					f.CreateAttr("message", res.Report[0])
				}
				f.CreateAttr("type", "state")
				f.SetText(strings.Join(res.Report, "\n"))
			}
		}
		suite.CreateAttr("tests", strconv.Itoa(len(results)))
		suite.CreateAttr("failures", strconv.Itoa(sFailures))
		suite.CreateAttr("errors", strconv.Itoa(sErrors))
		suite.CreateAttr("time", seconds(sTime))

		tests += len(results)
		failures += sFailures
		errs += sErrors
		total += sTime
	}
	root.CreateAttr("tests", strconv.Itoa(tests))
	root.CreateAttr("failures", strconv.Itoa(failures))
	root.CreateAttr("errors", strconv.Itoa(errs))
	root.CreateAttr("time", seconds(total))

	doc.Indent(2)
	return doc
}

func caseName(res runner.CheckResult) string {
	if res.Path == "" {
		return "(page)"
	}
	return res.Path
}

// Close writes the document and closes the writer.
func (r *JUnitReporter) Close() error {
	doc := r.Document()

	_, writeErr := doc.WriteTo(r.writer)
	// Always attempt to close the writer, regardless of write success.
	closeErr := r.writer.Close()

	if writeErr != nil {
		r.logger.Error("Failed to write JUnit report", zap.Error(writeErr))
		return fmt.Errorf("failed to write JUnit output: %w", writeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Info("Successfully wrote JUnit report", zap.Int("suites", len(r.order)))
	return nil
}
