package report

import (
	"io"

	"github.com/nao1215/linkfinder/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the full report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.TestReport) (int, error)

	// WriteSummary outputs only the counts.
	WriteSummary(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(report *model.TestReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SummaryWriter reduces every report to its Summary before passing it on.
type SummaryWriter struct {
	w Writer
}

// NewSummaryWriter creates a Writer whose Write outputs only the counts of
// each report through w.
func NewSummaryWriter(w Writer) *SummaryWriter {
	return &SummaryWriter{w: w}
}

// Write outputs the summary of report.
func (s *SummaryWriter) Write(report *model.TestReport) (int, error) {
	return s.w.WriteSummary(NewSummary(report))
}

// WriteSummary outputs summary.
func (s *SummaryWriter) WriteSummary(summary *Summary) (int, error) {
	return s.w.WriteSummary(summary)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
