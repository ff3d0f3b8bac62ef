package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Header is the first line of every report file.
var Header = []string{"title", "url", "created_date", "modified_date", "counts"}

// FileName is the report file for one space.
func FileName(space string) string {
	return fmt.Sprintf("%s-output.csv", space)
}

// CSVSink streams rows of one space into a CSV file.  Each row is flushed as soon as it is
// appended, so an interrupted run leaves everything found so far on disk.
//
// A CSVSink is not safe for concurrent use, and only one sink should own a given file.
type CSVSink struct {
	Path string

	f *os.File
	w *csv.Writer
}

// CreateCSV truncates or creates path and writes the header.
func CreateCSV(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("report: couldn't create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: couldn't create file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	// Spreadsheet-style line endings, like the reports we've always produced.
	w.UseCRLF = true

	sink := &CSVSink{Path: path, f: f, w: w}
	if err := sink.write(Header); err != nil {
		f.Close()
		return nil, err
	}

	return sink, nil
}

// Append writes one row and flushes it to the file.
func (s *CSVSink) Append(row Row) error {
	return s.write([]string{
		row.Title,
		row.URL,
		row.Created,
		row.Modified,
		row.Counts.String(),
	})
}

func (s *CSVSink) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("report: couldn't write to %s: %w", s.Path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("report: couldn't flush %s: %w", s.Path, err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return fmt.Errorf("report: couldn't flush %s: %w", s.Path, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("report: couldn't close %s: %w", s.Path, err)
	}
	return nil
}
