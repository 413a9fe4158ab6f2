package trace

import (
	"errors"
	"io"
)

// SliceSource replays a fixed slice of records.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a source over records.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements Source.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

type interleaved struct {
	sources []Source
	done    []bool
	next    int
	left    int
}

// Interleave merges sources round-robin, one record at a time, stamping
// each record with the index of its source as TID. Exhausted sources are
// skipped.
func Interleave(sources ...Source) Source {
	return &interleaved{
		sources: sources,
		done:    make([]bool, len(sources)),
		left:    len(sources),
	}
}

func (s *interleaved) Next() (Record, error) {
	for s.left > 0 {
		tid := s.next
		s.next = (s.next + 1) % len(s.sources)

		if s.done[tid] {
			continue
		}

		rec, err := s.sources[tid].Next()
		if errors.Is(err, io.EOF) {
			s.done[tid] = true
			s.left--
			continue
		}
		if err != nil {
			return Record{}, err
		}

		rec.TID = tid
		return rec, nil
	}
	return Record{}, io.EOF
}

type limited struct {
	src  Source
	left int
}

// Limit stops src after n records.
func Limit(src Source, n int) Source {
	return &limited{src: src, left: n}
}

func (s *limited) Next() (Record, error) {
	if s.left <= 0 {
		return Record{}, io.EOF
	}
	s.left--
	return s.src.Next()
}

// Collect drains src into a slice.
func Collect(src Source) ([]Record, error) {
	var records []Record
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
