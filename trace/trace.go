// Package trace defines the branch trace consumed by the frontend.
//
// A trace is a text file with one branch per line:
//
//	<tid> <pc> <inst> <taken> <target>
//
// tid is decimal, pc, inst and target are hexadecimal (an optional 0x
// prefix is accepted), and taken is 0 or 1. Blank lines and lines starting
// with # are ignored.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("malformed trace record")

// Record is one resolved branch in program order.
type Record struct {
	TID    int
	PC     uint64
	Inst   uint32
	Taken  bool
	Target uint64
}

// String formats the record as a trace line.
func (r Record) String() string {
	taken := 0
	if r.Taken {
		taken = 1
	}
	return fmt.Sprintf("%d %#x %#08x %d %#x", r.TID, r.PC, r.Inst, taken, r.Target)
}

// Source produces records. Next returns io.EOF after the last record.
type Source interface {
	Next() (Record, error)
}

// Reader parses a text trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read trace: %w", err)
	}
	return Record{}, io.EOF
}

// ParseRecord parses a single trace line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Record{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformed, len(fields))
	}

	tid, err := strconv.Atoi(fields[0])
	if err != nil || tid < 0 {
		return Record{}, fmt.Errorf("%w: bad tid %q", ErrMalformed, fields[0])
	}

	pc, err := parseHex(fields[1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad pc %q", ErrMalformed, fields[1])
	}

	inst, err := parseHex(fields[2], 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad inst %q", ErrMalformed, fields[2])
	}

	var taken bool
	switch fields[3] {
	case "0":
		taken = false
	case "1":
		taken = true
	default:
		return Record{}, fmt.Errorf("%w: bad taken flag %q", ErrMalformed, fields[3])
	}

	target, err := parseHex(fields[4], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad target %q", ErrMalformed, fields[4])
	}

	return Record{
		TID:    tid,
		PC:     pc,
		Inst:   uint32(inst),
		Taken:  taken,
		Target: target,
	}, nil
}

func parseHex(s string, bits int) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, bits)
}

// Writer writes a text trace.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if _, err := fmt.Fprintln(w.w, rec.String()); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

// WriteAll drains src into the trace.
func (w *Writer) WriteAll(src Source) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return w.Flush()
		}
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
