// Package index writes the flat index text format.
//
// Every record becomes one block of lines:
//
//	GROUP_FIELD_NAME:<name>     one pair per mapped column,
//	GROUP_FIELD_VALUE:<value>   in ascending column order
//	GROUP_OFFSET:<offset>
//	GROUP_LENGTH:<length>
//	GROUP_FILENAME:<path>
//
// Blocks are concatenated with no separator, header or footer. Values are
// written verbatim: a value containing a newline or one of the prefixes
// above produces output that cannot be read back unambiguously.
package index

import (
	"bufio"
	"io"
	"strconv"

	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/record"
)

// Line prefixes of the index format.
const (
	FieldNamePrefix  = "GROUP_FIELD_NAME:"
	FieldValuePrefix = "GROUP_FIELD_VALUE:"
	OffsetPrefix     = "GROUP_OFFSET:"
	LengthPrefix     = "GROUP_LENGTH:"
	FilenamePrefix   = "GROUP_FILENAME:"
)

const defaultBufferSize = 64 * 1024

// Writer serializes entries to an underlying io.Writer through a buffer.
// Call Flush when done, including after a failed run, so that every entry
// written so far reaches the destination.
type Writer struct {
	bw      *bufio.Writer
	num     []byte
	entries int64
	bytes   int64
	err     error
}

// NewWriter returns a Writer buffering output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		bw:  bufio.NewWriterSize(w, defaultBufferSize),
		num: make([]byte, 0, 20),
	}
}

// Write appends one entry block. Once a write has failed every later call
// returns the same error.
func (w *Writer) Write(e record.Entry) error {
	if w.err != nil {
		return w.err
	}

	for _, f := range e.Fields {
		w.line(FieldNamePrefix, f.Name)
		w.line(FieldValuePrefix, f.Value)
	}
	w.intLine(OffsetPrefix, e.Location.Offset)
	w.intLine(LengthPrefix, e.Location.Length)
	w.line(FilenamePrefix, e.Path)

	if w.err != nil {
		w.err = errors.Wrap(w.err, errors.ErrorTypeIO, "failed to write index entry").
			WithDetail("entry", w.entries+1).
			WithDetail("offset", e.Location.Offset)
		return w.err
	}
	w.entries++
	return nil
}

func (w *Writer) line(prefix, value string) {
	if w.err != nil {
		return
	}
	n, err := w.bw.WriteString(prefix)
	w.bytes += int64(n)
	if err == nil {
		n, err = w.bw.WriteString(value)
		w.bytes += int64(n)
	}
	if err == nil {
		err = w.bw.WriteByte('\n')
		if err == nil {
			w.bytes++
		}
	}
	w.err = err
}

func (w *Writer) intLine(prefix string, v int64) {
	w.num = strconv.AppendInt(w.num[:0], v, 10)
	w.line(prefix, string(w.num))
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		if w.err != nil {
			return w.err
		}
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to flush index output")
	}
	return nil
}

// Entries returns the number of entries written successfully.
func (w *Writer) Entries() int64 {
	return w.entries
}

// Bytes returns the number of bytes accepted into the buffer.
func (w *Writer) Bytes() int64 {
	return w.bytes
}
