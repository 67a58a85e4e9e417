// Package scanner reads delimited data files line by line and tracks where
// every record sits in the file.
//
// The first line is the header. It is skipped without being looked at, and
// the byte right after it is offset zero for all records. Lines end in LF,
// CRLF or a lone CR; terminators never count towards a record's length.
// Blank lines produce no record but their bytes still move the position, so
// offsets always reflect real byte positions.
//
//	sc := scanner.New(f)
//	for sc.Next() {
//	    line := sc.Line()
//	    // line.Text, line.Location.Offset, line.Location.Length
//	}
//	if err := sc.Err(); err != nil {
//	    return err
//	}
package scanner

import (
	"bufio"
	"bytes"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/record"
)

// State is the lifecycle state of a Scanner. Transitions only move forward:
// AwaitHeader -> Streaming -> Done, or any non-terminal state -> Aborted.
type State int

const (
	// StateAwaitHeader is the state before the header line is consumed.
	StateAwaitHeader State = iota
	// StateStreaming is the state while data lines are being read.
	StateStreaming
	// StateDone is reached when the input is exhausted.
	StateDone
	// StateAborted is reached on the first read error or on Abort.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAwaitHeader:
		return "await_header"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further lines will be produced.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// DefaultMaxLineSize is the longest line accepted unless WithMaxLineSize says
// otherwise.
const DefaultMaxLineSize = 64 * 1024 * 1024

const initialBufferSize = 64 * 1024

// Line is one non-blank data line.
type Line struct {
	// Text is the line content without its terminator.
	Text string
	// Location is the line position relative to the end of the header.
	Location record.Location
	// Terminator is the number of terminator bytes that followed the line (0, 1 or 2).
	Terminator int
}

// Stats counts what the scanner has consumed so far.
type Stats struct {
	// Lines is the number of data lines read, blank ones included.
	Lines int64
	// Records is the number of non-blank data lines returned by Next.
	Records int64
	// BlankLines is the number of data lines skipped for being empty.
	BlankLines int64
	// Bytes is the number of input bytes consumed, header included.
	Bytes int64
}

// Option configures a Scanner.
type Option func(*options)

type options struct {
	maxLineSize int
	logger      *zap.Logger
}

// WithMaxLineSize bounds the length of a single line including its
// terminator. A longer line aborts the scan with an io error.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineSize = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Scanner is a single forward pass over an input stream. It holds one line
// at a time.
type Scanner struct {
	sc     *bufio.Scanner
	opts   options
	logger *zap.Logger

	state     State
	pos       int64
	dataStart int64
	line      Line
	err       error
	stats     Stats
}

// New returns a Scanner reading from r.
func New(r io.Reader, opts ...Option) *Scanner {
	o := options{
		maxLineSize: DefaultMaxLineSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sc := bufio.NewScanner(r)
	initial := initialBufferSize
	if o.maxLineSize < initial {
		initial = o.maxLineSize
	}
	sc.Buffer(make([]byte, 0, initial), o.maxLineSize)
	sc.Split(ScanLines)

	return &Scanner{
		sc:     sc,
		opts:   o,
		logger: o.logger,
		state:  StateAwaitHeader,
	}
}

// Next advances to the next non-blank data line, consuming the header first
// if needed. It returns false once the input is exhausted or the scan was
// aborted; Err tells the two apart.
func (s *Scanner) Next() bool {
	if s.state.Terminal() {
		return false
	}

	if s.state == StateAwaitHeader {
		if !s.sc.Scan() {
			s.finish()
			return false
		}
		s.pos += int64(len(s.sc.Bytes()))
		s.dataStart = s.pos
		s.stats.Bytes = s.pos
		s.state = StateStreaming
		s.logger.Debug("header skipped", zap.Int64("data_start", s.dataStart))
	}

	for s.sc.Scan() {
		tok := s.sc.Bytes()
		lineStart := s.pos
		s.pos += int64(len(tok))
		s.stats.Bytes = s.pos
		s.stats.Lines++

		term := terminatorLen(tok)
		content := tok[:len(tok)-term]
		if len(content) == 0 {
			s.stats.BlankLines++
			continue
		}

		s.stats.Records++
		s.line = Line{
			Text: string(content),
			Location: record.Location{
				Offset: lineStart - s.dataStart,
				Length: int64(len(content)),
			},
			Terminator: term,
		}
		return true
	}

	s.finish()
	return false
}

func (s *Scanner) finish() {
	s.line = Line{}
	if err := s.sc.Err(); err != nil {
		msg := "failed to read input"
		if err == bufio.ErrTooLong {
			msg = "input line exceeds maximum line size"
		}
		s.err = errors.Wrap(err, errors.ErrorTypeIO, msg).
			WithDetail("position", s.pos).
			WithDetail("max_line_size", s.opts.maxLineSize)
		s.state = StateAborted
		return
	}
	s.state = StateDone
	s.logger.Debug("input exhausted",
		zap.Int64("bytes", s.stats.Bytes),
		zap.Int64("records", s.stats.Records),
		zap.Int64("blank_lines", s.stats.BlankLines))
}

// Abort moves the scanner to StateAborted, for failures detected by the
// caller on the current line. The first error sticks.
func (s *Scanner) Abort(err error) {
	if s.state.Terminal() {
		return
	}
	s.state = StateAborted
	s.err = err
	s.line = Line{}
}

// Line returns the current line. It is only valid after Next returned true.
func (s *Scanner) Line() Line {
	return s.line
}

// Err returns the error that aborted the scan, or nil.
func (s *Scanner) Err() error {
	return s.err
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	return s.state
}

// DataStart returns the absolute byte position of the first byte after the
// header. It is zero until the header has been read.
func (s *Scanner) DataStart() int64 {
	return s.dataStart
}

// Position returns the absolute number of bytes consumed.
func (s *Scanner) Position() int64 {
	return s.pos
}

// Stats returns the counters accumulated so far.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// ScanLines is a bufio.SplitFunc returning lines terminated by LF, CRLF or CR
// with the terminator kept, so callers can account for every byte. The final
// line may have no terminator.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i+1], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i+2], nil
			}
			return i + 1, data[:i+1], nil
		}
		if atEOF {
			return i + 1, data[:i+1], nil
		}
		// A CR at the end of the buffer may be the first half of a CRLF.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// terminatorLen returns how many trailing bytes of tok are line terminator.
func terminatorLen(tok []byte) int {
	n := len(tok)
	switch {
	case n >= 2 && tok[n-2] == '\r' && tok[n-1] == '\n':
		return 2
	case n >= 1 && (tok[n-1] == '\n' || tok[n-1] == '\r'):
		return 1
	default:
		return 0
	}
}
