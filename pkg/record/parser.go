package record

import (
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/flatindex/pkg/errors"
)

// Quote is the quote character. Inside a quoted field it is escaped by
// doubling it.
const Quote = '"'

// Parser splits single lines into fields. Quoted fields may contain the
// delimiter, and stray or unbalanced quotes are accepted as data rather than
// rejected.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	delim rune
	src   strings.Reader
}

// NewParser returns a parser for the given delimiter.
func NewParser(delim rune) (*Parser, error) {
	if delim == Quote || delim == '\r' || delim == '\n' || delim == 0 ||
		delim == 0xFEFF || !utf8.ValidRune(delim) || delim == utf8.RuneError {
		return nil, errors.New(errors.ErrorTypeConfig, "invalid field delimiter").
			WithDetail("delimiter", string(delim))
	}
	return &Parser{delim: delim}, nil
}

// Parse splits line, which must not contain its terminator. offset is only
// used to locate the line in a returned error.
func (p *Parser) Parse(line string, offset int64) (ParsedLine, error) {
	p.src.Reset(line)

	r := csv.NewReader(&p.src)
	r.Comma = p.delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err == io.EOF {
		return nil, parseError(offset, line, nil, "line has no fields")
	}
	if err != nil {
		return nil, parseError(offset, line, err, "malformed record")
	}
	return fields, nil
}

func parseError(offset int64, line string, cause error, msg string) error {
	var e *errors.Error
	if cause != nil {
		e = errors.Wrap(cause, errors.ErrorTypeParse, msg)
	} else {
		e = errors.New(errors.ErrorTypeParse, msg)
	}
	return e.WithDetail("offset", offset).WithDetail("line", line)
}
