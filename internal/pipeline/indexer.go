// Package pipeline runs an indexing pass: it drives the scanner over one
// input, hands every data line to the parser and the mapper, and writes the
// resulting entry before the next line is read.
//
// # Basic Usage
//
//	p, err := profile.SelectForPath(cfg, inputPath)
//	if err != nil {
//	    return err
//	}
//	ix, err := pipeline.NewIndexer(p, pipeline.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	summary, err := ix.Run(ctx, in, out, inputPath)
//
// RunFiles does the same for file paths and takes care of opening and
// closing both files.
//
// A run stops at the first error of any kind. Entries written before the
// failure are flushed to the output; the failing record is not written.
package pipeline

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/index"
	"github.com/ajitpratap0/flatindex/pkg/logger"
	"github.com/ajitpratap0/flatindex/pkg/metrics"
	"github.com/ajitpratap0/flatindex/pkg/profile"
	"github.com/ajitpratap0/flatindex/pkg/record"
	"github.com/ajitpratap0/flatindex/pkg/scanner"
)

// LineParser splits one data line into fields. *record.Parser is the
// implementation used unless Options.Parser replaces it.
type LineParser interface {
	Parse(line string, offset int64) (record.ParsedLine, error)
}

// Indexer indexes inputs with one fixed profile. It keeps no state between
// runs, but a single Indexer must not run concurrently with itself.
type Indexer struct {
	profile *profile.Profile
	parser  LineParser
	mapper  *record.Mapper
	opts    Options
	logger  *zap.Logger
}

// NewIndexer prepares an indexer for p.
func NewIndexer(p *profile.Profile, opts Options) (*Indexer, error) {
	if p == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "no profile selected")
	}
	parser := opts.Parser
	if parser == nil {
		rp, err := record.NewParser(p.Delimiter)
		if err != nil {
			return nil, err
		}
		parser = rp
	}
	return &Indexer{
		profile: p,
		parser:  parser,
		mapper:  record.NewMapper(p.Columns),
		opts:    opts,
		logger:  logger.OrNop(opts.Logger),
	}, nil
}

// Run indexes in and writes the entries to out. path is written verbatim as
// the filename of every entry. ctx is checked between records.
//
// The output is flushed before Run returns, also on failure. The returned
// Summary is valid in both cases.
func (ix *Indexer) Run(ctx context.Context, in io.Reader, out io.Writer, path string) (Summary, error) {
	log := logger.FromContext(ctx, ix.logger)
	timer := metrics.NewTimer()

	sc := scanner.New(in,
		scanner.WithMaxLineSize(ix.opts.MaxLineSize),
		scanner.WithLogger(log))
	w := index.NewWriter(out)

	log.Debug("indexing started",
		zap.String("pattern", ix.profile.Pattern),
		zap.String("delimiter", string(ix.profile.Delimiter)),
		zap.Int("columns", len(ix.profile.Columns)))

	err := ix.loop(ctx, sc, w, path)
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}

	stats := sc.Stats()
	summary := Summary{
		Input:        path,
		Profile:      ix.profile.Index,
		Records:      w.Entries(),
		BlankLines:   stats.BlankLines,
		BytesScanned: stats.Bytes,
		BytesWritten: w.Bytes(),
		Duration:     timer.Stop(),
		State:        sc.State(),
	}
	ix.record(summary)

	if err != nil {
		log.Debug("indexing aborted", append(summary.Fields(), zap.Error(err))...)
		return summary, err
	}
	log.Debug("indexing finished", summary.Fields()...)
	return summary, nil
}

func (ix *Indexer) loop(ctx context.Context, sc *scanner.Scanner, w *index.Writer, path string) error {
	fields := make([]record.Field, 0, len(ix.profile.Columns))

	for sc.Next() {
		if err := ctx.Err(); err != nil {
			err = errors.Wrap(err, errors.ErrorTypeCanceled, "indexing interrupted").
				WithDetail("records", w.Entries())
			sc.Abort(err)
			return err
		}

		line := sc.Line()
		parsed, err := ix.parser.Parse(line.Text, line.Location.Offset)
		if err != nil {
			sc.Abort(err)
			return err
		}

		fields = ix.mapper.AppendFields(fields[:0], parsed)
		if err := w.Write(record.Entry{
			Fields:   fields,
			Location: line.Location,
			Path:     path,
		}); err != nil {
			sc.Abort(err)
			return err
		}
		if ix.opts.Metrics != nil {
			ix.opts.Metrics.RecordIndexed()
		}
	}
	return sc.Err()
}

func (ix *Indexer) record(s Summary) {
	m := ix.opts.Metrics
	if m == nil {
		return
	}
	m.RecordBlankLines(s.BlankLines)
	m.RecordBytesScanned(s.BytesScanned)
	m.RecordBytesWritten(s.BytesWritten)
	m.ObserveRun(s.Duration)
}
