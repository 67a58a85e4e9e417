package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flatindex/pkg/metrics"
	"github.com/ajitpratap0/flatindex/pkg/scanner"
)

// Options control a run. The zero value is usable.
type Options struct {
	// MaxLineSize bounds a single input line. Zero means
	// scanner.DefaultMaxLineSize.
	MaxLineSize int
	// Logger receives progress and summary logs. Nil disables logging.
	Logger *zap.Logger
	// Metrics, when set, is updated as records are indexed.
	Metrics *metrics.Collector
	// Parser replaces the delimiter-based parser of the profile.
	Parser LineParser
}

// Summary describes a finished or aborted run.
type Summary struct {
	// Input is the input path written into every entry.
	Input string
	// Profile is the index of the selected profile in the configuration.
	Profile int
	// Records is the number of entries written.
	Records int64
	// BlankLines is the number of blank data lines skipped.
	BlankLines int64
	// BytesScanned is the number of input bytes consumed, header included.
	BytesScanned int64
	// BytesWritten is the number of index bytes produced.
	BytesWritten int64
	// Duration is the wall time of the run.
	Duration time.Duration
	// State is the final scanner state.
	State scanner.State
}

// Fields returns the summary as log fields.
func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.String("input", s.Input),
		zap.Int("profile", s.Profile),
		zap.Int64("records", s.Records),
		zap.Int64("blank_lines", s.BlankLines),
		zap.Int64("bytes_scanned", s.BytesScanned),
		zap.Int64("bytes_written", s.BytesWritten),
		zap.Duration("duration", s.Duration),
		zap.Stringer("state", s.State),
	}
}
