package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/flatindex/pkg/config"
	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/index"
	"github.com/ajitpratap0/flatindex/pkg/metrics"
	"github.com/ajitpratap0/flatindex/pkg/profile"
	"github.com/ajitpratap0/flatindex/pkg/record"
	"github.com/ajitpratap0/flatindex/pkg/scanner"
	"github.com/ajitpratap0/flatindex/pkg/testutil"
)

func mustProfile(t *testing.T, delimiter string, fieldMap map[int]string) *profile.Profile {
	t.Helper()
	p, err := profile.Compile(config.Profile{Match: ".*", Delimiter: delimiter, FieldMap: fieldMap}, 0)
	require.NoError(t, err)
	return p
}

func mustIndexer(t *testing.T, p *profile.Profile, opts Options) *Indexer {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutil.TestLogger(t)
	}
	ix, err := NewIndexer(p, opts)
	require.NoError(t, err)
	return ix
}

func TestIndexer_WorkedExample(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{2: "F2", 1: "F1"}), Options{})

	var out bytes.Buffer
	summary, err := ix.Run(ctx, strings.NewReader("h1;h2;h3\na;b;c\nd;e;f\n"), &out, "in/data.csv")
	require.NoError(t, err)

	want := "GROUP_FIELD_NAME:F1\n" +
		"GROUP_FIELD_VALUE:a\n" +
		"GROUP_FIELD_NAME:F2\n" +
		"GROUP_FIELD_VALUE:b\n" +
		"GROUP_OFFSET:0\n" +
		"GROUP_LENGTH:5\n" +
		"GROUP_FILENAME:in/data.csv\n" +
		"GROUP_FIELD_NAME:F1\n" +
		"GROUP_FIELD_VALUE:d\n" +
		"GROUP_FIELD_NAME:F2\n" +
		"GROUP_FIELD_VALUE:e\n" +
		"GROUP_OFFSET:6\n" +
		"GROUP_LENGTH:5\n" +
		"GROUP_FILENAME:in/data.csv\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, int64(2), summary.Records)
	assert.Equal(t, int64(21), summary.BytesScanned)
	assert.Equal(t, int64(len(want)), summary.BytesWritten)
	assert.Equal(t, scanner.StateDone, summary.State)
}

func TestIndexer_OutputInvariants(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sparse map in ascending order with missing column",
			input: "header\nx,y,z\nshort\n",
			want: "GROUP_FIELD_NAME:F1\nGROUP_FIELD_VALUE:x\nGROUP_FIELD_NAME:F3\nGROUP_FIELD_VALUE:z\n" +
				"GROUP_OFFSET:0\nGROUP_LENGTH:5\nGROUP_FILENAME:f\n" +
				"GROUP_FIELD_NAME:F1\nGROUP_FIELD_VALUE:short\nGROUP_FIELD_NAME:F3\nGROUP_FIELD_VALUE:\n" +
				"GROUP_OFFSET:6\nGROUP_LENGTH:5\nGROUP_FILENAME:f\n",
		},
		{
			name:  "blank lines and crlf",
			input: "header\r\n\r\n\r\n1,2,3\r\n",
			want: "GROUP_FIELD_NAME:F1\nGROUP_FIELD_VALUE:1\nGROUP_FIELD_NAME:F3\nGROUP_FIELD_VALUE:3\n" +
				"GROUP_OFFSET:4\nGROUP_LENGTH:5\nGROUP_FILENAME:f\n",
		},
		{
			name:  "quoted delimiter and doubled quotes",
			input: "h\n\"a,b\",x,\"say \"\"hi\"\"\"\n",
			want: "GROUP_FIELD_NAME:F1\nGROUP_FIELD_VALUE:a,b\nGROUP_FIELD_NAME:F3\nGROUP_FIELD_VALUE:say \"hi\"\n" +
				"GROUP_OFFSET:0\nGROUP_LENGTH:20\nGROUP_FILENAME:f\n",
		},
		{
			name:  "header only",
			input: "a,b,c\n",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := mustIndexer(t, mustProfile(t, ",", map[int]string{3: "F3", 1: "F1"}), Options{})
			var out bytes.Buffer
			_, err := ix.Run(ctx, strings.NewReader(tt.input), &out, "f")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestIndexer_HeaderNeverAffectsOutput(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{})
	body := "1;2\n\n3;4\r\n"

	var ref bytes.Buffer
	_, err := ix.Run(ctx, strings.NewReader("x\n"+body), &ref, "f")
	require.NoError(t, err)

	for _, header := range []string{"y\n", "\"unterminated;header\n", "\n", "a;b;c;d;e;f\r\n"} {
		var out bytes.Buffer
		_, err := ix.Run(ctx, strings.NewReader(header+body), &out, "f")
		require.NoError(t, err)
		assert.Equal(t, ref.String(), out.String(), "header %q", header)
	}
}

func TestIndexer_GeneratedLocations(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	df := testutil.GenerateData(t, '|', 50, 7)
	ix := mustIndexer(t, mustProfile(t, "|", map[int]string{1: "ID"}), Options{})

	var out bytes.Buffer
	summary, err := ix.Run(ctx, strings.NewReader(df.Content), &out, "gen")
	require.NoError(t, err)
	require.Equal(t, int64(len(df.Offsets)), summary.Records)
	require.Equal(t, int64(7), df.BlankLines)
	assert.Equal(t, df.BlankLines, summary.BlankLines)

	var offsets, lengths []string
	for _, l := range strings.Split(out.String(), "\n") {
		switch {
		case strings.HasPrefix(l, index.OffsetPrefix):
			offsets = append(offsets, strings.TrimPrefix(l, index.OffsetPrefix))
		case strings.HasPrefix(l, index.LengthPrefix):
			lengths = append(lengths, strings.TrimPrefix(l, index.LengthPrefix))
		}
	}
	require.Len(t, offsets, len(df.Offsets))
	dataStart := strings.Index(df.Content, "\n") + 1
	for i := range df.Offsets {
		offset, err := strconv.ParseInt(offsets[i], 10, 64)
		require.NoError(t, err)
		length, err := strconv.ParseInt(lengths[i], 10, 64)
		require.NoError(t, err)
		assert.Equal(t, df.Offsets[i], offset, "offset of record %d", i)
		assert.Equal(t, df.Lengths[i], length, "length of record %d", i)

		start := int64(dataStart) + offset
		raw := df.Content[start : start+length]
		assert.True(t, strings.HasPrefix(raw, fmt.Sprintf("%d|name_%d|", i, i)), "record %d: %q", i, raw)
	}
}

func TestIndexer_AbortFlushesWrittenEntries(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{MaxLineSize: 32})
	input := "h\none\ntwo\n" + strings.Repeat("x", 100) + "\nfour\n"

	var out bytes.Buffer
	summary, err := ix.Run(ctx, strings.NewReader(input), &out, "f")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))

	assert.Equal(t, int64(2), summary.Records)
	assert.Equal(t, scanner.StateAborted, summary.State)
	assert.Contains(t, out.String(), "GROUP_FIELD_VALUE:one\n")
	assert.Contains(t, out.String(), "GROUP_FIELD_VALUE:two\n")
	assert.NotContains(t, out.String(), "four")
}

func TestIndexer_Canceled(t *testing.T) {
	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{})
	base, stop := testutil.TestContext(t)
	defer stop()
	ctx, cancel := context.WithCancel(base)
	cancel()

	var out bytes.Buffer
	summary, err := ix.Run(ctx, strings.NewReader("h\na\nb\n"), &out, "f")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCanceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Records)
	assert.Empty(t, out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestIndexer_WriteError(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{})

	summary, err := ix.Run(ctx, strings.NewReader("h\na\n"), failingWriter{}, "f")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, scanner.StateDone, summary.State, "the input was fully read before the flush failed")
}

func TestIndexer_Metrics(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	m := metrics.NewCollector("f")
	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{Metrics: m})

	var out bytes.Buffer
	_, err := ix.Run(ctx, strings.NewReader("h\na\n\nb\n"), &out, "f")
	require.NoError(t, err)

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.RecordsIndexed)
	assert.Equal(t, int64(1), snap.BlankLinesSkipped)
	assert.Equal(t, int64(7), snap.BytesScanned)
	assert.Equal(t, int64(out.Len()), snap.IndexBytesWritten)
	assert.Equal(t, uint64(1), snap.Runs)
}

func TestNewIndexer_NilProfile(t *testing.T) {
	_, err := NewIndexer(nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

// failOnOffset fails the parse of the line starting at offset and delegates
// every other line.
type failOnOffset struct {
	next   LineParser
	offset int64
	calls  int
}

func (f *failOnOffset) Parse(line string, offset int64) (record.ParsedLine, error) {
	f.calls++
	if offset == f.offset {
		return nil, errors.New(errors.ErrorTypeParse, "malformed record").
			WithDetail("offset", offset).
			WithDetail("line", line)
	}
	return f.next.Parse(line, offset)
}

func TestIndexer_ParseErrorStopsBeforeFailingRecord(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rp, err := record.NewParser(';')
	require.NoError(t, err)
	// Records start at offsets 0, 4 and 8; the second one fails.
	parser := &failOnOffset{next: rp, offset: 4}
	ix := mustIndexer(t, mustProfile(t, ";", map[int]string{1: "A"}), Options{Parser: parser})

	var out bytes.Buffer
	summary, err := ix.Run(ctx, strings.NewReader("h\nr;1\nr;2\nr;3\n"), &out, "f")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.Contains(t, err.Error(), `line="r;2"`)
	assert.Contains(t, err.Error(), "offset=4")

	assert.Equal(t, "GROUP_FIELD_NAME:A\nGROUP_FIELD_VALUE:r\nGROUP_OFFSET:0\nGROUP_LENGTH:3\nGROUP_FILENAME:f\n", out.String())
	assert.Equal(t, int64(1), summary.Records)
	assert.Equal(t, scanner.StateAborted, summary.State)
	assert.Equal(t, 2, parser.calls, "no line after the failing one is parsed")
}
