package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// FileTestSuite provides a temp directory and a bounded context for tests
// that run the indexer against real files.
type FileTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *FileTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "flatindex-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// TearDownSuite runs after all tests in the suite
func (s *FileTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}

	s.T().Logf("file suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *FileTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the suite temp directory
func (s *FileTestSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile writes content under the suite temp directory.
func (s *FileTestSuite) CreateTempFile(name, content string) string {
	return WriteFile(s.T(), s.tempDir, name, content)
}

// DataFile describes a generated delimited file.
type DataFile struct {
	// Content is the full file content, header included.
	Content string
	// Offsets holds the expected offset of every non-blank record.
	Offsets []int64
	// Lengths holds the expected length of every non-blank record.
	Lengths []int64
	// BlankLines is the number of blank lines in the data section.
	BlankLines int64
}

// GenerateData builds a delimited file with records rows of three columns.
// Terminators rotate through LF, CRLF and CR and every blankEvery-th row is
// preceded by a blank line (0 disables blanks). A blank line repeats the
// terminator of the row before it, so a lone CR is never merged with a
// following LF. The expected locations are computed alongside so tests can
// check the scanner against them.
func GenerateData(t testing.TB, delim rune, records, blankEvery int) DataFile {
	t.Helper()

	terminators := []string{"\n", "\r\n", "\r"}
	sep := string(delim)

	var b strings.Builder
	b.WriteString(strings.Join([]string{"id", "name", "value"}, sep) + "\n")
	dataStart := int64(b.Len())

	var df DataFile
	prevTerm := "\n"
	for i := 0; i < records; i++ {
		if blankEvery > 0 && i > 0 && i%blankEvery == 0 {
			b.WriteString(prevTerm)
			df.BlankLines++
		}
		line := strings.Join([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("name_%d", i),
			fmt.Sprintf("%.2f", float64(i)*1.25),
		}, sep)
		df.Offsets = append(df.Offsets, int64(b.Len())-dataStart)
		df.Lengths = append(df.Lengths, int64(len(line)))
		b.WriteString(line)

		term := terminators[i%len(terminators)]
		b.WriteString(term)
		prevTerm = term
	}
	df.Content = b.String()
	return df
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
