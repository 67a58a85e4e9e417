package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/flatindex/pkg/errors"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		delim rune
		line  string
		want  ParsedLine
	}{
		{name: "plain", delim: ';', line: "a;b;c", want: ParsedLine{"a", "b", "c"}},
		{name: "single field", delim: ';', line: "abc", want: ParsedLine{"abc"}},
		{name: "comma delimiter", delim: ',', line: "a;b,c", want: ParsedLine{"a;b", "c"}},
		{name: "tab delimiter", delim: '\t', line: "a\tb", want: ParsedLine{"a", "b"}},
		{name: "multibyte delimiter", delim: '§', line: "a§b§c", want: ParsedLine{"a", "b", "c"}},
		{name: "quoted delimiter", delim: ';', line: `"a;b";c`, want: ParsedLine{"a;b", "c"}},
		{name: "doubled quote escape", delim: ';', line: `"say ""hi""";x`, want: ParsedLine{`say "hi"`, "x"}},
		{name: "empty quoted field", delim: ';', line: `"";x`, want: ParsedLine{"", "x"}},
		{name: "whitespace kept", delim: ';', line: " a ; b ", want: ParsedLine{" a ", " b "}},
		{name: "empty middle field", delim: ';', line: "a;;c", want: ParsedLine{"a", "", "c"}},
		{name: "trailing delimiter", delim: ';', line: "a;", want: ParsedLine{"a", ""}},
		{name: "only delimiter", delim: ';', line: ";", want: ParsedLine{"", ""}},
		{name: "stray quote in bare field", delim: ';', line: `a"b;c`, want: ParsedLine{`a"b`, "c"}},
		{name: "unbalanced opening quote", delim: ';', line: `x;"abc;d`, want: ParsedLine{"x", "abc;d"}},
		{name: "whitespace only", delim: ';', line: "   ", want: ParsedLine{"   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser(tt.delim)
			require.NoError(t, err)

			got, err := p.Parse(tt.line, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Reuse(t *testing.T) {
	p, err := NewParser(';')
	require.NoError(t, err)

	first, err := p.Parse("1;2;3", 0)
	require.NoError(t, err)
	second, err := p.Parse("4;5", 6)
	require.NoError(t, err)

	assert.Equal(t, ParsedLine{"1", "2", "3"}, first)
	assert.Equal(t, ParsedLine{"4", "5"}, second)
}

func TestParser_EmptyLineIsParseError(t *testing.T) {
	p, err := NewParser(';')
	require.NoError(t, err)

	_, err = p.Parse("", 17)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	offset, ok := e.Detail("offset")
	require.True(t, ok)
	assert.Equal(t, int64(17), offset)
	line, ok := e.Detail("line")
	require.True(t, ok)
	assert.Equal(t, "", line)
}

func TestNewParser_InvalidDelimiter(t *testing.T) {
	for _, d := range []rune{'"', '\n', '\r', 0, 0xFEFF, -1} {
		_, err := NewParser(d)
		require.Error(t, err, "delimiter %q", d)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	}
}
