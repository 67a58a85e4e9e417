// Package profile selects the indexing profile for an input file.
//
// Profiles are tried in configuration order and the first whose pattern
// matches the input's base name, ignoring case, wins. The winner is compiled
// into an immutable Profile that is passed explicitly to the rest of the run.
package profile

import (
	"path/filepath"
	"regexp"

	"github.com/ajitpratap0/flatindex/pkg/config"
	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/record"
)

// Profile is a selected, validated profile. Treat it as read-only.
type Profile struct {
	// Index is the position of the profile in the configuration list.
	Index int
	// Pattern is the pattern as written in the configuration.
	Pattern string
	// Delimiter is the field separator.
	Delimiter rune
	// Columns are the mapped columns in ascending column order.
	Columns []record.Column

	re *regexp.Regexp
}

// Matches reports whether name matches the profile pattern.
func (p *Profile) Matches(name string) bool {
	return p.re.MatchString(name)
}

// compilePattern compiles a configuration pattern for case-insensitive use.
func compilePattern(pattern string) (*regexp.Regexp, *errors.Error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid match pattern").
			WithDetail("match", pattern)
	}
	return re, nil
}

// Compile validates p and returns its compiled form. index is recorded for
// diagnostics only.
func Compile(p config.Profile, index int) (*Profile, error) {
	if p.Match == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "profile has no match pattern").
			WithDetail("profile", index)
	}
	re, err := compilePattern(p.Match)
	if err != nil {
		return nil, err
	}
	return build(p, index, re)
}

func build(p config.Profile, index int, re *regexp.Regexp) (*Profile, error) {
	delim, err := p.DelimiterRune()
	if err != nil {
		return nil, err
	}
	if err := p.ValidateFieldMap(); err != nil {
		return nil, err
	}
	return &Profile{
		Index:     index,
		Pattern:   p.Match,
		Delimiter: delim,
		Columns:   record.SortColumns(p.FieldMap),
		re:        re,
	}, nil
}

// Select returns the first profile in cfg whose pattern matches baseName.
// Profiles with an empty pattern are skipped. Patterns are compiled in list
// order up to the first match, so an invalid pattern before the match fails
// the selection.
func Select(cfg *config.Config, baseName string) (*Profile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for i, p := range cfg.Profiles {
		if p.Match == "" {
			continue
		}
		re, err := compilePattern(p.Match)
		if err != nil {
			return nil, err.WithDetail("profile", i)
		}
		if !re.MatchString(baseName) {
			continue
		}
		return build(p, i, re)
	}

	return nil, errors.New(errors.ErrorTypeNoProfile, "no profile matches input name").
		WithDetail("name", baseName)
}

// SelectForPath is Select on the base name of path.
func SelectForPath(cfg *config.Config, path string) (*Profile, error) {
	return Select(cfg, filepath.Base(path))
}
