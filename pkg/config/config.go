// Package config provides the profile configuration for flatindex.
//
// A configuration document holds an ordered list of profiles. Each profile
// pairs a file name pattern with a field delimiter and a sparse mapping from
// 1-based column numbers to output field names:
//
//	profiles:
//	  - match: '^orders_.*\.csv$'
//	    delimiter: ','
//	    map:
//	      1: ORDER_ID
//	      4: CUSTOMER
//	  - match: '\.txt$'
//	    map:
//	      2: NAME
//
// Documents can be written in YAML or JSON; both decode into the same Config
// through the Loader interface. After decoding, ${VAR_NAME} references in
// delimiters and field names are replaced from the environment. Match
// patterns are never expanded, so a pattern may contain "${" literally.
package config

import (
	"unicode/utf8"

	"github.com/ajitpratap0/flatindex/pkg/errors"
)

// DefaultDelimiter is used when a profile does not set one.
const DefaultDelimiter = ';'

// Config is the top level configuration document.
type Config struct {
	// Profiles are matched in list order; the first match wins.
	Profiles []Profile `yaml:"profiles" json:"profiles"`
}

// Profile selects how files whose base name matches Match are indexed.
type Profile struct {
	// Match is a regular expression tested case-insensitively against the
	// input file's base name. Profiles with an empty Match never match.
	Match string `yaml:"match" json:"match"`
	// Delimiter is the single field separator character. Empty means ';'.
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	// FieldMap maps 1-based column numbers to output field names.
	FieldMap map[int]string `yaml:"map" json:"map"`
}

// Validate checks the document level structure. Per-profile checks happen
// when a profile is selected, so a broken profile that is never selected does
// not fail the run.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New(errors.ErrorTypeConfig, "configuration is empty")
	}
	if c.Profiles == nil {
		return errors.New(errors.ErrorTypeConfig, "configuration has no profile list")
	}
	return nil
}

// DelimiterRune returns the profile delimiter as a rune.
func (p *Profile) DelimiterRune() (rune, error) {
	if p.Delimiter == "" {
		return DefaultDelimiter, nil
	}

	r, size := utf8.DecodeRuneInString(p.Delimiter)
	if size != len(p.Delimiter) {
		return 0, errors.Newf(errors.ErrorTypeConfig, "delimiter must be a single character, got %d bytes", len(p.Delimiter)).
			WithDetail("delimiter", p.Delimiter)
	}
	if !validDelimiter(r) {
		return 0, errors.New(errors.ErrorTypeConfig, "delimiter cannot be used as a field separator").
			WithDetail("delimiter", p.Delimiter)
	}
	return r, nil
}

// ValidateFieldMap checks that the map is present, that every column is
// positive and that every name is non-empty.
func (p *Profile) ValidateFieldMap() error {
	if len(p.FieldMap) == 0 {
		return errors.New(errors.ErrorTypeConfig, "profile has no field map").
			WithDetail("match", p.Match)
	}
	for col, name := range p.FieldMap {
		if col < 1 {
			return errors.Newf(errors.ErrorTypeConfig, "field map column %d is not a positive number", col).
				WithDetail("match", p.Match)
		}
		if name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "field map column %d has an empty name", col).
				WithDetail("match", p.Match)
		}
	}
	return nil
}

// validDelimiter mirrors the separators encoding/csv accepts; the quote
// character is reserved for quoting.
func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && r != 0xFEFF &&
		utf8.ValidRune(r) && r != utf8.RuneError
}
