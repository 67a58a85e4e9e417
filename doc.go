// Package flatindex builds byte-offset indexes of delimited data files.
//
// For every data record of an input file, flatindex writes selected fields
// together with the record's byte offset and length, so that another
// program can seek straight to a record without re-reading the file. The
// first line of every input is a header; offsets count from the byte right
// after it.
//
// # Profiles
//
// Which columns are indexed, and under what names, is decided by a profile.
// Profiles live in a YAML or JSON document and are tried in order against
// the input's base name; the first whose pattern matches, ignoring case, is
// used for the whole run:
//
//	profiles:
//	  - match: '^orders_\d+\.csv$'
//	    delimiter: ","
//	    map:
//	      1: ORDER_ID
//	      4: CUSTOMER
//	  - match: '\.csv$'
//	    map:
//	      1: ID
//
// The delimiter defaults to ';'. Delimiters and field names may contain
// ${VAR} references, which are replaced from the environment; match
// patterns are used as written.
//
// # Output
//
// Each record becomes one block:
//
//	GROUP_FIELD_NAME:ORDER_ID
//	GROUP_FIELD_VALUE:1001
//	GROUP_FIELD_NAME:CUSTOMER
//	GROUP_FIELD_VALUE:ACME
//	GROUP_OFFSET:0
//	GROUP_LENGTH:27
//	GROUP_FILENAME:data/orders_42.csv
//
// Field values are written as they are, without escaping.
//
// # Command Line
//
//	flatindex run -i data/orders_42.csv -o orders_42.idx -c profiles.yaml
//	flatindex match -c profiles.yaml orders_42.csv customers.csv
//	flatindex version
//
// Runtime settings can also be given as FLATINDEX_LOG_LEVEL,
// FLATINDEX_LOG_FORMAT and FLATINDEX_MAX_LINE_SIZE, or in a .env file.
//
// # Key Packages
//
//	pkg/profile    - Profile selection by file name
//	pkg/scanner    - Line scanner with exact byte offsets
//	pkg/record     - Field splitting and column mapping
//	pkg/index      - Index format writer
//	pkg/config     - Profile documents and runtime settings
//	pkg/errors     - Structured error handling
//	pkg/logger     - Structured logging
//	pkg/metrics    - Per-run metrics
//	internal/pipeline - The indexing run itself
package flatindex
