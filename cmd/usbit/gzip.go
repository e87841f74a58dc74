package main

import (
	"compress/gzip"
	"io"
)

// newGzipReader wraps r in a gzip.Reader. Factored into its own file so the
// ".gz" transport-unwrap concern (§6) has one obvious place to look.
func newGzipReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}
