package main

import (
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/bitstream"
)

// loadBitstream reads and fully parses a bitstream file, selecting its
// architecture from the header's Part field.
func loadBitstream(path string) (*bitstream.Bitstream, *arch.Spec, error) {
	data, err := openMaybeGzip(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %q", path)
	}
	h, err := bitstream.ParseHeader(data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing header of %q", path)
	}
	a, err := arch.SpecForPart(h.Part)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%q part %q", path, h.Part)
	}
	b, err := bitstream.Parse(data, a)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing %q", path)
	}
	return b, a, nil
}
