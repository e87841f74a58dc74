package main

import (
	"flag"
	"fmt"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/differ"
	"github.com/xlnxtools/usbit/far"
)

func runDiff(args []string, log logging.Logger) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	baselinePath := fs.String("baseline", "", "baseline bitstream file")
	modifiedPath := fs.String("modified", "", "modified bitstream file")
	devicePath := fs.String("device", "", "device table JSON file")
	fs.Parse(args)

	if *baselinePath == "" || *modifiedPath == "" || *devicePath == "" {
		return fmt.Errorf("diff: -baseline, -modified, and -device are all required")
	}

	baseline, a, err := loadBitstream(*baselinePath)
	if err != nil {
		return err
	}
	modified, a2, err := loadBitstream(*modifiedPath)
	if err != nil {
		return err
	}
	if a.Name != a2.Name {
		return fmt.Errorf("diff: baseline and modified bitstreams target different architectures")
	}

	dev, err := loadDeviceTable(*devicePath)
	if err != nil {
		return err
	}
	inc, err := far.NewIncrementer(a, dev)
	if err != nil {
		return errors.Wrap(err, "building far incrementer")
	}

	baseArrays, err := baseline.PerFarConfigurationArrays(inc)
	if err != nil {
		return errors.Wrapf(err, "deriving per-far configuration arrays for %q", *baselinePath)
	}
	modArrays, err := modified.PerFarConfigurationArrays(inc)
	if err != nil {
		return errors.Wrapf(err, "deriving per-far configuration arrays for %q", *modifiedPath)
	}

	diffs, err := differ.Diff(baseArrays, modArrays)
	if err != nil {
		return errors.Wrap(err, "diffing")
	}

	for _, d := range diffs {
		fmt.Printf("idcode=%#08x far=%s frame_offset=%d polarity=%s\n", d.IDCode, d.FAR, d.FrameOffset, d.Polarity)
	}

	log.Info(pkg+"diff complete", "disagreements", len(diffs))
	return nil
}
