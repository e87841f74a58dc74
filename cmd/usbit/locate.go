package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/archtable"
	"github.com/xlnxtools/usbit/device"
	"github.com/xlnxtools/usbit/locator"
)

func runLocate(args []string, log logging.Logger) error {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	devicePath := fs.String("device", "", "device table JSON file")
	archPath := fs.String("archtable", "", "architecture table JSON file")
	part := fs.String("part", "", "FPGA part identifier, e.g. xcku025-ffva1156-1-c")
	resource := fs.String("resource", "", `resource name, e.g. "SLICE_X53Y0/AFF" or "RAMB18_X2Y0"`)
	kind := fs.String("kind", "", "reg, lut, or bram")
	fs.Parse(args)

	if *devicePath == "" || *archPath == "" || *part == "" || *resource == "" || *kind == "" {
		return fmt.Errorf("locate: -device, -archtable, -part, -resource, and -kind are all required")
	}

	a, err := arch.SpecForPart(*part)
	if err != nil {
		return err
	}
	dev, err := loadDeviceTable(*devicePath)
	if err != nil {
		return err
	}
	at, err := loadArchTable(*archPath)
	if err != nil {
		return err
	}

	loc := locator.New(dev, at, a, locator.WithLogger(log))

	switch *kind {
	case "reg":
		res, err := loc.LocateReg(*resource)
		if err != nil {
			return err
		}
		fmt.Printf("slr=%s far=%s frame_offset=%d\n", res.SLR, res.FAR, res.FrameOffset)
	case "lut":
		res, err := loc.LocateLut(*resource)
		if err != nil {
			return err
		}
		fmt.Printf("slr=%s\n", res.SLR)
		for i := 0; i < locator.NumLutBits; i++ {
			fmt.Printf("  bit %2d: far=%s frame_offset=%d\n", i, res.FARs[i], res.FrameOffsets[i])
		}
	case "bram":
		res, err := loc.LocateBram(*resource)
		if err != nil {
			return err
		}
		fmt.Printf("slr=%s memory_bits=%d parity_bits=%d\n", res.SLR, len(res.MemFARs), len(res.ParityFARs))
	default:
		return fmt.Errorf("locate: unknown -kind %q, want reg, lut, or bram", *kind)
	}

	log.Debug(pkg+"locate complete", "resource", *resource, "kind", *kind)
	return nil
}

func loadDeviceTable(path string) (*device.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening device table %q", path)
	}
	defer f.Close()
	return device.Load(f)
}

func loadArchTable(path string) (archtable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening architecture table %q", path)
	}
	defer f.Close()
	return archtable.Load(f)
}
