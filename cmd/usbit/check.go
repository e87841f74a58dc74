package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/checker"
	"github.com/xlnxtools/usbit/far"
	"github.com/xlnxtools/usbit/locator"
)

func runCheck(args []string, log logging.Logger) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	file := fs.String("file", "", "bitstream file to check")
	devicePath := fs.String("device", "", "device table JSON file")
	archPath := fs.String("archtable", "", "architecture table JSON file")
	expectedPath := fs.String("expected", "", "expected-values JSON file")
	fs.Parse(args)

	if *file == "" || *devicePath == "" || *archPath == "" || *expectedPath == "" {
		return fmt.Errorf("check: -file, -device, -archtable, and -expected are all required")
	}

	b, a, err := loadBitstream(*file)
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
	ev, err := loadExpectedValues(*expectedPath)
	if err != nil {
		return err
	}

	inc, err := far.NewIncrementer(a, dev)
	if err != nil {
		return errors.Wrap(err, "building far incrementer")
	}
	arrays, err := b.PerFarConfigurationArrays(inc)
	if err != nil {
		return errors.Wrap(err, "deriving per-far configuration arrays")
	}

	slrIdcodes := make(map[string]uint32, len(dev.SLRs))
	for name, slr := range dev.SLRs {
		slrIdcodes[name] = uint32(slr.IDCode)
	}

	loc := locator.New(dev, at, a, locator.WithLogger(log))
	c, err := checker.New(loc, arrays, slrIdcodes, checker.WithLogger(log))
	if err != nil {
		return errors.Wrap(err, "building checker")
	}

	mismatch, err := c.Check(ev)
	if err != nil {
		return errors.Wrap(err, "checking")
	}
	if mismatch != nil {
		fmt.Println(mismatch.String())
		if len(mismatch.UnusedInputs) > 0 {
			fmt.Printf("  unused inputs: %v\n", mismatch.UnusedInputs)
		}
		log.Info(pkg+"check failed", "resource", mismatch.Resource)
		os.Exit(1)
	}

	fmt.Println("OK")
	log.Debug(pkg + "check passed")
	return nil
}

func loadExpectedValues(path string) (checker.ExpectedValues, error) {
	f, err := os.Open(path)
	if err != nil {
		return checker.ExpectedValues{}, errors.Wrapf(err, "opening expected-values file %q", path)
	}
	defer f.Close()
	var ev checker.ExpectedValues
	if err := json.NewDecoder(f).Decode(&ev); err != nil {
		return checker.ExpectedValues{}, errors.Wrapf(err, "decoding expected-values file %q", path)
	}
	return ev, nil
}
