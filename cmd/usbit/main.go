/*
NAME
  main.go

DESCRIPTION
  usbit is the command-line entry point wiring the bitstream codec, bit
  locator, state checker, and differ together: decode, locate, check, and
  diff subcommands, each its own flag set (§6 External Interfaces, §DOMAIN
  STACK CLI).
*/

// Command usbit decodes, locates bits within, checks the state of, and
// diffs Xilinx UltraScale/UltraScale+ bitstreams.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
)

const pkg = "usbit: "

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	log := logging.New(logging.Info, os.Stderr, false)

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(os.Args[2:], log)
	case "locate":
		err = runLocate(os.Args[2:], log)
	case "check":
		err = runCheck(os.Args[2:], log)
	case "diff":
		err = runDiff(os.Args[2:], log)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "usbit: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(pkg+"failed", "error", err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usbit <subcommand> [flags]

Subcommands:
  decode  parse a bitstream and report its header and derived properties
  locate  resolve a resource name to its (slr, far, frame offset) location
  check   verify a bitstream's configuration against expected values
  diff    enumerate bit-level disagreements between two bitstreams`)
}

// openMaybeGzip reads path, transparently gzip-decompressing it if the
// filename ends in ".gz" (a transport-layer concern, not a bitstream
// COMPRESS option; §6).
func openMaybeGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readMaybeGzip(f, path)
}

func readMaybeGzip(r io.Reader, name string) ([]byte, error) {
	if hasSuffix(name, ".gz") {
		gz, err := newGzipReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}
	return io.ReadAll(r)
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
