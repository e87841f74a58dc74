package main

import (
	"flag"
	"fmt"

	"github.com/ausocean/utils/logging"
)

func runDecode(args []string, log logging.Logger) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	file := fs.String("file", "", "bitstream file to decode (.gz transparently decompressed)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("decode: -file is required")
	}

	b, a, err := loadBitstream(*file)
	if err != nil {
		return err
	}

	h := b.Header()
	fmt.Printf("design: %s\n", h.DesignName)
	fmt.Printf("part: %s\n", h.Part)
	fmt.Printf("date: %s time: %s\n", h.Date, h.Time)
	fmt.Printf("architecture: %s\n", a.Name)
	fmt.Printf("packets: %d\n", len(b.Packets()))
	fmt.Printf("encrypted: %t compressed: %t partial: %t\n", b.IsEncrypted(), b.IsCompressed(), b.IsPartial())
	fmt.Printf("crc enabled: %t per-frame crc: %t\n", b.IsCRCEnabled(), b.IsPerFrameCRC())
	fmt.Printf("idcodes:")
	for _, id := range b.GetIDCodes() {
		fmt.Printf(" %#08x", id)
	}
	fmt.Println()

	log.Debug(pkg+"decode complete", "file", *file)
	return nil
}
