// Command dali-membank inspects or edits an offline memory-bank flash
// image (the file dalid persists bank 189 into), without needing a live
// bus or device daemon. Useful for provisioning a device's calibration and
// lock-byte state before first boot.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/samoyed-dali/dali-link/internal/membank"
)

func main() {
	fs := pflag.NewFlagSet("dali-membank", pflag.ExitOnError)
	file := fs.String("file", "membank.bin", "bank-189 flash image file")
	dump := fs.Bool("dump", false, "print every implemented byte of bank 189")
	writeOffset := fs.Int("offset", -1, "offset within bank 189 to write")
	writeValue := fs.Int("value", -1, "byte value (0-255) to write at --offset")
	unlock := fs.Bool("unlock", false, "write the 0x55 unlock sentinel to the lock byte first")
	_ = fs.Parse(os.Args[1:])

	flash, err := membank.OpenFlatFileFlash(*file)
	if err != nil {
		log.Fatal("read image failed", "err", err)
	}

	var gtin [6]byte
	var serial [8]byte
	mem := membank.New(gtin, serial, 0, 0, 0, 0, 0, 1, 0, flash)
	flash.ReplayInto(mem)

	mem.SetWriteWindow(true)
	if *unlock {
		mem.Write(189, membank.Bank189LockByte, membank.UnlockSentinel)
	}

	if *writeOffset >= 0 {
		if *writeValue < 0 || *writeValue > 0xFF {
			log.Fatal("--value must accompany --offset, 0-255")
		}
		result := mem.Write(189, *writeOffset, byte(*writeValue))
		switch result {
		case membank.NotAllowed:
			log.Fatal("write refused: bank locked or offset out of range")
		case membank.RequiresPersist:
			if err := mem.Persist(189, *writeOffset, byte(*writeValue)); err != nil {
				log.Fatal("persist failed", "err", err)
			}
		}
		fmt.Printf("wrote offset 0x%02X = 0x%02X\n", *writeOffset, *writeValue)
	}

	if *dump || *writeOffset < 0 {
		for offset := 0; offset <= membank.Bank189LastByte; offset++ {
			value, ok := mem.Read(189, offset)
			if !ok {
				continue
			}
			fmt.Printf("0x%02X: 0x%02X\n", offset, value)
		}
	}
}

