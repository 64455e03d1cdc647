package loader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// ReadWords streams r as little-endian 32-bit words, calling fn with the
// byte offset and value of each. A trailing partial word is ignored.
// Iteration stops at the first error returned by fn.
func ReadWords(r io.Reader, fn func(offset, word uint32) error) error {
	br := bufio.NewReader(r)
	var buf [4]byte

	for offset := uint32(0); ; offset += 4 {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("failed to read word at 0x%x: %w", offset, err)
		}
		if err := fn(offset, binary.LittleEndian.Uint32(buf[:])); err != nil {
			return err
		}
	}
}

// LoadROM reads a raw ROM image to be placed at loadAddr. Execution
// starts at the first word.
func LoadROM(path string, loadAddr uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM file: %w", err)
	}

	return &Program{
		EntryPoint: loadAddr,
		Segments: []Segment{{
			VirtAddr: loadAddr,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagExecute,
		}},
	}, nil
}

// IsELF reports whether the file at path starts with the ELF magic.
func IsELF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return false, nil
	}
	return bytes.Equal(magic[:], elfMagic), nil
}

// Load reads an ELF executable or, failing the ELF magic check, a raw
// ROM image placed at loadAddr.
func Load(path string, loadAddr uint32) (*Program, error) {
	isELF, err := IsELF(path)
	if err != nil {
		return nil, err
	}
	if isELF {
		return LoadELF(path)
	}
	return LoadROM(path, loadAddr)
}
