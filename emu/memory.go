package emu

import "encoding/binary"

// Bus is the memory collaborator used by load and store instructions.
// Multi-byte accesses are little-endian.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
}

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Memory is a sparse little-endian byte-addressed memory. Unwritten
// locations read as zero.
type Memory struct {
	pages map[uint32][]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32][]byte)}
}

func (m *Memory) page(addr uint32, create bool) []byte {
	p, ok := m.pages[addr>>pageBits]
	if !ok && create {
		p = make([]byte, pageSize)
		m.pages[addr>>pageBits] = p
	}
	return p
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, v uint8) {
	m.page(addr, true)[addr&pageMask] = v
}

func (m *Memory) read(addr uint32, buf []byte) {
	if addr&pageMask+uint32(len(buf)) <= pageSize {
		if p := m.page(addr, false); p != nil {
			copy(buf, p[addr&pageMask:])
		} else {
			clear(buf)
		}
		return
	}
	for i := range buf {
		buf[i] = m.Read8(addr + uint32(i))
	}
}

func (m *Memory) write(addr uint32, buf []byte) {
	if addr&pageMask+uint32(len(buf)) <= pageSize {
		copy(m.page(addr, true)[addr&pageMask:], buf)
		return
	}
	for i, b := range buf {
		m.Write8(addr+uint32(i), b)
	}
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	var buf [2]byte
	m.read(addr, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	var buf [4]byte
	m.read(addr, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	m.write(addr, buf[:])
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	m.write(addr, buf[:])
}

// LoadProgram copies program into memory starting at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	for len(program) > 0 {
		off := addr & pageMask
		n := copy(m.page(addr, true)[off:], program)
		program = program[n:]
		addr += uint32(n)
	}
}
