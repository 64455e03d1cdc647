package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/emu"
	"github.com/sarchlab/armemu/loader"
)

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	// MOV r0, #42; B .
	code := []byte{0x2a, 0x00, 0xa0, 0xe3, 0xfe, 0xff, 0xff, 0xea}

	Describe("LoadELF", func() {
		Context("with a valid ARM ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeARMELF(elfPath, 0x8004, segment{vaddr: 0x8000, flags: 0x5, data: code})
			})

			It("should extract the entry point", func() {
				prog, err := loader.LoadELF(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x8004)))
				Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
			})

			It("should load segment contents and permissions", func() {
				prog, err := loader.LoadELF(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x8000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagRead).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		It("should load multiple PT_LOAD segments", func() {
			elfPath := filepath.Join(tempDir, "multi-segment.elf")
			data := []byte{0x01, 0x02, 0x03, 0x04}
			writeARMELF(elfPath, 0x8000,
				segment{vaddr: 0x8000, flags: 0x5, data: code},
				segment{vaddr: 0x10000, flags: 0x6, data: data},
			)

			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].VirtAddr).To(Equal(uint32(0x10000)))
			Expect(prog.Segments[1].Data).To(Equal(data))
			Expect(prog.Segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should keep the memory size of BSS segments", func() {
			elfPath := filepath.Join(tempDir, "bss.elf")
			writeARMELF(elfPath, 0x8000, segment{vaddr: 0x20000, flags: 0x6, data: []byte{1, 2, 3, 4}, memsz: 1024})

			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(HaveLen(4))
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(1024)))
		})

		It("should skip segments that are not PT_LOAD", func() {
			elfPath := filepath.Join(tempDir, "no-load.elf")
			writeARMELF(elfPath, 0x8000, segment{typ: 4, flags: 0x4})

			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint32(0x8000)))
		})

		Context("with an invalid file", func() {
			It("should fail for a missing file", func() {
				_, err := loader.LoadELF("/nonexistent/path/to/file.elf")
				Expect(err).To(MatchError(ContainSubstring("failed to open")))
			})

			It("should fail for a non-ELF file", func() {
				path := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(path, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.LoadELF(path)
				Expect(err).To(MatchError(ContainSubstring("ELF")))
			})

			It("should reject other machines", func() {
				path := filepath.Join(tempDir, "x86.elf")
				writeELF32(path, 3, 0)

				_, err := loader.LoadELF(path)
				Expect(err).To(MatchError(ContainSubstring("not an ARM")))
			})

			It("should reject 64-bit files", func() {
				path := filepath.Join(tempDir, "elf64.elf")
				writeELF64(path)

				_, err := loader.LoadELF(path)
				Expect(err).To(MatchError(ContainSubstring("not a 32-bit")))
			})
		})
	})

	Describe("Program.LoadInto", func() {
		It("should copy segments and zero the BSS", func() {
			mem := emu.NewMemory()
			mem.Write32(0x20004, 0xFFFFFFFF)

			prog := &loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x8000, Data: code, MemSize: uint32(len(code))},
				{VirtAddr: 0x20000, Data: []byte{1, 0, 0, 0}, MemSize: 16},
			}}
			prog.LoadInto(mem)

			Expect(mem.Read32(0x8000)).To(Equal(uint32(0xE3A0002A)))
			Expect(mem.Read32(0x20000)).To(Equal(uint32(1)))
			Expect(mem.Read32(0x20004)).To(BeZero())
		})
	})

	Describe("Load", func() {
		It("should detect ELF files", func() {
			path := filepath.Join(tempDir, "test.elf")
			writeARMELF(path, 0x8000, segment{vaddr: 0x8000, flags: 0x5, data: code})

			prog, err := loader.Load(path, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x8000)))
		})

		It("should fall back to a raw ROM", func() {
			path := filepath.Join(tempDir, "rom.bin")
			Expect(os.WriteFile(path, code, 0644)).To(Succeed())

			prog, err := loader.Load(path, 0x100)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x100)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should fail for a missing file", func() {
			_, err := loader.Load("/nonexistent/rom.bin", 0)
			Expect(err).To(HaveOccurred())
		})
	})
})

type segment struct {
	typ   uint32 // defaults to PT_LOAD
	flags uint32
	vaddr uint32
	data  []byte
	memsz uint32 // defaults to len(data)
}

const (
	elf32HeaderSize = 52
	elf32PhdrSize   = 32
)

// writeARMELF writes a little-endian ELF32 ARM executable.
func writeARMELF(path string, entry uint32, segs ...segment) {
	writeELF32(path, 40, entry, segs...)
}

func writeELF32(path string, machine uint16, entry uint32, segs ...segment) {
	header := make([]byte, elf32HeaderSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1                                          // 32-bit
	header[5] = 1                                          // little endian
	header[6] = 1                                          // version
	binary.LittleEndian.PutUint16(header[16:18], 2)        // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)  // machine
	binary.LittleEndian.PutUint32(header[20:24], 1)        // version
	binary.LittleEndian.PutUint32(header[24:28], entry)    // entry
	binary.LittleEndian.PutUint32(header[28:32], elf32HeaderSize)
	binary.LittleEndian.PutUint16(header[40:42], elf32HeaderSize)
	binary.LittleEndian.PutUint16(header[42:44], elf32PhdrSize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))

	out := header
	offset := uint32(elf32HeaderSize + elf32PhdrSize*len(segs))
	var payload []byte

	for _, s := range segs {
		typ := s.typ
		if typ == 0 {
			typ = 1
		}
		memsz := s.memsz
		if memsz == 0 {
			memsz = uint32(len(s.data))
		}

		phdr := make([]byte, elf32PhdrSize)
		binary.LittleEndian.PutUint32(phdr[0:4], typ)
		binary.LittleEndian.PutUint32(phdr[4:8], offset)
		binary.LittleEndian.PutUint32(phdr[8:12], s.vaddr)
		binary.LittleEndian.PutUint32(phdr[12:16], s.vaddr)
		binary.LittleEndian.PutUint32(phdr[16:20], uint32(len(s.data)))
		binary.LittleEndian.PutUint32(phdr[20:24], memsz)
		binary.LittleEndian.PutUint32(phdr[24:28], s.flags)
		binary.LittleEndian.PutUint32(phdr[28:32], 4)

		out = append(out, phdr...)
		payload = append(payload, s.data...)
		offset += uint32(len(s.data))
	}

	Expect(os.WriteFile(path, append(out, payload...), 0644)).To(Succeed())
}

// writeELF64 writes a bare ELF64 header to test rejection.
func writeELF64(path string) {
	header := make([]byte, 64)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2                                     // 64-bit
	header[5] = 1                                     // little endian
	header[6] = 1                                     // version
	binary.LittleEndian.PutUint16(header[16:18], 2)   // executable
	binary.LittleEndian.PutUint16(header[18:20], 40)  // ARM
	binary.LittleEndian.PutUint32(header[20:24], 1)   // version
	binary.LittleEndian.PutUint16(header[52:54], 64)  // ehsize
	binary.LittleEndian.PutUint16(header[54:56], 56)  // phentsize

	Expect(os.WriteFile(path, header, 0644)).To(Succeed())
}
