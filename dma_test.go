package dd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/matryer/is"
)

func TestDMAReadSwizzle(t *testing.T) {
	is := is.New(t)
	dd, _, _ := newController(t, nil)

	dram := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	cycles := dd.DMARead(dram, 1, DSBuffer, 4)
	is.Equal(cycles, dmaCycles(4))

	// dram byte (1+i)^3 lands in ds[i^3]
	for i := uint32(0); i < 4; i++ {
		is.Equal(dd.ds[i^3], dram[(1+i)^3])
	}
}

func TestDMAAlignedPreservesLayout(t *testing.T) {
	is := is.New(t)
	dd, _, _ := newController(t, nil)

	dram := make([]byte, 0x100)
	for i := range dram {
		dram[i] = byte(i)
	}
	dd.DMARead(dram, 0, DSBuffer, 0x100)
	is.True(bytes.Equal(dd.ds[:], dram))

	out := make([]byte, 0x100)
	dd.DMAWrite(out, 0, DSBuffer, 0x100)
	is.True(bytes.Equal(out, dram))
}

func TestDMAC2SOffset(t *testing.T) {
	is := is.New(t)
	dd, _, _ := newController(t, nil)

	dram := bytes.Repeat([]byte{0xaa}, 8)
	dd.DMARead(dram, 0, C2SBuffer+0x200, 8)
	is.Equal(dd.c2s[0x1ff], byte(0))
	is.True(bytes.Equal(dd.c2s[0x200:0x208], dram))
	is.Equal(dd.c2s[0x208], byte(0))
}

func TestDMACycles(t *testing.T) {
	is := is.New(t)
	dd, _, _ := newController(t, nil)
	dram := make([]byte, 0x400)

	is.Equal(dd.DMARead(dram, 0, DSBuffer, 100), uint32(126))
	is.Equal(dd.DMAWrite(dram, 0, C2SBuffer, 0x400), uint32(0x400*63/50))
	// unknown regions still cost
	is.Equal(dd.DMARead(dram, 0, ROM, 100), uint32(126))
	is.Equal(dd.DMAWrite(dram, 0, Regs, 50), uint32(63))
}

func TestDMAPastEndOfRDRAM(t *testing.T) {
	is := is.New(t)
	dd, _, _ := newController(t, nil)

	dram := bytes.Repeat([]byte{0x55}, 4)
	dd.DMARead(dram, 0, DSBuffer, 16)
	is.True(bytes.Equal(dd.ds[:4], dram))
	is.Equal(dd.ds[4], byte(0))

	dd.DMAWrite(dram, 0, DSBuffer+0x10, 16) // must not panic
	is.True(bytes.Equal(dram, make([]byte, 4)))
}

func TestDMAWriteInvalidates(t *testing.T) {
	is := is.New(t)
	dd, cpu, _ := newController(t, nil)

	dd.DMAWrite(make([]byte, 0x2000), 0x1000, DSBuffer, 0x100)
	is.Equal(cpu.invalidated, [][2]uint32{
		{KSEG0 + 0x1000, 0x100},
		{KSEG1 + 0x1000, 0x100},
	})

	dd.DMARead(make([]byte, 0x2000), 0x1000, DSBuffer, 0x100)
	is.Equal(len(cpu.invalidated), 2) // reads leave RDRAM alone
}

func TestROM(t *testing.T) {
	is := is.New(t)
	rom := make([]byte, 0x10)
	binary.LittleEndian.PutUint32(rom[4:], 0x80371240)
	dd, err := New(Config{ROM: rom})
	is.NoErr(err)
	dd.PowerOn()

	is.Equal(dd.ReadROM(ROM+4), uint32(0x80371240))
	is.Equal(dd.ReadROM(ROM+0x10), uint32(0)) // past the end

	// RDRAM keeps host word order too
	dram := make([]byte, 8)
	dd.DMAWrite(dram, 0, ROM, 8)
	is.Equal(binary.LittleEndian.Uint32(dram[4:]), uint32(0x80371240))

	dd.WriteROM(ROM+4, 0, full)
	is.Equal(dd.ReadROM(ROM+4), uint32(0x80371240))
}

func TestCartAddrObserved(t *testing.T) {
	tests := []struct {
		name    string
		address uint32
		cleared uint32
	}{
		{"c2s", C2SBuffer, statusC2Xfer | statusBMErr | statusBMInt},
		{"ds", DSBuffer, statusDataRq | statusBMErr | statusBMInt},
	}
	const pending = statusDataRq | statusC2Xfer | statusBMErr | statusBMInt | statusMechaInt
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			dd, cpu, _ := newController(t, nil)
			dd.signal(pending)
			is.True(cpu.line)

			dd.CartAddrObserved(tt.address)
			is.Equal(dd.regs[regCmdStatus]&pending, uint32(pending&^tt.cleared))
			is.True(!cpu.line)
		})
	}

	is := is.New(t)
	dd, cpu, _ := newController(t, nil)
	dd.signal(statusBMInt)
	dd.CartAddrObserved(DSBuffer + 4) // not a buffer base
	is.True(dd.regs[regCmdStatus]&statusBMInt != 0)
	is.True(cpu.line)
}
