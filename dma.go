package dd

import (
	"encoding/binary"

	"github.com/golang/glog"
)

// dmaCycles is the cost of a cartridge DMA of length bytes.
func dmaCycles(length uint32) uint32 { return length * 63 / 50 }

// DMARead copies length bytes from RDRAM at dramAddr to the drive buffer
// at cartAddr and returns the cycle cost. Both sides are byte swizzled
// within 32 bit words.
func (dd *Controller) DMARead(dram []byte, dramAddr, cartAddr, length uint32) uint32 {
	glog.V(2).Infof("dd: DMA read dram=%08x cart=%08x length=%08x", dramAddr, cartAddr, length)

	r, off := decode(cartAddr)
	var mem []byte
	switch r {
	case regionDS:
		mem = dd.ds[:]
	case regionC2S:
		mem = dd.c2s[:]
	default:
		glog.Errorf("dd: unknown DMA read dram=%08x cart=%08x length=%08x", dramAddr, cartAddr, length)
		return dmaCycles(length)
	}

	mask := uint32(len(mem) - 1)
	for i := uint32(0); i < length; i++ {
		src := uint64((dramAddr + i) ^ 3)
		if src >= uint64(len(dram)) {
			glog.Errorf("dd: DMA read past end of RDRAM at %08x", dramAddr+i)
			break
		}
		mem[((off+i)^3)&mask] = dram[src]
	}
	return dmaCycles(length)
}

// DMAWrite copies length bytes from the drive buffer or ROM at cartAddr to
// RDRAM at dramAddr and returns the cycle cost. The CPU is told to drop
// any code it cached from the overwritten range.
func (dd *Controller) DMAWrite(dram []byte, dramAddr, cartAddr, length uint32) uint32 {
	glog.V(2).Infof("dd: DMA write dram=%08x cart=%08x length=%08x", dramAddr, cartAddr, length)

	r, off := decode(cartAddr)
	var mem []byte
	switch r {
	case regionC2S:
		mem = dd.c2s[:]
	case regionDS:
		mem = dd.ds[:]
	case regionROM:
		mem = dd.rom
	default:
		glog.Errorf("dd: unknown DMA write dram=%08x cart=%08x length=%08x", dramAddr, cartAddr, length)
		return dmaCycles(length)
	}

	for i := uint32(0); i < length; i++ {
		dst := uint64((dramAddr + i) ^ 3)
		if dst >= uint64(len(dram)) {
			glog.Errorf("dd: DMA write past end of RDRAM at %08x", dramAddr+i)
			break
		}
		src := (off + i) ^ 3
		if r != regionROM {
			src &= uint32(len(mem) - 1)
		}
		var v byte
		if uint64(src) < uint64(len(mem)) {
			v = mem[src]
		}
		dram[dst] = v
	}

	if dd.cpu != nil {
		dd.cpu.InvalidateCachedCode(KSEG0+dramAddr, length)
		dd.cpu.InvalidateCachedCode(KSEG1+dramAddr, length)
	}
	return dmaCycles(length)
}

// CartAddrObserved is called by the bus when the host programs the
// cartridge DMA address. Pointing it at a drive buffer acknowledges the
// pending C2 or data request.
func (dd *Controller) CartAddrObserved(address uint32) {
	switch address {
	case C2SBuffer:
		dd.regs[regCmdStatus] &^= statusC2Xfer | statusBMErr
		dd.clear(statusBMInt)
	case DSBuffer:
		dd.regs[regCmdStatus] &^= statusDataRq | statusBMErr
		dd.clear(statusBMInt)
	}
}

// ReadROM returns the ROM word at address.
func (dd *Controller) ReadROM(address uint32) uint32 {
	w := romWord(address)
	if uint64(w)*4+4 > uint64(len(dd.rom)) {
		glog.Errorf("dd: ROM read past end at %08x", address)
		return 0
	}
	v := binary.LittleEndian.Uint32(dd.rom[w*4:])
	glog.V(2).Infof("dd: ROM %08x -> %08x", address, v)
	return v
}

// WriteROM ignores a write to the ROM window.
func (dd *Controller) WriteROM(address, value, mask uint32) {
	glog.V(2).Infof("dd: ROM %08x <- %08x & %08x", address, value, mask)
}
