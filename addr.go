package dd

// Cartridge bus addresses decoded by the controller.
const (
	C2SBuffer = 0x05000000 // C2 (error correction) sector buffer, 0x400 bytes
	DSBuffer  = 0x05000400 // data sector buffer, 0x100 bytes
	Regs      = 0x05000500 // ASIC register window
	MSRAM     = 0x05000580 // microsequencer RAM, 0x40 bytes
	ROM       = 0x06000000 // IPL ROM, up to 4 MiB

	msRAMEnd = MSRAM + msRAMSize
	romEnd   = ROM + 0x400000
)

// KSEG0 and KSEG1 bases; DMA into RDRAM invalidates both views.
const (
	KSEG0 = 0x80000000
	KSEG1 = 0xa0000000
)

const (
	c2sSize   = 0x400
	dsSize    = 0x100
	msRAMSize = 0x40
)

// region is a decoded cartridge bus address.
type region int

const (
	regionNone region = iota
	regionC2S
	regionDS
	regionRegs
	regionMSRAM
	regionROM
)

func (r region) String() string {
	switch r {
	case regionC2S:
		return "C2S"
	case regionDS:
		return "DS"
	case regionRegs:
		return "REGS"
	case regionMSRAM:
		return "MSRAM"
	case regionROM:
		return "ROM"
	default:
		return "none"
	}
}

// decode maps a cartridge bus address to its region and the byte offset
// inside it.
func decode(a uint32) (region, uint32) {
	switch {
	case a >= C2SBuffer && a < DSBuffer:
		return regionC2S, a - C2SBuffer
	case a >= DSBuffer && a < Regs:
		return regionDS, a - DSBuffer
	case a >= Regs && a < MSRAM:
		return regionRegs, a - Regs
	case a >= MSRAM && a < msRAMEnd:
		return regionMSRAM, a - MSRAM
	case a >= ROM && a < romEnd:
		return regionROM, a - ROM
	default:
		return regionNone, 0
	}
}

// regIndex returns the register word index of an address in the register window.
func regIndex(a uint32) uint32 { return (a & 0xff) >> 2 }

// romWord returns the ROM word index of an address in the ROM window.
func romWord(a uint32) uint32 { return (a & 0x3fffff) >> 2 }
