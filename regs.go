package dd

import (
	"encoding/binary"

	"github.com/golang/glog"
)

// ASIC register word indices.
const (
	regData = iota
	regMiscReg
	regCmdStatus
	regCurTk
	regBMStatusCtl
	regErrSector
	regSeqStatusCtl
	regCurSector
	regHardReset
	regC1S0
	regHostSecByte
	regC1S2
	regSecByte
	regC1S4
	regC1S6
	regCurAddr
	regIDReg
	regTestReg
	regTestPinSel

	regCount
)

var regNames = [regCount]string{
	"DATA", "MISC_REG", "CMD_STATUS", "CUR_TK", "BM_STATUS_CTL",
	"ERR_SECTOR", "SEQ_STATUS_CTL", "CUR_SECTOR", "HARD_RESET", "C1_S0",
	"HOST_SECBYTE", "C1_S2", "SEC_BYTE", "C1_S4", "C1_S6", "CUR_ADDR",
	"ID_REG", "TEST_REG", "TEST_PIN_SEL",
}

// CMD_STATUS bits.
const (
	statusDataRq    = 0x40000000
	statusC2Xfer    = 0x10000000
	statusBMErr     = 0x08000000
	statusBMInt     = 0x04000000
	statusMechaInt  = 0x02000000
	statusDiskPres  = 0x01000000
	statusBusyState = 0x00800000
	statusRstState  = 0x00400000
	statusMtrNSpin  = 0x00100000
	statusHeadRtrct = 0x00080000
	statusWrPrErr   = 0x00040000
	statusMechaErr  = 0x00020000
	statusDiskChng  = 0x00010000
)

// BM_STATUS_CTL bits, as read back.
const (
	bmStatusRunning = 0x80000000
	bmStatusError   = 0x04000000
	bmStatusMicro   = 0x02000000
	bmStatusBlock   = 0x01000000 // continue with the other block
	bmStatusC1Crr   = 0x00800000
	bmStatusC1Dbl   = 0x00400000
	bmStatusC1Sng   = 0x00200000
	bmStatusC1Err   = 0x00010000
)

// BM_STATUS_CTL bits, as written.
const (
	bmCtlStart     = 0x80000000
	bmCtlMngrMode  = 0x40000000
	bmCtlIntMask   = 0x20000000
	bmCtlReset     = 0x10000000
	bmCtlDisOrChk  = 0x08000000
	bmCtlDisC1Crr  = 0x04000000
	bmCtlBlkTrans  = 0x02000000
	bmCtlMechaRst  = 0x01000000
	bmStartBlock1  = 0x5a
	hardResetMagic = 0xaaaa0000
)

const (
	trackLock     = 0x60000000
	idRetail      = 0x00030000
	idDevelopment = 0x00040000
)

// Read returns the word at address in the register window.
//
// Reading CMD_STATUS is not a pure access. Before the value is sampled
// the disk present bit is refreshed. After it is sampled, a pending BM
// interrupt is acknowledged and the block manager is stepped once if the
// current sector has moved past the data sectors, which is how the drive
// resumes a transfer stalled in the C2 and gap sectors.
func (dd *Controller) Read(address uint32) uint32 {
	r, off := decode(address)
	switch r {
	case regionRegs:
	case regionMSRAM:
		return dd.readMSRAM(off)
	default:
		glog.Errorf("dd: read from invalid register address %08x", address)
		return 0
	}

	reg := regIndex(address)
	if reg >= regCount {
		glog.Errorf("dd: read from undefined register %08x", address)
		return 0
	}

	if reg == regCmdStatus {
		if dd.disk != nil {
			dd.regs[reg] |= statusDiskPres
		} else {
			dd.regs[reg] &^= statusDiskPres
		}
	}

	v := dd.regs[reg]
	glog.V(2).Infof("dd: %s %08x -> %08x", regNames[reg], address, v)

	if reg == regCmdStatus {
		if dd.regs[regCmdStatus]&statusBMInt != 0 && dd.regs[regCurSector] > sectorsPerBlock {
			dd.clear(statusBMInt)
			dd.UpdateBM()
		}
	}
	return v
}

// Write stores value at address in the register window. Only full word
// writes are supported.
func (dd *Controller) Write(address, value, mask uint32) {
	r, off := decode(address)
	switch r {
	case regionRegs:
	case regionMSRAM:
		if mask != ^uint32(0) {
			glog.Errorf("dd: partial write %08x to MS RAM %08x", mask, address)
			return
		}
		dd.writeMSRAM(off, value)
		return
	default:
		glog.Errorf("dd: write to invalid register address %08x", address)
		return
	}

	reg := regIndex(address)
	if reg >= regCount {
		glog.Errorf("dd: write to undefined register %08x: %08x", address, value)
		return
	}
	if mask != ^uint32(0) {
		glog.Errorf("dd: partial write %08x to %s", mask, regNames[reg])
		return
	}

	glog.V(2).Infof("dd: %s %08x <- %08x", regNames[reg], address, value)

	switch reg {
	case regData:
		dd.regs[regData] = value

	case regCmdStatus:
		dd.command(value)

	case regBMStatusCtl:
		dd.writeBMCtl(value)

	case regHardReset:
		if value != hardResetMagic {
			glog.Warningf("dd: unexpected hard reset value %08x", value)
		}
		dd.regs[regCmdStatus] |= statusRstState

	case regHostSecByte:
		dd.regs[regHostSecByte] = (value >> 16) & 0xff
		if want := zoneSecSize[dd.bmZone]; dd.regs[regHostSecByte]+1 != want {
			glog.Warningf("dd: sector size %d set different than expected %d",
				dd.regs[regHostSecByte]+1, want)
		}

	case regSecByte:
		dd.regs[regSecByte] = (value >> 24) & 0xff
		if dd.regs[regSecByte] != sectorsPerBlock+c2Sectors {
			// the register holds the sector count less one
			glog.Warningf("dd: sectors per block %d set different than expected %d",
				dd.regs[regSecByte]+1, sectorsPerBlock+c2Sectors+1)
		}

	default:
		dd.regs[reg] = value
	}
}

// writeBMCtl handles a write to BM_STATUS_CTL.
func (dd *Controller) writeBMCtl(value uint32) {
	switch start := (value >> 16) & 0xff; start {
	case 0x00:
		dd.bmBlock = 0
		dd.regs[regCurSector] = 0
	case bmStartBlock1:
		dd.bmBlock = 1
		dd.regs[regCurSector] = 0
	default:
		glog.Errorf("dd: start sector %#02x not aligned", start)
	}

	if value&bmCtlMechaRst != 0 {
		dd.regs[regCmdStatus] &^= statusMechaInt
	}
	if value&bmCtlBlkTrans != 0 {
		dd.regs[regBMStatusCtl] |= bmStatusBlock
	}

	// reset is level triggered, it takes effect when released
	if value&bmCtlReset != 0 {
		dd.bmResetHeld = true
	}
	if value&bmCtlReset == 0 && dd.bmResetHeld {
		dd.bmResetHeld = false
		dd.regs[regCmdStatus] &^= statusDataRq | statusC2Xfer | statusBMErr | statusBMInt
		dd.regs[regBMStatusCtl] = 0
		dd.regs[regCurSector] = 0
		dd.bmBlock = 0
	}

	if dd.regs[regCmdStatus]&(statusBMInt|statusMechaInt) == 0 {
		dd.clear(statusBMInt)
	}

	if value&bmCtlStart != 0 {
		if dd.bmWrite && value&bmCtlMngrMode != 0 {
			glog.Warningf("dd: attempt to write disk with BM mode 1")
		}
		if !dd.bmWrite && value&bmCtlMngrMode == 0 {
			glog.Warningf("dd: attempt to read disk with BM mode 0")
		}
		dd.regs[regBMStatusCtl] |= bmStatusRunning
		dd.UpdateBM()
	}
}

func (dd *Controller) readMSRAM(off uint32) uint32 {
	off &= msRAMSize - 4
	return binary.BigEndian.Uint32(dd.ms[off:])
}

func (dd *Controller) writeMSRAM(off, v uint32) {
	off &= msRAMSize - 4
	binary.BigEndian.PutUint32(dd.ms[off:], v)
}
