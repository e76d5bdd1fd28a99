package dd

import "github.com/golang/glog"

// UpdateBM advances the block manager by one sector and signals a BM
// interrupt. It does nothing unless a transfer is running.
//
// Writes lag one sector behind: sector 0 only requests data, and each
// following step stores the sector the host supplied for the previous
// request. Reads move 85 data sectors, zero 4 C2 sectors and stop in the
// gap sector unless the host asked to continue with the other block.
func (dd *Controller) UpdateBM() {
	if dd.regs[regBMStatusCtl]&bmStatusRunning == 0 {
		return
	}
	if dd.layout == nil {
		dd.layout = directLayout{}
	}

	sector := dd.regs[regCurSector]
	if dd.bmWrite {
		switch {
		case sector == 0:
			dd.regs[regCurSector]++
			dd.regs[regCmdStatus] |= statusDataRq
		case sector < sectorsPerBlock:
			dd.layout.seek(dd)
			dd.writeSector()
			dd.regs[regCurSector]++
			dd.regs[regCmdStatus] |= statusDataRq
		case sector < sectorsPerBlock+1:
			dd.layout.seek(dd)
			dd.writeSector()
			if dd.regs[regBMStatusCtl]&bmStatusBlock != 0 {
				dd.bmBlock = 1 - dd.bmBlock
				dd.regs[regCurSector] = 1
				dd.regs[regBMStatusCtl] &^= bmStatusBlock
				dd.regs[regCmdStatus] |= statusDataRq
			} else {
				dd.regs[regCurSector]++
				dd.regs[regBMStatusCtl] &^= bmStatusRunning
			}
		default:
			glog.Errorf("dd: write sector %d overrun", sector)
		}
	} else {
		switch {
		case dd.regs[regCurTk]&0x1fff == 6 && dd.bmBlock == 0 && !dd.development():
			// retail drives cannot read this track
			dd.regs[regCmdStatus] &^= statusDataRq
			dd.regs[regBMStatusCtl] |= bmStatusMicro
		case sector < sectorsPerBlock:
			dd.layout.seek(dd)
			dd.readSector()
			dd.regs[regCurSector]++
			dd.regs[regCmdStatus] |= statusDataRq
		case sector < sectorsPerBlock+c2Sectors:
			dd.readC2()
			dd.regs[regCurSector]++
			if dd.regs[regCurSector] == sectorsPerBlock+c2Sectors {
				dd.regs[regCmdStatus] |= statusC2Xfer
			}
		case sector == sectorsPerBlock+c2Sectors:
			// gap
			if dd.regs[regBMStatusCtl]&bmStatusBlock != 0 {
				dd.bmBlock = 1 - dd.bmBlock
				dd.regs[regCurSector] = 0
				dd.regs[regBMStatusCtl] &^= bmStatusBlock
			} else {
				dd.regs[regBMStatusCtl] &^= bmStatusRunning
			}
		default:
			glog.Errorf("dd: read sector %d overrun", sector)
		}
	}

	dd.signal(statusBMInt)
}

// readC2 zero fills the C2 buffer slot of the current C2 sector.
func (dd *Controller) readC2() {
	length := zoneSecSize[dd.bmZone]
	offset := 0x40 * (dd.regs[regCurSector] - sectorsPerBlock)
	glog.V(2).Infof("dd: read C2: length=%08x, offset=%08x", length, offset)

	for i := uint32(0); i < length; i++ {
		dd.c2s[((offset+i)^3)&(c2sSize-1)] = 0
	}
}

// readSector copies the current sector from the disk into the data buffer.
func (dd *Controller) readSector() {
	data, ok := dd.sectorData(dd.regs[regHostSecByte] + 1)
	if !ok {
		return
	}
	for i := range data {
		dd.ds[i^3] = data[i]
	}
}

// writeSector stores the data buffer into the current sector of the disk.
func (dd *Controller) writeSector() {
	data, ok := dd.sectorData(dd.layout.writeLength(dd))
	if !ok {
		return
	}
	for i := range data {
		data[i] = dd.ds[i^3]
	}
}

// sectorData returns the image bytes of the current sector.
func (dd *Controller) sectorData(length uint32) ([]byte, bool) {
	if dd.disk == nil {
		glog.Errorf("dd: sector access without a disk")
		return nil, false
	}
	if length > dsSize {
		length = dsSize
	}
	disk := dd.disk.Data()
	off := uint64(dd.bmTrackOffset)
	if off+uint64(length) > uint64(len(disk)) {
		glog.Errorf("dd: sector at %#x+%#x outside %d byte image", off, length, len(disk))
		return nil, false
	}
	return disk[off : off+uint64(length)], true
}
