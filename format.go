package dd

import (
	"fmt"

	"github.com/golang/glog"
)

// Format is the layout of a disk image.
type Format int

const (
	// FormatFlat images store every physical zone back to back, head 0
	// zones first, so offsets come from fixed tables.
	FormatFlat Format = iota
	// FormatLBA images store blocks in LBA order; physical coordinates
	// are translated with the disk's own type and defect tables.
	FormatLBA
	// FormatDirect images are addressed as is; seeking does nothing.
	FormatDirect
)

func (f Format) String() string {
	switch f {
	case FormatFlat:
		return "flat"
	case FormatLBA:
		return "lba"
	case FormatDirect:
		return "direct"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// layout resolves the current track, block and sector into an image offset.
type layout interface {
	// seek sets dd.bmTrackOffset for the current sector.
	seek(dd *Controller)
	// writeLength is the number of bytes a sector write stores.
	writeLength(dd *Controller) uint32
}

// newLayout selects the layout of disk, building its geometry when the
// format needs one.
func newLayout(disk Disk) (layout, *Geometry, error) {
	ex := disk.Extra()
	switch ex.Format {
	case FormatFlat:
		return flatLayout{}, nil, nil
	case FormatLBA:
		data := disk.Data()
		if uint64(ex.OffsetSys)+systemDataSize > uint64(len(data)) {
			return nil, nil, fmt.Errorf("dd: system data at %#x of %d byte image: %w", ex.OffsetSys, len(data), ErrSystemData)
		}
		geo, err := NewGeometry(data[ex.OffsetSys:])
		if err != nil {
			return nil, nil, fmt.Errorf("dd: %w", err)
		}
		return lbaLayout{geo}, geo, nil
	default:
		return directLayout{}, nil, nil
	}
}

// flat image zone offsets.
var flatZoneOffset = [16]uint32{
	0x0000000, 0x05f15e0, 0x0b79d00, 0x10801a0,
	0x1523720, 0x1963d80, 0x1d414c0, 0x20bbce0,
	0x23196e0, 0x28a1e00, 0x2df5dc0, 0x3299340,
	0x36d99a0, 0x3ab70e0, 0x3e31900, 0x4149200,
}

// flat image first track of each head 0 zone.
var flatZoneTrack = [8]uint32{
	0x000, 0x09e, 0x13c, 0x1d1, 0x266, 0x2fb, 0x390, 0x425,
}

type flatLayout struct{}

func (flatLayout) seek(dd *Controller) {
	head8 := (dd.regs[regCurTk] & 0x1000) >> 9
	track := dd.regs[regCurTk] & 0x0fff

	zone := uint32(7)
	for ; zone > 0; zone-- {
		if track >= flatZoneTrack[zone] {
			break
		}
	}
	trOff := track - flatZoneTrack[zone]

	zone += head8
	dd.bmZone = zone
	dd.bmTrackOffset = flatZoneOffset[zone] + trOff*trackSize(zone) +
		dd.bmBlock*blockSize(zone) +
		(dd.regs[regCurSector]-dd.bmSector())*zoneSecSize[zone]

	if dd.regs[regCurSector] == 0 {
		dd.checkSystemArea()
	}
}

func (flatLayout) writeLength(dd *Controller) uint32 { return zoneSecSize[dd.bmZone] }

type lbaLayout struct {
	geo *Geometry
}

func (l lbaLayout) seek(dd *Controller) {
	head := uint16((dd.regs[regCurTk] & 0x1000) / 0x1000)
	track := uint16(dd.regs[regCurTk] & 0x0fff)
	sector := dd.regs[regCurSector] - dd.bmSector()
	size := dd.regs[regHostSecByte] + 1

	lba := l.geo.PhysToLBA(head, track, uint16(dd.bmBlock))
	if lba == NoLBA {
		glog.Errorf("dd: no LBA at head %d track %d block %d", head, track, dd.bmBlock)
	}
	dd.bmTrackOffset = l.geo.LBAToByte(0, lba) + sector*size

	if sector == 0 {
		dd.checkSystemArea()
	}
}

func (lbaLayout) writeLength(dd *Controller) uint32 { return dd.regs[regHostSecByte] + 1 }

type directLayout struct{}

func (directLayout) seek(dd *Controller) {}

func (directLayout) writeLength(dd *Controller) uint32 { return dd.regs[regHostSecByte] + 1 }

// bmSector is the sector lag of a write: the data of sector n is stored
// while sector n+1 is requested.
func (dd *Controller) bmSector() uint32 {
	if dd.bmWrite {
		return 1
	}
	return 0
}

// checkSystemArea flags a BM micro error when a block of the system area
// is not where the disk's system data or disk ID says it is.
func (dd *Controller) checkSystemArea() {
	ex := dd.disk.Extra()
	block := dd.bmTrackOffset / systemBlock
	sys := ex.OffsetSys / systemBlock
	id := ex.OffsetID / systemBlock
	switch {
	case block < 12 && block != sys:
		dd.regs[regBMStatusCtl] |= bmStatusMicro
	case block > 12 && block < 16 && block != id:
		dd.regs[regBMStatusCtl] |= bmStatusMicro
	}
}
