package dd

import (
	"errors"
	"fmt"
)

// Disk geometry.
const (
	sectorsPerBlock = 85
	blocksPerTrack  = 2
	c2Sectors       = 4

	// MaxLBA is the last addressable logical block.
	MaxLBA  = 0x10db
	sizeLBA = MaxLBA + 1

	// NoLBA is returned by PhysToLBA for a coordinate no LBA maps to.
	NoLBA = 0xffff
	// NoBytes is returned for a block run that cannot be addressed.
	NoBytes = 0xffffffff

	// DiskTypes is the number of disk type zone layouts.
	DiskTypes = 7

	systemDataSize = 0xe8
	systemBlock    = 0x4d08 // bytes in a zone 0 block

	sysDiskType = 0x05 // low nibble is the disk type
	sysDefects  = 0x08 // cumulative defect track counts per physical zone
	sysDefect   = 0x20 // defect tracks, zone relative, ascending
)

var (
	// ErrDiskType is returned when a disk's system data names an unknown disk type.
	ErrDiskType = errors.New("invalid disk type")
	// ErrSystemData is returned when a disk image cannot hold its system data.
	ErrSystemData = errors.New("system data out of range")
)

// zoneSecSize is the sector size of each zone, head 0 zones first.
var zoneSecSize = [16]uint32{
	232, 216, 208, 192, 176, 160, 144, 128,
	216, 208, 192, 176, 160, 144, 128, 112,
}

// zoneSecSizePhys is the sector size of each physical zone after head folding.
var zoneSecSizePhys = [9]uint32{
	232, 216, 208, 192, 176, 160, 144, 128, 112,
}

var zoneTracks = [16]uint32{
	158, 158, 149, 149, 149, 149, 149, 114,
	158, 158, 149, 149, 149, 149, 149, 114,
}

var vzonePZone = [DiskTypes][16]uint8{
	{0x0, 0x1, 0x2, 0x9, 0x8, 0x3, 0x4, 0x5, 0x6, 0x7, 0xf, 0xe, 0xd, 0xc, 0xb, 0xa},
	{0x0, 0x1, 0x2, 0x3, 0xa, 0x9, 0x8, 0x4, 0x5, 0x6, 0x7, 0xf, 0xe, 0xd, 0xc, 0xb},
	{0x0, 0x1, 0x2, 0x3, 0x4, 0xb, 0xa, 0x9, 0x8, 0x5, 0x6, 0x7, 0xf, 0xe, 0xd, 0xc},
	{0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0xc, 0xb, 0xa, 0x9, 0x8, 0x6, 0x7, 0xf, 0xe, 0xd},
	{0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0xd, 0xc, 0xb, 0xa, 0x9, 0x8, 0x7, 0xf, 0xe},
	{0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xe, 0xd, 0xc, 0xb, 0xa, 0x9, 0x8, 0xf},
	{0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xf, 0xe, 0xd, 0xc, 0xb, 0xa, 0x9, 0x8},
}

var pzoneVZone = [DiskTypes][16]uint8{
	{0, 1, 2, 5, 6, 7, 8, 9, 4, 3, 15, 14, 13, 12, 11, 10},
	{0, 1, 2, 3, 7, 8, 9, 10, 6, 5, 4, 15, 14, 13, 12, 11},
	{0, 1, 2, 3, 4, 9, 10, 11, 8, 7, 6, 5, 15, 14, 13, 12},
	{0, 1, 2, 3, 4, 5, 11, 12, 10, 9, 8, 7, 6, 15, 14, 13},
	{0, 1, 2, 3, 4, 5, 6, 13, 12, 11, 10, 9, 8, 7, 15, 14},
	{0, 1, 2, 3, 4, 5, 6, 7, 14, 13, 12, 11, 10, 9, 8, 15},
	{0, 1, 2, 3, 4, 5, 6, 7, 15, 14, 13, 12, 11, 10, 9, 8},
}

// startBlock is the block, 0 or 1, each virtual zone starts on.
var startBlock = [DiskTypes][16]uint8{
	{0, 0, 0, 1, 0, 1, 0, 1, 1, 1, 1, 0, 1, 0, 1, 1},
	{0, 0, 0, 1, 1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 0},
	{0, 0, 0, 1, 0, 1, 0, 1, 1, 1, 0, 1, 1, 0, 1, 1},
	{0, 0, 0, 1, 0, 1, 1, 0, 1, 1, 0, 1, 0, 1, 0, 0},
	{0, 0, 0, 1, 0, 1, 0, 1, 1, 1, 0, 1, 0, 1, 1, 1},
	{0, 0, 0, 1, 0, 1, 0, 1, 0, 0, 1, 0, 1, 0, 1, 0},
	{0, 0, 0, 1, 0, 1, 0, 1, 0, 0, 1, 0, 1, 0, 1, 1},
}

// vzoneLBA holds, per disk type, the first LBA past each virtual zone.
var vzoneLBA = [DiskTypes][16]uint16{
	{0x0124, 0x0248, 0x035a, 0x047e, 0x05a2, 0x06b4, 0x07c6, 0x08d8, 0x09ea, 0x0ab6, 0x0b82, 0x0c94, 0x0da6, 0x0eb8, 0x0fca, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x06a2, 0x07c6, 0x08d8, 0x09ea, 0x0afc, 0x0bc8, 0x0c94, 0x0da6, 0x0eb8, 0x0fca, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x0690, 0x07a2, 0x08c6, 0x09ea, 0x0afc, 0x0c0e, 0x0cda, 0x0da6, 0x0eb8, 0x0fca, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x0690, 0x07a2, 0x08b4, 0x09c6, 0x0aea, 0x0c0e, 0x0d20, 0x0dec, 0x0eb8, 0x0fca, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x0690, 0x07a2, 0x08b4, 0x09c6, 0x0ad8, 0x0bea, 0x0d0e, 0x0e32, 0x0efe, 0x0fca, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x0690, 0x07a2, 0x086e, 0x0980, 0x0a92, 0x0ba4, 0x0cb6, 0x0dc8, 0x0eec, 0x1010, 0x10dc},
	{0x0124, 0x0248, 0x035a, 0x046c, 0x057e, 0x0690, 0x07a2, 0x086e, 0x093a, 0x0a4c, 0x0b5e, 0x0c70, 0x0d82, 0x0e94, 0x0fb8, 0x10dc},
}

// trackZone is the first track of each physical zone. Head 0 zones count
// up from their start, head 1 zones (8-15) count down from theirs.
var trackZone = [16]uint16{
	0x000, 0x09e, 0x13c, 0x1d1, 0x266, 0x2fb, 0x390, 0x425,
	0x091, 0x12f, 0x1c4, 0x259, 0x2ee, 0x383, 0x418, 0x48a,
}

// outerCylinder is the outer edge of each head 1 zone.
var outerCylinder = [8]uint16{
	0x000, 0x09e, 0x13c, 0x1d1, 0x266, 0x2fb, 0x390, 0x425,
}

func blockSize(zone uint32) uint32 { return zoneSecSize[zone] * sectorsPerBlock }
func trackSize(zone uint32) uint32 { return blockSize(zone) * blocksPerTrack }

// ZoneSectorSize returns the sector size in bytes of zone, or NoBytes
// for a zone outside 0..15.
func ZoneSectorSize(zone int) uint32 {
	if zone < 0 || zone >= len(zoneSecSize) {
		return NoBytes
	}
	return zoneSecSize[zone]
}

// ZoneTracks returns the number of physical tracks in zone, or NoBytes
// for a zone outside 0..15.
func ZoneTracks(zone int) uint32 {
	if zone < 0 || zone >= len(zoneTracks) {
		return NoBytes
	}
	return zoneTracks[zone]
}

// zoneIndex masks diskType and reports whether it and zone index the
// per disk type tables.
func zoneIndex(diskType uint8, zone uint32) (uint8, bool) {
	dt := diskType & 0x0f
	return dt, dt < DiskTypes && zone < 16
}

// VZoneToPZone maps a virtual zone to its physical zone for a disk type.
// It returns NoBytes for an unknown disk type or zone.
func VZoneToPZone(diskType uint8, vzone uint32) uint32 {
	dt, ok := zoneIndex(diskType, vzone)
	if !ok {
		return NoBytes
	}
	return uint32(vzonePZone[dt][vzone])
}

// PZoneToVZone maps a physical zone back to its virtual zone for a disk type.
// It returns NoBytes for an unknown disk type or zone.
func PZoneToVZone(diskType uint8, pzone uint32) uint32 {
	dt, ok := zoneIndex(diskType, pzone)
	if !ok {
		return NoBytes
	}
	return uint32(pzoneVZone[dt][pzone])
}

// StartBlock returns the block a virtual zone starts on for a disk type,
// or NoBytes for an unknown disk type or zone.
func StartBlock(diskType uint8, vzone uint32) uint32 {
	dt, ok := zoneIndex(diskType, vzone)
	if !ok {
		return NoBytes
	}
	return uint32(startBlock[dt][vzone])
}

// VZoneLBA returns the first LBA past vzone for a disk type, or NoBytes
// for an unknown disk type or zone.
func VZoneLBA(diskType uint8, vzone uint32) uint32 {
	dt, ok := zoneIndex(diskType, vzone)
	if !ok {
		return NoBytes
	}
	return uint32(vzoneLBA[dt][vzone])
}

// LBAToVZone returns the virtual zone holding lba, or NoBytes if lba is
// past the last zone.
func LBAToVZone(diskType uint8, lba uint32) uint32 {
	dt := diskType & 0x0f
	if dt >= DiskTypes {
		return NoBytes
	}
	t := &vzoneLBA[dt]
	for vzone := range t {
		if lba < uint32(t[vzone]) {
			return uint32(vzone)
		}
	}
	return NoBytes
}

// LBAToByteA returns the number of bytes in the nlbas blocks starting at
// lba, or NoBytes if the run extends past MaxLBA.
//
// The run is only rejected once a block past MaxLBA would still be
// counted, so LBAToByteA(t, MaxLBA, 1) is the size of the last block.
// Other 64DD emulators return NoBytes for that call.
func LBAToByteA(diskType uint8, lba, nlbas uint32) uint32 {
	dt := diskType & 0x0f
	if dt >= DiskTypes {
		return NoBytes
	}
	var total, size, vz uint32
	for first := true; nlbas != 0; nlbas-- {
		// the zone only changes when the run crosses its boundary
		if first || uint32(vzoneLBA[dt][vz]) == lba {
			vz = LBAToVZone(dt, lba)
			if vz == NoBytes {
				return NoBytes
			}
			pzone := VZoneToPZone(dt, vz)
			if pzone > 7 {
				pzone -= 7
			}
			size = zoneSecSizePhys[pzone] * sectorsPerBlock
		}
		total += size
		lba++
		first = false
		if nlbas > 1 && lba > MaxLBA {
			return NoBytes
		}
	}
	return total
}

// PackPhys packs a physical coordinate the way the drive reports it.
func PackPhys(head, track, block uint16) uint16 {
	return track | head*0x1000 | block*0x2000
}

// UnpackPhys splits a packed physical coordinate.
func UnpackPhys(p uint16) (head, track, block uint16) {
	return (p >> 12) & 1, p & 0x0fff, (p >> 13) & 1
}

// Geometry translates between LBAs and physical coordinates of one disk,
// taking its disk type and defect tracks into account.
type Geometry struct {
	sys      []byte
	diskType uint8
	lbaPhys  [sizeLBA]uint16
}

// NewGeometry builds the geometry of the disk whose system data is sys.
func NewGeometry(sys []byte) (*Geometry, error) {
	if len(sys) < systemDataSize {
		return nil, fmt.Errorf("geometry: %d bytes of system data: %w", len(sys), ErrSystemData)
	}
	dt := sys[sysDiskType] & 0x0f
	if dt >= DiskTypes {
		return nil, fmt.Errorf("geometry: disk type %d: %w", dt, ErrDiskType)
	}
	g := &Geometry{sys: sys, diskType: dt}
	for lba := uint32(0); lba < sizeLBA; lba++ {
		g.lbaPhys[lba] = g.LBAToPhys(lba)
	}
	return g, nil
}

// DiskType returns the disk type recorded in the system data.
func (g *Geometry) DiskType() uint8 { return g.diskType }

// LBAToVZone returns the virtual zone holding lba.
func (g *Geometry) LBAToVZone(lba uint32) uint32 { return LBAToVZone(g.diskType, lba) }

// LBAToByte returns the number of bytes in the nlbas blocks starting at lba.
func (g *Geometry) LBAToByte(lba, nlbas uint32) uint32 {
	return LBAToByteA(g.diskType, lba, nlbas)
}

// LBAToPhys returns the packed physical coordinate of lba.
//
// Defect tracks are skipped by walking the zone's defect list, which
// must be ascending; a malformed list yields whatever the walk produces.
func (g *Geometry) LBAToPhys(lba uint32) uint16 {
	dt := g.diskType

	// blocks alternate 0 1 1 0 along the track pairs
	var block uint16 = 1
	if lba&3 == 0 || lba&3 == 3 {
		block = 0
	}

	vz := LBAToVZone(dt, lba)
	if vz == NoBytes {
		return NoLBA
	}
	pzone := uint16(VZoneToPZone(dt, vz))

	var head uint16
	if pzone > 7 {
		head = 1
	}

	var vzoneStart uint32
	if vz != 0 {
		vzoneStart = uint32(vzoneLBA[dt][vz-1])
	}

	track := uint16((lba - vzoneStart) >> 1)
	zoneStart := trackZone[pzone]
	if head != 0 {
		track = -track
		zoneStart = outerCylinder[pzone-8]
	}
	track += trackZone[pzone]

	var defect uint16
	if pzone != 0 {
		defect = uint16(g.sys[sysDefects+pzone-1])
	}
	n := uint16(g.sys[sysDefects+pzone]) - defect

	for n != 0 && g.defectTrack(defect)+zoneStart <= track {
		track++
		defect++
		n--
	}

	return PackPhys(head, track, block)
}

// defectTrack returns entry i of the defect track list, zero past the
// end of the image.
func (g *Geometry) defectTrack(i uint16) uint16 {
	if int(sysDefect)+int(i) >= len(g.sys) {
		return 0
	}
	return uint16(g.sys[sysDefect+int(i)])
}

// PhysToLBA returns the LBA stored at a physical coordinate, or NoLBA.
func (g *Geometry) PhysToLBA(head, track, block uint16) uint32 {
	want := PackPhys(head, track, block)
	for lba, p := range &g.lbaPhys {
		if p == want {
			return uint32(lba)
		}
	}
	return NoLBA
}
