// Package dd emulates the 64DD disk drive ASIC: its MMIO register file,
// the block manager that steps sector transfers, and the zoned disk
// geometry with defect track compensation.
//
// The controller is single threaded. Every method is called directly by
// the owning bus in response to a CPU access; nothing runs in the
// background and no locking is performed, including on the disk image
// shared with the storage backend.
package dd

import (
	"time"

	"github.com/golang/glog"
)

// Disk is the storage backend holding an attached disk image.
type Disk interface {
	// Data returns the disk image. The controller writes sectors into it.
	Data() []byte
	// Extra returns the image metadata.
	Extra() Extra
}

// Extra is disk image metadata owned by the storage backend.
type Extra struct {
	Format      Format
	Development bool
	OffsetSys   uint32 // byte offset of the system data block
	OffsetID    uint32 // byte offset of the disk ID block
}

// Clock is a monotonic wall clock source.
type Clock interface {
	Now() time.Time
}

// CPU is the host CPU core the controller interrupts.
type CPU interface {
	RaiseInterrupt(line Interrupt)
	ClearInterrupt(line Interrupt)
	InvalidateCachedCode(address, length uint32)
}

// Config holds the collaborators of a Controller.
type Config struct {
	Disk  Disk   // may be nil when no disk is inserted
	Clock Clock  // defaults to the system clock
	CPU   CPU    // may be nil, interrupts are then only visible in the status register
	ROM   []byte // IPL ROM in host word order (little endian 32 bit words)

	// Location is used to split RTC time into calendar fields,
	// time.Local when nil.
	Location *time.Location
}

// Controller is a 64DD drive controller. Use New to create one; the zero
// value runs with no disk and the system clock.
type Controller struct {
	regs [regCount]uint32

	bmWrite       bool   // direction latched by the last seek command
	bmBlock       uint32 // active half track
	bmZone        uint32 // zone of the current sector, sizes sectors
	bmTrackOffset uint32 // image offset of the current sector
	bmResetHeld   bool

	c2s [c2sSize]byte
	ds  [dsSize]byte
	ms  [msRAMSize]byte

	rtc rtc
	rom []byte

	disk   Disk
	layout layout
	geo    *Geometry // nil unless the disk uses FormatLBA

	cpu CPU
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New returns a controller wired to cfg. The controller must be powered
// on before use.
func New(cfg Config) (*Controller, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	dd := &Controller{
		rtc: rtc{clock: clock, loc: loc},
		rom: cfg.ROM,
		cpu: cfg.CPU,
	}
	if err := dd.attach(cfg.Disk); err != nil {
		return nil, err
	}
	return dd, nil
}

// PowerOn resets the controller to its power on state.
func (dd *Controller) PowerOn() {
	dd.regs = [regCount]uint32{}
	dd.c2s = [c2sSize]byte{}
	dd.ds = [dsSize]byte{}
	dd.ms = [msRAMSize]byte{}

	dd.bmWrite = false
	dd.bmResetHeld = false
	dd.bmBlock = 0
	dd.bmZone = 0
	dd.bmTrackOffset = 0

	dd.rtc.now = 0
	dd.rtc.last = 0

	dd.regs[regIDReg] = idRetail
	dd.regs[regCmdStatus] |= statusRstState
	if dd.disk != nil {
		dd.regs[regCmdStatus] |= statusDiskPres
		if dd.disk.Extra().Development {
			dd.regs[regIDReg] = idDevelopment
		}
	}
}

// Attach inserts disk into the drive and flags a disk change.
func (dd *Controller) Attach(disk Disk) error {
	if err := dd.attach(disk); err != nil {
		return err
	}
	if disk != nil {
		dd.regs[regCmdStatus] |= statusDiskChng
	}
	return nil
}

// Eject removes the disk from the drive.
func (dd *Controller) Eject() {
	dd.disk = nil
	dd.geo = nil
	dd.layout = directLayout{}
	glog.V(1).Infof("dd: disk ejected")
}

func (dd *Controller) attach(disk Disk) error {
	if disk == nil {
		dd.Eject()
		return nil
	}
	l, geo, err := newLayout(disk)
	if err != nil {
		return err
	}
	dd.disk, dd.layout, dd.geo = disk, l, geo
	ex := disk.Extra()
	glog.V(1).Infof("dd: disk attached: format %v, development %v, sys %#x, id %#x",
		ex.Format, ex.Development, ex.OffsetSys, ex.OffsetID)
	return nil
}

// Geometry returns the runtime geometry of an LBA addressed disk, or nil
// for other formats.
func (dd *Controller) Geometry() *Geometry { return dd.geo }

func (dd *Controller) development() bool {
	return dd.disk != nil && dd.disk.Extra().Development
}
