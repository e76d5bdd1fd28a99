package dd

import (
	"testing"
	"time"
)

type testDisk struct {
	data  []byte
	extra Extra
}

func (d *testDisk) Data() []byte { return d.data }
func (d *testDisk) Extra() Extra { return d.extra }

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type testCPU struct {
	line        bool
	raised      int
	cleared     int
	invalidated [][2]uint32
}

func (c *testCPU) RaiseInterrupt(line Interrupt) {
	if line != IP3 {
		panic("unexpected interrupt line " + line.String())
	}
	c.line = true
	c.raised++
}

func (c *testCPU) ClearInterrupt(line Interrupt) {
	c.line = false
	c.cleared++
}

func (c *testCPU) InvalidateCachedCode(address, length uint32) {
	c.invalidated = append(c.invalidated, [2]uint32{address, length})
}

// flatDisk returns a flat image holding the first track of zone 0, each
// sector filled with its sector number plus one.
func flatDisk(dev bool) *testDisk {
	data := make([]byte, trackSize(0))
	for i := range data {
		data[i] = byte(i/int(zoneSecSize[0]) + 1)
	}
	return &testDisk{
		data:  data,
		extra: Extra{Format: FormatFlat, Development: dev},
	}
}

// systemData returns zeroed system data of disk type dt.
func systemData(dt uint8) []byte {
	sys := make([]byte, systemDataSize)
	sys[sysDiskType] = 0x10 | dt
	return sys
}

// newController returns a powered on controller with a test CPU and clock.
func newController(t *testing.T, disk Disk) (*Controller, *testCPU, *testClock) {
	t.Helper()
	cpu := new(testCPU)
	clock := &testClock{t: time.Date(2026, time.October, 14, 12, 34, 56, 0, time.UTC)}
	dd, err := New(Config{
		Disk:     disk,
		Clock:    clock,
		CPU:      cpu,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatal(err)
	}
	dd.PowerOn()
	return dd, cpu, clock
}

func reg(r uint32) uint32 { return Regs + r*4 }

const full = ^uint32(0)

// seek issues a seek command for track on head.
func seek(dd *Controller, head, track uint32, write bool) {
	dd.Write(reg(regData), (head<<12|track)<<16, full)
	cmd := uint32(cmdSeekRead) << 16
	if write {
		cmd = uint32(cmdSeekWrite) << 16
	}
	dd.Write(reg(regCmdStatus), cmd|1, full)
}
