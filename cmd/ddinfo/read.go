package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/golang/glog"

	dd "github.com/davecheney/n64dd"
)

// register addresses and bits as seen by a host driver
const (
	ddData        = dd.Regs + 0x00
	ddCmdStatus   = dd.Regs + 0x08
	ddBMStatusCtl = dd.Regs + 0x10
	ddCurSector   = dd.Regs + 0x1c
	ddHostSecByte = dd.Regs + 0x28
	ddSecByte     = dd.Regs + 0x30

	statusDataRq = 0x40000000
	statusC2Xfer = 0x10000000

	bmRunning = 0x80000000
	bmMicro   = 0x02000000

	bmStart    = 0x80000000
	bmMngrMode = 0x40000000
	bmReset    = 0x10000000
	bmMechaRst = 0x01000000

	cmdSeekRead = 0x01
	cmdClrReset = 0x09

	full = ^uint32(0)
)

var errMicro = errors.New("BM micro error")

type readCmd struct {
	Image     string `arg:"" type:"existingfile" help:"path to disk image"`
	Track     uint32 `name:"track" required:"" help:"track, 0 to 0xfff"`
	Head      uint32 `name:"head" default:"0" help:"head, 0 or 1"`
	Block     uint32 `name:"block" default:"0" help:"block, 0 or 1"`
	Format    string `name:"format" default:"flat" help:"image format: lba, flat or direct"`
	Dev       bool   `name:"dev" help:"the image is a development disk"`
	SysOffset uint32 `name:"sys-offset" default:"0" help:"byte offset of the system data block"`
	IDOffset  uint32 `name:"id-offset" default:"276080" help:"byte offset of the disk ID block"`
}

// nopCPU swallows interrupts; the command polls the status register.
type nopCPU struct{}

func (nopCPU) RaiseInterrupt(dd.Interrupt) {}
func (nopCPU) ClearInterrupt(dd.Interrupt) {}
func (nopCPU) InvalidateCachedCode(_, _ uint32) {}

func (r *readCmd) Run(ctx *kong.Context) error {
	var format dd.Format
	switch r.Format {
	case "flat":
		format = dd.FormatFlat
	case "lba":
		format = dd.FormatLBA
	case "direct":
		format = dd.FormatDirect
	default:
		return fmt.Errorf("unknown format %q", r.Format)
	}
	if r.Head > 1 || r.Block > 1 || r.Track > 0xfff {
		return fmt.Errorf("head %d track %d block %d out of range", r.Head, r.Track, r.Block)
	}

	img, err := openImage(r.Image, dd.Extra{
		Format:      format,
		Development: r.Dev,
		OffsetSys:   r.SysOffset,
		OffsetID:    r.IDOffset,
	})
	if err != nil {
		return err
	}
	defer img.Close()

	c, err := dd.New(dd.Config{Disk: img, CPU: nopCPU{}})
	if err != nil {
		return fmt.Errorf("%s: %w", r.Image, err)
	}
	c.PowerOn()

	size := r.sectorSize(c)
	data, err := readBlock(c, r.Head, r.Track, r.Block, size)
	if err != nil {
		return fmt.Errorf("head %d track %d block %d: %w", r.Head, r.Track, r.Block, err)
	}

	fmt.Printf("# head %d track %d block %d, %d sectors of %d bytes\n",
		r.Head, r.Track, r.Block, len(data)/int(size), size)
	d := hex.Dumper(os.Stdout)
	defer d.Close()
	_, err = d.Write(data)
	return err
}

// sectorSize returns the sector size the drive expects at the requested
// location.
func (r *readCmd) sectorSize(c *dd.Controller) uint32 {
	if geo := c.Geometry(); geo != nil {
		if lba := geo.PhysToLBA(uint16(r.Head), uint16(r.Track), uint16(r.Block)); lba != dd.NoLBA {
			return geo.LBAToByte(lba, 1) / 85
		}
	}
	// head 0 zone boundaries, shared by head 1
	zone, first := 0, uint32(0)
	for ; zone < 7; zone++ {
		if r.Track < first+dd.ZoneTracks(zone) {
			break
		}
		first += dd.ZoneTracks(zone)
	}
	return dd.ZoneSectorSize(zone + 8*int(r.Head))
}

// readBlock reads one block the way the IPL driver does: seek, start the
// block manager, then service data and C2 requests until it stops.
func readBlock(c *dd.Controller, head, track, block, size uint32) ([]byte, error) {
	c.Write(ddCmdStatus, cmdClrReset<<16, full)
	c.Write(ddBMStatusCtl, bmReset, full)
	c.Write(ddBMStatusCtl, 0, full)

	c.Write(ddData, (head<<12|track)<<16, full)
	c.Write(ddCmdStatus, cmdSeekRead<<16, full)

	c.Write(ddHostSecByte, (size-1)<<16, full)
	c.Write(ddSecByte, 89<<24, full)

	start := uint32(0)
	if block == 1 {
		start = 0x5a
	}
	c.Write(ddBMStatusCtl, start<<16|bmStart|bmMngrMode|bmMechaRst, full)

	var out []byte
	dram := make([]byte, 0x100)
	for step := 0; step < 100; step++ {
		status := c.Read(ddCmdStatus)
		if c.Read(ddBMStatusCtl)&bmMicro != 0 {
			return out, errMicro
		}
		if status&statusDataRq != 0 {
			c.CartAddrObserved(dd.DSBuffer)
			c.DMAWrite(dram, 0, dd.DSBuffer, size)
			for i := uint32(0); i < size; i++ {
				out = append(out, dram[i^3])
			}
		}
		if status&statusC2Xfer != 0 {
			c.CartAddrObserved(dd.C2SBuffer)
		}
		if c.Read(ddBMStatusCtl)&bmRunning == 0 {
			return out, nil
		}
		c.UpdateBM()
	}
	glog.Errorf("block manager still running at sector %d", c.Read(ddCurSector))
	return out, errors.New("transfer did not finish")
}
