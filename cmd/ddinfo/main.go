// ddinfo inspects 64DD disk images through the drive controller.
package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/golang/glog"

	dd "github.com/davecheney/n64dd"
)

func main() {
	var cli struct {
		Verbose int `name:"verbose" short:"v" default:"0" help:"glog verbosity"`

		Zones zonesCmd `cmd:"" help:"print the zone layout of a disk type"`
		Map   mapCmd   `cmd:"" help:"print the physical location of every LBA of an image"`
		Read  readCmd  `cmd:"" help:"read a block through the drive registers and dump it"`
	}

	ctx := kong.Parse(&cli)

	ctx.FatalIfErrorf(setupLogging(cli.Verbose))

	err := ctx.Run(ctx)
	glog.Flush()
	ctx.FatalIfErrorf(err)
}

// setupLogging sends glog output to stderr at the given verbosity. glog
// registers its flags on the standard flag set, which kong never parses.
func setupLogging(verbose int) error {
	if err := flag.CommandLine.Parse(nil); err != nil {
		return err
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		return err
	}
	return flag.Set("v", strconv.Itoa(verbose))
}

type zonesCmd struct {
	Type uint8 `name:"type" required:"" help:"disk type, 0 to 6"`
}

func (z *zonesCmd) Run(ctx *kong.Context) error {
	if z.Type >= dd.DiskTypes {
		return fmt.Errorf("disk type %d out of range", z.Type)
	}
	fmt.Printf("%-5s %-5s %-4s %-11s %-6s %-5s %s\n", "vzone", "pzone", "head", "lba", "tracks", "start", "secsize")
	var first uint32
	for vz := uint32(0); vz < 16; vz++ {
		pz := dd.VZoneToPZone(z.Type, vz)
		head := 0
		if pz > 7 {
			head = 1
		}
		end := dd.VZoneLBA(z.Type, vz)
		fmt.Printf("%-5d %-5d %-4d %04x-%04x   %-6d %-5d %d\n",
			vz, pz, head, first, end-1, (end-first)/2,
			dd.StartBlock(z.Type, vz), dd.ZoneSectorSize(int(pz)))
		first = end
	}
	return nil
}

type mapCmd struct {
	Image     string `arg:"" type:"existingfile" help:"path to an LBA ordered image"`
	SysOffset uint32 `name:"sys-offset" default:"0" help:"byte offset of the system data"`
}

func (m *mapCmd) Run(ctx *kong.Context) error {
	img, err := openImage(m.Image, dd.Extra{Format: dd.FormatLBA, OffsetSys: m.SysOffset})
	if err != nil {
		return err
	}
	defer img.Close()

	if uint64(m.SysOffset) >= uint64(len(img.Data())) {
		return fmt.Errorf("%s: system data offset %#x past end of image", m.Image, m.SysOffset)
	}
	geo, err := dd.NewGeometry(img.Data()[m.SysOffset:])
	if err != nil {
		return fmt.Errorf("%s: %w", m.Image, err)
	}

	fmt.Printf("# disk type %d\n", geo.DiskType())
	for lba := uint32(0); lba <= dd.MaxLBA; lba++ {
		head, track, block := dd.UnpackPhys(geo.LBAToPhys(lba))
		fmt.Printf("%04x %d %03x %d %08x\n", lba, head, track, block, geo.LBAToByte(0, lba))
	}
	return nil
}
