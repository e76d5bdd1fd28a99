package dd

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestPhysToLBARoundTrip(t *testing.T) {
	for dt := uint8(0); dt < DiskTypes; dt++ {
		g, err := NewGeometry(systemData(dt))
		if err != nil {
			t.Fatal(err)
		}
		for lba := uint32(0); lba <= MaxLBA; lba++ {
			head, track, block := UnpackPhys(g.LBAToPhys(lba))
			if got := g.PhysToLBA(head, track, block); got != lba {
				t.Fatalf("type %d: PhysToLBA(LBAToPhys(%#x)) = %#x", dt, lba, got)
			}
		}
	}
}

func TestLBAToPhys(t *testing.T) {
	is := is.New(t)
	g, err := NewGeometry(systemData(0))
	is.NoErr(err)

	tests := []struct {
		lba  uint32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x2000},
		{2, 0x2001},
		{3, 0x0001},
		{0x123, 0x0091},
		{0x124, 0x009e},
		// type 0 zone 3 is the second zone of head 1, it counts down
		{0x35a, 0x312f},
		{0x35b, 0x112f},
		{0x35c, 0x112e},
	}
	for _, tt := range tests {
		if got := g.LBAToPhys(tt.lba); got != tt.want {
			t.Errorf("LBAToPhys(%#x) = %#04x, want %#04x", tt.lba, got, tt.want)
		}
	}
}

func TestLBAToPhysDefectTracks(t *testing.T) {
	is := is.New(t)
	sys := systemData(0)
	// two defect tracks in physical zone 0, none elsewhere
	for z := 0; z < 16; z++ {
		sys[sysDefects+z] = 2
	}
	sys[sysDefect] = 3
	sys[sysDefect+1] = 10

	g, err := NewGeometry(sys)
	is.NoErr(err)

	is.Equal(g.LBAToPhys(4), uint16(0x0002))
	is.Equal(g.LBAToPhys(6), uint16(0x2004)) // track 3 is skipped
	is.Equal(g.LBAToPhys(16), uint16(0x0009))
	is.Equal(g.LBAToPhys(18), uint16(0x200b)) // and track 10
	is.Equal(g.LBAToPhys(20), uint16(0x000c))

	for lba := uint32(0); lba < VZoneLBA(0, 0); lba++ {
		_, track, _ := UnpackPhys(g.LBAToPhys(lba))
		if track == 3 || track == 10 {
			t.Fatalf("lba %#x placed on defect track %d", lba, track)
		}
	}
	for lba := uint32(0); lba <= MaxLBA; lba++ {
		head, track, block := UnpackPhys(g.LBAToPhys(lba))
		is.Equal(g.PhysToLBA(head, track, block), lba)
	}
}

func TestPhysToLBANotFound(t *testing.T) {
	is := is.New(t)
	g, err := NewGeometry(systemData(3))
	is.NoErr(err)
	is.Equal(g.PhysToLBA(0, 0x0fff, 0), uint32(NoLBA))
	is.Equal(g.PhysToLBA(0, 150, 1), uint32(NoLBA)) // spare track of zone 0
}

func TestLBAToByteA(t *testing.T) {
	tests := []struct {
		name       string
		lba, nlbas uint32
		want       uint32
	}{
		{"empty", 0, 0, 0},
		{"first block", 0, 1, 232 * 85},
		{"zone 0", 0, 0x124, 0x124 * 232 * 85},
		{"zone boundary", 0x123, 2, 232*85 + 216*85},
		{"last block", MaxLBA, 1, 192 * 85},
		{"past last block", 0x10da, 5, NoBytes},
		{"whole disk past end", 0, MaxLBA + 2, NoBytes},
		{"beyond table", 0x10dc, 1, NoBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LBAToByteA(0, tt.lba, tt.nlbas); got != tt.want {
				t.Fatalf("LBAToByteA(0, %#x, %d) = %#x, want %#x", tt.lba, tt.nlbas, got, tt.want)
			}
		})
	}
}

func TestLBAToByteAHead1Zones(t *testing.T) {
	is := is.New(t)
	// type 0 zone 3 lives on physical zone 9, sized as physical zone 2
	is.Equal(LBAToByteA(0, 0x35a, 1), uint32(208*85))
	// the head 1 inner zone is the smallest
	is.Equal(LBAToByteA(6, 0x093a-1, 1), uint32(112*85))
}

func TestLBAToVZone(t *testing.T) {
	is := is.New(t)
	is.Equal(LBAToVZone(0, 0), uint32(0))
	is.Equal(LBAToVZone(0, 0x123), uint32(0))
	is.Equal(LBAToVZone(0, 0x124), uint32(1))
	is.Equal(LBAToVZone(0, MaxLBA), uint32(15))
	is.Equal(LBAToVZone(0, MaxLBA+1), uint32(NoBytes))
	is.Equal(LBAToVZone(9, 0), uint32(NoBytes))
}

func TestZoneTablesInverse(t *testing.T) {
	for dt := uint8(0); dt < DiskTypes; dt++ {
		for vz := uint32(0); vz < 16; vz++ {
			if got := PZoneToVZone(dt, VZoneToPZone(dt, vz)); got != vz {
				t.Errorf("type %d: vzone %d maps back to %d", dt, vz, got)
			}
		}
	}
}

func TestZoneTables(t *testing.T) {
	is := is.New(t)
	for dt := uint8(0); dt < DiskTypes; dt++ {
		is.Equal(VZoneLBA(dt, 15), uint32(MaxLBA+1))
		var start uint32
		for vz := uint32(0); vz < 16; vz++ {
			end := VZoneLBA(dt, vz)
			tracks := (end - start) / 2
			pz := int(VZoneToPZone(dt, vz))
			if tracks > ZoneTracks(pz) {
				t.Errorf("type %d: vzone %d needs %d tracks, zone %d has %d", dt, vz, tracks, pz, ZoneTracks(pz))
			}
			start = end
		}
	}
	is.Equal(ZoneSectorSize(0), uint32(232))
	is.Equal(ZoneSectorSize(15), uint32(112))
}

func TestZoneTablesOutOfRange(t *testing.T) {
	funcs := []struct {
		name string
		fn   func(uint8, uint32) uint32
	}{
		{"VZoneToPZone", VZoneToPZone},
		{"PZoneToVZone", PZoneToVZone},
		{"StartBlock", StartBlock},
		{"VZoneLBA", VZoneLBA},
	}
	args := []struct {
		dt   uint8
		zone uint32
	}{
		{7, 0},
		{15, 0},
		{0, 16},
		{0, NoBytes},
	}
	for _, f := range funcs {
		t.Run(f.name, func(t *testing.T) {
			for _, a := range args {
				if got := f.fn(a.dt, a.zone); got != NoBytes {
					t.Errorf("%s(%d, %d) = %#x, want NoBytes", f.name, a.dt, a.zone, got)
				}
			}
			// the upper nibble of the type byte is ignored
			is.New(t).Equal(f.fn(0x10, 3), f.fn(0, 3))
		})
	}

	is := is.New(t)
	is.Equal(ZoneSectorSize(-1), uint32(NoBytes))
	is.Equal(ZoneSectorSize(16), uint32(NoBytes))
	is.Equal(ZoneTracks(-1), uint32(NoBytes))
	is.Equal(ZoneTracks(16), uint32(NoBytes))
	is.Equal(ZoneTracks(15), uint32(114))
}

func TestNewGeometryErrors(t *testing.T) {
	is := is.New(t)

	_, err := NewGeometry(make([]byte, 16))
	is.True(errors.Is(err, ErrSystemData))

	_, err = NewGeometry(systemData(7))
	is.True(errors.Is(err, ErrDiskType))

	g, err := NewGeometry(systemData(0x25))
	is.NoErr(err)
	is.Equal(g.DiskType(), uint8(5))
}

func BenchmarkNewGeometry(b *testing.B) {
	sys := systemData(2)
	for i := 0; i < b.N; i++ {
		if _, err := NewGeometry(sys); err != nil {
			b.Fatal(err)
		}
	}
}
