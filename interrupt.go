package dd

import "fmt"

// Interrupt is a host CPU interrupt line, numbered as the CP0 cause IP bits.
type Interrupt uint8

const (
	// IP3 is the cartridge interrupt line the drive is wired to.
	IP3 Interrupt = 3
)

func (i Interrupt) String() string {
	return fmt.Sprintf("IP%d", uint8(i))
}

// signal sets an interrupt source bit in the status register and asserts IP3.
func (dd *Controller) signal(src uint32) {
	dd.regs[regCmdStatus] |= src
	if dd.cpu != nil {
		dd.cpu.RaiseInterrupt(IP3)
	}
}

// clear resets an interrupt source bit and deasserts IP3, even if the
// other source is still pending.
func (dd *Controller) clear(src uint32) {
	dd.regs[regCmdStatus] &^= src
	if dd.cpu != nil {
		dd.cpu.ClearInterrupt(IP3)
	}
}
