package dd

import "time"

// rtc is the drive's real time clock. It only advances by the time the
// external clock advanced between two samples.
type rtc struct {
	now  int64 // emulated Unix time, seconds
	last int64 // external clock at the previous sample

	clock Clock
	loc   *time.Location
}

func (r *rtc) update() {
	if r.clock == nil {
		r.clock = systemClock{}
	}
	now := r.clock.Now().Unix()
	r.now += now - r.last
	r.last = now
}

// time returns the emulated time split into calendar fields.
func (r *rtc) time() time.Time {
	if r.loc == nil {
		r.loc = time.Local
	}
	return time.Unix(r.now, 0).In(r.loc)
}

// byte2bcd packs n mod 100 as two BCD digits.
func byte2bcd(n int) uint8 {
	n %= 100
	return uint8((n/10)<<4 | n%10)
}

// time2data places hi and lo as BCD in the two upper bytes of a register.
func time2data(hi, lo int) uint32 {
	return uint32(byte2bcd(hi))<<24 | uint32(byte2bcd(lo))<<16
}
