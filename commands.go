package dd

import (
	"fmt"

	"github.com/golang/glog"
)

// Drive commands, taken from bits 16-23 of a CMD_STATUS write.
const (
	cmdNoop         = 0x00
	cmdSeekRead     = 0x01
	cmdSeekWrite    = 0x02
	cmdRecalibrate  = 0x03
	cmdSleep        = 0x04
	cmdStart        = 0x05
	cmdSetStandby   = 0x06
	cmdSetSleep     = 0x07
	cmdClrDskChng   = 0x08
	cmdClrReset     = 0x09
	cmdReadVersion  = 0x0a
	cmdSetDiskType  = 0x0b
	cmdReqStatus    = 0x0c
	cmdStandby      = 0x0d
	cmdIdxLockRetry = 0x0e
	cmdSetYearMonth = 0x0f
	cmdSetDayHour   = 0x10
	cmdSetMinSec    = 0x11
	cmdGetYearMonth = 0x12
	cmdGetDayHour   = 0x13
	cmdGetMinSec    = 0x14
	cmdFeatureInq   = 0x1b
)

var cmdNames = map[uint32]string{
	cmdNoop:         "NOOP",
	cmdSeekRead:     "SEEK_READ",
	cmdSeekWrite:    "SEEK_WRITE",
	cmdRecalibrate:  "RECALIBRATE",
	cmdSleep:        "SLEEP",
	cmdStart:        "START",
	cmdSetStandby:   "SET_STANDBY",
	cmdSetSleep:     "SET_SLEEP",
	cmdClrDskChng:   "CLR_DSK_CHNG",
	cmdClrReset:     "CLR_RESET",
	cmdReadVersion:  "READ_VERSION",
	cmdSetDiskType:  "SET_DISK_TYPE",
	cmdReqStatus:    "REQUEST_STATUS",
	cmdStandby:      "STANDBY",
	cmdIdxLockRetry: "IDX_LOCK_RETRY",
	cmdSetYearMonth: "SET_YEAR_MONTH",
	cmdSetDayHour:   "SET_DAY_HOUR",
	cmdSetMinSec:    "SET_MIN_SEC",
	cmdGetYearMonth: "GET_YEAR_MONTH",
	cmdGetDayHour:   "GET_DAY_HOUR",
	cmdGetMinSec:    "GET_MIN_SEC",
	cmdFeatureInq:   "FEATURE_INQ",
}

// cmdName returns the mnemonic of a command opcode.
func cmdName(op uint32) string {
	if s, ok := cmdNames[op]; ok {
		return s
	}
	return fmt.Sprintf("CMD_%02X", op)
}

// command executes a write to CMD_STATUS and signals a MECHA interrupt,
// whether or not the command is understood.
func (dd *Controller) command(value uint32) {
	dd.rtc.update()
	tm := dd.rtc.time()

	op := (value >> 16) & 0xff
	glog.V(2).Infof("dd: command %s (%08x)", cmdName(op), value)

	switch op {
	case cmdSeekRead, cmdSeekWrite:
		dd.regs[regCurTk] = dd.regs[regData]>>16 | trackLock
		dd.bmWrite = (value>>17)&1 == 1

	case cmdClrDskChng:
		dd.regs[regCmdStatus] &^= statusDiskChng

	case cmdClrReset:
		dd.regs[regCmdStatus] &^= statusRstState | statusDiskChng

	case cmdSetDiskType:
		glog.V(1).Infof("dd: setting disk type %d", (dd.regs[regData]>>16)&0xf)

	case cmdGetYearMonth:
		dd.regs[regData] = time2data(tm.Year()-1900, int(tm.Month()))
	case cmdGetDayHour:
		dd.regs[regData] = time2data(tm.Day(), tm.Hour())
	case cmdGetMinSec:
		dd.regs[regData] = time2data(tm.Minute(), tm.Second())

	case cmdFeatureInq:
		dd.regs[regData] = 0

	default:
		glog.Warningf("dd: command %s not yet implemented (%08x)", cmdName(op), value)
	}

	dd.signal(statusMechaInt)
}
