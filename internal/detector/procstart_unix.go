//go:build !windows

package detector

import (
	"bytes"
	"os"
	"runtime"
	"strconv"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"github.com/tklauser/go-sysconf"
)

// statStartTimeField is the index of starttime in /proc/<pid>/stat after the comm field.
const statStartTimeField = 19

// getProcStartUnix returns the start time of pid in Unix seconds, or 0 when unknown.
// Linux reads /proc directly so the value is stable to the second across calls;
// other systems ask gopsutil.
func getProcStartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	if runtime.GOOS == "linux" {
		return procStatStart(pid)
	}
	p, err := gopsproc.NewProcess(int32(pid)) // #nosec G115
	if err != nil {
		return 0
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}

func procStatStart(pid int) int64 {
	stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0
	}
	// comm may contain spaces and parentheses; fields start after the last ") "
	end := bytes.LastIndex(stat, []byte(") "))
	if end < 0 {
		return 0
	}
	fields := bytes.Fields(stat[end+2:])
	if len(fields) <= statStartTimeField {
		return 0
	}
	ticks, err := strconv.ParseInt(string(fields[statStartTimeField]), 10, 64)
	if err != nil || ticks <= 0 {
		return 0
	}
	boot := bootTimeUnix()
	if boot == 0 {
		return 0
	}
	hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || hz <= 0 {
		hz = 100
	}
	return boot + ticks/hz
}

// bootTimeUnix returns the btime line of /proc/stat.
func bootTimeUnix() int64 {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if v, ok := bytes.CutPrefix(line, []byte("btime ")); ok {
			bt, err := strconv.ParseInt(string(bytes.TrimSpace(v)), 10, 64)
			if err != nil {
				return 0
			}
			return bt
		}
	}
	return 0
}
