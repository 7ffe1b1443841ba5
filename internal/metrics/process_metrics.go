package metrics

import (
	"errors"
	"log/slog"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// SelfCollector reports CPU and memory usage of the watchdog process itself.
// Values are sampled on every scrape.
type SelfCollector struct {
	pid int32

	cpuPercent *prometheus.Desc
	memoryRSS  *prometheus.Desc
	numThreads *prometheus.Desc
	numFDs     *prometheus.Desc
}

// NewSelfCollector samples the given pid; pid <= 0 means the current process.
func NewSelfCollector(pid int32) *SelfCollector {
	if pid <= 0 {
		pid = int32(os.Getpid()) // #nosec G115
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "watchdog", name), help, nil, nil)
	}
	return &SelfCollector{
		pid:        pid,
		cpuPercent: desc("cpu_percent", "CPU usage of the watchdog process in percent."),
		memoryRSS:  desc("memory_rss_bytes", "Resident memory of the watchdog process."),
		numThreads: desc("threads", "OS threads of the watchdog process."),
		numFDs:     desc("open_fds", "Open file descriptors of the watchdog process (Unix only)."),
	}
}

func (c *SelfCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuPercent
	ch <- c.memoryRSS
	ch <- c.numThreads
	ch <- c.numFDs
}

func (c *SelfCollector) Collect(ch chan<- prometheus.Metric) {
	proc, err := process.NewProcess(c.pid)
	if err != nil {
		slog.Debug("self metrics: process handle", "pid", c.pid, "error", err)
		return
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.cpuPercent, prometheus.GaugeValue, cpu)
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.memoryRSS, prometheus.GaugeValue, float64(mem.RSS))
	}
	if n, err := proc.NumThreads(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.numThreads, prometheus.GaugeValue, float64(n))
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDs(); err == nil {
			ch <- prometheus.MustNewConstMetric(c.numFDs, prometheus.GaugeValue, float64(n))
		}
	}
}

// RegisterSelf registers a SelfCollector for the current process.
func RegisterSelf(r prometheus.Registerer) error {
	err := r.Register(NewSelfCollector(0))
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return nil
	}
	return err
}
