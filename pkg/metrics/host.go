package metrics

import (
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// HostStats is a point-in-time snapshot of the process host.
type HostStats struct {
	Goroutines      int     `json:"goroutines"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryTotal     string  `json:"memory_total"`
	MemoryUsed      string  `json:"memory_used"`
	MemoryPercent   float64 `json:"memory_percent"`
	HeapAlloc       string  `json:"heap_alloc"`
	HeapAllocBytes  uint64  `json:"heap_alloc_bytes"`
	MemoryUsedBytes uint64  `json:"memory_used_bytes"`
}

// CollectHost samples CPU and memory usage. Fields that cannot be read on
// the current platform are left zero.
func CollectHost() HostStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := HostStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAlloc:      humanize.IBytes(ms.HeapAlloc),
		HeapAllocBytes: ms.HeapAlloc,
	}

	// Zero interval compares against the previous call instead of blocking.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryTotal = humanize.IBytes(vm.Total)
		stats.MemoryUsed = humanize.IBytes(vm.Used)
		stats.MemoryUsedBytes = vm.Used
		stats.MemoryPercent = vm.UsedPercent
	}
	return stats
}
