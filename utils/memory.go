package utils

import (
	"runtime"

	"github.com/shirou/gopsutil/mem"
)

const gb = 1 << 30

type MemStats struct {
	AllocatedGB float64
	SystemGB    float64
	TotalGB     float64
}

func GetMemStats() *MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &MemStats{
		AllocatedGB: float64(m.Alloc) / gb,
		SystemGB:    float64(m.Sys) / gb,
		TotalGB:     float64(m.TotalAlloc) / gb,
	}
}

// MemoryLimits sizes the solution store caches from system memory.
type MemoryLimits struct {
	BlockCache  int
	WriteBuffer int
	Available   float64
	Total       float64
}

// CalculateMemoryLimits derives LevelDB cache sizes from available
// system memory. The solution store is tiny compared to the teacher
// workload this was sized for, so the caps are conservative.
func CalculateMemoryLimits() *MemoryLimits {
	v, err := mem.VirtualMemory()
	if err != nil {
		// Fall back to fixed sizes when system memory is unreadable.
		return &MemoryLimits{
			BlockCache:  8 << 20,
			WriteBuffer: 4 << 20,
		}
	}

	blockCache := int(float64(v.Available) * 0.01)
	if blockCache > 64<<20 {
		blockCache = 64 << 20
	}
	if blockCache < 8<<20 {
		blockCache = 8 << 20
	}

	return &MemoryLimits{
		BlockCache:  blockCache,
		WriteBuffer: blockCache / 2,
		Available:   float64(v.Available) / gb,
		Total:       float64(v.Total) / gb,
	}
}
