package streamer

import (
	"os"
	"runtime"
)

func currentPID() int { return os.Getpid() }

// MemorySnapshot is one point-in-time reading of process memory, shaped
// to match spec.md §4.5's "(stage, heapUsed, heapTotal, rss, external)"
// tuple.
type MemorySnapshot struct {
	HeapUsed  uint64
	HeapTotal uint64
	RSS       uint64
	External  uint64
}

// Snapshot captures the current process's memory snapshot.
func Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapUsed:  m.HeapAlloc,
		HeapTotal: m.HeapSys,
		RSS:       processRSS(),
		External:  m.StackSys + m.MSpanSys + m.MCacheSys,
	}
}

// OptimizeResult is OptimizeMemory's outcome.
type OptimizeResult struct {
	Before     MemorySnapshot
	After      MemorySnapshot
	GCRequested bool
}

// OptimizeOptions configures OptimizeMemory.
type OptimizeOptions struct {
	ForceGC bool
}

// OptimizeMemory takes a before-snapshot, optionally forces a GC cycle,
// and takes an after-snapshot — the explicit "clear internal caches"
// step spec.md §4.5 calls for when heap usage crosses the streaming
// threshold.
func OptimizeMemory(opts OptimizeOptions) OptimizeResult {
	before := Snapshot()
	if opts.ForceGC {
		runtime.GC()
	}
	return OptimizeResult{Before: before, After: Snapshot(), GCRequested: opts.ForceGC}
}
