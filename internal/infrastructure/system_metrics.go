package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a snapshot of process resource usage.
type SystemStats struct {
	GoRoutines     int           `json:"goroutines"`
	HeapAllocBytes uint64        `json:"heap_alloc_bytes"`
	SystemBytes    uint64        `json:"system_bytes"`
	GCCount        uint32        `json:"gc_count"`
	LastGCPause    time.Duration `json:"last_gc_pause"`
	CPUCount       int           `json:"cpu_count"`
	ProcessUptime  time.Duration `json:"uptime"`
	Timestamp      time.Time     `json:"timestamp"`
}

// SystemMetrics reports runtime statistics as observable gauges.
type SystemMetrics struct {
	startTime    time.Time
	registration metric.Registration
}

// NewSystemMetrics registers runtime gauges on meter. A nil meter uses the
// global provider.
func NewSystemMetrics(meter metric.Meter, startTime time.Time) (*SystemMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}
	sm := &SystemMetrics{startTime: startTime}

	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, err
	}
	heap, err := meter.Int64ObservableGauge("system_memory_allocated_bytes",
		metric.WithDescription("Memory allocated by Go runtime in bytes"), metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64ObservableGauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	sm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sm.Collect()
		o.ObserveInt64(goroutines, int64(stats.GoRoutines))
		o.ObserveInt64(heap, int64(stats.HeapAllocBytes))
		o.ObserveFloat64(uptime, stats.ProcessUptime.Seconds())
		return nil
	}, goroutines, heap, uptime)
	if err != nil {
		return nil, err
	}
	return sm, nil
}

// Collect reads the current runtime statistics.
func (sm *SystemMetrics) Collect() SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := SystemStats{
		GoRoutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SystemBytes:    mem.Sys,
		GCCount:        mem.NumGC,
		CPUCount:       runtime.NumCPU(),
		ProcessUptime:  time.Since(sm.startTime),
		Timestamp:      time.Now(),
	}
	if mem.NumGC > 0 {
		stats.LastGCPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}
	return stats
}

// Close unregisters the gauge callback.
func (sm *SystemMetrics) Close() error {
	if sm == nil || sm.registration == nil {
		return nil
	}
	return sm.registration.Unregister()
}
