package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs process health and the live connection
// gauge. Log-only on purpose: the relay favors the broadcast path, so
// telemetry must never sit on a lock or a network call.
type TelemetryWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry contract.IRegistry, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, registry: registry, interval: interval}
}

// Run executes the main loop of the worker, logging RAM, CPU and connection
// counts at every tick until the context is canceled.
func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)

			w.log.Info("Relay telemetry",
				"connections", w.registry.Count(),
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu,
				"alloc_mb", mem.Alloc/1024/1024,
				"goroutines", runtime.NumGoroutine(),
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpu, nil
}
