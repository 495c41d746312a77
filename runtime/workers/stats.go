package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"whisper-bridge/session"

	"github.com/shirou/gopsutil/process"
)

// StatsWorker periodically logs process health (CPU, RAM, status) next to
// the session counters, giving a cheap operational view without any
// metrics backend.
type StatsWorker struct {
	coordinator *session.Coordinator
	interval    time.Duration
	log         *slog.Logger
}

func NewStatsWorker(coordinator *session.Coordinator, interval time.Duration, log *slog.Logger) *StatsWorker {
	return &StatsWorker{coordinator: coordinator, interval: interval, log: log}
}

func (w *StatsWorker) Run(ctx context.Context) error {
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
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Session stats",
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"status", status,
				"messages", len(w.coordinator.Messages()),
				"online_users", len(w.coordinator.OnlineUsers()),
				"connected", w.coordinator.Connected())
		}
	}
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
