//go:build !linux

package agent

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

const bytesPerMB = 1024 * 1024

// PSSampler reads metrics through gopsutil on platforms without /proc.
type PSSampler struct {
	cpu cpuDelta
}

// NewSampler returns the sampler for this platform.
func NewSampler() Sampler {
	return &PSSampler{}
}

// SampleCPU returns usage since the previous call.
func (s *PSSampler) SampleCPU(ctx context.Context) (metrics.CPU, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return metrics.CPU{}, fmt.Errorf("read cpu times: %w", err)
	}
	if len(times) == 0 {
		return metrics.CPU{}, fmt.Errorf("read cpu times: no data")
	}
	t := times[0]
	return s.cpu.next(CPUTimes{User: t.User, Nice: t.Nice, System: t.System, Idle: t.Idle})
}

// SampleMemory returns current memory and swap figures.
func (s *PSSampler) SampleMemory(ctx context.Context) (metrics.Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return metrics.Memory{}, fmt.Errorf("read memory: %w", err)
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return metrics.Memory{}, fmt.Errorf("read swap: %w", err)
	}

	return metrics.Memory{
		UsedMB:      float64(vm.Total-vm.Available) / bytesPerMB,
		FreeMB:      float64(vm.Free) / bytesPerMB,
		SwapTotalMB: float64(swap.Total) / bytesPerMB,
		SwapFreeMB:  float64(swap.Free) / bytesPerMB,
	}, nil
}
