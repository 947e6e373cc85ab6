//go:build linux

package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

// ProcSampler reads /proc directly.
type ProcSampler struct {
	root string
	cpu  cpuDelta
}

// NewSampler returns the sampler for this platform.
func NewSampler() Sampler {
	return NewProcSampler("/proc")
}

// NewProcSampler reads stat and meminfo under root.
func NewProcSampler(root string) *ProcSampler {
	return &ProcSampler{root: root}
}

// SampleCPU returns usage since the previous call.
func (s *ProcSampler) SampleCPU(ctx context.Context) (metrics.CPU, error) {
	data, err := s.read("stat")
	if err != nil {
		return metrics.CPU{}, err
	}
	times, err := ParseProcStat(data)
	if err != nil {
		return metrics.CPU{}, err
	}
	return s.cpu.next(times)
}

// SampleMemory returns current memory and swap figures.
func (s *ProcSampler) SampleMemory(ctx context.Context) (metrics.Memory, error) {
	data, err := s.read("meminfo")
	if err != nil {
		return metrics.Memory{}, err
	}
	return ParseMeminfo(data)
}

func (s *ProcSampler) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
