// Package metrics holds the sample types shared by the agent, the wire codec
// and the collector's host registry.
package metrics

// Kind identifies which metric group a sample belongs to.
type Kind string

const (
	KindCPU    Kind = "CPU"
	KindMemory Kind = "MEM"
)

// String returns the wire tag for the kind.
func (k Kind) String() string {
	return string(k)
}

// CPU contains CPU usage percentages over the agent's last sampling window.
type CPU struct {
	Usage float64 `json:"usage" yaml:"usage"`
	User  float64 `json:"user" yaml:"user"`
	Sys   float64 `json:"sys" yaml:"sys"`
	Idle  float64 `json:"idle" yaml:"idle"`
}

// Memory contains memory and swap figures in megabytes.
type Memory struct {
	UsedMB      float64 `json:"used_mb" yaml:"used_mb"`
	FreeMB      float64 `json:"free_mb" yaml:"free_mb"`
	SwapTotalMB float64 `json:"swap_total_mb" yaml:"swap_total_mb"`
	SwapFreeMB  float64 `json:"swap_free_mb" yaml:"swap_free_mb"`
}
