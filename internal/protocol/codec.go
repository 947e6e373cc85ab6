// Package protocol implements the agent-to-collector wire format.
//
// Each message is one line of semicolon-separated fields with a fixed arity:
//
//	CPU;<id>;<usage>;<user_pct>;<sys_pct>;<idle_pct>
//	MEM;<id>;<used_mb>;<free_mb>;<swap_total_mb>;<swap_free_mb>
//
// Lines are terminated by '\n' on the wire. The functions in this package work
// on a single line with the terminator already removed and never touch shared
// state, so they can be called concurrently from any number of sessions.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

const (
	// Separator splits fields within a line.
	Separator = ";"
	// Terminator ends a line on the wire.
	Terminator = '\n'
	// FieldCount is the number of fields every message carries.
	FieldCount = 6
)

// Decode failures. Errors returned by Decode wrap exactly one of these.
var (
	ErrUnknownKind   = errors.New("unknown record kind")
	ErrFieldCount    = errors.New("wrong number of fields")
	ErrEmptyID       = errors.New("empty host id")
	ErrInvalidNumber = errors.New("invalid numeric field")
	ErrInvalidID     = errors.New("host id contains reserved characters")
)

// Record is one decoded message. Only the group matching Kind is meaningful.
type Record struct {
	Kind metrics.Kind
	ID   string
	CPU  metrics.CPU
	Mem  metrics.Memory
}

// NewCPURecord builds a CPU record for the given host id.
func NewCPURecord(id string, cpu metrics.CPU) Record {
	return Record{Kind: metrics.KindCPU, ID: id, CPU: cpu}
}

// NewMemoryRecord builds a memory record for the given host id.
func NewMemoryRecord(id string, mem metrics.Memory) Record {
	return Record{Kind: metrics.KindMemory, ID: id, Mem: mem}
}

// Decode parses one line without its trailing newline.
func Decode(line string) (Record, error) {
	fields := strings.Split(line, Separator)

	var kind metrics.Kind
	switch fields[0] {
	case string(metrics.KindCPU):
		kind = metrics.KindCPU
	case string(metrics.KindMemory):
		kind = metrics.KindMemory
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, truncate(fields[0], 16))
	}

	if len(fields) != FieldCount {
		return Record{}, fmt.Errorf("%w: %s has %d, want %d", ErrFieldCount, kind, len(fields), FieldCount)
	}

	id := fields[1]
	if id == "" {
		return Record{}, ErrEmptyID
	}

	var vals [4]float64
	for i := range vals {
		v, err := parseNumber(fields[i+2])
		if err != nil {
			return Record{}, fmt.Errorf("%w: field %d: %q", ErrInvalidNumber, i+2, truncate(fields[i+2], 32))
		}
		vals[i] = v
	}

	rec := Record{Kind: kind, ID: id}
	switch kind {
	case metrics.KindCPU:
		rec.CPU = metrics.CPU{Usage: vals[0], User: vals[1], Sys: vals[2], Idle: vals[3]}
	case metrics.KindMemory:
		rec.Mem = metrics.Memory{UsedMB: vals[0], FreeMB: vals[1], SwapTotalMB: vals[2], SwapFreeMB: vals[3]}
	}
	return rec, nil
}

// Encode renders a record as a single line without the terminator.
// Numeric fields always carry two fraction digits.
func Encode(r Record) (string, error) {
	if r.ID == "" {
		return "", ErrEmptyID
	}
	if strings.ContainsAny(r.ID, ";\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, r.ID)
	}

	var vals [4]float64
	switch r.Kind {
	case metrics.KindCPU:
		vals = [4]float64{r.CPU.Usage, r.CPU.User, r.CPU.Sys, r.CPU.Idle}
	case metrics.KindMemory:
		vals = [4]float64{r.Mem.UsedMB, r.Mem.FreeMB, r.Mem.SwapTotalMB, r.Mem.SwapFreeMB}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(r.Kind))
	}

	var b strings.Builder
	b.Grow(len(r.ID) + 48)
	b.WriteString(string(r.Kind))
	b.WriteString(Separator)
	b.WriteString(r.ID)
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: field %d is %v", ErrInvalidNumber, i+2, v)
		}
		b.WriteString(Separator)
		b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
	}
	return b.String(), nil
}

// parseNumber accepts plain decimal notation with an optional sign, fraction
// and exponent. strconv alone would also take "NaN", "Inf" and hex floats.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' || c == 'e' || c == 'E' {
			continue
		}
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
