package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const counterPrefix = "cpu"

type coreKind uint8

const (
	coreAggregate coreKind = iota
	coreIndexed
)

// CoreID names either the aggregate of all cores or one zero-based core.
// The zero value is the aggregate core.
type CoreID struct {
	kind  coreKind
	index int
}

func AggregateCore() CoreID {
	return CoreID{kind: coreAggregate}
}

func IndexedCore(n int) CoreID {
	return CoreID{kind: coreIndexed, index: n}
}

func (c CoreID) IsAggregate() bool {
	return c.kind == coreAggregate
}

// Index reports the core number; ok is false for the aggregate core.
func (c CoreID) Index() (n int, ok bool) {
	if c.kind != coreIndexed {
		return 0, false
	}
	return c.index, true
}

func (c CoreID) String() string {
	if c.kind == coreAggregate {
		return "all"
	}
	return strconv.Itoa(c.index)
}

func (c CoreID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// IsCounterIdentifier reports whether a counter source line belongs to the
// contiguous block of cpu lines.
func IsCounterIdentifier(identifier string) bool {
	return strings.HasPrefix(identifier, counterPrefix)
}

// ParseCoreID classifies a counter identifier: "cpu" is the aggregate,
// "cpuN" is core N, anything else is not a counter line.
func ParseCoreID(identifier string) (CoreID, bool) {
	if !IsCounterIdentifier(identifier) {
		return CoreID{}, false
	}

	suffix := strings.TrimPrefix(identifier, counterPrefix)
	if suffix == "" {
		return AggregateCore(), true
	}

	for _, r := range suffix {
		if r < '0' || r > '9' {
			return CoreID{}, false
		}
	}

	n, err := strconv.Atoi(suffix)
	if err != nil {
		return CoreID{}, false
	}

	return IndexedCore(n), true
}

// CounterRow is one raw line from a counter source. Fields are the
// cumulative time-accounting values; index 3 is idle time.
type CounterRow struct {
	Identifier string
	Fields     []uint64
}

type CounterSource interface {
	ReadCounters(ctx context.Context) ([]CounterRow, error)
}

type UtilizationSample struct {
	Core    CoreID  `json:"core"`
	Percent float64 `json:"percent"`
}

type Snapshot struct {
	Samples []UtilizationSample `json:"samples"`
	Line    string              `json:"line"`
	TakenAt time.Time           `json:"taken_at"`
}

// RenderLine formats percentages with two decimals, space separated and
// newline terminated.
func RenderLine(samples []UtilizationSample) string {
	var b strings.Builder

	for i, s := range samples {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f", s.Percent)
	}
	b.WriteByte('\n')

	return b.String()
}

// Aggregate returns the aggregate core sample, if the snapshot has one.
func (s Snapshot) Aggregate() (UtilizationSample, bool) {
	for _, sample := range s.Samples {
		if sample.Core.IsAggregate() {
			return sample, true
		}
	}
	return UtilizationSample{}, false
}
