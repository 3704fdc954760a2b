// Package metrics
package metrics

import (
	"fmt"
	"sync"

	"healthd/internal/domain"
)

const idleField = 3

type coreState struct {
	prevIdle  uint64
	prevTotal uint64
}

// Calculator turns cumulative counters into utilization using the delta
// against the previous call for the same core. State for a core is created
// on first sight and kept for the life of the Calculator.
type Calculator struct {
	mu    sync.Mutex
	state map[domain.CoreID]*coreState
}

func NewCalculator() *Calculator {
	return &Calculator{
		state: make(map[domain.CoreID]*coreState),
	}
}

// Compute returns the busy percentage of core since the previous call.
// The result stays within [0, 100] as long as idle and total never
// decrease between calls.
func (c *Calculator) Compute(core domain.CoreID, fields []uint64) (float64, error) {
	if len(fields) <= idleField {
		return 0, fmt.Errorf("%w: core %s has %d fields", domain.ErrMalformedRow, core, len(fields))
	}

	idle := fields[idleField]
	var total uint64
	for _, v := range fields {
		total += v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state[core]
	if !ok {
		st = &coreState{}
		c.state[core] = st
	}

	diffIdle := int64(idle) - int64(st.prevIdle)
	diffTotal := int64(total) - int64(st.prevTotal)

	st.prevIdle = idle
	st.prevTotal = total

	if diffTotal == 0 {
		return 0, nil
	}

	return float64(diffTotal-diffIdle) / float64(diffTotal) * 100, nil
}

// Previous exposes the remembered counters for core.
func (c *Calculator) Previous(core domain.CoreID) (idle, total uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state[core]
	if !ok {
		return 0, 0, false
	}
	return st.prevIdle, st.prevTotal, true
}
