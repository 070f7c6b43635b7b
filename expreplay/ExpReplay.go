// Package expreplay implements a fixed-capacity experience replay
// buffer with uniform sampling for off-policy value learning.
package expreplay

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/reachavoid/timestep"
)

// Config implements a specific configuration of a Memory
type Config struct {
	Capacity    int // Maximum number of transitions stored
	BatchSize   int // Number of transitions per sampled batch

	// Number of transitions required before sampling is allowed. If
	// zero, defaults to 20 batches.
	MinCapacity int
}

// Validate checks a Config for consistency
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.BatchSize)
	}
	if c.Capacity < c.BatchSize {
		return fmt.Errorf("validate: cannot have batch size (%v) > "+
			"capacity (%v)", c.BatchSize, c.Capacity)
	}
	if min := c.minCapacity(); min < c.BatchSize || min > c.Capacity {
		return fmt.Errorf("validate: minimum capacity must be in "+
			"[batch size, capacity]\n\twant([%v, %v])\n\thave(%v)",
			c.BatchSize, c.Capacity, min)
	}
	return nil
}

// minCapacity returns the minimum capacity with defaults applied
func (c Config) minCapacity() int {
	if c.MinCapacity == 0 {
		min := 20 * c.BatchSize
		if min > c.Capacity {
			min = c.Capacity
		}
		return min
	}
	return c.MinCapacity
}

// Create creates and returns the Memory described by the Config
func (c Config) Create(featureSize int, seed int64) (*Memory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sampler := NewUniformSelector(c.BatchSize, seed)
	return New(sampler, c.minCapacity(), c.Capacity, featureSize)
}

// Batch is a minibatch of transitions sampled from a Memory. States
// and NextStates are stored row-major with one row per transition.
// The next state of a terminal transition is all zeros.
type Batch struct {
	States        []float64
	Actions       []int
	Rewards       []float64
	NextStates    []float64
	Terminal      []bool
	SafetyMargins []float64
	TargetMargins []float64
}

// Len returns the number of transitions in the Batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// Memory implements a ring buffer of transitions. Once full, each
// added transition overwrites the oldest stored transition.
type Memory struct {
	mu sync.RWMutex

	stateCache     []float64
	nextStateCache []float64
	actionCache    []int
	rewardCache    []float64
	terminalCache  []bool
	safetyCache    []float64
	targetCache    []float64

	currentInUsePos int
	isFull          bool

	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
}

// New returns a new Memory. The sampler determines how batches are
// selected from the buffer. The minCapacity parameter determines the
// minimum number of transitions that should be in the buffer before
// sampling is allowed, and maxCapacity the number of transitions
// stored before the oldest are overwritten. The featureSize
// parameter is the length of the state vectors.
func New(sampler Selector, minCapacity, maxCapacity,
	featureSize int) (*Memory, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: maxCapacity (%v) must be >= "+
			"minCapacity (%v)", maxCapacity, minCapacity)
	}
	if minCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > min "+
			"buffer capacity (%v)", sampler.BatchSize(), minCapacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: featureSize must be > 0")
	}

	return &Memory{
		stateCache:     make([]float64, maxCapacity*featureSize),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		actionCache:    make([]int, maxCapacity),
		rewardCache:    make([]float64, maxCapacity),
		terminalCache:  make([]bool, maxCapacity),
		safetyCache:    make([]float64, maxCapacity),
		targetCache:    make([]float64, maxCapacity),

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
	}, nil
}

// String returns the string representation of the Memory
func (m *Memory) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf("Memory | Len: %v  |  Capacity: %v  |  Next: %v",
		m.len(), m.maxCapacity, m.currentInUsePos)
}

// BatchSize returns the number of samples sampled using Sample()
func (m *Memory) BatchSize() int {
	return m.sampler.BatchSize()
}

// Len returns the current number of transitions in the Memory
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.len()
}

func (m *Memory) len() int {
	if m.isFull {
		return m.maxCapacity
	}
	return m.currentInUsePos
}

// Capacity returns the maximum number of transitions that are stored
func (m *Memory) Capacity() int {
	return m.maxCapacity
}

// MinCapacity returns the minimum number of transitions required in
// the Memory before sampling is allowed
func (m *Memory) MinCapacity() int {
	return m.minCapacity
}

// Ready returns whether the Memory holds enough transitions to sample
func (m *Memory) Ready() bool {
	return m.Len() >= m.minCapacity
}

// Add adds a transition to the Memory
func (m *Memory) Add(t timestep.Transition) error {
	if t.State == nil || t.State.Len() != m.featureSize {
		return fmt.Errorf("add: invalid state size \n\twant(%v)\n\thave(%v)",
			m.featureSize, vecLen(t))
	}
	if !t.Terminal() && t.NextState.Len() != m.featureSize {
		return fmt.Errorf("add: invalid next state size \n\twant(%v)"+
			"\n\thave(%v)", m.featureSize, t.NextState.Len())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.currentInUsePos
	stateInd := index * m.featureSize

	for i := 0; i < m.featureSize; i++ {
		m.stateCache[stateInd+i] = t.State.AtVec(i)
		if t.Terminal() {
			m.nextStateCache[stateInd+i] = 0
		} else {
			m.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
		}
	}

	m.actionCache[index] = t.Action
	m.rewardCache[index] = t.Reward
	m.terminalCache[index] = t.Terminal()
	m.safetyCache[index] = t.SafetyMargin
	m.targetCache[index] = t.TargetMargin

	if !m.isFull && index+1 == m.maxCapacity {
		m.isFull = true
	}
	m.currentInUsePos = (m.currentInUsePos + 1) % m.maxCapacity
	return nil
}

// Sample samples and returns a batch of transitions from the Memory.
// Transitions in a single batch are distinct.
func (m *Memory) Sample() (Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.len() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if m.len() < m.minCapacity {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	indices := m.sampler.choose(m.len())
	n := len(indices)

	batch := Batch{
		States:        make([]float64, n*m.featureSize),
		Actions:       make([]int, n),
		Rewards:       make([]float64, n),
		NextStates:    make([]float64, n*m.featureSize),
		Terminal:      make([]bool, n),
		SafetyMargins: make([]float64, n),
		TargetMargins: make([]float64, n),
	}

	for i, index := range indices {
		batchStartInd := i * m.featureSize
		expStartInd := index * m.featureSize
		copy(batch.States[batchStartInd:batchStartInd+m.featureSize],
			m.stateCache[expStartInd:expStartInd+m.featureSize])
		copy(batch.NextStates[batchStartInd:batchStartInd+m.featureSize],
			m.nextStateCache[expStartInd:expStartInd+m.featureSize])

		batch.Actions[i] = m.actionCache[index]
		batch.Rewards[i] = m.rewardCache[index]
		batch.Terminal[i] = m.terminalCache[index]
		batch.SafetyMargins[i] = m.safetyCache[index]
		batch.TargetMargins[i] = m.targetCache[index]
	}

	return batch, nil
}

// vecLen returns the length of a transition's state, or -1 if the
// state is nil
func vecLen(t timestep.Transition) int {
	if t.State == nil {
		return -1
	}
	return t.State.Len()
}
