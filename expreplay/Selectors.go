package expreplay

import (
	"math/rand"
	"sync"
)

// Selector implements functionality for choosing which indices of an
// experience replay buffer should be sampled
type Selector interface {
	// choose selects BatchSize() indices in [0, n)
	choose(n int) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement. A
// uniformSelector is safe for concurrent use.
type uniformSelector struct {
	samples int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer. No index is selected more
// than once in a single batch.
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects BatchSize() distinct indices in [0, n) using Floyd's
// sampling algorithm. The caller must ensure n >= BatchSize().
func (u *uniformSelector) choose(n int) []int {
	u.mu.Lock()
	defer u.mu.Unlock()

	selected := make([]int, 0, u.samples)
	seen := make(map[int]struct{}, u.samples)

	for j := n - u.samples; j < n; j++ {
		t := u.rng.Intn(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		selected = append(selected, t)
	}

	// Floyd's algorithm biases the position of late indices within the
	// batch, so shuffle the batch order
	u.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	return selected
}
