package pipeline

import (
	"sync"

	"github.com/jonathan/menu-crawler/internal/types"
)

// Accumulator collects structured-response records as they arrive during page
// load. It is append-only and safe for concurrent writes from the response
// callback; Snapshot must only be read after the settle barrier.
type Accumulator struct {
	mu    sync.Mutex
	items []types.ProductRecord
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Add(items ...types.ProductRecord) {
	if len(items) == 0 {
		return
	}
	a.mu.Lock()
	a.items = append(a.items, items...)
	a.mu.Unlock()
}

// Snapshot returns a copy of the accumulated records in arrival order.
func (a *Accumulator) Snapshot() []types.ProductRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.ProductRecord, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
