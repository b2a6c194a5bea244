package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
)

// Budget caps the number of model calls a run may spend. Analysis, synthesis
// and TTS calls are billed resources; the budget turns a runaway run into a
// hard error instead of a surprise invoice.
type Budget struct {
	mu   sync.Mutex
	used int
	max  int
}

// NewBudget creates a budget. max <= 0 means unlimited.
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

func (b *Budget) Take() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExhausted, b.used, b.max)
	}
	b.used++
	return nil
}

func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

type metered struct {
	inner  Capability
	budget *Budget
}

// WithBudget wraps a capability so every call draws from the budget and is
// counted in the global metrics.
func WithBudget(c Capability, b *Budget) Capability {
	if c == nil {
		return nil
	}
	return &metered{inner: c, budget: b}
}

func (m *metered) Name() string { return m.inner.Name() }

func (m *metered) Complete(ctx context.Context, req Request) (string, error) {
	if err := m.budget.Take(); err != nil {
		return "", err
	}
	metrics.Global.IncrementModelCalls()
	logger.Debug("model call", "provider", m.inner.Name(), "used", m.budget.Used())
	return m.inner.Complete(ctx, req)
}
