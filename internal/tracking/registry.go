package tracking

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/clock"
)

// Registry keeps at most one open ViewModel per order for the HTTP surface.
type Registry struct {
	mu     sync.Mutex
	src    Source
	sched  clock.Scheduler
	logger *zap.Logger
	open   map[string]*ViewModel
}

func NewRegistry(src Source, sched clock.Scheduler, logger *zap.Logger) *Registry {
	return &Registry{src: src, sched: sched, logger: logger, open: map[string]*ViewModel{}}
}

// Open returns the view model for orderID, opening it on first use.
func (r *Registry) Open(ctx context.Context, orderID string) (*ViewModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vm, ok := r.open[orderID]; ok {
		return vm, nil
	}
	vm, err := Open(ctx, r.src, r.sched, r.logger, orderID)
	if err != nil {
		return nil, err
	}
	r.open[orderID] = vm
	return vm, nil
}

// Close discards the view model for orderID. It reports false when none was open.
func (r *Registry) Close(orderID string) bool {
	r.mu.Lock()
	vm, ok := r.open[orderID]
	delete(r.open, orderID)
	r.mu.Unlock()
	if ok {
		vm.Close()
	}
	return ok
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := r.open
	r.open = map[string]*ViewModel{}
	r.mu.Unlock()
	for _, vm := range open {
		vm.Close()
	}
}
