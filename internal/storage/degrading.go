package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Degrading writes through to a primary store and a memory mirror. The first primary failure switches
// it to memory-only for the rest of the process; callers never see the failure.
type Degrading struct {
	primary Storage
	mirror  *Memory
	logger  *zap.Logger

	mu       sync.RWMutex
	degraded bool
	cause    error
}

func NewDegrading(primary Storage, logger *zap.Logger) *Degrading {
	return &Degrading{primary: primary, mirror: NewMemory(), logger: logger}
}

// Degraded reports whether the primary store has been abandoned, and why.
func (d *Degrading) Degraded() (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.degraded, d.cause
}

func (d *Degrading) isDegraded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.degraded
}

func (d *Degrading) degrade(op, key string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.degraded {
		return
	}
	d.degraded = true
	d.cause = err
	d.logger.Warn("client storage unavailable, continuing in memory",
		zap.String("op", op), zap.String("key", key), zap.Error(err))
}

func (d *Degrading) Get(ctx context.Context, key string) (string, bool, error) {
	if d.isDegraded() {
		return d.mirror.Get(ctx, key)
	}
	v, ok, err := d.primary.Get(ctx, key)
	if err != nil {
		d.degrade("get", key, err)
		return d.mirror.Get(ctx, key)
	}
	if ok {
		_ = d.mirror.Set(ctx, key, v)
	} else {
		_ = d.mirror.Remove(ctx, key)
	}
	return v, ok, nil
}

func (d *Degrading) Set(ctx context.Context, key, value string) error {
	_ = d.mirror.Set(ctx, key, value)
	if d.isDegraded() {
		return nil
	}
	if err := d.primary.Set(ctx, key, value); err != nil {
		d.degrade("set", key, err)
	}
	return nil
}

func (d *Degrading) Remove(ctx context.Context, key string) error {
	_ = d.mirror.Remove(ctx, key)
	if d.isDegraded() {
		return nil
	}
	if err := d.primary.Remove(ctx, key); err != nil {
		d.degrade("remove", key, err)
	}
	return nil
}
