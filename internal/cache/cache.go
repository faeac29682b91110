package cache

import (
	"context"
	"sync"
	"time"
)

// Cache keeps loaded values for ttl. Failed loads are not cached.
type Cache[T any] struct {
	m      sync.Map
	ttl    time.Duration
	loader func(ctx context.Context, key string) (T, error)
}

type entry[T any] struct {
	mx    sync.Mutex
	value T
	ts    time.Time
}

func NewWithTTL[T any](ttl time.Duration, loader func(ctx context.Context, key string) (T, error)) *Cache[T] {
	return &Cache[T]{
		m:      sync.Map{},
		ttl:    ttl,
		loader: loader,
	}
}

func (c *Cache[T]) Load(ctx context.Context, key string) (T, error) {
	var e *entry[T]

	if v, ok := c.m.Load(key); ok {
		e = v.(*entry[T])
	} else {
		v1, _ := c.m.LoadOrStore(key, new(entry[T]))
		e = v1.(*entry[T])
	}

	e.mx.Lock()
	defer e.mx.Unlock()

	if e.ts.IsZero() || time.Since(e.ts) > c.ttl {
		v, err := c.loader(ctx, key)
		if err != nil {
			return v, err
		}

		e.value = v
		e.ts = time.Now()
	}

	return e.value, nil
}

// Invalidate drops the key, the next Load calls the loader.
func (c *Cache[T]) Invalidate(key string) {
	c.m.Delete(key)
}
