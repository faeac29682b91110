package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var ErrDuplicate = errors.New("provider is already registered")

// Registry holds providers by name. Only providers with a valid catalog can get here,
// as every constructor validates its layers.
// Readers always see a complete set: writers build a new map and publish it with one store.
type Registry struct {
	mx   sync.Mutex
	data atomic.Pointer[map[string]MapProvider]
}

func NewRegistry() *Registry {
	r := new(Registry)
	r.data.Store(&map[string]MapProvider{})

	return r
}

func (r *Registry) snapshot() map[string]MapProvider {
	return *r.data.Load()
}

func (r *Registry) Register(p MapProvider) error {
	if p == nil {
		return errors.New("nil provider")
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	old := r.snapshot()
	if _, ok := old[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.Name())
	}

	m := make(map[string]MapProvider, len(old)+1)
	for k, v := range old {
		m[k] = v
	}

	m[p.Name()] = p
	r.data.Store(&m)

	return nil
}

func (r *Registry) Get(name string) (MapProvider, bool) {
	p, ok := r.snapshot()[name]

	return p, ok
}

func (r *Registry) Remove(name string) {
	r.mx.Lock()
	defer r.mx.Unlock()

	old := r.snapshot()
	if _, ok := old[name]; !ok {
		return
	}

	m := make(map[string]MapProvider, len(old))
	for k, v := range old {
		if k != name {
			m[k] = v
		}
	}

	r.data.Store(&m)
}

// ForEach walks providers in name order until f returns false.
func (r *Registry) ForEach(f func(p MapProvider) bool) {
	m := r.snapshot()

	for _, n := range sortedNames(m) {
		if !f(m[n]) {
			return
		}
	}
}

func (r *Registry) Names() []string {
	return sortedNames(r.snapshot())
}

// Replace swaps the whole provider set at once. If the new set has a nil or duplicate
// provider nothing changes.
func (r *Registry) Replace(providers ...MapProvider) error {
	m := make(map[string]MapProvider, len(providers))

	for _, p := range providers {
		if p == nil {
			return errors.New("nil provider")
		}

		if _, ok := m[p.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, p.Name())
		}

		m[p.Name()] = p
	}

	r.mx.Lock()
	r.data.Store(&m)
	r.mx.Unlock()

	return nil
}

func sortedNames(m map[string]MapProvider) []string {
	names := make([]string, 0, len(m))

	for k := range m {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
