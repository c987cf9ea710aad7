package discovery

import (
	"context"
	"slices"
	"sort"
	"sync"
)

var _ Discovery = (*MemoryDiscovery)(nil)

// MemoryDiscovery keeps registrations in a map.
type MemoryDiscovery struct {
	mu       sync.RWMutex
	services map[string]ServiceDescription
}

func NewMemoryDiscovery() *MemoryDiscovery {
	return &MemoryDiscovery{
		services: make(map[string]ServiceDescription),
	}
}

func (d *MemoryDiscovery) Get(ctx context.Context, id string) (ServiceDescription, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.services[id]
	if !ok {
		return ServiceDescription{}, ErrServiceNotFound
	}
	return desc, nil
}

func (d *MemoryDiscovery) Find(ctx context.Context, protocol string, count int) ([]ServiceDescription, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var results []ServiceDescription
	for _, desc := range d.services {
		if slices.Contains(desc.Protocols, protocol) {
			results = append(results, desc)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results, nil
}

func (d *MemoryDiscovery) Register(ctx context.Context, desc ServiceDescription) error {
	if err := validate(desc); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	desc.Protocols = slices.Clone(desc.Protocols)
	d.services[desc.ID] = desc
	return nil
}
