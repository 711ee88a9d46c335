package keys

import (
	"context"
	"sync"
)

// MemoryResolver serves keys from memory. An owner may hold several keys.
type MemoryResolver struct {
	mu   sync.RWMutex
	keys map[string]Key
}

// NewMemoryResolver returns a resolver preloaded with keys.
func NewMemoryResolver(keys ...Key) *MemoryResolver {
	r := &MemoryResolver{keys: make(map[string]Key, len(keys))}
	for _, k := range keys {
		r.keys[k.ID] = k
	}
	return r
}

// ResolveKey returns a copy of the stored key.
func (r *MemoryResolver) ResolveKey(ctx context.Context, keyID string) (*Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[keyID]
	if !ok {
		return nil, notFound(keyID)
	}
	k.PublicKey = append([]byte(nil), k.PublicKey...)
	return &k, nil
}

// Save stores or replaces a key.
func (r *MemoryResolver) Save(_ context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = key
	return nil
}
