package provider

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process credential store. The cached session
// does not survive a restart; used in dev mode and tests.
type MemoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil || time.Now().After(m.cred.ExpiresAt) {
		return nil, nil
	}
	cred := *m.cred
	return &cred, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
