package store

import (
	"strings"

	"cardflow/txn-uploader/internal/models"
)

// MockStore is an in-memory mapping table for tests.
type MockStore struct {
	Scheme      models.Scheme
	Identities  map[string]models.Identity
	Provisioned []string

	// PersistError is returned by EnsureProvisioned after the entry is added.
	PersistError error
}

// NewMockStore returns an empty MockStore.
func NewMockStore(scheme models.Scheme) *MockStore {
	return &MockStore{Scheme: scheme, Identities: make(map[string]models.Identity)}
}

// Set stores an identity under folder.
func (m *MockStore) Set(folder string, identity models.Identity) {
	if m.Identities == nil {
		m.Identities = make(map[string]models.Identity)
	}
	m.Identities[folder] = identity
}

// Resolve looks a folder up case-insensitively.
func (m *MockStore) Resolve(folder string) (models.Identity, bool) {
	for key, id := range m.Identities {
		if strings.EqualFold(key, folder) {
			return id, true
		}
	}
	return models.Identity{}, false
}

// EnsureProvisioned records a placeholder for unseen folders.
func (m *MockStore) EnsureProvisioned(folder string) (bool, error) {
	if _, ok := m.Resolve(folder); ok {
		return false, nil
	}
	m.Set(folder, models.PlaceholderIdentity(m.Scheme, folder))
	m.Provisioned = append(m.Provisioned, folder)
	return true, m.PersistError
}
