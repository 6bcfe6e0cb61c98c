package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	err  error
}

func newMemStore() *memStore { return &memStore{docs: map[string][]byte{}} }

func (m *memStore) key(userID, collection string) string { return userID + ":" + collection }

func (m *memStore) Get(_ context.Context, userID, collection string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	b, ok := m.docs[m.key(userID, collection)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memStore) Set(_ context.Context, userID, collection string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.docs[m.key(userID, collection)] = b
	return nil
}

func (m *memStore) Remove(_ context.Context, userID string, collections ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range collections {
		delete(m.docs, m.key(userID, c))
	}
	return nil
}

func (m *memStore) has(userID, collection string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[m.key(userID, collection)]
	return ok
}

type memOrders struct {
	mu        sync.Mutex
	byID      map[string]entity.Order
	createErr error
}

func newMemOrders() *memOrders { return &memOrders{byID: map[string]entity.Order{}} }

func (m *memOrders) Create(_ context.Context, o *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatusIf(_ context.Context, id string, from, to entity.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.byID[id] = o
	return true, nil
}

type memIdem struct {
	mu          sync.Mutex
	locked      map[string]bool
	values      map[string]string
	rememberErr error
}

func newMemIdem() *memIdem {
	return &memIdem{locked: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locked[k] {
		return false, nil
	}
	m.locked[k] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rememberErr != nil {
		return m.rememberErr
	}
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

type memEvents struct {
	mu   sync.Mutex
	msgs []OrderPlacedMsg
	err  error
}

func (m *memEvents) PublishOrderPlaced(_ context.Context, msg OrderPlacedMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

type memCache struct {
	mu     sync.Mutex
	status map[string]entity.Status
}

func newMemCache() *memCache { return &memCache{status: map[string]entity.Status{}} }

func (m *memCache) SetStatus(_ context.Context, id string, st entity.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = st
	return nil
}

func (m *memCache) SeedStatus(_ context.Context, id string, st entity.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.status[id]; !ok {
		m.status[id] = st
	}
	return nil
}

func (m *memCache) GetStatus(_ context.Context, id string) (entity.Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[id]
	return st, ok, nil
}

var errBoom = errors.New("boom")
