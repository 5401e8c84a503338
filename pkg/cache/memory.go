package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

const (
	backendMemory = "memory"

	defaultMaxEntries    = 10000
	defaultSweepInterval = time.Minute
)

type memEntry struct {
	key   string
	value string
}

// memoryCache keeps entries in ristretto and a side index of live keys, since ristretto
// only stores key hashes and cannot answer pattern deletes on its own.
type memoryCache struct {
	store *ristretto.Cache

	mu   sync.Mutex
	keys map[string]time.Time // zero time: no expiry

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemory builds a memory cache holding at most maxEntries values.
func NewMemory(maxEntries int64, sweepInterval time.Duration) (Cache, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	m := &memoryCache{
		keys: make(map[string]time.Time),
		stop: make(chan struct{}),
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		// every entry costs 1, so MaxCost is an entry count
		MaxCost:            maxEntries,
		IgnoreInternalCost: true,
		BufferItems:        64,
		OnEvict:            m.forgetItem,
		OnReject:           m.forgetItem,
	})
	if err != nil {
		return nil, err
	}
	m.store = store

	m.wg.Add(1)
	go m.sweepLoop(sweepInterval)
	return m, nil
}

func (m *memoryCache) forgetItem(item *ristretto.Item) {
	e, ok := item.Value.(*memEntry)
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.keys, e.key)
	m.mu.Unlock()
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", ErrMiss
	}
	e, ok := v.(*memEntry)
	if !ok || e.key != key {
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if !m.store.SetWithTTL(key, &memEntry{key: key, value: value}, 1, ttl) {
		return ErrRejected
	}
	// make the write visible to the next Get
	m.store.Wait()
	// admission is decided during Wait; a rejected key was never stored
	v, ok := m.store.Get(key)
	if e, isEntry := v.(*memEntry); !ok || !isEntry || e.value != value {
		return ErrRejected
	}

	var expiry time.Time
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.keys[key] = expiry
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.store.Del(k)
	}
	m.store.Wait()

	m.mu.Lock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	val, err := m.Get(ctx, key)
	if err == ErrMiss {
		return nil
	}
	if err != nil {
		return err
	}
	return m.Set(ctx, key, val, ttl)
}

// DeletePattern uses path.Match glob syntax, which covers the * and ? forms Redis accepts.
func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}

	m.mu.Lock()
	var matched []string
	for k := range m.keys {
		if ok, _ := path.Match(pattern, k); ok {
			matched = append(matched, k)
		}
	}
	m.mu.Unlock()

	deleted := 0
	for _, k := range matched {
		if _, err := m.Get(ctx, k); err == nil {
			deleted++
		}
	}
	if err := m.Delete(ctx, matched...); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (m *memoryCache) Backend() string { return backendMemory }

func (m *memoryCache) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
		m.store.Close()
	})
	return nil
}

func (m *memoryCache) sweepLoop(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.sweep(time.Now()); n > 0 {
				zap.L().Debug("memory cache swept", zap.Int("removed", n))
			}
		}
	}
}

// sweep drops index entries that have expired or that ristretto no longer holds.
func (m *memoryCache) sweep(now time.Time) int {
	m.mu.Lock()
	removed := 0
	candidates := make([]string, 0, len(m.keys))
	for k, exp := range m.keys {
		if !exp.IsZero() && now.After(exp) {
			delete(m.keys, k)
			removed++
			continue
		}
		candidates = append(candidates, k)
	}
	m.mu.Unlock()

	for _, k := range candidates {
		if _, ok := m.store.Get(k); ok {
			continue
		}
		m.mu.Lock()
		delete(m.keys, k)
		m.mu.Unlock()
		removed++
	}
	return removed
}

func (m *memoryCache) indexLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
