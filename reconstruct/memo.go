package reconstruct

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

// Store persists results beyond the lifetime of a Memo.
// Get must return an error wrapping ErrMiss when key is unknown.
type Store interface {
	Get(key uint64) (Result, error)
	Put(key uint64, r Result) error
}

// ErrMiss is returned by a Store that does not hold a key.
var ErrMiss = errors.New("reconstruct: no cached result")

type keyed struct {
	Positions []position.Position
	Config    params.PipelineConfig
}

// Key identifies a reconstruction by the value of its input and its sanitized config.
// Two configs that sanitize to the same settings share a key.
func Key(in []position.Position, c *params.PipelineConfig) (uint64, error) {
	return hashstructure.Hash(keyed{Positions: in, Config: *c.Sanitized()}, hashstructure.FormatV2, nil)
}

// Memo caches reconstructions by Key in memory, optionally backed by a Store.
// It is safe for concurrent use.
type Memo struct {
	cache  *lru.Cache[uint64, Result]
	store  Store
	logger *slog.Logger
}

// NewMemo returns a memo holding up to size results in memory.
// store may be nil.
func NewMemo(size int, store Store) (*Memo, error) {
	cache, err := lru.New[uint64, Result](size)
	if err != nil {
		return nil, fmt.Errorf("new memo: %w", err)
	}
	return &Memo{
		cache:  cache,
		store:  store,
		logger: slog.With("d", "memo"),
	}, nil
}

// Reconstruct returns the cached result for (in, c) or computes and caches it.
// hit reports whether the result came from a cache.
// Cached trajectories are shared; callers must not modify them.
func (m *Memo) Reconstruct(in []position.Position, c *params.PipelineConfig) (res Result, hit bool) {
	key, err := Key(in, c)
	if err != nil {
		// Unhashable input is still reconstructable.
		m.logger.Warn("Failed to hash reconstruction key", "error", err)
		return Reconstruct(in, c), false
	}
	if res, ok := m.cache.Get(key); ok {
		return res, true
	}
	if m.store != nil {
		res, err := m.store.Get(key)
		if err == nil {
			m.cache.Add(key, res)
			return res, true
		}
		if !errors.Is(err, ErrMiss) {
			m.logger.Warn("Failed to read stored result", "key", key, "error", err)
		}
	}

	res = Reconstruct(in, c)
	m.cache.Add(key, res)
	if m.store != nil {
		if err := m.store.Put(key, res); err != nil {
			m.logger.Warn("Failed to store result", "key", key, "error", err)
		}
	}
	return res, false
}

// Len is the number of results held in memory.
func (m *Memo) Len() int {
	return m.cache.Len()
}
