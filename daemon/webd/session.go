package webd

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/stream"
	"github.com/rotblauer/trajd/types/position"
)

// session buffers the observations of one live tracker feed.
// Every append re-runs reconstruction over the whole buffer.
type session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	config   *params.PipelineConfig
	pipeline *reconstruct.Pipeline
	buf      *stream.RingBuffer[position.Position]
	seen     *lru.Cache
	result   reconstruct.Result
	updated  time.Time
}

// appended reports what one append did to a session.
type appended struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Evicted    int `json:"evicted"`
}

func newSession(id string, c *params.PipelineConfig, capacity, dedupe int) *session {
	now := time.Now()
	return &session{
		ID:       id,
		Created:  now,
		config:   c,
		pipeline: reconstruct.NewPipeline(c),
		buf:      stream.NewRingBuffer[position.Position](capacity),
		seen:     lru.New(dedupe),
		result:   reconstruct.Reconstruct(nil, c),
		updated:  now,
	}
}

// keyed is an observation with its dedupe key.
type keyed struct {
	position.Position
	key uint64
	ok  bool
}

func keyOf(p position.Position) keyed {
	key, err := hashstructure.Hash(p, hashstructure.FormatV2, nil)
	return keyed{Position: p, key: key, ok: err == nil}
}

// append adds the observations not seen recently and reconstructs the buffer.
// A non-nil config replaces the session's config first.
// If ctx is cancelled before the batch is read, the session is left untouched.
func (s *session) append(ctx context.Context, ps []position.Position, c *params.PipelineConfig) (appended, reconstruct.Result, error) {
	batch := stream.Collect(ctx, stream.Transform(ctx, keyOf, stream.Slice(ctx, ps)))
	if err := ctx.Err(); err != nil {
		return appended{}, reconstruct.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c != nil {
		s.config = c
		s.pipeline = reconstruct.NewPipeline(c)
	}

	accepted := make([]position.Position, 0, len(batch))
	keys := make(map[uint64]struct{}, len(batch))
	for _, k := range batch {
		if k.ok {
			if _, dup := keys[k.key]; dup {
				continue
			}
			if _, dup := s.seen.Get(k.key); dup {
				continue
			}
			keys[k.key] = struct{}{}
		}
		accepted = append(accepted, k.Position)
	}
	for key := range keys {
		s.seen.Add(key, struct{}{})
	}

	a := appended{
		Accepted:   len(accepted),
		Duplicates: len(ps) - len(accepted),
	}
	a.Evicted = s.buf.Add(accepted...)

	s.result = s.pipeline.Run(s.buf.Get())
	s.updated = time.Now()
	return a, s.result, nil
}

// sessionView is the JSON rendering of a session.
type sessionView struct {
	ID       string                 `json:"id"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
	Buffered int                    `json:"buffered"`
	Config   *params.PipelineConfig `json:"config"`
	Appended *appended              `json:"appended,omitempty"`
	reconstruct.Result
}

func (s *session) view() sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionView{
		ID:       s.ID,
		Created:  s.Created,
		Updated:  s.updated,
		Buffered: s.buf.Len(),
		Config:   s.config,
		Result:   s.result,
	}
}
