// Package history keeps the bounded, newest-first log of answered guidance
// queries and persists it through a storage.KV under a single key.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"policy-guide/internal/logger"
	"policy-guide/internal/storage"
)

const (
	MaxItems   = 50
	StorageKey = "policyGuidanceHistory"
)

type Item struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Markdown string `json:"markdown,omitempty"`
}

type Store struct {
	kv    storage.KV
	key   string
	log   *slog.Logger
	items []Item
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open creates a store and loads whatever kv already holds.
func Open(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: StorageKey}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDiscard(s.log)
	s.Load(ctx)
	return s
}

// Load replaces the in-memory sequence with the persisted one. Missing,
// unreadable or malformed data yields an empty history.
func (s *Store) Load(ctx context.Context) []Item {
	s.items = s.read(ctx)
	return s.Items()
}

func (s *Store) read(ctx context.Context) []Item {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("history read failed, starting empty", "key", s.key, "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("history data malformed, starting empty", "key", s.key, "err", err)
		return nil
	}
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	return items
}

// Append inserts {query, response} at the head. It reports false without
// writing when the head already holds the same pair. The in-memory sequence
// is updated even when persisting fails.
func (s *Store) Append(ctx context.Context, query, response, markdown string) (bool, error) {
	if len(s.items) > 0 && s.items[0].Query == query && s.items[0].Response == response {
		return false, nil
	}

	next := make([]Item, 0, min(len(s.items)+1, MaxItems))
	next = append(next, Item{Query: query, Response: response, Markdown: markdown})
	next = append(next, s.items...)
	if len(next) > MaxItems {
		next = next[:MaxItems]
	}
	s.items = next
	return true, s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	return s.persist(ctx)
}

func (s *Store) Get(i int) (Item, bool) {
	if i < 0 || i >= len(s.items) {
		return Item{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int {
	return len(s.items)
}

// Items returns a copy of the sequence, newest first.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
