// Package store persists articles in Redis: one JSON value per article
// with a per-item TTL, a sorted-set index ordered by ingestion timestamp,
// and a single last-fetch marker.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"coinwatch/internal/errors"
	"coinwatch/internal/news"
)

const (
	// DefaultTTL is how long an article stays retrievable after insertion.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultMaxIndexSize bounds the time-ordered index; the oldest
	// entries are evicted past this point.
	DefaultMaxIndexSize = 1000

	defaultPrefix = "coinwatch"
)

// Store is the Redis-backed article store. Safe for concurrent use; all
// mutation is last-write-wins on the article key.
type Store struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	maxSize int64
	prefix  string
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the article time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithMaxIndexSize overrides the index capacity bound.
func WithMaxIndexSize(n int64) Option {
	return func(s *Store) { s.maxSize = n }
}

// WithKeyPrefix overrides the Redis key namespace.
func WithKeyPrefix(p string) Option {
	return func(s *Store) { s.prefix = p }
}

// New creates a Store on top of a Redis client.
func New(rdb redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		rdb:     rdb,
		ttl:     DefaultTTL,
		maxSize: DefaultMaxIndexSize,
		prefix:  defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL reports the configured article time-to-live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) articleKey(id string) string {
	return fmt.Sprintf("%s:article:%s", s.prefix, id)
}

func (s *Store) indexKey() string {
	return s.prefix + ":index"
}

func (s *Store) lastFetchKey() string {
	return s.prefix + ":last_fetch"
}

// Put inserts or overwrites an article keyed by ID, sets its expiry to
// the configured TTL, and indexes it by timestamp. After insertion the
// index is trimmed to capacity by dropping the lowest-ranked entries.
// A dropped index entry does not delete the underlying article; that
// orphan expires on its own TTL.
func (s *Store) Put(ctx context.Context, a *news.Article) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := s.rdb.Set(ctx, s.articleKey(a.ID), data, s.ttl).Err(); err != nil {
		return errors.NewStore(err)
	}

	if err := s.rdb.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(a.Timestamp),
		Member: a.ID,
	}).Err(); err != nil {
		return errors.NewStore(err)
	}

	return s.trimIndex(ctx)
}

// trimIndex evicts the oldest index entries past the capacity bound.
func (s *Store) trimIndex(ctx context.Context) error {
	card, err := s.rdb.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return errors.NewStore(err)
	}
	if card <= s.maxSize {
		return nil
	}
	if err := s.rdb.ZRemRangeByRank(ctx, s.indexKey(), 0, card-s.maxSize-1).Err(); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Get returns the article with the given ID, or NOT_FOUND if it was
// never stored or its TTL has elapsed.
func (s *Store) Get(ctx context.Context, id string) (*news.Article, error) {
	data, err := s.rdb.Get(ctx, s.articleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStore(err)
	}

	var a news.Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &a, nil
}

// List returns up to limit articles in descending timestamp order,
// starting at the given index offset. Index entries whose article has
// expired are silently skipped, so fewer than limit may come back.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]news.Article, error) {
	if limit <= 0 {
		return []news.Article{}, nil
	}

	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(), offset, offset+limit-1).Result()
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return s.resolve(ctx, ids)
}

// All returns every live indexed article, newest first. The dedup gate
// and the resolver's cache scan both walk this; cost is bounded by the
// index capacity.
func (s *Store) All(ctx context.Context) ([]news.Article, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return s.resolve(ctx, ids)
}

// resolve loads each indexed ID, skipping entries that expired out from
// under the index.
func (s *Store) resolve(ctx context.Context, ids []string) ([]news.Article, error) {
	articles := make([]news.Article, 0, len(ids))
	for _, id := range ids {
		data, err := s.rdb.Get(ctx, s.articleKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.NewStore(err)
		}
		var a news.Article
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, errors.NewInternal(err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// RecordFetchTime overwrites the last-fetch marker.
func (s *Store) RecordFetchTime(ctx context.Context, ts int64) error {
	if err := s.rdb.Set(ctx, s.lastFetchKey(), strconv.FormatInt(ts, 10), 0).Err(); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// LastFetchTime reads the last-fetch marker; 0 when never set.
func (s *Store) LastFetchTime(ctx context.Context) (int64, error) {
	val, err := s.rdb.Get(ctx, s.lastFetchKey()).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.NewStore(err)
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return ts, nil
}
