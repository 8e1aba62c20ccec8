package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"coinwatch/internal/errors"
	"coinwatch/internal/news"
)

// testStore creates a Store backed by an in-process Redis.
func testStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, opts...), mr
}

// article builds a minimal article with the given id and timestamp.
func article(id string, ts int64) *news.Article {
	return &news.Article{
		ID:        id,
		Title:     "title " + id,
		URL:       "https://example.com/" + id,
		Content:   "content",
		Summary:   "summary",
		Source:    "example.com",
		Score:     0.5,
		Timestamp: ts,
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	a := article("a1", 100)
	if err := st.Put(ctx, a); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := st.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != "a1" || got.Title != "title a1" || got.Timestamp != 100 {
		t.Errorf("Get returned %+v, want stored article", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	st, _ := testStore(t)

	_, err := st.Get(context.Background(), "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get error = %v, want NOT_FOUND", err)
	}
}

func TestList_DescendingTimestampOrder(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	for _, ts := range []int64{100, 200, 300} {
		if err := st.Put(ctx, article(fmt.Sprintf("a%d", ts), ts)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := st.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d articles, want 2", len(got))
	}
	if got[0].Timestamp != 300 || got[1].Timestamp != 200 {
		t.Errorf("List order = [%d, %d], want [300, 200]", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestList_Offset(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	for _, ts := range []int64{100, 200, 300} {
		if err := st.Put(ctx, article(fmt.Sprintf("a%d", ts), ts)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := st.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].Timestamp != 200 || got[1].Timestamp != 100 {
		t.Errorf("List(2, 1) = %v timestamps, want [200, 100]", timestamps(got))
	}
}

func TestList_FewerThanLimit(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	if err := st.Put(ctx, article("only", 100)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := st.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List returned %d articles, want 1", len(got))
	}
}

func TestIndexCapacityBound(t *testing.T) {
	st, _ := testStore(t, WithMaxIndexSize(5))
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		if err := st.Put(ctx, article(fmt.Sprintf("a%d", i), int64(i*100))); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := st.List(ctx, 100, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("List returned %d articles, want capacity bound 5", len(got))
	}
	// Oldest three evicted from the index.
	for _, a := range got {
		if a.Timestamp <= 300 {
			t.Errorf("article %s (ts %d) should have been evicted", a.ID, a.Timestamp)
		}
	}
}

func TestTTLExpiry(t *testing.T) {
	st, mr := testStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	if err := st.Put(ctx, article("fleeting", 100)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := st.Get(ctx, "fleeting"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	_, err := st.Get(ctx, "fleeting")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after expiry = %v, want NOT_FOUND", err)
	}
}

func TestList_SkipsExpiredIndexEntries(t *testing.T) {
	st, mr := testStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	if err := st.Put(ctx, article("old", 100)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if err := st.Put(ctx, article("fresh", 200)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// "old" is still indexed but its value expired; List must skip it
	// silently, not error.
	got, err := st.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("List = %v, want only the live article", timestamps(got))
	}
}

func TestPut_OverwriteSameID(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	a := article("same", 100)
	if err := st.Put(ctx, a); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	a2 := article("same", 150)
	a2.Title = "updated"
	if err := st.Put(ctx, a2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := st.Get(ctx, "same")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "updated" {
		t.Errorf("Title = %q, want last write to win", got.Title)
	}

	all, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("All returned %d entries, want 1 (no duplicate index entry)", len(all))
	}
}

func TestFetchTimeMarker(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	ts, err := st.LastFetchTime(ctx)
	if err != nil {
		t.Fatalf("LastFetchTime failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("LastFetchTime = %d, want 0 when never set", ts)
	}

	if err := st.RecordFetchTime(ctx, 1700000000); err != nil {
		t.Fatalf("RecordFetchTime failed: %v", err)
	}

	ts, err = st.LastFetchTime(ctx)
	if err != nil {
		t.Fatalf("LastFetchTime failed: %v", err)
	}
	if ts != 1700000000 {
		t.Errorf("LastFetchTime = %d, want 1700000000", ts)
	}
}

func timestamps(articles []news.Article) []int64 {
	out := make([]int64, len(articles))
	for i, a := range articles {
		out[i] = a.Timestamp
	}
	return out
}
