package processed

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemorySetMarkNew(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySet()

	fresh, err := set.MarkNew(ctx, []int64{3, 1, 3, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(fresh, []int64{3, 1, 2}) {
		t.Fatalf("unexpected fresh ids: %v", fresh)
	}

	fresh, _ = set.MarkNew(ctx, []int64{2, 4})
	if !slices.Equal(fresh, []int64{4}) {
		t.Fatalf("only unseen ids must be returned, got %v", fresh)
	}

	if n, _ := set.Len(ctx); n != 4 {
		t.Fatalf("expected 4 ids, got %d", n)
	}
}

type fakeRedis struct {
	members map[string]map[string]struct{}
	expires map[string]time.Duration
	addErr  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{members: map[string]map[string]struct{}{}, expires: map[string]time.Duration{}}
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.addErr != nil {
		cmd.SetErr(f.addErr)
		return cmd
	}
	set, ok := f.members[key]
	if !ok {
		set = map[string]struct{}{}
		f.members[key] = set
	}
	var added int64
	for _, m := range members {
		s := m.(string)
		if _, exists := set[s]; !exists {
			set[s] = struct{}{}
			added++
		}
	}
	cmd.SetVal(added)
	return cmd
}

func (f *fakeRedis) SCard(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(f.members[key])))
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	f.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func TestRedisSetMarkNew(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	set := newRedisSet(rdb, "s1", time.Hour)

	fresh, err := set.MarkNew(ctx, []int64{10, 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(fresh, []int64{10, 11}) {
		t.Fatalf("unexpected fresh ids: %v", fresh)
	}

	fresh, _ = set.MarkNew(ctx, []int64{11, 12})
	if !slices.Equal(fresh, []int64{12}) {
		t.Fatalf("unexpected fresh ids: %v", fresh)
	}

	if _, ok := rdb.members["fl-bidder:processed:s1"]["10"]; !ok {
		t.Fatalf("expected ids under the session key")
	}
	if rdb.expires["fl-bidder:processed:s1"] != time.Hour {
		t.Fatalf("expected ttl to be refreshed")
	}
	if n, _ := set.Len(ctx); n != 3 {
		t.Fatalf("expected 3 ids, got %d", n)
	}
}

func TestRedisSetSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()

	if _, err := newRedisSet(rdb, "a", 0).MarkNew(ctx, []int64{1}); err != nil {
		t.Fatal(err)
	}
	fresh, err := newRedisSet(rdb, "b", 0).MarkNew(ctx, []int64{1})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(fresh, []int64{1}) {
		t.Fatalf("sessions must not share processed ids")
	}
	if len(rdb.expires) != 0 {
		t.Fatalf("no ttl expected when disabled")
	}
}

func TestRedisSetError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.addErr = errors.New("connection refused")

	_, err := newRedisSet(rdb, "s", 0).MarkNew(context.Background(), []int64{1})
	if !errors.Is(err, rdb.addErr) {
		t.Fatalf("expected wrapped redis error, got %v", err)
	}
}
