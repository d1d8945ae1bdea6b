package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "test:"), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type record struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	if err := helper.Set(ctx, "r1", record{ID: "1", Name: "one"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got record
	if err := helper.Get(ctx, "r1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != "1" || got.Name != "one" {
		t.Errorf("got %+v", got)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]string
	err := helper.Get(context.Background(), "nope", &dest)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("err = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_TTLExpiry(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "short", "v", time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	var dest string
	if err := helper.Get(ctx, "short", &dest); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("err after expiry = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_SetNX(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	won, err := helper.SetNX(ctx, "lock", "owner-1", time.Minute)
	if err != nil {
		t.Fatalf("SetNX failed: %v", err)
	}
	if !won {
		t.Fatal("first SetNX lost")
	}

	won, err = helper.SetNX(ctx, "lock", "owner-2", time.Minute)
	if err != nil {
		t.Fatalf("second SetNX failed: %v", err)
	}
	if won {
		t.Error("second SetNX won against held key")
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "gone", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := helper.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := helper.Exists(ctx, "gone")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("key still present after delete")
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	var dest string
	if err := helper.Get(ctx, "k", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get err = %v, want ErrCacheNotAvailable", err)
	}
	if err := helper.Set(ctx, "k", "v", time.Minute); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Set err = %v, want ErrCacheNotAvailable", err)
	}

	// SetNX lets callers proceed as if they won; the idempotency gate is a
	// best-effort guard, not a correctness requirement.
	won, err := helper.SetNX(ctx, "k", "v", time.Minute)
	if err != nil || !won {
		t.Errorf("SetNX = (%v, %v), want (true, nil)", won, err)
	}
}

func TestCacheHelper_KeyPrefix(t *testing.T) {
	helper, mr := newTestHelper(t)

	if err := helper.Set(context.Background(), "abc", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("test:abc") {
		t.Errorf("key not stored under prefix; keys = %v", mr.Keys())
	}
}
