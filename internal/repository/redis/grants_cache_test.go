package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

func newTestCache(t *testing.T) (*GrantCache, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(srv.Close)

	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewGrantCache(client, "access:grants", time.Minute), srv
}

func TestGrantCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	entry := domain.UserGrants{
		UserID: "user-7",
		Grants: domain.GrantSet{
			"vendors": {"can_view": true, "can_edit": false},
		},
		Revision: 3,
	}

	if err := cache.Set(ctx, entry); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := cache.Get(ctx, "user-7")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Revision != 3 {
		t.Errorf("revision = %d, want 3", got.Revision)
	}
	if !got.Grants.Granted("vendors", "can_view") {
		t.Error("vendors.can_view should be granted")
	}
	if got.Grants.Granted("vendors", "can_edit") {
		t.Error("vendors.can_edit should not be granted")
	}
}

func TestGrantCache_MissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t)

	got, err := cache.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestGrantCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	entry := domain.UserGrants{
		UserID:   "user-7",
		Grants:   domain.GrantSet{"vendors": {"can_view": true}},
		Revision: 1,
	}
	if err := cache.Set(ctx, entry); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := cache.Invalidate(ctx, "user-7"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	got, err := cache.Get(ctx, "user-7")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss after invalidation, got %+v", got)
	}
}

func TestGrantCache_EntriesExpire(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	entry := domain.UserGrants{
		UserID:   "user-7",
		Grants:   domain.GrantSet{"vendors": {"can_view": true}},
		Revision: 1,
	}
	if err := cache.Set(ctx, entry); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	srv.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "user-7")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss after TTL, got %+v", got)
	}
}
