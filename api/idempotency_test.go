package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisDeduperAddRemove(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})

	deduper := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("expected first add to succeed, added=%v err=%v", added, err)
	}
	if ttl := m.TTL("idempotency:user:k1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	added, err = deduper.Add(ctx, "user", "k1")
	if err != nil || added {
		t.Fatalf("expected duplicate, added=%v err=%v", added, err)
	}

	added, err = deduper.Add(ctx, "other", "k1")
	if err != nil || !added {
		t.Fatalf("keys must be scoped per user, added=%v err=%v", added, err)
	}

	if err := deduper.Remove(ctx, "user", "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err = deduper.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("expected re-add after remove, added=%v err=%v", added, err)
	}
}
