package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFirstSeenMarksUpdate(t *testing.T) {
	redis := miniredis.RunT(t)
	marker, err := New(redis.Addr(), "", "test:update", time.Minute)
	if err != nil {
		t.Fatalf("new marker: %v", err)
	}
	ctx := context.Background()
	if !marker.FirstSeen(ctx, 1, 100) {
		t.Fatalf("first delivery should be fresh")
	}
	if marker.FirstSeen(ctx, 1, 100) {
		t.Fatalf("second delivery should be a duplicate")
	}
	if !marker.FirstSeen(ctx, 1, 101) {
		t.Fatalf("different update should be fresh")
	}
	if !marker.FirstSeen(ctx, 2, 100) {
		t.Fatalf("same message id in another chat should be fresh")
	}
}

func TestFirstSeenExpires(t *testing.T) {
	redis := miniredis.RunT(t)
	marker, err := New(redis.Addr(), "", "test:update", time.Minute)
	if err != nil {
		t.Fatalf("new marker: %v", err)
	}
	ctx := context.Background()
	if !marker.FirstSeen(ctx, 1, 7) {
		t.Fatalf("first delivery should be fresh")
	}
	redis.FastForward(2 * time.Minute)
	if !marker.FirstSeen(ctx, 1, 7) {
		t.Fatalf("marker should expire after the TTL")
	}
}

func TestFirstSeenFailsOpen(t *testing.T) {
	redis := miniredis.RunT(t)
	marker, err := New(redis.Addr(), "", "test:update", time.Minute)
	if err != nil {
		t.Fatalf("new marker: %v", err)
	}
	redis.Close()
	if !marker.FirstSeen(context.Background(), 1, 1) {
		t.Fatalf("marker should fail open on redis errors")
	}
}

func TestNewRequiresRedisAddr(t *testing.T) {
	marker, err := New("", "", "test:update", time.Minute)
	if err == nil || marker != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}

func TestNilMarkerAlwaysFresh(t *testing.T) {
	var marker *Marker
	if !marker.FirstSeen(context.Background(), 1, 1) {
		t.Fatalf("nil marker should treat every update as fresh")
	}
}
