package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRememberWithoutClientCallsLoad(t *testing.T) {
	var c *Cache
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), c, "answer", load)
		if err != nil || got != 42 {
			t.Fatalf("Remember = %d, %v", got, err)
		}
	}
	if calls != 2 {
		t.Errorf("load called %d times, want 2", calls)
	}
}

func TestRememberFallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := New(rdb, time.Minute, nil)
	defer c.Close()

	got, err := Remember(context.Background(), c, "summary", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || got != "fresh" {
		t.Fatalf("Remember = %q, %v", got, err)
	}
}

func TestRememberPropagatesLoadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Remember(context.Background(), New(nil, time.Minute, nil), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
