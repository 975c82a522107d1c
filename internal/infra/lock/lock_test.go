package lock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "org-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	if maxSeen.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen.Load())
	}
	if l.Len() != 0 {
		t.Errorf("Len() after all released = %d, want 0", l.Len())
	}
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, "org-a")
	if err != nil {
		t.Fatal(err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := l.Acquire(ctx, "org-b")
		if err == nil {
			releaseB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different key blocked")
	}
}

func TestLocal_AcquireHonorsContext(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "org-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "org-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	release()
	release() // second call is a no-op
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestRedis_AcquireRelease(t *testing.T) {
	url := os.Getenv("VOTECAST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VOTECAST_TEST_REDIS_URL not set")
	}
	client, err := Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	r := NewRedis(client, "votecast:test:lock:", time.Second, nil)
	ctx := context.Background()
	release, err := r.Acquire(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := r.Acquire(short, "org-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire err = %v, want DeadlineExceeded", err)
	}

	release()
	release2, err := r.Acquire(ctx, "org-1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestRedis_LeaseOutlivesTTLWhileHeld(t *testing.T) {
	url := os.Getenv("VOTECAST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VOTECAST_TEST_REDIS_URL not set")
	}
	client, err := Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	r := NewRedis(client, "votecast:test:lease:", 300*time.Millisecond, nil)
	ctx := context.Background()
	release, err := r.Acquire(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	time.Sleep(time.Second)
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := r.Acquire(short, "org-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("acquire past ttl err = %v, want DeadlineExceeded", err)
	}
}

func TestRedis_ReleaseFailureIsLogged(t *testing.T) {
	url := os.Getenv("VOTECAST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VOTECAST_TEST_REDIS_URL not set")
	}
	client, err := Connect(url)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRedis(client, "votecast:test:release:", time.Second, logger)
	release, err := r.Acquire(context.Background(), "org-1")
	if err != nil {
		t.Fatal(err)
	}
	client.Close()
	release()
	release() // second call is a no-op

	if !strings.Contains(buf.String(), "lock release failed") {
		t.Errorf("log = %q, want release failure warning", buf.String())
	}
}
