package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	mutex := NewKeyMutex()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := mutex.Lock(context.Background(), "teacher-1:2025-01-10")
			if err != nil {
				t.Errorf("lock error: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most one holder per key, saw %d", maxActive)
	}
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	mutex := NewKeyMutex()

	release1, err := mutex.Lock(context.Background(), "teacher-1:2025-01-10")
	if err != nil {
		t.Fatalf("lock error: %v", err)
	}
	defer release1()

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		release2, err := mutex.Lock(context.Background(), "teacher-2:2025-01-10")
		if err == nil {
			release2()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("independent key blocked")
	}
}

func TestKeyMutexHonorsContext(t *testing.T) {
	mutex := NewKeyMutex()

	release, err := mutex.Lock(context.Background(), "teacher-1:2025-01-10")
	if err != nil {
		t.Fatalf("lock error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := mutex.Lock(ctx, "teacher-1:2025-01-10"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on lock timeout, got %v", err)
	}
}
