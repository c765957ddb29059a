package queue

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestJobsRunAndReportErrors(t *testing.T) {
	m := NewManager(4, 1)
	defer m.Shutdown()

	errc := make(chan error, 1)
	wantErr := errors.New("boom")
	if !m.Enqueue(Job{Fn: func() error { return wantErr }, Errc: errc}) {
		t.Fatal("enqueue rejected with free capacity")
	}

	select {
	case err := <-errc:
		if !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestSingleWorkerSerializesJobs(t *testing.T) {
	m := NewManager(8, 1)
	defer m.Shutdown()

	var running int32
	var overlapped int32
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		m.Enqueue(Job{Fn: func() error {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&overlapped, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			done <- struct{}{}
			return nil
		}})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not complete")
		}
	}
	if atomic.LoadInt32(&overlapped) == 1 {
		t.Fatal("jobs overlapped on a single worker")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	m := NewManager(1, 1)
	defer m.Shutdown()

	block := make(chan struct{})
	m.Enqueue(Job{Fn: func() error { <-block; return nil }})

	// Give the worker time to pick up the blocking job, then fill the
	// buffer and overflow it.
	time.Sleep(10 * time.Millisecond)
	m.Enqueue(Job{Fn: func() error { return nil }})
	if m.Enqueue(Job{Fn: func() error { return nil }}) {
		t.Error("enqueue should report a drop when the queue is full")
	}
	close(block)
}

func TestEnqueueAfterShutdownIsDropped(t *testing.T) {
	m := NewManager(4, 1)
	m.Shutdown()

	var ran int32
	if m.Enqueue(Job{Fn: func() error { atomic.AddInt32(&ran, 1); return nil }}) {
		t.Error("enqueue should report a drop after shutdown")
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Error("job ran after shutdown")
	}

	// Repeated shutdowns stay safe.
	m.Shutdown()
}
