// Package queue runs refetch jobs on a bounded worker pool. The sync
// controller uses a single worker so reprojection runs never overlap.
package queue

import (
	"log"
	"sync"
)

type Job struct {
	Fn   func() error
	Errc chan error
}

type Manager struct {
	Jobs       chan Job
	MaxWorkers int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewManager(queueSize, maxWorkers int) *Manager {
	m := &Manager{
		Jobs:       make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	m.startWorkers()
	return m
}

func (m *Manager) startWorkers() {
	for i := 0; i < m.MaxWorkers; i++ {
		m.wg.Add(1)
		go func(workerID int) {
			defer m.wg.Done()
			for job := range m.Jobs {
				err := job.Fn()
				if err != nil {
					log.Printf("queue: worker %d job failed: %v", workerID, err)
				}
				if job.Errc != nil {
					job.Errc <- err
				}
			}
		}(i)
	}
}

// Enqueue queues a job, dropping it when the queue is full or already shut
// down. Dropped refetches are safe: the next trigger reconciles anyway, and a
// timer that outlives Shutdown must not crash the process.
func (m *Manager) Enqueue(job Job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		log.Printf("queue: shut down, dropping job")
		return false
	}
	select {
	case m.Jobs <- job:
		return true
	default:
		log.Printf("queue: queue full, dropping job")
		return false
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.Jobs)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
