package backup

import (
	"context"
	"log"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// uploader is satisfied by *Client; tests substitute their own.
type uploader interface {
	PutObject(ctx context.Context, objectKey string, body []byte) error
}

type job struct {
	playerID string
	doc      []byte
}

// Mirror uploads the latest saved document per player from a bounded queue.
// When the queue is full the oldest intent loses: the drop is counted and
// logged, never propagated, since the next save re-enqueues a fresher copy.
type Mirror struct {
	client uploader
	prefix string
	logger *log.Logger

	jobs chan job
	wg   sync.WaitGroup
	once sync.Once

	enqueuedTotal      atomic.Uint64
	droppedTotal       atomic.Uint64
	uploadSuccessTotal atomic.Uint64
	uploadFailTotal    atomic.Uint64
}

func NewMirror(client *Client, prefix string, workers, queueCapacity int, logger *log.Logger) *Mirror {
	return newMirror(client, prefix, workers, queueCapacity, logger)
}

func newMirror(client uploader, prefix string, workers, queueCapacity int, logger *log.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}
	m := &Mirror{
		client: client,
		prefix: strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		logger: logger,
		jobs:   make(chan job, queueCapacity),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for j := range m.jobs {
				m.uploadOne(j)
			}
		}()
	}
	return m
}

// Enqueue schedules doc for upload. Non-blocking.
func (m *Mirror) Enqueue(playerID string, doc []byte) {
	if m == nil || m.client == nil {
		return
	}
	m.enqueuedTotal.Add(1)
	select {
	case m.jobs <- job{playerID: playerID, doc: doc}:
	default:
		m.droppedTotal.Add(1)
		if m.logger != nil {
			m.logger.Printf("backup queue full; dropped document for %s", playerID)
		}
	}
}

func (m *Mirror) uploadOne(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := path.Join(m.prefix, "players", j.playerID+".json")
	if err := m.client.PutObject(ctx, key, j.doc); err != nil {
		m.uploadFailTotal.Add(1)
		if m.logger != nil {
			m.logger.Printf("backup upload %s: %v", key, err)
		}
		return
	}
	m.uploadSuccessTotal.Add(1)
}

// Close drains the queue and stops the workers.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() { close(m.jobs) })
	m.wg.Wait()
}

type Stats struct {
	EnqueuedTotal      uint64
	DroppedTotal       uint64
	UploadSuccessTotal uint64
	UploadFailTotal    uint64
}

func (m *Mirror) StatsSnapshot() Stats {
	return Stats{
		EnqueuedTotal:      m.enqueuedTotal.Load(),
		DroppedTotal:       m.droppedTotal.Load(),
		UploadSuccessTotal: m.uploadSuccessTotal.Load(),
		UploadFailTotal:    m.uploadFailTotal.Load(),
	}
}
