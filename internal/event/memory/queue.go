// Package memory provides an in-process event service for tests and local
// development. It keeps the same at-least-once, ack-to-remove semantics as
// the redis backend.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/emberfin/anchor-engine/internal/event"
)

type entry struct {
	id string
	ev event.TransactionEvent
}

type Service struct {
	mu     sync.Mutex
	queues map[event.Queue][]entry
	nextID int
}

func New() *Service {
	return &Service{queues: make(map[event.Queue][]entry)}
}

func (s *Service) Publish(_ context.Context, queue event.Queue, ev event.TransactionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.queues[queue] = append(s.queues[queue], entry{id: strconv.Itoa(s.nextID), ev: ev})
	return nil
}

func (s *Service) CreateSession(_ context.Context, queue event.Queue) (event.Session, error) {
	return &session{svc: s, queue: queue}, nil
}

// Events returns a snapshot of all unacknowledged events on a queue; test
// helper.
func (s *Service) Events(queue event.Queue) []event.TransactionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.TransactionEvent, 0, len(s.queues[queue]))
	for _, e := range s.queues[queue] {
		out = append(out, e.ev)
	}
	return out
}

type session struct {
	svc   *Service
	queue event.Queue
}

func (s *session) Publish(ctx context.Context, ev event.TransactionEvent) error {
	return s.svc.Publish(ctx, s.queue, ev)
}

func (s *session) Read(context.Context) (*event.ReadResponse, error) {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()

	resp := &event.ReadResponse{}
	for _, e := range s.svc.queues[s.queue] {
		resp.Events = append(resp.Events, e.ev)
		resp.IDs = append(resp.IDs, e.id)
	}
	return resp, nil
}

func (s *session) Ack(_ context.Context, resp *event.ReadResponse) error {
	if resp == nil || len(resp.IDs) == 0 {
		return nil
	}

	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()

	acked := make(map[string]bool, len(resp.IDs))
	for _, id := range resp.IDs {
		acked[id] = true
	}

	var remaining []entry
	for _, e := range s.svc.queues[s.queue] {
		if !acked[e.id] {
			remaining = append(remaining, e)
		}
	}
	s.svc.queues[s.queue] = remaining
	return nil
}

func (s *session) Close() error {
	return nil
}
