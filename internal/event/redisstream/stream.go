// Package redisstream implements the event service on Redis Streams.
// Each queue maps to one stream; sessions read through a consumer group so
// delivery is at-least-once until acknowledged.
package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emberfin/anchor-engine/internal/event"
)

const (
	streamPrefix  = "anchor:events:"
	consumerGroup = "anchor-engine"
	payloadField  = "payload"

	defaultReadCount = 10
	defaultReadBlock = 5 * time.Second
)

type Service struct {
	client *redis.Client
	logger *slog.Logger
}

func New(url string, logger *slog.Logger) (*Service, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

func (s *Service) Close() error {
	return s.client.Close()
}

// Ping reports backend reachability for health checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func streamKey(queue event.Queue) string {
	return streamPrefix + string(queue)
}

func (s *Service) Publish(ctx context.Context, queue event.Queue, ev event.TransactionEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(queue),
		Values: map[string]any{payloadField: raw},
	}).Err(); err != nil {
		return fmt.Errorf("publish event to %s: %w", queue, err)
	}
	return nil
}

func (s *Service) CreateSession(ctx context.Context, queue event.Queue) (event.Session, error) {
	key := streamKey(queue)
	err := s.client.XGroupCreateMkStream(ctx, key, consumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &session{
		svc:      s,
		queue:    queue,
		key:      key,
		consumer: consumerGroup + "-" + uuid.NewString(),
	}, nil
}

// isBusyGroup matches the error redis returns when the group already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

type session struct {
	svc      *Service
	queue    event.Queue
	key      string
	consumer string
}

func (s *session) Publish(ctx context.Context, ev event.TransactionEvent) error {
	return s.svc.Publish(ctx, s.queue, ev)
}

func (s *session) Read(ctx context.Context) (*event.ReadResponse, error) {
	streams, err := s.svc.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: s.consumer,
		Streams:  []string{s.key, ">"},
		Count:    defaultReadCount,
		Block:    defaultReadBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return &event.ReadResponse{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read events from %s: %w", s.queue, err)
	}

	resp := &event.ReadResponse{}
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values[payloadField].(string)
			if !ok {
				s.svc.logger.Warn("skipping malformed event message", "queue", s.queue, "msg_id", msg.ID)
				continue
			}
			var ev event.TransactionEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				s.svc.logger.Warn("skipping undecodable event message", "queue", s.queue, "msg_id", msg.ID, "error", err)
				continue
			}
			resp.Events = append(resp.Events, ev)
			resp.IDs = append(resp.IDs, msg.ID)
		}
	}
	return resp, nil
}

func (s *session) Ack(ctx context.Context, resp *event.ReadResponse) error {
	if resp == nil || len(resp.IDs) == 0 {
		return nil
	}
	if err := s.svc.client.XAck(ctx, s.key, consumerGroup, resp.IDs...).Err(); err != nil {
		return fmt.Errorf("ack events on %s: %w", s.queue, err)
	}
	return nil
}

func (s *session) Close() error {
	return s.svc.client.XGroupDelConsumer(context.Background(), s.key, consumerGroup, s.consumer).Err()
}
