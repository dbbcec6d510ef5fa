package mq

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"learningplatform/services/learning-service/internal/platform/logger"
)

const (
	fieldRoutingKey = "routing_key"
	fieldPayload    = "payload"

	readCount = 16
)

// Handler processes one message body. A returned error is logged; the message
// is acknowledged either way.
type Handler func(ctx context.Context, payload []byte) error

// Binding ties a queue to an exchange for the routing keys matching Key.
type Binding struct {
	Queue    string
	Exchange string
	Key      string
	Handler  Handler
}

// streamClient is the part of *redis.Client the subscriber needs.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

type Options struct {
	// Consumer names this process inside every consumer group. It must stay the
	// same across restarts so entries left pending by a crash are read again.
	// Empty picks a random name.
	Consumer string
	// Block is how long one read waits for new entries.
	Block time.Duration
	// ClaimIdle is how long an entry must sit unacknowledged with another
	// consumer before this one takes it over on startup.
	ClaimIdle time.Duration
}

// Subscriber consumes topic-routed messages from Redis Streams. Each exchange is
// a stream and each queue a consumer group on it. Delivery is at least once:
// on startup a consumer first takes over stale entries of other consumers,
// then replays its own pending entries, then reads new ones.
type Subscriber struct {
	rdb       streamClient
	log       *logger.Logger
	consumer  string
	block     time.Duration
	claimIdle time.Duration
	bindings  []Binding
}

func NewSubscriber(rdb *redis.Client, log *logger.Logger, opts Options) *Subscriber {
	return newSubscriber(rdb, log, opts)
}

func newSubscriber(rdb streamClient, log *logger.Logger, opts Options) *Subscriber {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Consumer == "" {
		opts.Consumer = "learning-" + uuid.NewString()
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.ClaimIdle <= 0 {
		opts.ClaimIdle = time.Minute
	}
	return &Subscriber{
		rdb:       rdb,
		log:       log.With("component", "RedisStreamSubscriber"),
		consumer:  opts.Consumer,
		block:     opts.Block,
		claimIdle: opts.ClaimIdle,
	}
}

// Bind registers a binding. Must be called before Run.
func (s *Subscriber) Bind(b Binding) {
	s.bindings = append(s.bindings, b)
}

// Declare creates the consumer groups for every binding.
func (s *Subscriber) Declare(ctx context.Context) error {
	for _, b := range s.bindings {
		err := s.rdb.XGroupCreateMkStream(ctx, b.Exchange, b.Queue, "$").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return errors.Annotatef(err, "declare queue %s on %s", b.Queue, b.Exchange)
		}
	}
	return nil
}

// Run consumes every binding until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.Declare(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range s.bindings {
		g.Go(func() error { return s.consume(ctx, b) })
	}
	return g.Wait()
}

func (s *Subscriber) consume(ctx context.Context, b Binding) error {
	s.log.Info("queue bound", "queue", b.Queue, "exchange", b.Exchange, "key", b.Key, "consumer", s.consumer)

	s.claimStale(ctx, b)
	s.replayPending(ctx, b)

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.Queue,
			Consumer: s.consumer,
			Streams:  []string{b.Exchange, ">"},
			Count:    readCount,
			Block:    s.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("read from stream failed", "queue", b.Queue, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				s.handle(ctx, b, msg)
			}
		}
	}
}

// claimStale moves entries idle for longer than claimIdle with other consumers
// of the group, e.g. one that crashed and never came back, to this consumer's
// pending list.
func (s *Subscriber) claimStale(ctx context.Context, b Binding) {
	start := "0-0"
	for ctx.Err() == nil {
		msgs, next, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   b.Exchange,
			Group:    b.Queue,
			Consumer: s.consumer,
			MinIdle:  s.claimIdle,
			Start:    start,
			Count:    readCount,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error("claim stale entries failed", "queue", b.Queue, "error", err)
			}
			return
		}
		if len(msgs) > 0 {
			s.log.Warn("claimed stale entries", "queue", b.Queue, "count", len(msgs))
		}
		if next == "" || next == "0-0" {
			return
		}
		start = next
	}
}

// replayPending handles the entries delivered to this consumer but never
// acknowledged, oldest first.
func (s *Subscriber) replayPending(ctx context.Context, b Binding) {
	from := "0"
	for ctx.Err() == nil {
		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.Queue,
			Consumer: s.consumer,
			Streams:  []string{b.Exchange, from},
			Count:    readCount,
			Block:    -1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error("read pending entries failed", "queue", b.Queue, "error", err)
			}
			return
		}

		replayed := 0
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				s.handle(ctx, b, msg)
				from = msg.ID
				replayed++
			}
		}
		if replayed == 0 {
			return
		}
		s.log.Info("replayed pending entries", "queue", b.Queue, "count", replayed)
	}
}

func (s *Subscriber) handle(ctx context.Context, b Binding, msg redis.XMessage) {
	s.dispatch(ctx, b, msg)
	if err := s.rdb.XAck(ctx, b.Exchange, b.Queue, msg.ID).Err(); err != nil {
		s.log.Error("ack failed", "queue", b.Queue, "id", msg.ID, "error", err)
	}
}

func (s *Subscriber) dispatch(ctx context.Context, b Binding, msg redis.XMessage) {
	key, _ := msg.Values[fieldRoutingKey].(string)
	if !MatchTopic(b.Key, key) {
		return
	}

	var payload []byte
	switch v := msg.Values[fieldPayload].(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	}

	if err := s.invoke(ctx, b, payload); err != nil {
		s.log.Error("message dropped", "queue", b.Queue, "id", msg.ID, "key", key, "error", errors.ErrorStack(err))
	}
}

// invoke runs the handler, turning a panic into an error.
func (s *Subscriber) invoke(ctx context.Context, b Binding, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panicked", "queue", b.Queue, "panic", r, "stack", string(debug.Stack()))
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	return b.Handler(ctx, payload)
}

// MatchTopic reports whether routing key matches a topic pattern, where "*"
// stands for exactly one dot-separated word and "#" for zero or more.
func MatchTopic(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchWords(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}
