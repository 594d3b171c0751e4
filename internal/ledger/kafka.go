package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/breaker"
)

const kafkaQueueSize = 256

var (
	errSinkStopped = errors.New("kafka sink stopped")
	errQueueFull   = errors.New("kafka sink queue full")
)

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures a KafkaSink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Breaker breaker.Config
}

// KafkaSink exports records to a Kafka topic, keyed by record id. Publish
// only enqueues; delivery happens on a background goroutine started by Start.
type KafkaSink struct {
	writer  messageWriter
	breaker *breaker.Breaker
	log     *zap.Logger
	queue   chan kafka.Message

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewKafkaSink creates a sink writing to cfg.Topic on cfg.Brokers.
func NewKafkaSink(cfg KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka sink: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka sink: topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaSink(w, cfg.Breaker, logger), nil
}

func newKafkaSink(w messageWriter, bc breaker.Config, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSink{
		writer:  w,
		breaker: breaker.New("kafka", bc, logger),
		log:     logger,
		queue:   make(chan kafka.Message, kafkaQueueSize),
	}
}

// Publish queues r for delivery. It never blocks on the broker.
func (s *KafkaSink) Publish(ctx context.Context, r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %d: %w", r.ID, err)
	}
	msg := kafka.Message{Key: []byte(strconv.Itoa(r.ID)), Value: value}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errSinkStopped
	}
	select {
	case s.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errQueueFull
	}
}

// Start launches the delivery loop.
func (s *KafkaSink) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	s.log.Info("kafka sink started")
}

func (s *KafkaSink) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			s.deliver(ctx, msg)
		}
	}
}

func (s *KafkaSink) deliver(ctx context.Context, msg kafka.Message) {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		s.log.Warn("kafka delivery failed", zap.ByteString("key", msg.Key), zap.Error(err))
		return
	}
	s.log.Debug("kafka record delivered", zap.ByteString("key", msg.Key))
}

// Close stops the delivery loop, flushes queued records until ctx expires,
// and closes the writer.
func (s *KafkaSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	if started {
		s.cancel()
		<-s.done
	}
	// Publish can no longer enqueue, so the queue only drains from here.
	for {
		select {
		case msg := <-s.queue:
			if err := ctx.Err(); err != nil {
				return errors.Join(err, s.writer.Close())
			}
			s.deliver(ctx, msg)
		default:
			return s.writer.Close()
		}
	}
}
