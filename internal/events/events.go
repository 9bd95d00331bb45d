package events

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeTaskStatusChanged = "task.status_changed"
	TypeTaskAssigned      = "task.assigned"
	TypeTimesheetLogged   = "timesheet.logged"
)

// Event describes a change to a domain entity.
type Event struct {
	Type       string    `json:"type"`
	EntityID   uint64    `json:"entityId"`
	ActorID    uint64    `json:"actorId"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Kind returns the entity kind an event type refers to, e.g. "task" for
// "task.status_changed".
func (e Event) Kind() string {
	kind, _, _ := strings.Cut(e.Type, ".")
	return kind
}

// Key identifies the entity, so every event about one entity lands on the
// same partition in order.
func (e Event) Key() string {
	return e.Kind() + ":" + strconv.FormatUint(e.EntityID, 10)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by entity. The writer is
// asynchronous; delivery failures are logged.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("failed to deliver events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  event.OccurredAt,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of shipping them.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.Info("domain event",
		zap.String("type", event.Type),
		zap.Uint64("entity_id", event.EntityID),
		zap.Uint64("actor_id", event.ActorID),
		zap.String("from", event.From),
		zap.String("to", event.To),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
