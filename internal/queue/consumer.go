package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultActivityLog is where the consumer appends events when no path is
// configured.
const DefaultActivityLog = "logs/activity.log"

// Consumer listens on the project events queue and appends one line per
// event to an activity log file.
type Consumer struct {
	url     string
	queue   string
	logPath string
}

// NewConsumer builds a consumer.  Empty arguments fall back to DefaultURL
// and DefaultActivityLog.
func NewConsumer(url, logPath string) *Consumer {
	if url == "" {
		url = DefaultURL
	}
	if logPath == "" {
		logPath = DefaultActivityLog
	}
	return &Consumer{url: url, queue: DefaultQueue, logPath: logPath}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are re-dialled with exponential backoff capped at 30s;
// messages that cannot be handled are rejected without requeue so a bad
// payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Warnf("activity-consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Warnf("activity-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warnf("activity-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				log.Errorf("activity-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev ProjectEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteActivity(f, ev)
}

// WriteActivity formats ev as a single human-readable line.
func WriteActivity(w io.Writer, ev ProjectEvent) error {
	line := fmt.Sprintf("[%s] %s | project_id=%d | actor_id=%d",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ProjectID, ev.ActorID)
	switch ev.Type {
	case EventRequestCreated, EventRequestResponded:
		line += fmt.Sprintf(" | request_id=%d | worker_id=%d | status=%s", ev.RequestID, ev.WorkerID, ev.Status)
	case EventWorkerAssigned:
		line += fmt.Sprintf(" | worker_id=%d | role=%s", ev.WorkerID, ev.Role)
	case EventMaterialOrdered:
		line += fmt.Sprintf(" | material_id=%d | quantity=%d | total=%d cents", ev.MaterialID, ev.Quantity, ev.TotalCostCents)
	}
	_, err := io.WriteString(w, line+"\n")
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
