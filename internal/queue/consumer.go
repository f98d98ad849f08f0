package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/cstrack/cstrack-client/internal/model"
    "github.com/cstrack/cstrack-client/internal/repository"
)

// ErrMalformed marks a message that can never be stored: bad JSON or an
// event that fails validation.  Such messages are dropped; anything else
// is requeued.
var ErrMalformed = errors.New("malformed report event")

// AuditSink stores audited reports.
type AuditSink interface {
    Insert(ctx context.Context, a *model.ReportAudit) error
}

// Consumer reads csreport.submitted and writes each event to Sink.
type Consumer struct {
    URL    string
    Sink   AuditSink
    Logger *slog.Logger
    Now    func() time.Time
}

func NewConsumer(url string, sink AuditSink, logger *slog.Logger) *Consumer {
    if logger == nil {
        logger = slog.Default()
    }
    return &Consumer{URL: url, Sink: sink, Logger: logger, Now: time.Now}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, redialling
// with backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.Warn("report-consumer: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Logger.Warn("report-consumer: consume loop ended; reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.Warn("report-consumer: set QoS failed", "err", err)
    }
    if err := declare(ch); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(ReportSubmittedQueue, "", false, false, false, false, nil)
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
            if !c.deliver(ctx, d) && !sleep(ctx, time.Second) {
                return ctx.Err()
            }
        }
    }
}

// deliver handles d and settles it.  Malformed messages are rejected
// without requeue so they cannot loop; sink failures are requeued so an
// outage of the audit database loses nothing.  It reports false when the
// message went back to the queue.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) bool {
    err := c.Handle(ctx, d.Body)
    switch {
    case err == nil:
        _ = d.Ack(false)
        return true
    case errors.Is(err, ErrMalformed):
        c.Logger.Error("report-consumer: dropping malformed message", "err", err)
        _ = d.Nack(false, false)
        return true
    }
    c.Logger.Warn("report-consumer: store failed; requeueing", "err", err)
    _ = d.Nack(false, true)
    return false
}

// Handle decodes one message body and stores it.  A redelivered event is
// acknowledged without a second row.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev ReportSubmittedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: unmarshal: %v", ErrMalformed, err)
    }
    a, err := ev.Audit(c.now())
    if err != nil {
        return fmt.Errorf("%w: %v", ErrMalformed, err)
    }
    if err := c.Sink.Insert(ctx, a); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            c.Logger.Info("report-consumer: duplicate event", "event_id", ev.EventID)
            return nil
        }
        return fmt.Errorf("store %s: %w", ev.EventID, err)
    }
    c.Logger.Info("report audited", "event_id", ev.EventID, "slip", ev.SlipID, "hours", ev.HoursCompleted)
    return nil
}

func (c *Consumer) now() time.Time {
    if c.Now == nil {
        return time.Now()
    }
    return c.Now()
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
