package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ.  It dials per publish: submissions
// are rare and the client has no long-lived broker session to keep.
// Errors are logged and returned so callers can ignore them without
// interrupting the user's flow.
type Publisher struct {
    URL    string
    Logger *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) *Publisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &Publisher{URL: url, Logger: logger}
}

// PublishReportSubmitted publishes ev to the csreport.submitted queue as a
// persistent message.
func (p *Publisher) PublishReportSubmitted(ctx context.Context, ev ReportSubmittedEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warn("rabbitmq dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warn("rabbitmq channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declare(ch); err != nil {
        p.Logger.Warn("rabbitmq queue declare failed", "err", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ReportSubmittedQueue, false, false, pub); err != nil {
        p.Logger.Warn("rabbitmq publish failed", "err", err)
        return err
    }
    p.Logger.Debug("event published", "queue", ReportSubmittedQueue, "event_id", ev.EventID)
    return nil
}

// declare makes sure the durable queue exists.  Idempotent.
func declare(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        ReportSubmittedQueue, // name
        true,                 // durable
        false,                // autoDelete
        false,                // exclusive
        false,                // noWait
        nil,                  // args
    )
    return err
}
