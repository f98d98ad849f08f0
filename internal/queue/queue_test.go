package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/repository"
)

type memSink struct {
	rows map[string]*model.ReportAudit
	err  error
}

func (m *memSink) Insert(_ context.Context, a *model.ReportAudit) error {
	if m.err != nil {
		return m.err
	}
	if _, dup := m.rows[a.EventID]; dup {
		return fmt.Errorf("%w: event %s", repository.ErrConflict, a.EventID)
	}
	m.rows[a.EventID] = a
	return nil
}

var report = model.NewCsReport{
	DateOfCs:       "2025-02-03T00:00:00.000Z",
	TimeIn:         "2025-02-03T09:00:00.000Z",
	TimeOut:        "2025-02-03T11:45:00.000Z",
	HoursCompleted: 2,
	NatureOfWork:   "Shelving",
	Status:         "complete",
}

func TestEventAudit(t *testing.T) {
	at := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)
	ev := NewReportSubmitted("42", "21-0001", "E-7", report, at)
	if ev.EventID == "" || ev.SubmittedAt != "2025-02-03T12:00:00.000Z" {
		t.Fatalf("unexpected event %+v", ev)
	}

	a, err := ev.Audit(at.Add(time.Second))
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if a.SlipID != "42" || a.HoursCompleted != 2 || !a.TimeIn.Equal(time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected audit row %+v", a)
	}
	if !a.TimeOut.Equal(time.Date(2025, 2, 3, 11, 45, 0, 0, time.UTC)) || !a.SubmittedAt.Equal(at) {
		t.Fatalf("unexpected times %+v", a)
	}

	bad := ev
	bad.TimeIn = "yesterday"
	if _, err := bad.Audit(at); err == nil {
		t.Fatalf("expected time parse error")
	}
	bad = ev
	bad.EventID = "nope"
	if _, err := bad.Audit(at); err == nil {
		t.Fatalf("expected event id error")
	}
}

func TestConsumerHandle(t *testing.T) {
	sink := &memSink{rows: map[string]*model.ReportAudit{}}
	c := NewConsumer("", sink, nil)
	ctx := context.Background()

	body, err := json.Marshal(NewReportSubmitted("42", "21-0001", "E-7", report, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery is acknowledged without a second row.
	if err := c.Handle(ctx, body); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(sink.rows))
	}

	if err := c.Handle(ctx, []byte("{")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("bad json: err = %v, want ErrMalformed", err)
	}

	sink.err = errors.New("db gone")
	body, _ = json.Marshal(NewReportSubmitted("43", "21-0002", "E-7", report, time.Now()))
	if err := c.Handle(ctx, body); err == nil || errors.Is(err, ErrMalformed) {
		t.Fatalf("store failure: err = %v, want a non-malformed error", err)
	}
}

// settled records how a delivery was acknowledged.
type settled struct {
	acked, nacked, requeued bool
}

func (s *settled) Ack(uint64, bool) error { s.acked = true; return nil }
func (s *settled) Nack(_ uint64, _ bool, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}
func (s *settled) Reject(_ uint64, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}

func TestConsumerDeliverSettlement(t *testing.T) {
	good, err := json.Marshal(NewReportSubmitted("42", "21-0001", "E-7", report, time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name        string
		body        []byte
		sinkErr     error
		wantOK      bool
		wantAck     bool
		wantRequeue bool
	}{
		{name: "stored", body: good, wantOK: true, wantAck: true},
		{name: "bad json dropped", body: []byte("{"), wantOK: true},
		{name: "invalid event dropped", body: []byte(`{"event_id":"nope","slip_id":"1"}`), wantOK: true},
		{name: "db down requeued", body: good, sinkErr: errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), wantRequeue: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConsumer("", &memSink{rows: map[string]*model.ReportAudit{}, err: tc.sinkErr}, nil)
			ack := &settled{}
			ok := c.deliver(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: tc.body})
			if ok != tc.wantOK {
				t.Fatalf("deliver = %v, want %v", ok, tc.wantOK)
			}
			if ack.acked != tc.wantAck {
				t.Fatalf("acked = %v, want %v", ack.acked, tc.wantAck)
			}
			if !tc.wantAck && !ack.nacked {
				t.Fatalf("message neither acked nor nacked")
			}
			if ack.requeued != tc.wantRequeue {
				t.Fatalf("requeued = %v, want %v", ack.requeued, tc.wantRequeue)
			}
		})
	}
}
