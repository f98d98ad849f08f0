// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer for them.
package queue

import (
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/cstrack/cstrack-client/internal/model"
)

// ReportSubmittedQueue is the durable queue ReportSubmittedEvent travels on.
const ReportSubmittedQueue = "csreport.submitted"

// ReportSubmittedEvent is published after the backend accepted a service
// record.  Timestamps use the same ISO layout as the report body.
type ReportSubmittedEvent struct {
    EventID        string `json:"event_id"`
    SlipID         string `json:"slip_id"`
    StudentNumber  string `json:"student_number"`
    EmployeeNumber string `json:"employee_number"`
    DateOfCs       string `json:"date_of_cs"`
    TimeIn         string `json:"time_in"`
    TimeOut        string `json:"time_out"`
    HoursCompleted int    `json:"hours_completed"`
    NatureOfWork   string `json:"nature_of_work"`
    Status         string `json:"status"`
    Remarks        string `json:"remarks,omitempty"`
    SubmittedAt    string `json:"submitted_at"`
}

// NewReportSubmitted builds an event for report with a fresh event id.
func NewReportSubmitted(slipID, studentNumber, employeeNumber string, report model.NewCsReport, at time.Time) ReportSubmittedEvent {
    return ReportSubmittedEvent{
        EventID:        uuid.NewString(),
        SlipID:         slipID,
        StudentNumber:  studentNumber,
        EmployeeNumber: employeeNumber,
        DateOfCs:       report.DateOfCs,
        TimeIn:         report.TimeIn,
        TimeOut:        report.TimeOut,
        HoursCompleted: report.HoursCompleted,
        NatureOfWork:   report.NatureOfWork,
        Status:         report.Status,
        Remarks:        report.Remarks,
        SubmittedAt:    at.UTC().Format(model.ISOMillis),
    }
}

// Audit converts the event into the row stored by the audit daemon.
func (ev ReportSubmittedEvent) Audit(received time.Time) (*model.ReportAudit, error) {
    if _, err := uuid.Parse(ev.EventID); err != nil {
        return nil, fmt.Errorf("event id: %w", err)
    }
    if ev.SlipID == "" {
        return nil, fmt.Errorf("event %s: missing slip id", ev.EventID)
    }
    a := &model.ReportAudit{
        EventID:        ev.EventID,
        SlipID:         ev.SlipID,
        StudentNumber:  ev.StudentNumber,
        EmployeeNumber: ev.EmployeeNumber,
        HoursCompleted: ev.HoursCompleted,
        NatureOfWork:   ev.NatureOfWork,
        Status:         ev.Status,
        Remarks:        ev.Remarks,
        ReceivedAt:     received.UTC(),
    }
    fields := []struct {
        name string
        in   string
        out  *time.Time
    }{
        {"date_of_cs", ev.DateOfCs, &a.DateOfCs},
        {"time_in", ev.TimeIn, &a.TimeIn},
        {"time_out", ev.TimeOut, &a.TimeOut},
        {"submitted_at", ev.SubmittedAt, &a.SubmittedAt},
    }
    for _, f := range fields {
        t, err := time.Parse(time.RFC3339Nano, f.in)
        if err != nil {
            return nil, fmt.Errorf("event %s: %s: %w", ev.EventID, f.name, err)
        }
        *f.out = t.UTC()
    }
    return a, nil
}
