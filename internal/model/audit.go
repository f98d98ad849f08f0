package model

import "time"

// ReportAudit is one submitted service record as received by the audit
// daemon.  EventID is unique so redelivered events are stored once.
type ReportAudit struct {
    ID             uint64    `json:"id"`
    EventID        string    `json:"event_id"`
    SlipID         string    `json:"slip_id"`
    StudentNumber  string    `json:"student_number"`
    EmployeeNumber string    `json:"employee_number"`
    DateOfCs       time.Time `json:"date_of_cs"`
    TimeIn         time.Time `json:"time_in"`
    TimeOut        time.Time `json:"time_out"`
    HoursCompleted int       `json:"hours_completed"`
    NatureOfWork   string    `json:"nature_of_work"`
    Status         string    `json:"status"`
    Remarks        string    `json:"remarks,omitempty"`
    SubmittedAt    time.Time `json:"submitted_at"`
    ReceivedAt     time.Time `json:"received_at"`
}
