package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/cstrack/cstrack-client/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Schema creates the audit table when it does not exist yet.
const Schema = `CREATE TABLE IF NOT EXISTS cs_report_audit (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	event_id CHAR(36) NOT NULL,
	slip_id VARCHAR(64) NOT NULL,
	student_number VARCHAR(64) NOT NULL,
	employee_number VARCHAR(64) NOT NULL,
	date_of_cs DATETIME(3) NOT NULL,
	time_in DATETIME(3) NOT NULL,
	time_out DATETIME(3) NOT NULL,
	hours_completed INT NOT NULL,
	nature_of_work VARCHAR(255) NOT NULL,
	status VARCHAR(16) NOT NULL,
	remarks TEXT NULL,
	submitted_at DATETIME(3) NOT NULL,
	received_at DATETIME(3) NOT NULL,
	UNIQUE KEY uq_event (event_id),
	KEY idx_slip (slip_id, time_in)
)`

// ReportAuditRepo stores submitted service records.
type ReportAuditRepo struct{ DB *sql.DB }

func NewReportAuditRepo(db *sql.DB) *ReportAuditRepo { return &ReportAuditRepo{DB: db} }

// Migrate applies Schema.
func (r *ReportAuditRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// Insert stores a and sets its ID. A duplicate event id yields ErrConflict.
func (r *ReportAuditRepo) Insert(ctx context.Context, a *model.ReportAudit) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO cs_report_audit
		 (event_id, slip_id, student_number, employee_number, date_of_cs, time_in, time_out,
		  hours_completed, nature_of_work, status, remarks, submitted_at, received_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.EventID, a.SlipID, a.StudentNumber, a.EmployeeNumber, a.DateOfCs, a.TimeIn, a.TimeOut,
		a.HoursCompleted, a.NatureOfWork, a.Status, nullString(a.Remarks), a.SubmittedAt, a.ReceivedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: event %s", ErrConflict, a.EventID)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListBySlip returns the audited reports of one slip, oldest time-in first.
func (r *ReportAuditRepo) ListBySlip(ctx context.Context, slipID string) ([]model.ReportAudit, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, event_id, slip_id, student_number, employee_number, date_of_cs, time_in, time_out,
		        hours_completed, nature_of_work, status, remarks, submitted_at, received_at
		   FROM cs_report_audit WHERE slip_id=? ORDER BY time_in, id`, slipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReportAudit
	for rows.Next() {
		var (
			a       model.ReportAudit
			remarks sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.SlipID, &a.StudentNumber, &a.EmployeeNumber,
			&a.DateOfCs, &a.TimeIn, &a.TimeOut, &a.HoursCompleted, &a.NatureOfWork, &a.Status,
			&remarks, &a.SubmittedAt, &a.ReceivedAt); err != nil {
			return nil, err
		}
		a.Remarks = remarks.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// SlipHours sums the audited hours of one slip. ErrNotFound when the slip
// has no audited reports.
func (r *ReportAuditRepo) SlipHours(ctx context.Context, slipID string) (int, error) {
	var (
		n     int
		hours sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(hours_completed) FROM cs_report_audit WHERE slip_id=?", slipID).Scan(&n, &hours)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return int(hours.Int64), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
