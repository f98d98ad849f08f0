package model

// Violation is one recorded violation notice for a student.
type Violation struct {
    ID            int64      `json:"id,omitempty"`
    DateOfNotice  Timestamp  `json:"dateOfNotice,omitempty"`
    Offense       string     `json:"offense,omitempty"`
    Description   string     `json:"description,omitempty"`
    Sanction      string     `json:"sanction,omitempty"`
    Status        string     `json:"status,omitempty"`
    Student       *Student   `json:"student,omitempty"`
}
