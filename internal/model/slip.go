package model

// CsSlip is a community-service assignment linking a student to a service
// area, a reason and an hours requirement.  Deduction hours are credited
// as already completed.
type CsSlip struct {
    ID             int64      `json:"id"`
    Student        Student    `json:"student"`
    AreaOfCommServ Station    `json:"areaOfCommServ"`
    ReasonOfCs     string     `json:"reasonOfCs"`
    DateOfCs       Timestamp  `json:"dateOfCs,omitempty"`
    NatureOfWork   string     `json:"natureOfWork,omitempty"`
    Status         string     `json:"status,omitempty"`
    Deduction      float64    `json:"deduction"`
}

// CsReport is one logged block of community-service time.
type CsReport struct {
    ID             int64      `json:"id,omitempty"`
    DateOfCs       Timestamp  `json:"dateOfCs,omitempty"`
    TimeIn         Timestamp  `json:"timeIn,omitempty"`
    TimeOut        Timestamp  `json:"timeOut,omitempty"`
    HoursCompleted float64    `json:"hoursCompleted"`
    NatureOfWork   string     `json:"natureOfWork,omitempty"`
    Status         string     `json:"status,omitempty"`
    Remarks        string     `json:"remarks,omitempty"`
}

// CommServSlip is the response of GET /csSlip/commServSlip/{slipId}.
type CommServSlip struct {
    ID      int64      `json:"id,omitempty"`
    Reports []CsReport `json:"reports"`
}

// NewCsReport is the body of POST /csreport/addCsReportForSlip/{slipId}.
// Timestamps are ISO-8601 in UTC and status is lower case.
type NewCsReport struct {
    DateOfCs       string `json:"dateOfCs"`
    TimeIn         string `json:"timeIn"`
    TimeOut        string `json:"timeOut"`
    HoursCompleted int    `json:"hoursCompleted"`
    NatureOfWork   string `json:"natureOfWork"`
    Status         string `json:"status"`
    Remarks        string `json:"remarks"`
}
