package model

// Station is a community-service area staffed by employees.
type Station struct {
    StationName string `json:"stationName"`
}

// Employee mirrors GET /employee/employeeNumber/{id}.  HTTPStatusCode is
// set by the backend when it answers an expired session with a 200 and an
// error envelope instead of a proper status.
type Employee struct {
    EmployeeNumber string   `json:"employeeNumber"`
    FirstName      string   `json:"firstName"`
    LastName       string   `json:"lastName"`
    Station        *Station `json:"station"`
    HTTPStatusCode int      `json:"httpStatusCode,omitempty"`
}
