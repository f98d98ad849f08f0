package model

// Credentials is the user part of every registration payload and the body
// of POST /user/login.
type Credentials struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// StudentProfile and EmployeeProfile are the role parts of a registration.
type StudentProfile struct {
    StudentNumber string `json:"studentNumber"`
    Email         string `json:"email"`
}

type EmployeeProfile struct {
    EmployeeNumber string `json:"employeeNumber"`
    Email          string `json:"email"`
}

// GuestProfile carries the personal and contact details of a guest.
// Birthdate is a plain YYYY-MM-DD date.
type GuestProfile struct {
    GuestNumber   string `json:"guestNumber"`
    FirstName     string `json:"firstName"`
    MiddleName    string `json:"middleName"`
    LastName      string `json:"lastName"`
    Birthdate     string `json:"birthdate"`
    Birthplace    string `json:"birthplace"`
    Citizenship   string `json:"citizenship"`
    Religion      string `json:"religion"`
    CivilStatus   string `json:"civilStatus"`
    Sex           string `json:"sex"`
    Email         string `json:"email"`
    ContactNumber string `json:"contactNumber"`
    Address       string `json:"address"`
}

// Registration is the body of POST /user/register.  Exactly one profile is
// set.
type Registration struct {
    User     Credentials      `json:"user"`
    Student  *StudentProfile  `json:"student,omitempty"`
    Employee *EmployeeProfile `json:"employee,omitempty"`
    Guest    *GuestProfile    `json:"guest,omitempty"`
}
