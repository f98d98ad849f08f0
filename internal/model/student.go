package model

// Section is the class section a student belongs to.
type Section struct {
    SectionName string `json:"sectionName"`
    ClusterHead string `json:"clusterHead"`
}

// Student mirrors the backend student resource.  Only the fields the
// dashboards display are decoded.
type Student struct {
    StudentNumber string  `json:"studentNumber"`
    FirstName     string  `json:"firstName"`
    LastName      string  `json:"lastName"`
    Email         string  `json:"email,omitempty"`
    Section       Section `json:"section"`
}

// FullName joins first and last name the way the dashboards show it.
func (s Student) FullName() string {
    switch {
    case s.FirstName == "":
        return s.LastName
    case s.LastName == "":
        return s.FirstName
    }
    return s.FirstName + " " + s.LastName
}

// GuestBeneficiaries is one entry of GET /guest/{id}/Beneficiaries.
type GuestBeneficiaries struct {
    Beneficiary []Student `json:"beneficiary"`
}
