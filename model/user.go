package model

// Name is a person's display name.
type Name struct {
	First string `json:"first" bson:"first"`
	Last  string `json:"last" bson:"last"`
}

// OrganizationRef is the user's copy of its organization. Empty until a
// membership is recorded on the user document.
type OrganizationRef struct {
	OrgID string `json:"org_id,omitempty" bson:"org_id,omitempty"`
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
}

// UserSnapshot is the user as embedded in other documents and in session
// tokens. It is copied at write time and never refreshed.
type UserSnapshot struct {
	UserID       string                 `json:"user_id" bson:"user_id"`
	Email        string                 `json:"email" bson:"email"`
	Name         Name                   `json:"name" bson:"name"`
	Type         string                 `json:"type" bson:"type"`
	Organization OrganizationRef        `json:"organization" bson:"organization"`
	KPIData      map[string]interface{} `json:"kpi_data" bson:"kpi_data"`
	Tasks        []Task                 `json:"tasks" bson:"tasks"`
	Sprints      []string               `json:"sprints" bson:"sprints"`
	Marketable   bool                   `json:"marketable" bson:"marketable"`
}

// User is the stored credential record.
type User struct {
	UserSnapshot `bson:",inline"`
	Password     string `json:"-" bson:"password"`
}

// Snapshot copies u without its credentials.
func (u *User) Snapshot() UserSnapshot {
	s := u.UserSnapshot
	s.Tasks = append([]Task{}, u.Tasks...)
	s.Sprints = append([]string{}, u.Sprints...)
	s.KPIData = make(map[string]interface{}, len(u.KPIData))
	for k, v := range u.KPIData {
		s.KPIData[k] = v
	}
	return s
}
