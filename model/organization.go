package model

const (
	OrganizationActive = "active"

	// DefaultSeats is the seat count of a freshly provisioned organization.
	DefaultSeats = 2
)

// BillableUser is the organization's billing contact.
type BillableUser struct {
	Email  string `json:"email" bson:"email"`
	UserID string `json:"user_id" bson:"user_id"`
}

// Organization is a tenant.
type Organization struct {
	OrgID        string                 `json:"org_id" bson:"org_id"`
	Name         string                 `json:"name" bson:"name"`
	Admins       []UserSnapshot         `json:"admins" bson:"admins"`
	Members      []UserSnapshot         `json:"members" bson:"members"`
	Seats        int                    `json:"seats" bson:"seats"`
	Status       string                 `json:"status" bson:"status"`
	BillableUser BillableUser           `json:"billable_user" bson:"billable_user"`
	Billing      map[string]interface{} `json:"billing" bson:"billing"`
	Sprints      []string               `json:"sprints" bson:"sprints"`
}

// ActiveMembers counts members against the seat capacity.
func (o *Organization) ActiveMembers() int {
	return len(o.Members)
}

// HasSeat reports whether another member fits in the organization.
func (o *Organization) HasSeat() bool {
	return o.ActiveMembers() < o.Seats
}
