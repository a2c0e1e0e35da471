package model

// CreatedBy names the author of an alert.
type CreatedBy struct {
	Name string `json:"name" bson:"name"`
}

// Alert is a message addressed to one user about one task.
type Alert struct {
	AlertID    string       `json:"alert_id" bson:"alert_id"`
	ToUser     UserSnapshot `json:"to_user" bson:"to_user"`
	CreatedBy  CreatedBy    `json:"created_by" bson:"created_by"`
	Text       string       `json:"text" bson:"text"`
	Task       Task         `json:"task" bson:"task"`
	Timestamp  int64        `json:"timestamp" bson:"timestamp"`
	Escalation string       `json:"escalation" bson:"escalation"`
}
