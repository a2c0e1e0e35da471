package model

import "time"

// DefaultSprintDuration is the length of a provisioned sprint.
const DefaultSprintDuration = 14 * 24 * time.Hour

// SprintStatus tracks time spent against the sprint.
type SprintStatus struct {
	TimeAllocated int64  `json:"time_allocated" bson:"time_allocated"`
	TimeOver      int64  `json:"time_over" bson:"time_over"`
	ActiveStatus  string `json:"active_status" bson:"active_status"`
}

// Sprint groups tasks over a fixed period. Duration is in milliseconds.
type Sprint struct {
	SprintID      string                 `json:"sprint_id" bson:"sprint_id"`
	Title         string                 `json:"title" bson:"title"`
	Owner         UserSnapshot           `json:"owner" bson:"owner"`
	Members       []UserSnapshot         `json:"members" bson:"members"`
	Viewers       []UserSnapshot         `json:"viewers" bson:"viewers"`
	Status        SprintStatus           `json:"status" bson:"status"`
	StartDateTime int64                  `json:"start_date_time" bson:"start_date_time"`
	Duration      int64                  `json:"duration" bson:"duration"`
	KPIData       map[string]interface{} `json:"kpi_data" bson:"kpi_data"`
}
