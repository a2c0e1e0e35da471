package model

const ProjectActive = "Active"

// ProjectStatus summarizes progress.
type ProjectStatus struct {
	TaskPercentageComplete float64 `json:"task_percentage_complete" bson:"task_percentage_complete"`
	Status                 string  `json:"status" bson:"status"`
	PercentageBacklogged   float64 `json:"percentage_backlogged" bson:"percentage_backlogged"`
}

// Project aggregates task snapshots. Members and viewers are emails.
type Project struct {
	ProjectID     string                 `json:"project_id" bson:"project_id"`
	Title         string                 `json:"title" bson:"title"`
	Tasks         []Task                 `json:"tasks" bson:"tasks"`
	Owner         UserSnapshot           `json:"owner" bson:"owner"`
	OwnerID       string                 `json:"owner_id" bson:"owner_id"`
	Members       []string               `json:"members" bson:"members"`
	Viewers       []string               `json:"viewers" bson:"viewers"`
	Status        ProjectStatus          `json:"status" bson:"status"`
	StartDateTime int64                  `json:"start_date_time" bson:"start_date_time"`
	EndDateTime   int64                  `json:"end_date_time" bson:"end_date_time"`
	KPIData       map[string]interface{} `json:"kpi_data" bson:"kpi_data"`
	Cost          map[string]interface{} `json:"cost" bson:"cost"`
}
