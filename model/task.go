package model

const (
	TaskNotStarted = "Not Started"
	TaskInProgress = "In Progress"
	TaskDone       = "Done"

	KanbanToDo = "To Do"

	EscalationLow = "Low"
)

// AssignedBy identifies who handed out a task.
type AssignedBy struct {
	Email string `json:"email" bson:"email"`
}

// Task is a unit of work inside a sprint. Assignees are emails.
type Task struct {
	TaskID                string     `json:"task_id" bson:"task_id"`
	Title                 string     `json:"title" bson:"title"`
	Description           string     `json:"description" bson:"description"`
	AssignedBy            AssignedBy `json:"assigned_by" bson:"assigned_by"`
	Assignees             []string   `json:"assignees" bson:"assignees"`
	Status                string     `json:"status" bson:"status"`
	Escalation            string     `json:"escalation" bson:"escalation"`
	StartTime             int64      `json:"start_time" bson:"start_time"`
	Duration              int64      `json:"duration" bson:"duration"`
	HardLimit             bool       `json:"hard_limit" bson:"hard_limit"`
	RequiresAuthorization bool       `json:"requires_authorization" bson:"requires_authorization"`
	SprintID              string     `json:"sprint_id" bson:"sprint_id"`
	Kanban                string     `json:"kanban" bson:"kanban"`
}

// AssignedTo reports whether email is among the assignees.
func (t *Task) AssignedTo(email string) bool {
	for _, a := range t.Assignees {
		if a == email {
			return true
		}
	}
	return false
}
