package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/kamari/service/model"
	"github.com/kamari/service/store"
)

const (
	firstTaskTitle    = "Getting Started"
	firstTaskDuration = 5
	alertAuthor       = "Kamari"
	welcomeAlertText  = "Welcome to Kamari. We are so excited you trust us as a sprint management tool! Check out your first task to get oriented around the platform."
	projectLength     = 7 // days
)

type tenantIDs struct {
	user, org, task, alert, sprint, project string
}

func newTenantIDs(newID func() string) tenantIDs {
	return tenantIDs{
		user:    newID(),
		org:     newID(),
		task:    newID(),
		alert:   newID(),
		sprint:  newID(),
		project: newID(),
	}
}

// tenant holds the documents written by one signup. They are built before the
// transaction starts so that a retried transaction writes identical documents.
type tenant struct {
	user    model.User
	org     model.Organization
	task    model.Task
	sprint  model.Sprint
	project model.Project
	alert   model.Alert
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func newTenant(in RegisterInput, hash, assignedBy string, ids tenantIDs, now time.Time) *tenant {
	start := millis(now)

	user := model.User{
		UserSnapshot: model.UserSnapshot{
			UserID:       ids.user,
			Email:        in.Email,
			Name:         model.Name{First: in.FirstName, Last: in.LastName},
			Type:         in.Type,
			Organization: model.OrganizationRef{},
			KPIData:      map[string]interface{}{},
			Tasks:        []model.Task{},
			Sprints:      []string{ids.sprint},
			Marketable:   true,
		},
		Password: hash,
	}
	owner := user.Snapshot()

	task := model.Task{
		TaskID:                ids.task,
		Title:                 firstTaskTitle,
		AssignedBy:            model.AssignedBy{Email: assignedBy},
		Assignees:             []string{in.Email},
		Status:                model.TaskNotStarted,
		Escalation:            model.EscalationLow,
		StartTime:             start,
		Duration:              firstTaskDuration,
		HardLimit:             false,
		RequiresAuthorization: false,
		SprintID:              ids.sprint,
		Kanban:                model.KanbanToDo,
	}

	return &tenant{
		user: user,
		org: model.Organization{
			OrgID:   ids.org,
			Name:    in.Organization,
			Admins:  []model.UserSnapshot{},
			Members: []model.UserSnapshot{},
			Seats:   model.DefaultSeats,
			Status:  model.OrganizationActive,
			BillableUser: model.BillableUser{
				Email:  in.Email,
				UserID: ids.user,
			},
			Billing: map[string]interface{}{},
			Sprints: []string{ids.sprint},
		},
		task: task,
		sprint: model.Sprint{
			SprintID: ids.sprint,
			Title:    fmt.Sprintf("%s's First Sprint", in.FirstName),
			Owner:    owner,
			Members:  []model.UserSnapshot{owner},
			Viewers:  []model.UserSnapshot{},
			Status: model.SprintStatus{
				TimeAllocated: 0,
				TimeOver:      0,
				ActiveStatus:  model.TaskNotStarted,
			},
			StartDateTime: start,
			Duration:      int64(model.DefaultSprintDuration / time.Millisecond),
			KPIData:       map[string]interface{}{},
		},
		project: model.Project{
			ProjectID: ids.project,
			Title:     fmt.Sprintf("%s's First Project", in.Organization),
			Tasks:     []model.Task{task},
			Owner:     owner,
			OwnerID:   ids.user,
			Members:   []string{},
			Viewers:   []string{},
			Status: model.ProjectStatus{
				TaskPercentageComplete: 0,
				Status:                 model.ProjectActive,
				PercentageBacklogged:   0,
			},
			StartDateTime: start,
			EndDateTime:   millis(now.AddDate(0, 0, projectLength)),
			KPIData:       map[string]interface{}{},
			Cost:          map[string]interface{}{},
		},
		alert: model.Alert{
			AlertID:    ids.alert,
			ToUser:     owner,
			CreatedBy:  model.CreatedBy{Name: alertAuthor},
			Text:       welcomeAlertText,
			Task:       task,
			Timestamp:  start,
			Escalation: model.EscalationLow,
		},
	}
}

// persist writes the tenant. The alert follows the user task append, and
// the membership append comes last.
func (t *tenant) persist(ctx context.Context, tx store.Tx) error {
	if err := tx.CreateUser(ctx, &t.user); err != nil {
		return err
	}
	if err := tx.CreateOrganization(ctx, &t.org); err != nil {
		return err
	}
	if err := tx.CreateTask(ctx, &t.task); err != nil {
		return err
	}
	if err := tx.CreateSprint(ctx, &t.sprint); err != nil {
		return err
	}
	if err := tx.CreateProject(ctx, &t.project); err != nil {
		return err
	}
	if err := tx.AppendUserTask(ctx, t.user.UserID, t.task); err != nil {
		return err
	}
	if err := tx.CreateAlert(ctx, &t.alert); err != nil {
		return err
	}
	return tx.AppendOrganizationAdmin(ctx, t.org.OrgID, t.user.Snapshot())
}

// committed returns the user and organization as stored after persist.
func (t *tenant) committed() (model.UserSnapshot, model.Organization) {
	member := t.user.Snapshot()
	user := t.user.Snapshot()
	user.Tasks = append(user.Tasks, t.task)

	org := t.org
	org.Admins = append([]model.UserSnapshot{}, member)
	org.Members = append([]model.UserSnapshot{}, member)
	org.Sprints = append([]string{}, t.org.Sprints...)
	return user, org
}
