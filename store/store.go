// Package store defines the document store used by the service. Every write
// that spans more than one document goes through Store.Atomic.
package store

import (
	"context"

	"github.com/kamari/service/model"
)

// Tx is the set of writes allowed inside an atomic scope.
type Tx interface {
	CreateUser(ctx context.Context, u *model.User) error
	CreateOrganization(ctx context.Context, o *model.Organization) error
	CreateTask(ctx context.Context, t *model.Task) error
	CreateSprint(ctx context.Context, s *model.Sprint) error
	CreateProject(ctx context.Context, p *model.Project) error
	CreateAlert(ctx context.Context, a *model.Alert) error

	// AppendUserTask pushes a task snapshot onto the user's task list.
	AppendUserTask(ctx context.Context, userID string, t model.Task) error
	// AppendOrganizationAdmin pushes the user onto both the member and admin
	// lists. It fails with Conflict when the organization has no free seat.
	AppendOrganizationAdmin(ctx context.Context, orgID string, u model.UserSnapshot) error
}

// Store is the document store.
type Store interface {
	// Atomic runs fn so that either all of its writes become visible or none
	// do. fn must only use the ctx and tx it is given.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, userID string) (*model.User, error)
	FindOrganization(ctx context.Context, orgID string) (*model.Organization, error)

	FindAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error)
	FindTasksForAssignee(ctx context.Context, email string) ([]model.Task, error)
	FindProjectsOwnedBy(ctx context.Context, userID string) ([]model.Project, error)
	FindProjectsWithMember(ctx context.Context, email string) ([]model.Project, error)
	FindProjectsWithViewer(ctx context.Context, email string) ([]model.Project, error)

	Ping(ctx context.Context) error
}
