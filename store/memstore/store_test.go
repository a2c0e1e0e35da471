package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/model"
	"github.com/kamari/service/store"
)

func newUser(id, email string) *model.User {
	return &model.User{
		UserSnapshot: model.UserSnapshot{UserID: id, Email: email, Sprints: []string{"s1"}},
		Password:     "hash",
	}
}

func TestCreateAndFindUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "a@x.com")))

	u, err := s.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "hash", u.Password)

	u.Sprints[0] = "mutated"
	again, err := s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, again.Sprints)

	_, err = s.FindUserByEmail(ctx, "b@x.com")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "a@x.com")))
	err := s.CreateUser(ctx, newUser("u2", "a@x.com"))
	assert.True(t, errors.Is(err, errors.Conflict))
	assert.Equal(t, 1, s.Count(model.USER))
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := fmt.Errorf("boom")

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateUser(ctx, newUser("u1", "a@x.com")); err != nil {
			return err
		}
		if err := tx.CreateTask(ctx, &model.Task{TaskID: "t1"}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 0, s.Count(model.USER))
	assert.Equal(t, 0, s.Count(model.TASK))
}

func TestAtomicCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateUser(ctx, newUser("u1", "a@x.com")); err != nil {
			return err
		}
		if err := tx.CreateOrganization(ctx, &model.Organization{OrgID: "o1", Seats: 2}); err != nil {
			return err
		}
		if err := tx.AppendUserTask(ctx, "u1", model.Task{TaskID: "t1"}); err != nil {
			return err
		}
		return tx.AppendOrganizationAdmin(ctx, "o1", model.UserSnapshot{UserID: "u1"})
	})
	require.NoError(t, err)

	u, err := s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u.Tasks, 1)
	assert.Equal(t, "t1", u.Tasks[0].TaskID)

	o, err := s.FindOrganization(ctx, "o1")
	require.NoError(t, err)
	assert.Len(t, o.Members, 1)
	assert.Len(t, o.Admins, 1)
}

func TestAppendOrganizationAdminRespectsSeats(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateOrganization(ctx, &model.Organization{OrgID: "o1", Seats: 1}))
	require.NoError(t, s.AppendOrganizationAdmin(ctx, "o1", model.UserSnapshot{UserID: "u1"}))

	err := s.AppendOrganizationAdmin(ctx, "o1", model.UserSnapshot{UserID: "u2"})
	assert.True(t, errors.Is(err, errors.Conflict))

	err = s.AppendOrganizationAdmin(ctx, "missing", model.UserSnapshot{UserID: "u2"})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestAppendUserTaskUnknownUser(t *testing.T) {
	err := New().AppendUserTask(context.Background(), "nobody", model.Task{TaskID: "t1"})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTask(ctx, &model.Task{TaskID: "t1", Assignees: []string{"a@x.com"}}))
	require.NoError(t, s.CreateTask(ctx, &model.Task{TaskID: "t2", Assignees: []string{"b@x.com"}}))
	require.NoError(t, s.CreateAlert(ctx, &model.Alert{AlertID: "a1", ToUser: model.UserSnapshot{UserID: "u1"}}))
	require.NoError(t, s.CreateProject(ctx, &model.Project{ProjectID: "p1", OwnerID: "u1", Viewers: []string{"a@x.com"}}))
	require.NoError(t, s.CreateProject(ctx, &model.Project{ProjectID: "p2", OwnerID: "u2", Members: []string{"a@x.com"}}))

	tasks, err := s.FindTasksForAssignee(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].TaskID)

	alerts, err := s.FindAlertsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	owned, err := s.FindProjectsOwnedBy(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	member, err := s.FindProjectsWithMember(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, member, 1)
	assert.Equal(t, "p2", member[0].ProjectID)

	viewer, err := s.FindProjectsWithViewer(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, viewer, 1)
	assert.Equal(t, "p1", viewer[0].ProjectID)
}
