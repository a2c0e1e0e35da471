package logic

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kamari/service/model"
	"github.com/kamari/service/store"
)

// Query 当前用户的列表查询
type Query struct {
	store store.Store
}

// NewQuery 创建查询服务
func NewQuery(s store.Store) *Query {
	return &Query{store: s}
}

// Alerts lists alerts addressed to the user.
func (q *Query) Alerts(ctx context.Context, userID string) ([]model.Alert, error) {
	alerts, err := q.store.FindAlertsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	return alerts, nil
}

// Tasks lists tasks assigned to the user's current email.
func (q *Query) Tasks(ctx context.Context, userID string) ([]model.Task, error) {
	u, err := q.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := q.store.FindTasksForAssignee(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Projects lists projects the user owns, is a member of, or may view. A
// project matching more than one relation is listed once, at its first
// position in that order.
func (q *Query) Projects(ctx context.Context, userID string) ([]model.Project, error) {
	u, err := q.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var owned, member, viewer []model.Project
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		owned, err = q.store.FindProjectsOwnedBy(gctx, u.UserID)
		return
	})
	g.Go(func() (err error) {
		member, err = q.store.FindProjectsWithMember(gctx, u.Email)
		return
	})
	g.Go(func() (err error) {
		viewer, err = q.store.FindProjectsWithViewer(gctx, u.Email)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned)+len(member)+len(viewer))
	projects := make([]model.Project, 0, len(owned)+len(member)+len(viewer))
	for _, list := range [][]model.Project{owned, member, viewer} {
		for _, p := range list {
			if _, ok := seen[p.ProjectID]; ok {
				continue
			}
			seen[p.ProjectID] = struct{}{}
			projects = append(projects, p)
		}
	}
	return projects, nil
}
