// Package memstore is an in-process store.Store. Documents are kept BSON
// encoded so callers never share memory with the store, and Atomic commits by
// swapping in a modified copy of the whole dataset.
package memstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/model"
	"github.com/kamari/service/store"
)

type collection struct {
	docs  map[string][]byte
	order []string
}

func newCollection() *collection {
	return &collection{docs: map[string][]byte{}}
}

func (c *collection) clone() *collection {
	n := &collection{docs: make(map[string][]byte, len(c.docs)), order: append([]string{}, c.order...)}
	for k, v := range c.docs {
		n.docs[k] = v
	}
	return n
}

func (c *collection) insert(id string, doc interface{}) error {
	if _, ok := c.docs[id]; ok {
		return errors.New(errors.Conflict, "document already exists")
	}
	b, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.Internal, err, "encode document")
	}
	c.docs[id] = b
	c.order = append(c.order, id)
	return nil
}

func (c *collection) replace(id string, doc interface{}) error {
	b, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.Internal, err, "encode document")
	}
	c.docs[id] = b
	return nil
}

func (c *collection) get(id string, out interface{}) (bool, error) {
	b, ok := c.docs[id]
	if !ok {
		return false, nil
	}
	return true, bson.Unmarshal(b, out)
}

func (c *collection) each(fn func(raw []byte) error) error {
	for _, id := range c.order {
		if err := fn(c.docs[id]); err != nil {
			return err
		}
	}
	return nil
}

type dataset map[string]*collection

func newDataset() dataset {
	d := dataset{}
	for _, name := range []string{model.USER, model.ORGANIZATION, model.TASK, model.SPRINT, model.PROJECT, model.ALERT} {
		d[name] = newCollection()
	}
	return d
}

func (d dataset) clone() dataset {
	n := make(dataset, len(d))
	for k, c := range d {
		n[k] = c.clone()
	}
	return n
}

// Store is an in-memory store.Store.
type Store struct {
	mu   sync.RWMutex
	data dataset
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: newDataset()}
}

// Atomic applies fn to a private copy and publishes it only when fn succeeds.
// Scopes are serialized.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(ctx, &tx{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "transaction aborted")
	}
	s.data = work
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.data[name]; ok {
		return len(c.docs)
	}
	return 0
}

func (s *Store) write(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Atomic(ctx, func(_ context.Context, tx store.Tx) error {
		return fn(tx)
	})
}

// CreateUser 保存用户
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, u) })
}

// CreateOrganization 保存组织
func (s *Store) CreateOrganization(ctx context.Context, o *model.Organization) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateOrganization(ctx, o) })
}

// CreateTask 保存任务
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateTask(ctx, t) })
}

// CreateSprint 保存冲刺
func (s *Store) CreateSprint(ctx context.Context, sp *model.Sprint) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateSprint(ctx, sp) })
}

// CreateProject 保存项目
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateProject(ctx, p) })
}

// CreateAlert 保存提醒
func (s *Store) CreateAlert(ctx context.Context, a *model.Alert) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateAlert(ctx, a) })
}

// AppendUserTask 用户任务列表追加
func (s *Store) AppendUserTask(ctx context.Context, userID string, t model.Task) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.AppendUserTask(ctx, userID, t) })
}

// AppendOrganizationAdmin 组织成员及管理员追加
func (s *Store) AppendOrganizationAdmin(ctx context.Context, orgID string, u model.UserSnapshot) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.AppendOrganizationAdmin(ctx, orgID, u) })
}

// FindUserByEmail 根据邮箱查询用户
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := findUserByEmail(s.data, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New(errors.NotFound, "user not found")
	}
	return u, nil
}

// FindUserByID 根据id查询用户
func (s *Store) FindUserByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := new(model.User)
	ok, err := s.data[model.USER].get(userID, u)
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode user")
	}
	if !ok {
		return nil, errors.New(errors.NotFound, "user not found")
	}
	return u, nil
}

// FindOrganization 根据id查询组织
func (s *Store) FindOrganization(ctx context.Context, orgID string) (*model.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := new(model.Organization)
	ok, err := s.data[model.ORGANIZATION].get(orgID, o)
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode organization")
	}
	if !ok {
		return nil, errors.New(errors.NotFound, "organization not found")
	}
	return o, nil
}

// FindAlertsForUser 查询用户提醒
func (s *Store) FindAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Alert, 0)
	err := s.data[model.ALERT].each(func(raw []byte) error {
		var a model.Alert
		if err := bson.Unmarshal(raw, &a); err != nil {
			return err
		}
		if a.ToUser.UserID == userID {
			result = append(result, a)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode alerts")
	}
	return result, nil
}

// FindTasksForAssignee 查询分配给邮箱的任务
func (s *Store) FindTasksForAssignee(ctx context.Context, email string) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Task, 0)
	err := s.data[model.TASK].each(func(raw []byte) error {
		var t model.Task
		if err := bson.Unmarshal(raw, &t); err != nil {
			return err
		}
		if t.AssignedTo(email) {
			result = append(result, t)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode tasks")
	}
	return result, nil
}

// FindProjectsOwnedBy 查询用户拥有的项目
func (s *Store) FindProjectsOwnedBy(ctx context.Context, userID string) ([]model.Project, error) {
	return s.findProjects(func(p *model.Project) bool { return p.OwnerID == userID })
}

// FindProjectsWithMember 查询用户参与的项目
func (s *Store) FindProjectsWithMember(ctx context.Context, email string) ([]model.Project, error) {
	return s.findProjects(func(p *model.Project) bool { return contains(p.Members, email) })
}

// FindProjectsWithViewer 查询用户可查看的项目
func (s *Store) FindProjectsWithViewer(ctx context.Context, email string) ([]model.Project, error) {
	return s.findProjects(func(p *model.Project) bool { return contains(p.Viewers, email) })
}

func (s *Store) findProjects(match func(p *model.Project) bool) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Project, 0)
	err := s.data[model.PROJECT].each(func(raw []byte) error {
		var p model.Project
		if err := bson.Unmarshal(raw, &p); err != nil {
			return err
		}
		if match(&p) {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode projects")
	}
	return result, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func findUserByEmail(d dataset, email string) (*model.User, error) {
	var found *model.User
	err := d[model.USER].each(func(raw []byte) error {
		if found != nil {
			return nil
		}
		var u model.User
		if err := bson.Unmarshal(raw, &u); err != nil {
			return err
		}
		if u.Email == email {
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "decode user")
	}
	return found, nil
}

// tx writes into a private dataset copy.
type tx struct {
	d dataset
}

func (t *tx) CreateUser(ctx context.Context, u *model.User) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "insert user")
	}
	existing, err := findUserByEmail(t.d, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New(errors.Conflict, "document already exists")
	}
	return t.d[model.USER].insert(u.UserID, u)
}

func (t *tx) CreateOrganization(ctx context.Context, o *model.Organization) error {
	return t.insert(ctx, model.ORGANIZATION, o.OrgID, o)
}

func (t *tx) CreateTask(ctx context.Context, task *model.Task) error {
	return t.insert(ctx, model.TASK, task.TaskID, task)
}

func (t *tx) CreateSprint(ctx context.Context, s *model.Sprint) error {
	return t.insert(ctx, model.SPRINT, s.SprintID, s)
}

func (t *tx) CreateProject(ctx context.Context, p *model.Project) error {
	return t.insert(ctx, model.PROJECT, p.ProjectID, p)
}

func (t *tx) CreateAlert(ctx context.Context, a *model.Alert) error {
	return t.insert(ctx, model.ALERT, a.AlertID, a)
}

func (t *tx) insert(ctx context.Context, name, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "insert into "+name)
	}
	return t.d[name].insert(id, doc)
}

func (t *tx) AppendUserTask(ctx context.Context, userID string, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "append user task")
	}
	c := t.d[model.USER]
	u := new(model.User)
	ok, err := c.get(userID, u)
	if err != nil {
		return errors.Wrap(errors.Internal, err, "decode user")
	}
	if !ok {
		return errors.Newf(errors.NotFound, "user %s not found", userID)
	}
	u.Tasks = append(u.Tasks, task)
	return c.replace(userID, u)
}

func (t *tx) AppendOrganizationAdmin(ctx context.Context, orgID string, snap model.UserSnapshot) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "append organization member")
	}
	c := t.d[model.ORGANIZATION]
	o := new(model.Organization)
	ok, err := c.get(orgID, o)
	if err != nil {
		return errors.Wrap(errors.Internal, err, "decode organization")
	}
	if !ok {
		return errors.Newf(errors.NotFound, "organization %s not found", orgID)
	}
	if !o.HasSeat() {
		return errors.Newf(errors.Conflict, "organization %s has no free seat", orgID)
	}
	o.Members = append(o.Members, snap)
	o.Admins = append(o.Admins, snap)
	return c.replace(orgID, o)
}
