// Package mongostore implements store.Store on MongoDB. Atomic scopes are
// multi-document transactions, so the deployment must be a replica set.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/model"
	"github.com/kamari/service/store"
)

// Store is a MongoDB backed store.Store.
type Store struct {
	cli     *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

// New wraps an already connected client.
func New(cli *mongo.Client, database string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{cli: cli, db: cli.Database(database), timeout: timeout}
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the identifier and lookup indexes. Collections are
// created as a side effect, which transactions on older servers require.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		model.USER: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		model.ORGANIZATION: {
			{Keys: bson.D{{Key: "org_id", Value: 1}}, Options: unique},
		},
		model.TASK: {
			{Keys: bson.D{{Key: "task_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "assignees", Value: 1}}},
		},
		model.SPRINT: {
			{Keys: bson.D{{Key: "sprint_id", Value: 1}}, Options: unique},
		},
		model.PROJECT: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "members", Value: 1}}},
			{Keys: bson.D{{Key: "viewers", Value: 1}}},
		},
		model.ALERT: {
			{Keys: bson.D{{Key: "alert_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "to_user.user_id", Value: 1}}},
		},
	}
	for name, models := range indexes {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.col(name).Indexes().CreateMany(ctx, models)
		cancel()
		if err != nil {
			return errors.Wrap(errors.UpstreamFailure, err, "create indexes on "+name)
		}
	}
	return nil
}

// Atomic runs fn inside a session transaction. The driver retries fn on
// transient transaction errors, so fn must not have side effects outside tx.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sess, err := s.cli.StartSession()
	if err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "start session")
	}
	defer sess.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	}, txOpts)
	if err != nil && errors.KindOf(err) == errors.Internal {
		return errors.Wrap(errors.UpstreamFailure, err, "transaction failed")
	}
	return err
}

func (s *Store) insert(ctx context.Context, name string, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.col(name).InsertOne(ctx, doc); err != nil {
		return classify(err, "insert into "+name)
	}
	return nil
}

// CreateUser 保存用户
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.insert(ctx, model.USER, u)
}

// CreateOrganization 保存组织
func (s *Store) CreateOrganization(ctx context.Context, o *model.Organization) error {
	return s.insert(ctx, model.ORGANIZATION, o)
}

// CreateTask 保存任务
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	return s.insert(ctx, model.TASK, t)
}

// CreateSprint 保存冲刺
func (s *Store) CreateSprint(ctx context.Context, sp *model.Sprint) error {
	return s.insert(ctx, model.SPRINT, sp)
}

// CreateProject 保存项目
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	return s.insert(ctx, model.PROJECT, p)
}

// CreateAlert 保存提醒
func (s *Store) CreateAlert(ctx context.Context, a *model.Alert) error {
	return s.insert(ctx, model.ALERT, a)
}

// AppendUserTask 用户任务列表追加
func (s *Store) AppendUserTask(ctx context.Context, userID string, t model.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	r, err := s.col(model.USER).UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$push": bson.M{"tasks": t}},
	)
	if err != nil {
		return classify(err, "append user task")
	}
	if r.MatchedCount == 0 {
		return errors.Newf(errors.NotFound, "user %s not found", userID)
	}
	return nil
}

// AppendOrganizationAdmin 组织成员及管理员追加
func (s *Store) AppendOrganizationAdmin(ctx context.Context, orgID string, u model.UserSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	filter := bson.M{
		"org_id": orgID,
		"$expr":  bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$seats"}},
	}
	r, err := s.col(model.ORGANIZATION).UpdateOne(ctx, filter,
		bson.M{"$push": bson.M{"members": u, "admins": u}},
	)
	if err != nil {
		return classify(err, "append organization member")
	}
	if r.MatchedCount > 0 {
		return nil
	}
	n, err := s.col(model.ORGANIZATION).CountDocuments(ctx, bson.M{"org_id": orgID})
	if err != nil {
		return classify(err, "count organizations")
	}
	if n == 0 {
		return errors.Newf(errors.NotFound, "organization %s not found", orgID)
	}
	return errors.Newf(errors.Conflict, "organization %s has no free seat", orgID)
}

func (s *Store) findOne(ctx context.Context, name string, filter bson.M, out interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.col(name).FindOne(ctx, filter).Decode(out)
	if err == mongo.ErrNoDocuments {
		return errors.New(errors.NotFound, what+" not found")
	}
	if err != nil {
		return classify(err, "find "+what)
	}
	return nil
}

// FindUserByEmail 根据邮箱查询用户
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := new(model.User)
	if err := s.findOne(ctx, model.USER, bson.M{"email": email}, u, "user"); err != nil {
		return nil, err
	}
	return u, nil
}

// FindUserByID 根据id查询用户
func (s *Store) FindUserByID(ctx context.Context, userID string) (*model.User, error) {
	u := new(model.User)
	if err := s.findOne(ctx, model.USER, bson.M{"user_id": userID}, u, "user"); err != nil {
		return nil, err
	}
	return u, nil
}

// FindOrganization 根据id查询组织
func (s *Store) FindOrganization(ctx context.Context, orgID string) (*model.Organization, error) {
	o := new(model.Organization)
	if err := s.findOne(ctx, model.ORGANIZATION, bson.M{"org_id": orgID}, o, "organization"); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) find(ctx context.Context, name string, filter bson.M, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cur, err := s.col(name).Find(ctx, filter)
	if err != nil {
		return classify(err, "query "+name)
	}
	if err := cur.All(ctx, out); err != nil {
		return classify(err, "decode "+name)
	}
	return nil
}

// FindAlertsForUser 查询用户提醒
func (s *Store) FindAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error) {
	result := make([]model.Alert, 0)
	if err := s.find(ctx, model.ALERT, bson.M{"to_user.user_id": userID}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FindTasksForAssignee 查询分配给邮箱的任务
func (s *Store) FindTasksForAssignee(ctx context.Context, email string) ([]model.Task, error) {
	result := make([]model.Task, 0)
	if err := s.find(ctx, model.TASK, bson.M{"assignees": email}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FindProjectsOwnedBy 查询用户拥有的项目
func (s *Store) FindProjectsOwnedBy(ctx context.Context, userID string) ([]model.Project, error) {
	return s.findProjects(ctx, bson.M{"owner_id": userID})
}

// FindProjectsWithMember 查询用户参与的项目
func (s *Store) FindProjectsWithMember(ctx context.Context, email string) ([]model.Project, error) {
	return s.findProjects(ctx, bson.M{"members": email})
}

// FindProjectsWithViewer 查询用户可查看的项目
func (s *Store) FindProjectsWithViewer(ctx context.Context, email string) ([]model.Project, error) {
	return s.findProjects(ctx, bson.M{"viewers": email})
}

func (s *Store) findProjects(ctx context.Context, filter bson.M) ([]model.Project, error) {
	result := make([]model.Project, 0)
	if err := s.find(ctx, model.PROJECT, filter, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cli.Ping(ctx, nil); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "store unreachable")
	}
	return nil
}

func classify(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(errors.Conflict, err, "document already exists")
	}
	return errors.Wrap(errors.UpstreamFailure, err, msg)
}
