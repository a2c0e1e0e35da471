package logic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/logger"
	"github.com/kamari/service/metrics"
	"github.com/kamari/service/model"
	"github.com/kamari/service/notify"
	"github.com/kamari/service/store"
)

// HashCost bcrypt 哈希强度
const HashCost = 10

// Issuer signs session tokens.
type Issuer interface {
	GenerateToken(user model.UserSnapshot) (string, error)
}

// RegisterInput 注册参数
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,max=72"`
	Organization string `json:"organization" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=client freelancer"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
}

// LoginInput 登录参数
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the result of a successful signup.
type Registration struct {
	User         model.UserSnapshot
	Organization model.Organization
	Token        string
}

// Session is the result of a successful login.
type Session struct {
	User  model.UserSnapshot
	Token string
}

// Account 账户服务
type Account struct {
	store      store.Store
	issuer     Issuer
	notifier   notify.Notifier
	assignedBy string
	cost       int
	now        func() time.Time
	newID      func() string
}

// Option 账户服务参数项
type Option func(*Account)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Account) { a.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() string) Option {
	return func(a *Account) { a.newID = newID }
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(a *Account) { a.cost = cost }
}

// NewAccount 创建账户服务. assignedBy is the address recorded as the author
// of every provisioned first task.
func NewAccount(s store.Store, issuer Issuer, n notify.Notifier, assignedBy string, opts ...Option) *Account {
	a := &Account{
		store:      s,
		issuer:     issuer,
		notifier:   n,
		assignedBy: assignedBy,
		cost:       HashCost,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.notifier == nil {
		a.notifier = notify.Discard{}
	}
	return a
}

// Register creates the user together with its default tenant. Either every
// document is written or none is.
func (a *Account) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	_, err := a.store.FindUserByEmail(ctx, in.Email)
	if err == nil {
		metrics.RecordProvision("conflict")
		return nil, errors.New(errors.Conflict, "Username already exists")
	}
	if !errors.Is(err, errors.NotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return nil, errors.Wrap(errors.ValidationFailed, err, "password is too long")
		}
		return nil, errors.Wrap(errors.Internal, err, "hash password")
	}

	t := newTenant(in, string(hash), a.assignedBy, newTenantIDs(a.newID), a.now())
	if err := a.store.Atomic(ctx, t.persist); err != nil {
		fields := map[string]interface{}{"user_id": t.user.UserID, "email": in.Email}
		if errors.Is(err, errors.Conflict) {
			// lost a race with a concurrent signup for the same email
			metrics.RecordProvision("conflict")
			logger.Warnf(fields, "provisioning rolled back: %s", err.Error())
			return nil, errors.Wrap(errors.Conflict, err, "Username already exists")
		}
		metrics.RecordProvision("failed")
		logger.Errorf(fields, "provisioning rolled back: %s", err.Error())
		return nil, err
	}
	metrics.RecordProvision("success")

	user, org := t.committed()
	a.notifier.Welcome(notify.Welcome{Email: user.Email, FirstName: user.Name.First})

	token, err := a.issuer.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Registration{User: user, Organization: org, Token: token}, nil
}

// Login verifies credentials and issues a fresh token.
func (a *Account) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := a.store.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.Wrap(errors.NotFound, err, "User not found")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, errors.Wrap(errors.Unauthorized, err, "User not authorized. Incorrect password")
	}
	snap := u.Snapshot()
	token, err := a.issuer.GenerateToken(snap)
	if err != nil {
		return nil, err
	}
	return &Session{User: snap, Token: token}, nil
}
