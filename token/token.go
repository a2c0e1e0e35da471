// Package token issues and verifies session tokens. A token carries the user
// id and a snapshot of the user taken when it was signed.
package token

import (
	"context"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/model"
)

// DefaultExpired is the session lifetime.
const DefaultExpired = 7 * 24 * time.Hour

// Claims 令牌声明
type Claims struct {
	User   model.UserSnapshot `json:"user"`
	UserID string             `json:"userId"`
	jwt.StandardClaims
}

// Storer keeps revoked tokens until they expire.
type Storer interface {
	Set(ctx context.Context, tokenString string, expiration time.Duration) error
	Check(ctx context.Context, tokenString string) (bool, error)
}

type options struct {
	signingMethod jwt.SigningMethod
	expired       time.Duration
	store         Storer
	now           func() time.Time
}

// Option 定义参数项
type Option func(*options)

// SetExpired 设定令牌过期时长
func SetExpired(expired time.Duration) Option {
	return func(o *options) {
		o.expired = expired
	}
}

// SetStore 设定吊销令牌存储
func SetStore(store Storer) Option {
	return func(o *options) {
		o.store = store
	}
}

// SetClock overrides the issuing clock.
func SetClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// JWTAuth jwt认证
type JWTAuth struct {
	key  []byte
	opts options
}

// New 创建认证实例
func New(secret string, opts ...Option) *JWTAuth {
	o := options{
		signingMethod: jwt.SigningMethodHS256,
		expired:       DefaultExpired,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &JWTAuth{key: []byte(secret), opts: o}
}

// GenerateToken 生成令牌
func (a *JWTAuth) GenerateToken(user model.UserSnapshot) (string, error) {
	now := a.opts.now()
	claims := &Claims{
		User:   user,
		UserID: user.UserID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.opts.expired).Unix(),
			Subject:   user.UserID,
		},
	}
	tokenString, err := jwt.NewWithClaims(a.opts.signingMethod, claims).SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(errors.Internal, err, "sign token")
	}
	return tokenString, nil
}

func (a *JWTAuth) keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token method error:%v", t.Header["alg"])
	}
	return a.key, nil
}

// ParseToken verifies signature, expiry and revocation. An empty token is
// Unauthorized; anything else that fails is Forbidden.
func (a *JWTAuth) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New(errors.Unauthorized, "Unauthorized")
	}
	claims := new(Claims)
	t, err := jwt.ParseWithClaims(tokenString, claims, a.keyfunc)
	if err != nil || !t.Valid {
		return nil, errors.Wrap(errors.Forbidden, invalid(err), "Token is invalid")
	}
	if claims.UserID == "" {
		return nil, errors.New(errors.Forbidden, "Token is invalid")
	}
	if a.opts.store != nil {
		revoked, err := a.opts.store.Check(ctx, tokenString)
		if err != nil {
			return nil, errors.Wrap(errors.UpstreamFailure, err, "token store unavailable")
		}
		if revoked {
			return nil, errors.New(errors.Forbidden, "Token has been revoked")
		}
	}
	return claims, nil
}

// DestroyToken 销毁令牌. Without a store this is a no-op and the token stays
// valid until it expires.
func (a *JWTAuth) DestroyToken(ctx context.Context, tokenString string) error {
	claims, err := a.ParseToken(ctx, tokenString)
	if err != nil {
		return err
	}
	if a.opts.store == nil {
		return nil
	}
	expired := time.Unix(claims.ExpiresAt, 0).Sub(a.opts.now())
	if expired <= 0 {
		return nil
	}
	if err := a.opts.store.Set(ctx, tokenString, expired); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "token store unavailable")
	}
	return nil
}

// Revocable reports whether DestroyToken has any effect.
func (a *JWTAuth) Revocable() bool {
	return a.opts.store != nil
}

func invalid(err error) error {
	if err == nil {
		return fmt.Errorf("token invalid")
	}
	return err
}
