package service

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/api/objectiveed"
	"github.com/kamari/service/config"
	"github.com/kamari/service/consul"
	idb "github.com/kamari/service/db/mongo"
	iredis "github.com/kamari/service/db/redis"
	"github.com/kamari/service/errors"
	"github.com/kamari/service/handler"
	"github.com/kamari/service/logger"
	"github.com/kamari/service/logic"
	"github.com/kamari/service/metrics"
	"github.com/kamari/service/mq/rabbit"
	"github.com/kamari/service/notify"
	restfulapi "github.com/kamari/service/restful-api"
	"github.com/kamari/service/store"
	"github.com/kamari/service/store/memstore"
	"github.com/kamari/service/store/mongostore"
	"github.com/kamari/service/token"
	"github.com/kamari/service/token/redisx"
)

type waiter interface {
	Wait()
}

// App 服务实例
type App struct {
	cfg        *config.Config
	httpServer *echo.Echo
	registrar  *consul.Registrar

	// cleanups run in reverse order on shutdown
	cleanups []func()
	notifier waiter
	cancel   context.CancelFunc
}

// NewApp wires every dependency described by cfg. On error, whatever was
// already opened is closed again.
func NewApp(cfg *config.Config) (a *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a = &App{cfg: cfg, cancel: cancel}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	st, err := a.openStore(ctx)
	if err != nil {
		return a, err
	}

	opts := []token.Option{token.SetExpired(cfg.JWT.TTL())}
	if cfg.Redis.Enable {
		cli, clean, err := iredis.NewClient(cfg.Redis)
		if err != nil {
			return a, err
		}
		a.cleanups = append(a.cleanups, clean)
		opts = append(opts, token.SetStore(redisx.NewStore(cli, cfg.Redis.Prefix)))
	}
	auth := token.New(cfg.JWT.Secret, opts...)

	notifier, err := a.openNotifier(ctx)
	if err != nil {
		return a, err
	}

	account := logic.NewAccount(st, auth, notifier, cfg.Mail.From)
	h := handler.New(account, logic.NewQuery(st), auth, objectiveed.NewClient(cfg.Objectiveed), st)

	e := restfulapi.NewEcho(metrics.Middleware(), logger.Middleware())
	e.Debug = cfg.IsDebugMode()
	h.Register(e)
	a.httpServer = e

	if cfg.Consul.Enable {
		if err := a.openRegistrar(); err != nil {
			return a, err
		}
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store.Driver {
	case config.StoreMemory:
		logger.Warnf(nil, "using in-memory store, data is lost on restart")
		return memstore.New(), nil
	default:
		cli, clean, err := idb.NewClient(a.cfg.Mongo)
		if clean != nil {
			a.cleanups = append(a.cleanups, clean)
		}
		if err != nil {
			return nil, errors.Wrap(errors.UpstreamFailure, err, "connect mongo")
		}
		st := mongostore.New(cli, a.cfg.Mongo.DB, a.cfg.Mongo.OpTimeout())
		ictx, cancel := context.WithTimeout(ctx, a.cfg.Mongo.OpTimeout())
		defer cancel()
		if err := st.EnsureIndexes(ictx); err != nil {
			return nil, err
		}
		return st, nil
	}
}

func (a *App) openNotifier(ctx context.Context) (notify.Notifier, error) {
	mc := a.cfg.Mail
	postman := notify.NewPostman(notify.NewSendGrid(mc.Endpoint, mc.APIKey, mc.SendTimeout()), mc.From, mc.AppURL, mc.SendTimeout())
	if mc.Mode != config.MailRabbitMQ {
		d := notify.NewDirect(postman)
		a.notifier = d
		return d, nil
	}

	conn, clean, err := rabbit.NewClient(a.cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	a.cleanups = append(a.cleanups, clean)
	q, err := rabbit.NewQueue(conn, a.cfg.RabbitMQ.Queue)
	if err != nil {
		return nil, err
	}
	if err := q.Consume(ctx, postman.Handle); err != nil {
		_ = q.Close()
		return nil, err
	}
	a.cleanups = append(a.cleanups, func() {
		if err := q.Close(); err != nil {
			logger.Errorf(nil, "rabbitmq channel close error: %s", err.Error())
		}
	})
	qn := notify.NewQueued(q, mc.SendTimeout())
	a.notifier = qn
	return qn, nil
}

func (a *App) openRegistrar() error {
	cli, err := consul.NewClient(a.cfg.Consul)
	if err != nil {
		return err
	}
	host, err := consul.ResolveHost(a.cfg.HTTP.Host)
	if err != nil {
		logger.Warnf(nil, "resolve service host: %s", err.Error())
		host = "127.0.0.1"
	}
	a.registrar = consul.NewRegistrar(cli, consul.Registration{
		ID:   a.cfg.Service.ID,
		Name: a.cfg.Service.Name,
		Host: host,
		Port: a.cfg.HTTP.Port,
	})
	return nil
}

// Server returns the configured echo instance.
func (a *App) Server() *echo.Echo {
	return a.httpServer
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof(map[string]interface{}{"addr": a.cfg.HTTP.Addr()}, "http server listening")
		if err := a.httpServer.Start(a.cfg.HTTP.Addr()); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	if a.registrar != nil {
		if err := a.registrar.Register(); err != nil {
			logger.Errorf(nil, "服务注册错误: %s", err.Error())
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Infof(nil, "关闭服务, %s", sig)
	case runErr = <-errCh:
		logger.Errorf(nil, "http server error: %s", runErr.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops accepting requests, drains in-flight mail and releases
// every backend.
func (a *App) Shutdown(ctx context.Context) error {
	if a.registrar != nil {
		if err := a.registrar.Deregister(); err != nil {
			logger.Errorf(nil, "服务断开错误: %s", err.Error())
		}
	}
	err := a.httpServer.Shutdown(ctx)
	if a.notifier != nil {
		done := make(chan struct{})
		go func() {
			a.notifier.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logger.Warnf(nil, "shutdown timed out waiting for welcome mails")
		}
	}
	a.close()
	return err
}

func (a *App) close() {
	a.cancel()
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}
