package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/logger"
	"github.com/kamari/service/metrics"
	"github.com/kamari/service/util/json"
)

// Welcome 新用户欢迎邮件参数
type Welcome struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

// Notifier hands a welcome mail off without blocking the caller. Failures are
// logged, never returned.
type Notifier interface {
	Welcome(w Welcome)
}

// Postman renders and sends welcome mails.
type Postman struct {
	mailer  Mailer
	from    string
	appURL  string
	timeout time.Duration
}

// NewPostman 创建邮件投递
func NewPostman(mailer Mailer, from, appURL string, timeout time.Duration) *Postman {
	return &Postman{
		mailer:  mailer,
		from:    from,
		appURL:  strings.TrimRight(appURL, "/"),
		timeout: timeout,
	}
}

// Deliver renders and sends w synchronously.
func (p *Postman) Deliver(ctx context.Context, w Welcome) error {
	if w.Email == "" {
		return errors.New(errors.ValidationFailed, "welcome mail without recipient")
	}
	html, err := renderWelcome(welcomeData{Email: w.Email, FirstName: w.FirstName, AppURL: p.appURL})
	if err != nil {
		return errors.Wrap(errors.Internal, err, "render welcome mail")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.mailer.Send(ctx, Mail{
		From:    p.from,
		To:      w.Email,
		Subject: welcomeSubject,
		HTML:    html,
	})
}

// Handle consumes one queued welcome payload.
func (p *Postman) Handle(ctx context.Context, payload []byte) error {
	var w Welcome
	if err := json.Unmarshal(payload, &w); err != nil {
		// a malformed payload never becomes valid, drop it
		logger.Errorf(nil, "drop welcome payload: %s", err.Error())
		metrics.RecordMail("failed")
		return nil
	}
	if err := p.Deliver(ctx, w); err != nil {
		metrics.RecordMail("failed")
		return err
	}
	metrics.RecordMail("sent")
	return nil
}

// Direct 进程内异步发送
type Direct struct {
	postman *Postman
	wg      sync.WaitGroup
}

// NewDirect 创建进程内异步发送
func NewDirect(p *Postman) *Direct {
	return &Direct{postman: p}
}

func (d *Direct) Welcome(w Welcome) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.postman.Deliver(context.Background(), w); err != nil {
			metrics.RecordMail("failed")
			logger.Errorf(map[string]interface{}{"email": w.Email}, "email sending error: %s", err.Error())
			return
		}
		metrics.RecordMail("sent")
		logger.Infof(map[string]interface{}{"email": w.Email}, "email sent")
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Direct) Wait() {
	d.wg.Wait()
}

// Publisher is the queue side the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Queued 通过消息队列发送
type Queued struct {
	pub     Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewQueued 创建队列发送
func NewQueued(pub Publisher, timeout time.Duration) *Queued {
	return &Queued{pub: pub, timeout: timeout}
}

func (q *Queued) Welcome(w Welcome) {
	payload, err := json.Marshal(w)
	if err != nil {
		logger.Errorf(nil, "encode welcome payload: %s", err.Error())
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx := context.Background()
		if q.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
			defer cancel()
		}
		if err := q.pub.Publish(ctx, payload); err != nil {
			metrics.RecordMail("failed")
			logger.Errorf(map[string]interface{}{"email": w.Email}, "queue welcome mail error: %s", err.Error())
			return
		}
		metrics.RecordMail("queued")
	}()
}

// Wait blocks until in-flight publishes finish.
func (q *Queued) Wait() {
	q.wg.Wait()
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Welcome(Welcome) {}
