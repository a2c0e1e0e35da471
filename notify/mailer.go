package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kamari/service/errors"
)

// Mail 一封待发送邮件
type Mail struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer delivers one mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type sendGrid struct {
	cli *resty.Client
}

// NewSendGrid 基于 SendGrid v3 接口的邮件发送
func NewSendGrid(endpoint, apiKey string, timeout time.Duration) Mailer {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &sendGrid{cli: cli}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMessage struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (p *sendGrid) Send(ctx context.Context, m Mail) error {
	body := sgMessage{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: m.To}}}},
		From:             sgAddress{Email: m.From},
		Subject:          m.Subject,
		Content:          []sgContent{{Type: "text/html", Value: m.HTML}},
	}
	resp, err := p.cli.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v3/mail/send")
	if err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "send mail")
	}
	if resp.StatusCode() != http.StatusAccepted && resp.StatusCode() != http.StatusOK {
		return errors.Newf(errors.UpstreamFailure, "send mail: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
