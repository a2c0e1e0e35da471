package objectiveed

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kamari/service/config"
	"github.com/kamari/service/errors"
	"github.com/kamari/service/metrics"
)

// HeaderAccessToken 外部接口认证请求头
const HeaderAccessToken = "Access-Token"

// Methods 允许转发的方法
var Methods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"delete": http.MethodDelete,
}

// Client forwards calls to the game-services board API.
type Client interface {
	Do(ctx context.Context, method, resource string, body []byte) ([]byte, error)
}

type client struct {
	cli *resty.Client
}

// NewClient 创建外部接口客户端
func NewClient(cfg config.Objectiveed) Client {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader(HeaderAccessToken, cfg.Token).
		SetTimeout(cfg.RequestTimeout())
	return &client{cli: cli}
}

// Do issues method (one of the lowercase Methods keys) against resource and
// returns the raw response payload.
func (p *client) Do(ctx context.Context, method, resource string, body []byte) ([]byte, error) {
	m, ok := Methods[strings.ToLower(method)]
	if !ok {
		return nil, errors.Newf(errors.ValidationFailed, "unsupported method %q", method)
	}
	if resource == "" {
		return nil, errors.New(errors.ValidationFailed, "resource is required")
	}

	req := p.cli.R().SetContext(ctx)
	if len(body) > 0 && m != http.MethodGet {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	start := time.Now()
	resp, err := req.Execute(m, "/"+url.PathEscape(resource))
	if err != nil {
		metrics.RecordProxyCall(m, 0, time.Since(start))
		return nil, errors.Wrap(errors.UpstreamFailure, err, "game services request failed")
	}
	metrics.RecordProxyCall(m, resp.StatusCode(), time.Since(start))
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, errors.Newf(errors.UpstreamFailure, "game services responded %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
