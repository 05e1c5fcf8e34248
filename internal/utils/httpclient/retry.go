package httpclient

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"BetenlaceSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultAttempts 网络错误/非 2xx 的最大尝试次数
const DefaultAttempts = 5

// RetryBackoff 两次尝试之间的等待，1–3 秒随机
var RetryBackoff = func() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}

// Response 已读完的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestBuilder 每次尝试都重新构建请求（请求体不可重复读）
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Client 带重试的请求封装，一次运行一个实例
type Client struct {
	http     *http.Client
	logger   *logrus.Logger
	attempts int
}

// NewClient attempts<=0 时使用 DefaultAttempts
func NewClient(hc *http.Client, attempts int, logger *logrus.Logger) *Client {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Client{http: hc, logger: logger, attempts: attempts}
}

// WithHTTP 复制一份使用新底层客户端（OAuth2、会话 cookie）的封装
func (c *Client) WithHTTP(hc *http.Client) *Client {
	cp := *c
	cp.http = hc
	return &cp
}

// HTTP 底层客户端
func (c *Client) HTTP() *http.Client { return c.http }

// Do 发送请求，网络错误与非 2xx 重试，耗尽后 401/403 归为认证失败，其余归为不可用
func (c *Client) Do(ctx context.Context, build RequestBuilder) (*Response, error) {
	var lastErr error
	lastStatus := 0
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("构建请求失败: %w", err)
		}

		resp, err := c.http.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				err = readErr
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
			default:
				lastStatus = resp.StatusCode
				err = fmt.Errorf("HTTP %d: %s", resp.StatusCode, Truncate(body, 200))
			}
		}
		lastErr = err

		c.logger.WithFields(logrus.Fields{
			"url":     req.URL.Redacted(),
			"attempt": attempt,
			"max":     c.attempts,
		}).WithError(err).Warn("请求失败，准备重试")

		if attempt < c.attempts {
			if err := sleep(ctx, RetryBackoff()); err != nil {
				return nil, err
			}
		}
	}

	if lastStatus == http.StatusUnauthorized || lastStatus == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUpstreamAuth, lastErr)
	}
	return nil, fmt.Errorf("%w: 重试%d次后失败: %v", interfaces.ErrUpstreamUnavailable, c.attempts, lastErr)
}

// Get 简单 GET，header 可为空
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		return req, nil
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Truncate 日志里截断响应体
func Truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
