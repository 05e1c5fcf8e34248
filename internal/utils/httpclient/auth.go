package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"BetenlaceSync/internal/interfaces"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// WithQuery 在 URL 上追加查询参数（API key 走 query 的博彩商）
func WithQuery(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OAuth2Client client-credentials 授权的客户端，token 只在本次运行内有效
func OAuth2Client(ctx context.Context, base *http.Client, tokenURL, clientID, clientSecret string, scopes ...string) (*http.Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: 缺少 client_id/client_secret", interfaces.ErrCampaignMisconfigured)
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// token 请求与业务请求共用代理/超时配置
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取OAuth2 token失败: %v", interfaces.ErrUpstreamAuth, err)
	}
	hc := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, cc.TokenSource(ctx)))
	hc.Timeout = base.Timeout
	return hc, nil
}

// SessionLogin 用户名密码登录，返回携带会话 cookie 的新客户端
func SessionLogin(ctx context.Context, c *Client, login RequestBuilder) (*Client, *Response, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}
	base := c.HTTP()
	hc := &http.Client{Transport: base.Transport, Timeout: base.Timeout, Jar: jar}
	session := c.WithHTTP(hc)

	resp, err := session.Do(ctx, login)
	if err != nil {
		return nil, nil, fmt.Errorf("会话登录失败: %w", err)
	}
	req, err := login(ctx)
	if err == nil && len(jar.Cookies(req.URL)) == 0 {
		return nil, nil, fmt.Errorf("%w: 登录成功但未返回会话cookie", interfaces.ErrUpstreamAuth)
	}
	return session, resp, nil
}
