package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2
)

// 令牌请求头。Jellyfin 同时接受 Authorization 方案，但此头最简单稳定。
const tokenHeader = "X-Emby-Token"

// Transport 把“令牌注入 + 代理 + keep-alive 策略 + 有界重试”固化为统一策略。
//
// 设计目标：catalog 只负责“拼 URL + 解析 JSON”，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	// Token 非空时对每个请求注入 X-Emby-Token（不覆盖调用方已设置的值）。
	Token string

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 {
		max = 0
	}
	if !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := cloneRequest(req)
		if t.Token != "" && r.Header.Get(tokenHeader) == "" {
			r.Header.Set(tokenHeader, t.Token)
		}
		if t.DisableKeepAlives {
			// 额外保险：即使上层误用了其它 Transport，也尽量不复用连接。
			r.Close = true
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误（更可解释）。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func cloneRequest(req *http.Request) *http.Request {
	// Clone 会复制 Header 等，避免在 RoundTripper 内部“污染”调用方的 request。
	return req.Clone(req.Context())
}

// NewAPIClient 构造访问 Jellyfin REST API 的 HTTP client。
//
// 规则：
// - 每个请求注入 X-Emby-Token
// - proxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 有界重试 + 总超时
func NewAPIClient(apiKey, proxyURL string) (*http.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("api_key 为空")
	}
	return newClient(apiKey, strings.TrimSpace(proxyURL))
}

// NewImageClient 构造用于海报下载的 HTTP client。
//
// 图片接口同样要求令牌；代理规则与 API client 一致。
func NewImageClient(apiKey, proxyURL string) (*http.Client, error) {
	return NewAPIClient(apiKey, proxyURL)
}

func newClient(apiKey, proxyURL string) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	tr := &Transport{
		Base:              base,
		Token:             strings.TrimSpace(apiKey),
		RetryMax:          defaultRetryMax,
		DisableKeepAlives: disableKeepAlives,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   defaultTimeout,
	}, nil
}
