package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAPIClient_ProxyDisablesKeepAlive(t *testing.T) {
	c, err := NewAPIClient("k", "http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if !tr.Base.DisableKeepAlives {
		t.Fatalf("期望禁用 keep-alive，但 Base.DisableKeepAlives=false")
	}
	if !tr.DisableKeepAlives {
		t.Fatalf("期望设置 Request.Close=true 的额外保险，但 DisableKeepAlives=false")
	}
}

func TestNewAPIClient_NoProxyKeepsDefault(t *testing.T) {
	c, err := NewAPIClient("k", "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if tr.Base.DisableKeepAlives {
		t.Fatalf("不期望禁用 keep-alive，但 Base.DisableKeepAlives=true")
	}
}

func TestNewAPIClient_EmptyKey(t *testing.T) {
	if _, err := NewAPIClient("  ", ""); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestNewAPIClient_InvalidProxyURL(t *testing.T) {
	_, err := NewAPIClient("k", "http://[::1")
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestTransport_InjectsToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Emby-Token")
	}))
	defer srv.Close()

	c, err := NewAPIClient("secret", "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if got != "secret" {
		t.Fatalf("期望注入令牌 secret，实际 %q", got)
	}
}

func TestTransport_DoesNotOverrideCallerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Emby-Token")
	}))
	defer srv.Close()

	c, err := NewAPIClient("secret", "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("X-Emby-Token", "caller")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if got != "caller" {
		t.Fatalf("期望保留调用方令牌 caller，实际 %q", got)
	}
}
