// Package catalog 封装对 Jellyfin REST API 的只读访问：
// 服务器探活、库视图、子条目分页浏览与单条目完整元数据。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// 响应体上限。元数据 JSON 远小于该值；防御异常服务端。
const maxBodyBytes = 8 << 20

// 海报字节上限。
const maxImageBytes = 32 << 20

// 浏览子条目时请求的附加字段（保持最小集合）。
const childFields = "ProductionYear"

// 建笔记时请求的完整字段集合。
const detailFields = "People,Genres,ProductionLocations,CommunityRating,CriticRating,Overview,OfficialRating,ProviderIds,ImageTags"

// StatusError 表示服务器返回了非 2xx 的 HTTP 状态码。
// 上层可据此生成更可操作的 error_msg（401 基本都是 api_key 问题）。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("HTTP 401（api_key 无效或已过期）：%s", e.URL)
	}
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// Client 是单个 Jellyfin 服务器的只读客户端。
// 凭据注入在 httpx.Transport 层完成；这里只负责拼 URL 与解析 JSON。
type Client struct {
	BaseURL string
	UserID  string

	HTTP *http.Client
	Log  zerolog.Logger
}

func New(baseURL, userID string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		UserID:  strings.TrimSpace(userID),
		HTTP:    httpClient,
		Log:     log,
	}
}

// SystemInfo 是 /System/Info 响应中我们关心的子集。
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

type itemsResponse struct {
	Items            []domain.Item `json:"Items"`
	TotalRecordCount int           `json:"TotalRecordCount"`
}

// Ping 探活并返回服务器信息（也顺带校验 api_key）。
func (c *Client) Ping(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := c.getJSON(ctx, c.BaseURL+"/System/Info", &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// Views 返回当前用户可见的库视图（电影库、合集库等顶层入口）。
func (c *Client) Views(ctx context.Context) ([]domain.Item, error) {
	u := fmt.Sprintf("%s/Users/%s/Views", c.BaseURL, url.PathEscape(c.UserID))
	var resp itemsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Children 返回 parentID 下的直接子条目（电影/文件夹/合集）。
func (c *Client) Children(ctx context.Context, parentID string) ([]domain.Item, error) {
	q := url.Values{}
	q.Set("ParentId", parentID)
	q.Set("Fields", childFields)
	u := fmt.Sprintf("%s/Users/%s/Items?%s", c.BaseURL, url.PathEscape(c.UserID), q.Encode())

	var resp itemsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Details 返回单个条目的完整电影元数据。
func (c *Client) Details(ctx context.Context, itemID string) (domain.MovieRecord, error) {
	q := url.Values{}
	q.Set("Fields", detailFields)
	u := fmt.Sprintf("%s/Users/%s/Items/%s?%s",
		c.BaseURL, url.PathEscape(c.UserID), url.PathEscape(itemID), q.Encode())

	var rec domain.MovieRecord
	if err := c.getJSON(ctx, u, &rec); err != nil {
		return domain.MovieRecord{}, err
	}
	if strings.TrimSpace(rec.Name) == "" {
		return domain.MovieRecord{}, fmt.Errorf("条目 %s 缺少 Name", itemID)
	}
	return rec, nil
}

// ImageURL 返回条目主图（海报）的下载地址。
func (c *Client) ImageURL(itemID string) string {
	return c.BaseURL + "/Items/" + url.PathEscape(itemID) + "/Images/Primary"
}

// FetchImage 下载条目主图的原始字节。
func (c *Client) FetchImage(ctx context.Context, itemID string) ([]byte, error) {
	u := c.ImageURL(itemID)
	c.Log.Debug().Str("url", u).Msg("下载主图")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	c.Log.Debug().Str("url", u).Msg("请求 API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("响应 JSON 解析失败（%s）：%w", u, err)
	}
	return nil
}
