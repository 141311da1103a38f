package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/jellynote/internal/fm"
)

const (
	// ErrCodeNotFound 表示未找到配置文件（默认位置 <cwd>/jellynote.json）。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingServer 表示配置缺少 server_url。
	ErrCodeMissingServer = "config_missing_server"
	// ErrCodeMissingVault 表示配置缺少 vault_path。
	ErrCodeMissingVault = "config_missing_vault"
)

const (
	// DefaultFileName 是配置文件的固定文件名。
	DefaultFileName = "jellynote.json"
	// DefaultOutputFolder 是笔记输出目录（vault 相对路径）的默认值。
	DefaultOutputFolder = "Jellyfin Movies"
	// DefaultPosterFolder 是海报存放目录（vault 相对路径）的默认值。
	DefaultPosterFolder = "Assets/Posters"
	// DefaultTagsTemplate 是 tag 模板的默认值。
	DefaultTagsTemplate = "jellyfin, movie"
)

// CLIArgs 只包含 CLI 暴露的入口（配置文件位置与 vault 覆盖）。
type CLIArgs struct {
	ConfigPath string // --config；空则用 <cwd>/jellynote.json
	VaultPath  string // --vault；覆盖配置文件中的 vault_path
}

// FileConfig 对应 jellynote.json 的解析结构。
//
// 指针字段用于区分“未配置”与“显式 false/空”：
// 例如 download_poster 缺省 false，但 include 里缺省是 true。
type FileConfig struct {
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key"`
	UserID    string `json:"user_id"`

	VaultPath    string `json:"vault_path"`
	OutputFolder string `json:"output_folder"`

	DownloadPoster *bool  `json:"download_poster"`
	PosterFolder   string `json:"poster_folder"`

	TagsTemplate     *string           `json:"tags_template"`
	Include          map[string]bool   `json:"include"`
	Keys             map[string]string `json:"keys"`
	FrontmatterOrder []string          `json:"frontmatter_order"`
	CustomFields     []string          `json:"custom_fields"`

	Proxy *ProxyConfig `json:"proxy"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
// 实现层直接消费，不再做二次默认/优先级判断。
type EffectiveConfig struct {
	ServerURL string
	APIKey    string
	UserID    string

	VaultPath    string // clean + absolute
	OutputFolder string // vault 相对路径（无首尾斜杠）
	PosterFolder string

	DownloadPoster bool
	ProxyURL       string

	// Schema 是传给合成引擎的不可变字段方案快照。
	Schema fm.Schema
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingServer:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 server_url", e.Code, e.Path)
	case ErrCodeMissingVault:
		return fmt.Sprintf("%s：配置文件 %q 缺少 vault_path（也未通过 --vault 指定）", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：读取该文件（必须存在）
// 2) 否则：读取 <cwd>/jellynote.json（必须存在）
//
// 覆盖优先级（固定）：
// - vault_path：CLI --vault > config vault_path
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := strings.TrimSpace(cli.ConfigPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(cwdAbs, DefaultFileName)
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Clean(filepath.Join(cwdAbs, cfgPath))
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	return merge(cwdAbs, cfgPath, cli, fc)
}

func merge(cwdAbs, cfgPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	serverURL := strings.TrimRight(strings.TrimSpace(fc.ServerURL), "/")
	if serverURL == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingServer, Path: cfgPath}
	}
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("server_url 无效：%q", fc.ServerURL)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("server_url 必须是 http/https：%q", fc.ServerURL)}
	}

	if strings.TrimSpace(fc.APIKey) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("api_key 不能为空")}
	}
	if strings.TrimSpace(fc.UserID) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("user_id 不能为空")}
	}

	// vault_path：CLI > config。
	vaultPath := strings.TrimSpace(cli.VaultPath)
	if vaultPath == "" {
		vaultPath = strings.TrimSpace(fc.VaultPath)
	}
	if vaultPath == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingVault, Path: cfgPath}
	}
	vaultPath = absCleanFrom(cwdAbs, vaultPath)

	outputFolder := cleanRel(fc.OutputFolder)
	if outputFolder == "" {
		outputFolder = DefaultOutputFolder
	}
	posterFolder := cleanRel(fc.PosterFolder)
	if posterFolder == "" {
		posterFolder = DefaultPosterFolder
	}

	downloadPoster := false
	if fc.DownloadPoster != nil {
		downloadPoster = *fc.DownloadPoster
	}

	tagsTemplate := DefaultTagsTemplate
	if fc.TagsTemplate != nil {
		tagsTemplate = *fc.TagsTemplate
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
	}

	schema, err := buildSchema(fc, tagsTemplate, downloadPoster)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return EffectiveConfig{
		ServerURL:      serverURL,
		APIKey:         strings.TrimSpace(fc.APIKey),
		UserID:         strings.TrimSpace(fc.UserID),
		VaultPath:      vaultPath,
		OutputFolder:   outputFolder,
		PosterFolder:   posterFolder,
		DownloadPoster: downloadPoster,
		ProxyURL:       proxyURL,
		Schema:         schema,
	}, nil
}

// buildSchema 把文件配置收敛为不可变字段方案。
//
// 不变量（必须维持）：
// - custom_fields 与 frontmatter_order 同步：自定义字段若不在 order 里，
//   追加到末尾（与“添加自定义字段即同时追加到两个列表”的约定一致）
// - order 去重，保留首次出现位置
// - order 里的未知标识符保留不动——合成时按契约静默跳过（容忍过期配置）
func buildSchema(fc FileConfig, tagsTemplate string, downloadPoster bool) (fm.Schema, error) {
	custom := make([]string, 0, len(fc.CustomFields))
	for _, c := range fc.CustomFields {
		c = strings.TrimSpace(c)
		if c == "" {
			return fm.Schema{}, fmt.Errorf("custom_fields 含空字段名")
		}
		custom = append(custom, c)
	}

	order := fc.FrontmatterOrder
	if len(order) == 0 {
		order = fm.DefaultOrder()
	}
	order = dedupe(order)

	for _, c := range custom {
		if !contains(order, c) {
			order = append(order, c)
		}
	}

	var keys map[string]string
	if len(fc.Keys) > 0 {
		keys = make(map[string]string, len(fc.Keys))
		for id, k := range fc.Keys {
			k = strings.TrimSpace(k)
			if k == "" {
				return fm.Schema{}, fmt.Errorf("keys[%q] 不能为空（删除该项即回退默认显示名）", id)
			}
			keys[id] = k
		}
	}

	var include map[string]bool
	if len(fc.Include) > 0 {
		include = make(map[string]bool, len(fc.Include))
		for id, v := range fc.Include {
			include[id] = v
		}
	}

	return fm.Schema{
		Order:          order,
		CustomFields:   custom,
		Include:        include,
		Keys:           keys,
		TagsTemplate:   tagsTemplate,
		DownloadPoster: downloadPoster,
	}, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// cleanRel 规范化 vault 相对目录：去首尾空白与斜杠；"." 与空串等价。
func cleanRel(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "." {
		return ""
	}
	return p
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误，由调用方决定语义）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
