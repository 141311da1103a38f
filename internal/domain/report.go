package domain

import (
	"sort"
	"time"
)

const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

const (
	ErrCodeFetchFailed         = "fetch_failed"
	ErrCodeWriteConflict       = "write_conflict"
	ErrCodeTargetConflict      = "target_conflict"
	ErrCodeIOFailed            = "io_failed"
	ErrCodeConfigNotFound      = "config_not_found"
	ErrCodeConfigInvalid       = "config_invalid"
	ErrCodeConfigMissingServer = "config_missing_server"
	ErrCodeConfigMissingVault  = "config_missing_vault"
)

// ImportReport 是一次批量导入对外稳定输出（stdout JSON）的结构。
type ImportReport struct {
	Vault string `json:"vault"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ItemResult 是单部电影的导入结果。
//
// 约束：
// - 单条失败不影响其他条目（批量循环继续）
// - poster 降级（下载失败回退远端 URL）不改变状态，只记录 PosterNote
type ItemResult struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	NotePath   string `json:"note_path"`
	PosterPath string `json:"poster_path"`
	PosterNote string `json:"poster_note"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 title 字典序，再按 item_id；title=="" 的条目排在最后
// 3) summary 由 items 计算得出
func (r *ImportReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.Title == "" && b.Title == "" {
			return false
		}
		if a.Title == "" {
			return false
		}
		if b.Title == "" {
			return true
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ItemID < b.ItemID
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusCreated:
			s.Created++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}
