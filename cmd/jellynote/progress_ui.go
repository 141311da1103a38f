package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/John-Robertt/jellynote/internal/app/importer"
	"github.com/John-Robertt/jellynote/internal/domain"
)

var _ importer.Observer = (*progressUI)(nil)

// progressUI 是一个“简洁版”的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：importer 层只发事件，CLI 决定如何展示
// - 导入是顺序循环，事件串行，无需加锁
type progressUI struct {
	w io.Writer
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(vaultPath string, total int) {
	fmt.Fprintf(p.w, "[%s] jellynote import\n", time.Now().Format("15:04:05"))
	fmt.Fprintf(p.w, "  vault: %s\n", vaultPath)
	fmt.Fprintf(p.w, "  total: %d\n\n", total)
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = res.ItemID
	}

	switch res.Status {
	case domain.StatusCreated:
		note := ""
		if res.PosterPath != "" {
			note = " poster=local"
		} else if strings.TrimSpace(res.PosterNote) != "" {
			note = " poster=url (" + truncate(res.PosterNote, 90) + ")"
		}
		fmt.Fprintf(p.w, "[%d/%d] %s OK%s (%s)\n",
			idx, total, title, note, formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		fmt.Fprintf(p.w, "[%d/%d] %s SKIP (%s) (%s)\n",
			idx, total, title, truncate(res.ErrorMsg, 120), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			idx, total, title, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}
}

func (p *progressUI) OnFinish(summary domain.ReportSummary, elapsed time.Duration) {
	fmt.Fprintf(p.w, "\n完成：created=%d skipped=%d failed=%d elapsed=%s\n",
		summary.Created, summary.Skipped, summary.Failed, formatElapsed(elapsed),
	)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
