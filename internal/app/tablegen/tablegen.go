// Package tablegen 生成媒体库目录结构的 Markdown 速览表。
// 纯函数；抓取由 CLI 侧完成。
package tablegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// 每行展示的条目列数。超出的子条目折叠进最后一列。
const columns = 4

// Row 是表格的一行：名称列 + 条目列（Build 负责补齐到固定列数）。
type Row struct {
	Name  string
	Cells []string
}

// ChildLister 是 tablegen 消费的最小 catalog 接口。
type ChildLister interface {
	Children(ctx context.Context, parentID string) ([]domain.Item, error)
}

// RowsFromChildren 把 parentID 的直接子条目转换为表格行：
// 容器一行展示其头几个子条目名；电影一行标注 (Movie)。
func RowsFromChildren(ctx context.Context, lister ChildLister, parentID string) ([]Row, error) {
	children, err := lister.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(children))
	for _, c := range children {
		if !c.IsContainer() {
			rows = append(rows, Row{Name: c.Name, Cells: []string{"(Movie)"}})
			continue
		}

		sub, err := lister.Children(ctx, c.ID)
		if err != nil {
			// 单个容器拉取失败不放弃整表：行内标注即可。
			rows = append(rows, Row{Name: c.Name, Cells: []string{fmt.Sprintf("(获取失败：%v)", err)}})
			continue
		}

		cells := make([]string, 0, columns)
		for i, s := range sub {
			if i == columns-1 && len(sub) > columns {
				cells = append(cells, fmt.Sprintf("…(共 %d 项)", len(sub)))
				break
			}
			cells = append(cells, s.Name)
		}
		rows = append(rows, Row{Name: c.Name, Cells: cells})
	}
	return rows, nil
}

// Build 渲染 Markdown 表格。名称列加粗；条目列补齐到固定列数。
func Build(rows []Row) string {
	var b strings.Builder

	b.WriteString("| **Name** |")
	for i := 1; i <= columns; i++ {
		fmt.Fprintf(&b, " Item %d |", i)
	}
	b.WriteString("\n|")
	for i := 0; i <= columns; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, r := range rows {
		fmt.Fprintf(&b, "| **%s** |", escapeCell(r.Name))
		for i := 0; i < columns; i++ {
			cell := ""
			if i < len(r.Cells) {
				cell = escapeCell(r.Cells[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// escapeCell 转义会破坏表格结构的字符。
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
