package fm

import (
	"strings"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// delimiter 是 frontmatter 块的定界行。
const delimiter = "---"

// Assemble 按 Schema.Order 走一遍字段规则表，拼出完整的 frontmatter 块。
//
// 约束：
// - Order 为空时回退默认顺序（老配置迁移场景）
// - 未知标识符静默跳过
// - 严格顺序：poster 的 resolver（可能触发下载）返回之前不会生成后续字段，
//   输出行序永远等于字段序，与哪一步耗时无关
// - 输出不带结尾换行；落盘时由调用方决定文件收尾
func Assemble(rec domain.MovieRecord, s Schema, resolve PosterResolver) string {
	order := s.Order
	if len(order) == 0 {
		order = DefaultOrder()
	}

	lines := make([]string, 0, len(order)+2)
	lines = append(lines, delimiter)
	for _, id := range order {
		lines = append(lines, generate(id, rec, s, resolve)...)
	}
	lines = append(lines, delimiter)

	return strings.Join(lines, "\n")
}
