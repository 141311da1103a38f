// Package fm 实现 frontmatter 合成引擎：
// 把 catalog 返回的弱类型电影记录，按用户配置的字段方案（开关/改名/排序/自定义字段），
// 确定性地合成为一个 YAML frontmatter 块。
//
// 约束：
// - 全部逻辑必须是纯函数：相同输入 => 相同字节输出
// - 输入一律按“不可信”处理：畸形值降级为“缺失”，绝不向上抛错
package fm

import (
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// SanitizeInline 把任意文本变为可安全嵌入 `key: value` 行的标量值：
// - 冒号替换为“空格 + 破折号”（避免被解析成新的 key）
// - 双引号替换为单引号（避免截断引号包裹的值）
//
// 注意：这是“标量值”的转义策略；tag 用 Slugify（两者契约不同，不要合并）。
func SanitizeInline(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, ":", " —")
	return strings.ReplaceAll(text, `"`, "'")
}

// Slugify 把任意文本变为 tag 标识符：
// 全小写、空白压缩为单个下划线、删除 `# , . [ ] : ; " '`。
// 其余字符（包括非 ASCII 字母/数字）原样保留。
// 空或纯空白输入返回空串。
func Slugify(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = whitespaceRE.ReplaceAllString(s, "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '#', ',', '.', '[', ']', ':', ';', '"', '\'':
			return -1
		}
		return r
	}, s)
}
