package fm

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// tag 模板支持的占位符（封闭集合；其余部分一律按字面 tag 处理）。
const (
	placeholderDirector = "{{director}}"
	placeholderTitle    = "{{title}}"
	placeholderYear     = "{{year}}"
	placeholderGenre    = "{{genre}}"
	placeholderActors   = "{{actors}}"
)

// TagContext 是 tag 展开所需的每部电影上下文。
// 标量字段允许为空串（表示缺失）。
type TagContext struct {
	Director string
	Title    string
	Year     string

	Genres []string
	Actors []string
}

// TagContextFrom 从电影记录提取 tag 上下文。
func TagContextFrom(rec domain.MovieRecord) TagContext {
	return TagContext{
		Director: rec.DirectorName(),
		Title:    rec.Name,
		Year:     cast.ToString(rec.ProductionYear),
		Genres:   rec.Genres,
		Actors:   rec.ActorNames(),
	}
}

// SynthesizeTags 把逗号分隔的模板展开为去重后的 slug tag 列表。
//
// 规则：
// - 按逗号切分、去首尾空白、丢弃空片段
// - 标量占位符（director/title/year）：值缺失则不产出；否则产出一个 slug
// - 数组占位符（genre/actors）：每个元素产出一个 slug，保持数组顺序
// - 其余片段按字面 tag 处理，同样 slug 化
// - 展开后去重，保留首次出现顺序
func SynthesizeTags(template string, c TagContext) []string {
	out := make([]string, 0, 8)

	for _, part := range strings.Split(template, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		switch part {
		case placeholderDirector:
			out = appendTag(out, c.Director)
		case placeholderTitle:
			out = appendTag(out, c.Title)
		case placeholderYear:
			out = appendTag(out, c.Year)
		case placeholderGenre:
			for _, g := range c.Genres {
				out = appendTag(out, g)
			}
		case placeholderActors:
			for _, a := range c.Actors {
				out = appendTag(out, a)
			}
		default:
			out = appendTag(out, part)
		}
	}

	return dedupe(out)
}

func appendTag(out []string, raw string) []string {
	if s := Slugify(raw); s != "" {
		return append(out, s)
	}
	return out
}

// dedupe 去重并保留首次出现顺序。
func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
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
