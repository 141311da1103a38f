package fm

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// PosterRef 是 poster 字段的取值：远端 URL，或已经落到 vault 里的相对路径。
// LocalPath 非空时输出 wiki 链接形式，否则输出裸 URL。
type PosterRef struct {
	URL       string
	LocalPath string
}

// PosterResolver 在合成过程中按需解析 poster 取值（开启下载时会真的去下载）。
// 合成是严格顺序的：resolver 返回之前，poster 之后的字段不会被生成。
type PosterResolver func() PosterRef

// rule 为一个字段生成零或多行输出。nil/空切片表示整段省略。
type rule func(rec domain.MovieRecord, s Schema, resolve PosterResolver) []string

// rules 是内置字段的规则表。
//
// 查表只做 O(1) 分发，迭代顺序永远由 Schema.Order 决定，绝不依赖 map 顺序。
//
// 每个字段的转义策略是固定契约，刻意不统一：
// - title：只替换冒号（标题里的引号原样保留，阅读体验更好）
// - plot：只替换双引号（值整体再包一层双引号，冒号在引号内是安全的）
// - 其余标量：SanitizeInline 全量转义（裸嵌入 `key: value` 行）
var rules = map[string]rule{
	FieldTitle: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		return line(s.key(FieldTitle), strings.ReplaceAll(rec.Name, ":", " —"))
	},

	FieldOriginalTitle: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldOriginalTitle) {
			return nil
		}
		return line(s.key(FieldOriginalTitle), SanitizeInline(rec.OriginalTitle))
	},

	FieldGenre: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldGenre) {
			return nil
		}
		clean := make([]string, 0, len(rec.Genres))
		for _, g := range rec.Genres {
			clean = append(clean, SanitizeInline(g))
		}
		return line(s.key(FieldGenre), strings.Join(clean, ", "))
	},

	FieldDirector: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldDirector) {
			return nil
		}
		return line(s.key(FieldDirector), SanitizeInline(joinPeople(rec.People, "Director")))
	},

	FieldCast: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldCast) {
			return nil
		}
		return line(s.key(FieldCast), SanitizeInline(joinPeople(rec.People, "Actor")))
	},

	FieldProductionLocations: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldProductionLocations) {
			return nil
		}
		locs := make([]string, 0, len(rec.ProductionLocations))
		for _, l := range rec.ProductionLocations {
			if strings.TrimSpace(l) == "" {
				continue
			}
			locs = append(locs, l)
		}
		return line(s.key(FieldProductionLocations), SanitizeInline(strings.Join(locs, ", ")))
	},

	FieldRatingCommunity: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldRatingCommunity) {
			return nil
		}
		v, ok := NormalizeRating(rec.CommunityRating)
		if !ok {
			return nil
		}
		return line(s.key(FieldRatingCommunity), FormatRating(v))
	},

	FieldRatingCritic: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldRatingCritic) {
			return nil
		}
		v, ok := NormalizeRating(rec.CriticRating)
		if !ok {
			return nil
		}
		return line(s.key(FieldRatingCritic), FormatRating(v))
	},

	FieldRatingParental: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		// 无 toggle：记录里有分级就输出，没有就整行省略。
		if rec.OfficialRating == "" {
			return nil
		}
		return line(s.key(FieldRatingParental), SanitizeInline(rec.OfficialRating))
	},

	FieldTags: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldTags) {
			return nil
		}
		tags := SynthesizeTags(s.TagsTemplate, TagContextFrom(rec))
		if len(tags) == 0 {
			return nil
		}
		out := make([]string, 0, len(tags)+1)
		out = append(out, "tags:")
		for _, t := range tags {
			out = append(out, "  - "+t)
		}
		return out
	},

	FieldPlot: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldPlot) {
			return nil
		}
		clean := strings.ReplaceAll(rec.Overview, `"`, "'")
		return line(s.key(FieldPlot), `"`+clean+`"`)
	},

	FieldYear: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldYear) {
			return nil
		}
		y, ok := parseIntPrefix(cast.ToString(rec.ProductionYear))
		if !ok {
			return nil
		}
		return line(s.key(FieldYear), fmt.Sprintf("%d-01-01", y))
	},

	FieldTmdbID: func(rec domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldTmdbID) {
			return nil
		}
		// 外部 provider id 原样输出（允许为空值；不做任何转义）。
		return line(s.key(FieldTmdbID), rec.ProviderIds["Tmdb"])
	},

	FieldWatched: func(_ domain.MovieRecord, s Schema, _ PosterResolver) []string {
		if !s.include(FieldWatched) {
			return nil
		}
		return line(s.key(FieldWatched), "false")
	},

	FieldPoster: func(_ domain.MovieRecord, s Schema, resolve PosterResolver) []string {
		if !s.include(FieldPoster) || resolve == nil {
			return nil
		}
		ref := resolve()
		if ref.LocalPath != "" {
			return line(s.key(FieldPoster), `"[[`+ref.LocalPath+`]]"`)
		}
		if ref.URL != "" {
			return line(s.key(FieldPoster), ref.URL)
		}
		return nil
	},
}

// generate 为一个字段标识符分发规则。
//
// 分发顺序：内置规则 > 自定义字段（输出空值行）> 静默跳过。
// 自定义字段与内置标识符重名时内置规则胜出；两边都查不到的标识符
// 是“过期配置”，按契约静默跳过，不报错。
func generate(id string, rec domain.MovieRecord, s Schema, resolve PosterResolver) []string {
	if r, ok := rules[id]; ok {
		return r(rec, s, resolve)
	}
	if s.isCustom(id) {
		return []string{id + ": "}
	}
	return nil
}

func line(key, value string) []string {
	return []string{key + ": " + value}
}

func joinPeople(people []domain.Person, typ string) string {
	var names []string
	for _, p := range people {
		if p.Type == typ {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}
