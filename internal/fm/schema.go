package fm

// 内置字段标识符（封闭集合；用户自定义字段在此之外）。
// 标识符是稳定的内部 key，与用户可改名的“显示名”无关。
const (
	FieldTitle               = "title"
	FieldOriginalTitle       = "original_title"
	FieldGenre               = "genre"
	FieldDirector            = "director"
	FieldCast                = "cast"
	FieldProductionLocations = "production_locations"
	FieldRatingCommunity     = "rating_community"
	FieldRatingCritic        = "rating_critic"
	FieldRatingParental      = "rating_parental"
	FieldTags                = "tags"
	FieldPlot                = "plot"
	FieldYear                = "year"
	FieldTmdbID              = "tmdb_id"
	FieldWatched             = "watched"
	FieldPoster              = "poster"
)

// DefaultOrder 返回内置字段的默认输出顺序（副本，调用方可随意改）。
func DefaultOrder() []string {
	return []string{
		FieldTitle, FieldOriginalTitle, FieldGenre, FieldDirector, FieldCast,
		FieldProductionLocations, FieldRatingCommunity, FieldRatingCritic,
		FieldRatingParental, FieldTags, FieldPlot, FieldYear, FieldTmdbID,
		FieldWatched, FieldPoster,
	}
}

// defaultKeys 是各字段的默认显示名。
var defaultKeys = map[string]string{
	FieldTitle:               "Title",
	FieldOriginalTitle:       "Original Title",
	FieldGenre:               "Genre",
	FieldDirector:            "Director",
	FieldCast:                "Cast",
	FieldProductionLocations: "Production Locations",
	FieldRatingCommunity:     "Community Rating",
	FieldRatingCritic:        "Critic Rating",
	FieldRatingParental:      "Parental Rating",
	FieldPlot:                "Overview",
	FieldYear:                "Year",
	FieldTmdbID:              "TmdbId",
	FieldWatched:             "Watched",
	FieldPoster:              "Poster",
}

// Schema 是合成一次 frontmatter 所需的完整字段方案。
//
// 约束：
// - 这是调用时传入的不可变快照；合成过程中绝不回读任何“活”配置
// - Order 是输出顺序的唯一事实来源；规则表本身无序，只做查找
// - Include/Keys 允许只给增量：缺省回退到内置默认值
type Schema struct {
	Order        []string
	CustomFields []string

	Include map[string]bool
	Keys    map[string]string

	TagsTemplate   string
	DownloadPoster bool
}

// DefaultSchema 返回与出厂设置一致的方案（全部字段开启、默认顺序、默认 tag 模板）。
func DefaultSchema() Schema {
	return Schema{
		Order:        DefaultOrder(),
		TagsTemplate: "jellyfin, movie",
	}
}

// include 查询字段开关；未显式配置的字段默认开启。
func (s Schema) include(id string) bool {
	if s.Include == nil {
		return true
	}
	v, ok := s.Include[id]
	if !ok {
		return true
	}
	return v
}

// key 查询字段显示名；未显式配置时回退默认值，再回退标识符本身。
func (s Schema) key(id string) string {
	if v, ok := s.Keys[id]; ok && v != "" {
		return v
	}
	if v, ok := defaultKeys[id]; ok {
		return v
	}
	return id
}

// isCustom 判断 id 是否在用户自定义字段集合内。
func (s Schema) isCustom(id string) bool {
	for _, c := range s.CustomFields {
		if c == id {
			return true
		}
	}
	return false
}
