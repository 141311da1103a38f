package domain

// 浏览条目的常见 Type 取值（catalog 原样透传，非封闭枚举）。
const (
	ItemTypeMovie      = "Movie"
	ItemTypeCollection = "Collection"
	ItemTypeUserView   = "UserView"
)

// Item 是浏览阶段的轻量条目（库视图/文件夹/电影）。
// 浏览阶段只取最小字段；完整元数据在建笔记时再按需拉取（减少请求量）。
type Item struct {
	ID       string `json:"Id"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	IsFolder bool   `json:"IsFolder"`

	// ProductionYear 仅用于浏览列表展示；弱类型，展示层自行转字符串。
	ProductionYear any `json:"ProductionYear"`
}

// IsContainer 判断该条目是否应展开为子条目（文件夹/合集/库视图）。
func (it Item) IsContainer() bool {
	return it.IsFolder || it.Type == ItemTypeCollection || it.Type == ItemTypeUserView
}
