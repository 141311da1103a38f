package domain

// Person 是 People 列表中的一项（导演/演员/其他）。
// Type 取值来自 catalog 原样透传，常见为 "Director" / "Actor"。
type Person struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

// MovieRecord 是 catalog 返回的完整电影元数据（只读输入）。
//
// 约束：
// - Name 保证非空；其余字段全部允许缺失，必须按“不可信输入”处理
// - CommunityRating/CriticRating/ProductionYear 是弱类型字段：
//   服务端可能给 number，也可能给 string（甚至带 "%" 后缀），
//   所以按 any 接收，由 fm 层统一归一化
type MovieRecord struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	OriginalTitle string `json:"OriginalTitle"`

	ProductionYear  any `json:"ProductionYear"`
	CommunityRating any `json:"CommunityRating"`
	CriticRating    any `json:"CriticRating"`

	OfficialRating string `json:"OfficialRating"`
	Overview       string `json:"Overview"`

	ProductionLocations []string `json:"ProductionLocations"`
	Genres              []string `json:"Genres"`
	People              []Person `json:"People"`

	ProviderIds map[string]string `json:"ProviderIds"`
	ImageTags   map[string]string `json:"ImageTags"`
}

// DirectorName 返回第一个 Type=Director 的人名；没有则返回空串。
func (m MovieRecord) DirectorName() string {
	for _, p := range m.People {
		if p.Type == "Director" {
			return p.Name
		}
	}
	return ""
}

// ActorNames 按输入顺序返回所有 Type=Actor 的人名。
func (m MovieRecord) ActorNames() []string {
	var out []string
	for _, p := range m.People {
		if p.Type == "Actor" {
			out = append(out, p.Name)
		}
	}
	return out
}
