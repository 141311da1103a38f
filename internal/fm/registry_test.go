package fm

import (
	"reflect"
	"testing"

	"github.com/John-Robertt/jellynote/internal/domain"
)

func TestGenerate_TitleKeepsQuotes(t *testing.T) {
	// title 只替换冒号；引号原样保留（与其他标量字段的契约不同）。
	rec := domain.MovieRecord{Name: `The "Great": Escape`}
	got := generate(FieldTitle, rec, DefaultSchema(), nil)
	want := []string{`Title: The "Great" — Escape`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("title 规则不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_PlotQuotedKeepsColons(t *testing.T) {
	// plot 只替换双引号；值整体包双引号，冒号不用转义。
	rec := domain.MovieRecord{Name: "X", Overview: `He said: "run"`}
	got := generate(FieldPlot, rec, DefaultSchema(), nil)
	want := []string{`Overview: "He said: 'run'"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("plot 规则不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_ToggleOffOmitsLine(t *testing.T) {
	rec := domain.MovieRecord{Name: "X", CommunityRating: float64(9.9)}
	s := DefaultSchema()
	s.Include = map[string]bool{FieldRatingCommunity: false}

	if got := generate(FieldRatingCommunity, rec, s, nil); got != nil {
		t.Fatalf("toggle 关闭时不应输出：%v", got)
	}
}

func TestGenerate_RatingAbsentOmitsLine(t *testing.T) {
	rec := domain.MovieRecord{Name: "X", CommunityRating: "not a number"}
	if got := generate(FieldRatingCommunity, rec, DefaultSchema(), nil); got != nil {
		t.Fatalf("畸形评分应整行省略：%v", got)
	}
}

func TestGenerate_ParentalRatingOnlyWhenPresent(t *testing.T) {
	if got := generate(FieldRatingParental, domain.MovieRecord{Name: "X"}, DefaultSchema(), nil); got != nil {
		t.Fatalf("无分级时应整行省略：%v", got)
	}

	rec := domain.MovieRecord{Name: "X", OfficialRating: "PG-13"}
	got := generate(FieldRatingParental, rec, DefaultSchema(), nil)
	want := []string{"Parental Rating: PG-13"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("分级输出不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_YearISODate(t *testing.T) {
	rec := domain.MovieRecord{Name: "X", ProductionYear: float64(2024)}
	got := generate(FieldYear, rec, DefaultSchema(), nil)
	want := []string{"Year: 2024-01-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("year 规则不一致：got=%v want=%v", got, want)
	}

	if got := generate(FieldYear, domain.MovieRecord{Name: "X"}, DefaultSchema(), nil); got != nil {
		t.Fatalf("缺失年份应整行省略：%v", got)
	}
}

func TestGenerate_TagsMultiLine(t *testing.T) {
	s := DefaultSchema()
	s.TagsTemplate = "jellyfin, {{director}}"
	rec := domain.MovieRecord{
		Name:   "X",
		People: []domain.Person{{Name: "Denis Villeneuve", Type: "Director"}},
	}
	got := generate(FieldTags, rec, s, nil)
	want := []string{"tags:", "  - jellyfin", "  - denis_villeneuve"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tags 规则不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_TagsEmptyListOmitsHeader(t *testing.T) {
	s := DefaultSchema()
	s.TagsTemplate = "  "
	if got := generate(FieldTags, domain.MovieRecord{Name: "X"}, s, nil); got != nil {
		t.Fatalf("空 tag 列表不应输出 header：%v", got)
	}
}

func TestGenerate_CustomFieldEmptyValue(t *testing.T) {
	s := DefaultSchema()
	s.CustomFields = []string{"My Rating"}
	got := generate("My Rating", domain.MovieRecord{Name: "X"}, s, nil)
	want := []string{"My Rating: "}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("自定义字段规则不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_CustomShadowedByBuiltin(t *testing.T) {
	// 自定义字段与内置标识符重名：内置规则胜出（不输出空值行）。
	s := DefaultSchema()
	s.CustomFields = []string{FieldWatched}
	got := generate(FieldWatched, domain.MovieRecord{Name: "X"}, s, nil)
	want := []string{"Watched: false"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("内置规则应覆盖同名自定义字段：got=%v want=%v", got, want)
	}
}

func TestGenerate_UnknownIdentifierSkipped(t *testing.T) {
	if got := generate("no_such_field", domain.MovieRecord{Name: "X"}, DefaultSchema(), nil); got != nil {
		t.Fatalf("未知标识符应静默跳过：%v", got)
	}
}

func TestGenerate_PosterURLVsLocalLink(t *testing.T) {
	rec := domain.MovieRecord{Name: "X"}

	got := generate(FieldPoster, rec, DefaultSchema(), func() PosterRef {
		return PosterRef{URL: "http://jf.example/Items/1/Images/Primary"}
	})
	want := []string{"Poster: http://jf.example/Items/1/Images/Primary"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("远端 poster 输出不一致：got=%v want=%v", got, want)
	}

	got = generate(FieldPoster, rec, DefaultSchema(), func() PosterRef {
		return PosterRef{URL: "http://x", LocalPath: "Assets/Posters/X.jpg"}
	})
	want = []string{`Poster: "[[Assets/Posters/X.jpg]]"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("本地 poster 输出不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_KeyRename(t *testing.T) {
	s := DefaultSchema()
	s.Keys = map[string]string{FieldDirector: "Regisseur"}
	rec := domain.MovieRecord{
		Name:   "X",
		People: []domain.Person{{Name: "Wim Wenders", Type: "Director"}},
	}
	got := generate(FieldDirector, rec, s, nil)
	want := []string{"Regisseur: Wim Wenders"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("改名后输出不一致：got=%v want=%v", got, want)
	}
}

func TestGenerate_ProductionLocationsFilterEmpty(t *testing.T) {
	rec := domain.MovieRecord{
		Name:                "X",
		ProductionLocations: []string{"USA", "  ", "", "Canada"},
	}
	got := generate(FieldProductionLocations, rec, DefaultSchema(), nil)
	want := []string{"Production Locations: USA, Canada"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("空白地点应被过滤：got=%v want=%v", got, want)
	}
}
