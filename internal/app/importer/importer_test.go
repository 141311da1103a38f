package importer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/jellynote/internal/config"
	"github.com/John-Robertt/jellynote/internal/domain"
	"github.com/John-Robertt/jellynote/internal/fm"
)

// fakeCatalog 是测试用的内存 catalog：按 ID 返回预置数据并记录调用次数。
type fakeCatalog struct {
	children map[string][]domain.Item
	details  map[string]domain.MovieRecord
	image    []byte

	detailsErr map[string]error
	imageErr   error

	fetchImageCalls int
}

func (f *fakeCatalog) Children(_ context.Context, parentID string) ([]domain.Item, error) {
	items, ok := f.children[parentID]
	if !ok {
		return nil, fmt.Errorf("unknown parent %q", parentID)
	}
	return items, nil
}

func (f *fakeCatalog) Details(_ context.Context, itemID string) (domain.MovieRecord, error) {
	if err := f.detailsErr[itemID]; err != nil {
		return domain.MovieRecord{}, err
	}
	rec, ok := f.details[itemID]
	if !ok {
		return domain.MovieRecord{}, fmt.Errorf("unknown item %q", itemID)
	}
	return rec, nil
}

func (f *fakeCatalog) ImageURL(itemID string) string {
	return "http://jf.example/Items/" + itemID + "/Images/Primary"
}

func (f *fakeCatalog) FetchImage(_ context.Context, _ string) ([]byte, error) {
	f.fetchImageCalls++
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return f.image, nil
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func testEff(t *testing.T, downloadPoster bool) config.EffectiveConfig {
	t.Helper()
	sc := fm.DefaultSchema()
	sc.DownloadPoster = downloadPoster
	return config.EffectiveConfig{
		ServerURL:      "http://jf.example",
		VaultPath:      t.TempDir(),
		OutputFolder:   "Jellyfin Movies",
		PosterFolder:   "Assets/Posters",
		DownloadPoster: downloadPoster,
		Schema:         sc,
	}
}

func duneRecord() domain.MovieRecord {
	return domain.MovieRecord{
		ID:              "m1",
		Name:            "Dune: Part Two",
		OfficialRating:  "PG-13",
		CommunityRating: 8.5,
		ProductionYear:  2024,
		People: []domain.Person{
			{Name: "Denis Villeneuve", Type: "Director"},
			{Name: "Zendaya", Type: "Actor"},
		},
		Genres:      []string{"Sci-Fi"},
		ProviderIds: map[string]string{"Tmdb": "693134"},
	}
}

func TestExecute_CreatesNote(t *testing.T) {
	eff := testEff(t, false)
	cat := &fakeCatalog{details: map[string]domain.MovieRecord{"m1": duneRecord()}}

	rr := Execute(context.Background(), eff, cat, []domain.Item{
		{ID: "m1", Name: "Dune: Part Two", Type: domain.ItemTypeMovie},
	})

	if rr.Summary.Created != 1 || rr.Summary.Failed != 0 || rr.Summary.Skipped != 0 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}

	notePath := filepath.Join(eff.VaultPath, "Jellyfin Movies", "Dune Part Two.md")
	b, err := os.ReadFile(notePath)
	if err != nil {
		t.Fatalf("读取笔记失败：%v", err)
	}
	doc := string(b)

	for _, want := range []string{
		"---\n",
		"Title: Dune — Part Two\n",
		"Director: Denis Villeneuve\n",
		"Community Rating: 8.5\n",
		"Parental Rating: PG-13\n",
		"Year: 2024-01-01\n",
		"Poster: http://jf.example/Items/m1/Images/Primary\n",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("笔记缺少 %q：\n%s", want, doc)
		}
	}
	if !strings.HasSuffix(doc, "---\n") {
		t.Fatalf("笔记应以定界行+换行收尾：\n%s", doc)
	}
	if rr.Items[0].NotePath != notePath {
		t.Fatalf("note_path=%q，期望 %q", rr.Items[0].NotePath, notePath)
	}
}

func TestExecute_ExistingNoteSkipped(t *testing.T) {
	eff := testEff(t, false)
	cat := &fakeCatalog{details: map[string]domain.MovieRecord{"m1": duneRecord()}}

	dir := filepath.Join(eff.VaultPath, "Jellyfin Movies")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll 失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dune Part Two.md"), []byte("user content"), 0o644); err != nil {
		t.Fatalf("准备已有笔记失败：%v", err)
	}

	rr := Execute(context.Background(), eff, cat, []domain.Item{{ID: "m1", Type: domain.ItemTypeMovie}})

	if rr.Summary.Skipped != 1 {
		t.Fatalf("期望 skipped=1，实际 %+v", rr.Summary)
	}
	it := rr.Items[0]
	if it.Status != domain.StatusSkipped || it.ErrorCode != domain.ErrCodeWriteConflict {
		t.Fatalf("期望 skipped/write_conflict，实际 %s/%s", it.Status, it.ErrorCode)
	}

	// 用户已有内容必须原样保留。
	b, _ := os.ReadFile(filepath.Join(dir, "Dune Part Two.md"))
	if string(b) != "user content" {
		t.Fatalf("已有笔记被篡改：%q", string(b))
	}
}

func TestExecute_ContainerExpandsOneLevel(t *testing.T) {
	eff := testEff(t, false)
	rec2 := duneRecord()
	rec2.ID = "m2"
	rec2.Name = "Arrival"
	cat := &fakeCatalog{
		children: map[string][]domain.Item{
			"col1": {
				{ID: "m1", Name: "Dune: Part Two", Type: domain.ItemTypeMovie},
				{ID: "m2", Name: "Arrival", Type: domain.ItemTypeMovie},
				{ID: "sub", Name: "嵌套合集", Type: domain.ItemTypeCollection},
			},
		},
		details: map[string]domain.MovieRecord{"m1": duneRecord(), "m2": rec2},
	}

	rr := Execute(context.Background(), eff, cat, []domain.Item{
		{ID: "col1", Name: "选集", Type: domain.ItemTypeCollection},
	})

	// 只展开一层：嵌套容器被丢弃，两部电影各建一条笔记。
	if rr.Summary.Created != 2 {
		t.Fatalf("期望 created=2，实际 %+v", rr.Summary)
	}
}

func TestExecute_DetailsFailureContinues(t *testing.T) {
	eff := testEff(t, false)
	cat := &fakeCatalog{
		details:    map[string]domain.MovieRecord{"m2": duneRecord()},
		detailsErr: map[string]error{"m1": fmt.Errorf("HTTP 500")},
	}
	rec := duneRecord()
	rec.ID = "m2"
	cat.details["m2"] = rec

	rr := Execute(context.Background(), eff, cat, []domain.Item{
		{ID: "m1", Name: "坏条目", Type: domain.ItemTypeMovie},
		{ID: "m2", Name: "Dune: Part Two", Type: domain.ItemTypeMovie},
	})

	if rr.Summary.Failed != 1 || rr.Summary.Created != 1 {
		t.Fatalf("期望 failed=1 created=1，实际 %+v", rr.Summary)
	}
	for _, it := range rr.Items {
		if it.Status == domain.StatusFailed && it.ErrorCode != domain.ErrCodeFetchFailed {
			t.Fatalf("期望 fetch_failed，实际 %s", it.ErrorCode)
		}
	}
}

func TestExecute_PosterDownloaded(t *testing.T) {
	eff := testEff(t, true)
	cat := &fakeCatalog{
		details: map[string]domain.MovieRecord{"m1": duneRecord()},
		image:   jpegBytes(t),
	}

	rr := Execute(context.Background(), eff, cat, []domain.Item{{ID: "m1", Type: domain.ItemTypeMovie}})

	if rr.Summary.Created != 1 {
		t.Fatalf("期望 created=1，实际 %+v", rr.Summary)
	}
	it := rr.Items[0]
	wantRel := "Assets/Posters/Dune Part Two — Denis Villeneuve.jpg"
	if it.PosterPath != wantRel {
		t.Fatalf("poster_path=%q，期望 %q", it.PosterPath, wantRel)
	}
	if it.PosterNote != "" {
		t.Fatalf("不期望降级说明：%q", it.PosterNote)
	}

	if _, err := os.Stat(filepath.Join(eff.VaultPath, "Assets", "Posters", "Dune Part Two — Denis Villeneuve.jpg")); err != nil {
		t.Fatalf("期望海报落盘：%v", err)
	}

	b, _ := os.ReadFile(it.NotePath)
	if !strings.Contains(string(b), `Poster: "[[`+wantRel+`]]"`+"\n") {
		t.Fatalf("poster 行应是 wiki 链接：\n%s", string(b))
	}
}

func TestExecute_PosterCacheIdempotent(t *testing.T) {
	eff := testEff(t, true)

	// 两部同名无导演的电影：路由到同一海报文件，第二次必须跳过下载。
	rec1 := domain.MovieRecord{ID: "m1", Name: "Solaris", ProductionYear: 1972}
	rec2 := domain.MovieRecord{ID: "m2", Name: "Solaris (копия)", ProductionYear: 2002}
	rec2.Name = "Solaris"
	cat := &fakeCatalog{
		details: map[string]domain.MovieRecord{"m1": rec1, "m2": rec2},
		image:   jpegBytes(t),
	}

	rr := Execute(context.Background(), eff, cat, []domain.Item{
		{ID: "m1", Type: domain.ItemTypeMovie},
		{ID: "m2", Type: domain.ItemTypeMovie},
	})

	// 第二条笔记同名撞车是 skipped，但海报解析发生在写笔记之前：
	// 关键断言是下载只发生一次。
	if cat.fetchImageCalls != 1 {
		t.Fatalf("期望只下载一次海报，实际 %d 次", cat.fetchImageCalls)
	}
	if rr.Items[0].PosterPath != "Assets/Posters/Solaris.jpg" && rr.Items[1].PosterPath != "Assets/Posters/Solaris.jpg" {
		t.Fatalf("期望其中一条记录海报路径：%+v", rr.Items)
	}
}

func TestExecute_PosterFailureDegradesToURL(t *testing.T) {
	eff := testEff(t, true)
	cat := &fakeCatalog{
		details:  map[string]domain.MovieRecord{"m1": duneRecord()},
		imageErr: fmt.Errorf("HTTP 404"),
	}

	rr := Execute(context.Background(), eff, cat, []domain.Item{{ID: "m1", Type: domain.ItemTypeMovie}})

	it := rr.Items[0]
	if it.Status != domain.StatusCreated {
		t.Fatalf("海报失败不应影响笔记创建：%+v", it)
	}
	if it.PosterNote == "" {
		t.Fatalf("期望降级说明非空")
	}
	if it.PosterPath != "" {
		t.Fatalf("降级时不应有本地海报路径：%q", it.PosterPath)
	}

	b, _ := os.ReadFile(it.NotePath)
	if !strings.Contains(string(b), "Poster: http://jf.example/Items/m1/Images/Primary\n") {
		t.Fatalf("poster 行应回退为远端 URL：\n%s", string(b))
	}
}
