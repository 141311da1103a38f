package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/jellynote/internal/domain"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "电影库/", Label(domain.Item{Name: "电影库", Type: domain.ItemTypeUserView, IsFolder: true}))
	assert.Equal(t, "系列/", Label(domain.Item{Name: "系列", Type: domain.ItemTypeCollection}))
	assert.Equal(t, "Dune (2021)", Label(domain.Item{Name: "Dune", Type: domain.ItemTypeMovie, ProductionYear: 2021}))
	// 年份是弱类型字段：string 也要能展示。
	assert.Equal(t, "Dune (2021)", Label(domain.Item{Name: "Dune", Type: domain.ItemTypeMovie, ProductionYear: "2021"}))
	assert.Equal(t, "Dune", Label(domain.Item{Name: "Dune", Type: domain.ItemTypeMovie}))
}

func TestOptions(t *testing.T) {
	opts := Options([]domain.Item{
		{ID: "a", Name: "One"},
		{ID: "b", Name: "Two", IsFolder: true},
	})
	assert.Len(t, opts, 2)
	assert.Equal(t, "a", opts[0].Value)
	assert.Equal(t, "One", opts[0].Key)
	assert.Equal(t, "Two/", opts[1].Key)
}

func TestByID_PreservesOrder(t *testing.T) {
	items := []domain.Item{
		{ID: "a", Name: "One"},
		{ID: "b", Name: "Two"},
		{ID: "c", Name: "Three"},
	}

	got := ByID(items, []string{"c", "a"})
	assert.Len(t, got, 2)
	// 顺序跟随 items，而不是 ids。
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	assert.Empty(t, ByID(items, []string{"zz"}))
}
