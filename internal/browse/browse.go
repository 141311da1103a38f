// Package browse 实现交互式媒体库导航：
// 选库视图 -> 逐层进入文件夹 -> 多选电影/合集 -> 确认导入。
package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// Lister 是浏览阶段消费的最小 catalog 接口。
type Lister interface {
	Views(ctx context.Context) ([]domain.Item, error)
	Children(ctx context.Context, parentID string) ([]domain.Item, error)
}

// ErrCancelled 表示用户主动退出选择（不算失败）。
var ErrCancelled = errors.New("用户取消选择")

// 选项值里的哨兵（Jellyfin 的条目 ID 是十六进制串，不会以 \x00 开头）。
const (
	sentinelHere = "\x00here"
	sentinelBack = "\x00back"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

// Label 生成条目的展示标签：文件夹带斜杠后缀，电影带年份。
func Label(it domain.Item) string {
	if it.IsContainer() {
		return it.Name + "/"
	}
	if y := cast.ToString(it.ProductionYear); y != "" {
		return fmt.Sprintf("%s (%s)", it.Name, y)
	}
	return it.Name
}

// Options 把条目列表转成 huh 选项（value=ID）。
func Options(items []domain.Item) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(items))
	for _, it := range items {
		opts = append(opts, huh.NewOption(Label(it), it.ID))
	}
	return opts
}

// ByID 按 ID 集合筛选条目，保持 items 的原始顺序。
func ByID(items []domain.Item, ids []string) []domain.Item {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.Item, 0, len(ids))
	for _, it := range items {
		if _, ok := want[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Picker 驱动一次完整的交互选择。
type Picker struct {
	Cat Lister
}

// Run 返回用户确认导入的条目（电影或待展开的容器）。
// 用户在任一步退出返回 ErrCancelled。
func (p Picker) Run(ctx context.Context) ([]domain.Item, error) {
	views, err := p.Cat.Views(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取库视图失败：%w", err)
	}
	if len(views) == 0 {
		return nil, errors.New("该用户没有可见的库视图")
	}

	var viewID string
	if err := huh.NewSelect[string]().
		Title(headerStyle.Render("选择媒体库")).
		Options(Options(views)...).
		Value(&viewID).
		Run(); err != nil {
		return nil, cancelled(err)
	}

	chosen := ByID(views, []string{viewID})
	cur := chosen[0]
	var stack []domain.Item

	for {
		children, err := p.Cat.Children(ctx, cur.ID)
		if err != nil {
			return nil, fmt.Errorf("拉取 %q 子条目失败：%w", cur.Name, err)
		}

		opts := []huh.Option[string]{
			huh.NewOption("[ 在当前列表中多选 ]", sentinelHere),
		}
		if len(stack) > 0 {
			opts = append(opts, huh.NewOption("[ 返回上一层 ]", sentinelBack))
		}
		for _, c := range children {
			if c.IsContainer() {
				opts = append(opts, huh.NewOption("进入 "+Label(c), c.ID))
			}
		}

		var pick string
		if err := huh.NewSelect[string]().
			Title(headerStyle.Render(cur.Name)).
			Options(opts...).
			Value(&pick).
			Run(); err != nil {
			return nil, cancelled(err)
		}

		switch pick {
		case sentinelBack:
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			continue
		case sentinelHere:
			selected, err := p.multiSelect(cur, children)
			if err != nil {
				return nil, err
			}
			if selected == nil {
				// 未确认：留在当前层继续浏览。
				continue
			}
			return selected, nil
		default:
			next := ByID(children, []string{pick})
			if len(next) == 0 {
				continue
			}
			stack = append(stack, cur)
			cur = next[0]
		}
	}
}

// multiSelect 返回 nil,nil 表示用户未确认（回到浏览循环）。
func (p Picker) multiSelect(cur domain.Item, children []domain.Item) ([]domain.Item, error) {
	if len(children) == 0 {
		return nil, nil
	}

	var ids []string
	if err := huh.NewMultiSelect[string]().
		Title(headerStyle.Render(cur.Name) + " — 选择要导入的条目（文件夹/合集会展开为其中的电影）").
		Options(Options(children)...).
		Value(&ids).
		Run(); err != nil {
		return nil, cancelled(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	selected := ByID(children, ids)

	var ok bool
	if err := huh.NewConfirm().
		Title(fmt.Sprintf("导入选中的 %d 个条目？", len(selected))).
		Value(&ok).
		Run(); err != nil {
		return nil, cancelled(err)
	}
	if !ok {
		return nil, nil
	}
	return selected, nil
}

func cancelled(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}
