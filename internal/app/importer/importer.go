// Package importer 实现批量导入的执行流程：
// 展开选集 -> 逐片拉取元数据 -> 合成 frontmatter -> 落盘笔记与海报。
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/John-Robertt/jellynote/internal/config"
	"github.com/John-Robertt/jellynote/internal/domain"
	"github.com/John-Robertt/jellynote/internal/fm"
	"github.com/John-Robertt/jellynote/internal/infra/fsx"
	"github.com/John-Robertt/jellynote/internal/infra/imgx"
	"github.com/John-Robertt/jellynote/internal/vault"
)

// Catalog 是 importer 消费的媒体库只读接口（*catalog.Client 实现它）。
// 接口收窄到导入需要的四个操作，便于测试替换。
type Catalog interface {
	Children(ctx context.Context, parentID string) ([]domain.Item, error)
	Details(ctx context.Context, itemID string) (domain.MovieRecord, error)
	ImageURL(itemID string) string
	FetchImage(ctx context.Context, itemID string) ([]byte, error)
}

// Execute 执行一次批量导入，并返回对外稳定的 ImportReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, cat Catalog, selected []domain.Item) domain.ImportReport {
	return ExecuteWithObserver(ctx, eff, cat, selected, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, cat Catalog, selected []domain.Item, obs Observer) domain.ImportReport {
	started := time.Now().UTC()

	rr := domain.ImportReport{
		Vault:     eff.VaultPath,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, len(selected)),
	}

	store := vault.New(eff.VaultPath)

	// 展开阶段：容器（库视图/文件夹/合集）展开一层为电影；电影原样保留。
	// 展开失败形成一条合成的 failed item（容器名可追溯），不中断整批。
	movies := make([]domain.Item, 0, len(selected))
	for _, it := range selected {
		if !it.IsContainer() {
			movies = append(movies, it)
			continue
		}
		children, err := cat.Children(ctx, it.ID)
		if err != nil {
			rr.Items = append(rr.Items, domain.ItemResult{
				ItemID:    it.ID,
				Title:     it.Name,
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeFetchFailed,
				ErrorMsg:  fmt.Sprintf("展开 %q 失败：%v", it.Name, err),
			})
			continue
		}
		for _, c := range children {
			if !c.IsContainer() {
				movies = append(movies, c)
			}
		}
	}

	if obs != nil {
		obs.OnStart(eff.VaultPath, len(movies))
	}

	// 执行阶段：严格顺序循环。一部电影的完整合成（含海报下载）
	// 结束之后才开始下一部；目录 check-then-create 的幂等性依赖该模型。
	for i, it := range movies {
		oneStarted := time.Now()
		res := importOne(ctx, eff, cat, store, it)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(movies), res, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	if obs != nil {
		obs.OnFinish(rr.Summary, time.Since(started))
	}
	return rr
}

func importOne(ctx context.Context, eff config.EffectiveConfig, cat Catalog, store vault.Store, it domain.Item) domain.ItemResult {
	item := domain.ItemResult{
		ItemID: it.ID,
		Title:  it.Name,
		Status: domain.StatusCreated, // 失败时覆盖
	}

	rec, err := cat.Details(ctx, it.ID)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeFetchFailed
		item.ErrorMsg = fmt.Sprintf("拉取元数据失败：%v", err)
		return item
	}
	item.Title = rec.Name

	if err := store.EnsureFolder(eff.OutputFolder); err != nil {
		item.Status = domain.StatusFailed
		if fsx.IsPathTypeConflict(err) {
			item.ErrorCode = domain.ErrCodeTargetConflict
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}

	// poster 在合成过程中按需解析（字段序保证 resolver 最多触发一次）。
	// 下载失败只降级为远端 URL 并记录说明，绝不影响笔记创建。
	resolve := func() fm.PosterRef {
		ref, note := resolvePoster(ctx, eff, cat, store, rec)
		if ref.LocalPath != "" {
			item.PosterPath = ref.LocalPath
		}
		item.PosterNote = note
		return ref
	}

	doc := fm.Assemble(rec, eff.Schema, resolve) + "\n"

	noteName := vault.NoteFilename(rec.Name)
	notePath, err := store.CreateDocument(eff.OutputFolder, noteName, doc)
	if err != nil {
		switch {
		case vault.IsExist(err):
			// 已有同名笔记：跳过（绝不覆盖用户可能已编辑的内容）。
			item.Status = domain.StatusSkipped
			item.ErrorCode = domain.ErrCodeWriteConflict
			item.ErrorMsg = fmt.Sprintf("笔记已存在：%s", vault.RelPath(eff.OutputFolder, noteName))
		case fsx.IsPathTypeConflict(err):
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeTargetConflict
			item.ErrorMsg = err.Error()
		default:
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("写入笔记失败：%v", err)
		}
		return item
	}

	item.NotePath = notePath
	return item
}

// resolvePoster 返回 poster 字段取值与降级说明（说明为空表示一切正常）。
func resolvePoster(ctx context.Context, eff config.EffectiveConfig, cat Catalog, store vault.Store, rec domain.MovieRecord) (fm.PosterRef, string) {
	url := cat.ImageURL(rec.ID)
	if !eff.DownloadPoster {
		return fm.PosterRef{URL: url}, ""
	}

	name := vault.PosterFilename(rec.Name, rec.DirectorName())
	rel := vault.RelPath(eff.PosterFolder, name)

	// 幂等：同名海报已存在则直接复用，不再下载。
	exists, err := store.DocumentExists(eff.PosterFolder, name)
	if err != nil {
		return fm.PosterRef{URL: url}, fmt.Sprintf("检查海报失败，回退远端 URL：%v", err)
	}
	if exists {
		return fm.PosterRef{URL: url, LocalPath: rel}, ""
	}

	if err := store.EnsureFolder(eff.PosterFolder); err != nil {
		return fm.PosterRef{URL: url}, fmt.Sprintf("创建海报目录失败，回退远端 URL：%v", err)
	}

	b, err := cat.FetchImage(ctx, rec.ID)
	if err != nil {
		return fm.PosterRef{URL: url}, fmt.Sprintf("下载海报失败，回退远端 URL：%v", err)
	}
	jb, err := imgx.EnsureJPEG(b)
	if err != nil {
		return fm.PosterRef{URL: url}, fmt.Sprintf("海报图片无效，回退远端 URL：%v", err)
	}

	if _, err := store.CreateBinary(eff.PosterFolder, name, jb); err != nil {
		if errors.Is(err, os.ErrExist) {
			// 并发外力写入了同名文件：视为已满足。
			return fm.PosterRef{URL: url, LocalPath: rel}, ""
		}
		return fm.PosterRef{URL: url}, fmt.Sprintf("写入海报失败，回退远端 URL：%v", err)
	}
	return fm.PosterRef{URL: url, LocalPath: rel}, ""
}
