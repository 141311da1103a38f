package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/John-Robertt/jellynote/internal/app/importer"
	"github.com/John-Robertt/jellynote/internal/app/tablegen"
	"github.com/John-Robertt/jellynote/internal/browse"
	"github.com/John-Robertt/jellynote/internal/catalog"
	"github.com/John-Robertt/jellynote/internal/config"
	"github.com/John-Robertt/jellynote/internal/domain"
	"github.com/John-Robertt/jellynote/internal/infra/fsx"
	"github.com/John-Robertt/jellynote/internal/infra/httpx"
)

// Build information. Populated at build-time via -ldflags flag.
var version = "dev"

type globalFlags struct {
	ConfigPath string
	VaultPath  string
	LogLevel   string
}

func main() {
	ctx := context.Background()

	flags := &globalFlags{}

	app := &cli.Command{
		Name:      "jellynote",
		Usage:     "把 Jellyfin 电影元数据导入 Obsidian vault 的 frontmatter 笔记",
		UsageText: "jellynote [global options] command [command options]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "配置文件路径（默认 <cwd>/" + config.DefaultFileName + "）",
				Sources:     cli.EnvVars("JELLYNOTE_CONFIG"),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "vault",
				Usage:       "Obsidian vault 路径（覆盖配置文件中的 vault_path）",
				Sources:     cli.EnvVars("JELLYNOTE_VAULT"),
				Destination: &flags.VaultPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "日志级别（debug, info, warn, error）",
				Sources:     cli.EnvVars("JELLYNOTE_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			lvl, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("--log-level 无效：%w", err)
			}
			// 日志永远走 stderr：stdout 留给 report JSON / 表格输出。
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				With().
				Timestamp().
				Logger().
				Level(lvl)
			return ctx, nil
		},
		Commands: []*cli.Command{
			newImportCmd(flags),
			newBrowseCmd(flags),
			newTableCmd(flags),
			newPingCmd(flags),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, browse.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "已取消")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newImportCmd(flags *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "批量导入电影笔记（默认进入交互选择；--parent/--item 走非交互）",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "parent",
				Usage: "导入该文件夹/合集下的全部电影（条目 ID）",
			},
			&cli.StringSliceFlag{
				Name:  "item",
				Usage: "导入指定电影（条目 ID，可重复）",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			eff, err := loadConfig(flags)
			if err != nil {
				emitReport(reportForConfigError(flags, err))
				return cli.Exit("", 1)
			}

			cat, err := newCatalog(eff)
			if err != nil {
				return err
			}

			selected, err := pickSelection(ctx, c, cat)
			if err != nil {
				return err
			}

			return runImport(ctx, eff, cat, selected)
		},
	}
}

func newBrowseCmd(flags *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "交互式浏览媒体库并导入选中的条目",
		Action: func(ctx context.Context, c *cli.Command) error {
			eff, err := loadConfig(flags)
			if err != nil {
				emitReport(reportForConfigError(flags, err))
				return cli.Exit("", 1)
			}

			cat, err := newCatalog(eff)
			if err != nil {
				return err
			}

			selected, err := browse.Picker{Cat: cat}.Run(ctx)
			if err != nil {
				return err
			}
			return runImport(ctx, eff, cat, selected)
		},
	}
}

func newTableCmd(flags *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "table",
		Usage: "生成媒体库目录结构的 Markdown 速览表",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "parent",
				Usage:    "表格根条目 ID（库视图或文件夹）",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "输出文件路径（默认写到 stdout）",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			eff, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cat, err := newCatalog(eff)
			if err != nil {
				return err
			}

			rows, err := tablegen.RowsFromChildren(ctx, cat, c.String("parent"))
			if err != nil {
				return fmt.Errorf("生成表格失败：%w", err)
			}
			out := tablegen.Build(rows)

			if path := c.String("out"); path != "" {
				if err := fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), []byte(out)); err != nil {
					return fmt.Errorf("写入 %q 失败：%w", path, err)
				}
				fmt.Fprintf(os.Stderr, "表格已写入：%s\n", path)
				return nil
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}
}

func newPingCmd(flags *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "测试服务器连接与 api_key",
		Action: func(ctx context.Context, c *cli.Command) error {
			eff, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cat, err := newCatalog(eff)
			if err != nil {
				return err
			}

			info, err := cat.Ping(ctx)
			if err != nil {
				var se *catalog.StatusError
				if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
					return fmt.Errorf("连接失败（HTTP 404）：server_url 可能多/少了路径前缀：%s", eff.ServerURL)
				}
				return fmt.Errorf("连接失败：%w", err)
			}
			fmt.Fprintf(os.Stdout, "连接成功：%s（版本 %s）\n", info.ServerName, info.Version)
			return nil
		},
	}
}

// pickSelection 根据 import 的参数决定选择来源：
// --item/--parent 直接构造；否则进入交互选择（要求 TTY）。
func pickSelection(ctx context.Context, c *cli.Command, cat *catalog.Client) ([]domain.Item, error) {
	parent := c.String("parent")
	itemIDs := c.StringSlice("item")

	if parent == "" && len(itemIDs) == 0 {
		if !isTTY(os.Stdin) || !isTTY(os.Stderr) {
			return nil, errors.New("非交互环境下必须指定 --parent 或 --item")
		}
		return browse.Picker{Cat: cat}.Run(ctx)
	}

	var selected []domain.Item
	if parent != "" {
		selected = append(selected, domain.Item{ID: parent, Name: parent, IsFolder: true})
	}
	for _, id := range itemIDs {
		selected = append(selected, domain.Item{ID: id, Name: id, Type: domain.ItemTypeMovie})
	}
	return selected, nil
}

func runImport(ctx context.Context, eff config.EffectiveConfig, cat *catalog.Client, selected []domain.Item) error {
	progressW, interactive := pickProgressWriter()
	var obs importer.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := importer.ExecuteWithObserver(ctx, eff, cat, selected, obs)

	emitReport(rr)
	if rr.Summary.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func loadConfig(flags *globalFlags) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	return config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath: flags.ConfigPath,
		VaultPath:  flags.VaultPath,
	})
}

func newCatalog(eff config.EffectiveConfig) (*catalog.Client, error) {
	hc, err := httpx.NewAPIClient(eff.APIKey, eff.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP client 失败：%w", err)
	}
	return catalog.New(eff.ServerURL, eff.UserID, hc, log.With().Str("component", "catalog").Logger()), nil
}

func emitReport(rr domain.ImportReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：created=%d skipped=%d failed=%d\n",
			rr.Summary.Created, rr.Summary.Skipped, rr.Summary.Failed,
		)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Title
				if key == "" {
					key = it.ItemID
				}
				if key == "" {
					key = "<unknown>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ImportReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：created=%d skipped=%d failed=%d\n",
		rr.Summary.Created, rr.Summary.Skipped, rr.Summary.Failed,
	)
}

func reportForConfigError(flags *globalFlags, err error) domain.ImportReport {
	now := time.Now().UTC()
	rr := domain.ImportReport{
		Vault:      flags.VaultPath,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
