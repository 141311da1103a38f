// Package vault 负责对 Obsidian vault 目录的全部落盘操作：
// 笔记/海报的文件名推导、目录保障、不覆盖写入与存在性检查。
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/jellynote/internal/infra/fsx"
)

// Store 提供以 Root 为根的 vault 文件读写。
// 路径参数一律是 vault 相对目录（如 "Jellyfin Movies"、"Assets/Posters"）。
type Store struct {
	Root string
}

func New(root string) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(root))}
}

// abs 把 vault 相对目录转换为绝对目录。
func (s Store) abs(folder string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return s.Root
	}
	return filepath.Join(s.Root, filepath.FromSlash(folder))
}

// EnsureFolder 保证 vault 下的目录存在（幂等：已存在直接返回）。
func (s Store) EnsureFolder(folder string) error {
	dir := s.abs(folder)
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// DocumentExists 检查 vault 下 folder/name 是否已存在。
func (s Store) DocumentExists(folder, name string) (bool, error) {
	_, err := os.Lstat(filepath.Join(s.abs(folder), name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CreateDocument 原子写入文本文件；目标已存在返回 os.ErrExist。
func (s Store) CreateDocument(folder, name, content string) (string, error) {
	dir := s.abs(folder)
	if err := fsx.WriteFileAtomicNoOverwrite(dir, name, []byte(content)); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// CreateBinary 原子写入二进制文件（海报）；目标已存在返回 os.ErrExist。
func (s Store) CreateBinary(folder, name string, data []byte) (string, error) {
	dir := s.abs(folder)
	if err := fsx.WriteFileAtomicNoOverwrite(dir, name, data); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// RelPath 返回 vault 相对路径（正斜杠），用于笔记内的 wiki 链接。
func RelPath(folder, name string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// 文件名里不允许出现的字符（各平台文件系统的并集）。
const invalidNameChars = `\/:*?"<>|`

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidNameChars, r) {
			return -1
		}
		return r
	}, s)
}

// NoteFilename 由电影标题推导笔记文件名：剥离非法字符后加 .md。
func NoteFilename(title string) string {
	return safeName(title) + ".md"
}

// PosterFilename 由标题与导演推导海报文件名。
// 导演为空时只用标题；二者同名的电影会路由到同一文件，
// 下载侧靠存在性检查保证幂等。
func PosterFilename(title, director string) string {
	t := strings.TrimSpace(safeName(title))
	d := strings.TrimSpace(safeName(director))
	if d == "" {
		return t + ".jpg"
	}
	return fmt.Sprintf("%s — %s.jpg", t, d)
}

// IsExist 判断 err 是否为“目标已存在”。
func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}
