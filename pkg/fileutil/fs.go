// Package fileutil provides unified read access to game files on disk and
// in embedded file systems. Lookups are case-insensitive per path element.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// ReadDir はディレクトリの内容を読み込む
	ReadDir(name string) ([]fs.DirEntry, error)
	// Exists はファイルが存在するかを返す
	Exists(name string) bool
	// Sub はサブディレクトリをルートとするFileSystemを返す
	Sub(dir string) (FileSystem, error)
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// ioFS はfs.FSの上に大文字小文字を無視した検索を実装する
type ioFS struct {
	fsys     fs.FS
	basePath string
	embedded bool
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) FileSystem {
	return &ioFS{fsys: os.DirFS(basePath), basePath: basePath}
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) (FileSystem, error) {
	if basePath != "" && basePath != "." {
		sub, err := fs.Sub(fsys, basePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded directory %s: %w", basePath, err)
		}
		fsys = sub
	}
	return &ioFS{fsys: fsys, basePath: basePath, embedded: true}, nil
}

func (f *ioFS) ReadFile(name string) ([]byte, error) {
	actual, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, actual)
}

func (f *ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	actual, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(f.fsys, actual)
}

func (f *ioFS) Exists(name string) bool {
	_, err := f.resolve(name)
	return err == nil
}

func (f *ioFS) Sub(dir string) (FileSystem, error) {
	actual, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(f.fsys, actual)
	if err != nil {
		return nil, err
	}
	return &ioFS{fsys: sub, basePath: path.Join(f.basePath, actual), embedded: f.embedded}, nil
}

func (f *ioFS) BasePath() string {
	return f.basePath
}

func (f *ioFS) IsEmbedded() bool {
	return f.embedded
}

// resolve はnameを実際のパスに解決する
// 各パス要素を大文字小文字を無視して照合する
func (f *ioFS) resolve(name string) (string, error) {
	clean := CleanPath(name)
	if clean == "." {
		return clean, nil
	}

	// まず直接アクセスを試みる
	if _, err := fs.Stat(f.fsys, clean); err == nil {
		return clean, nil
	}

	dir := "."
	for _, elem := range strings.Split(clean, "/") {
		entries, err := fs.ReadDir(f.fsys, dir)
		if err != nil {
			return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
		}
		found := ""
		for _, entry := range entries {
			if strings.EqualFold(entry.Name(), elem) {
				found = entry.Name()
				break
			}
		}
		if found == "" {
			return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		dir = path.Join(dir, found)
	}

	return dir, nil
}

// CleanPath はバックスラッシュと先頭の区切り文字を取り除いたスラッシュ区切りのパスを返す
func CleanPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// IsNotExist はファイルが存在しないことを示すエラーかを返す
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
