package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo is the stat result for a filesystem entry.
type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"is_dir"`
}

// Filesystem abstracts file access for tools so they can run against the
// local disk, a sandbox, or a test fake.
type Filesystem interface {
	Read(path string) (string, error)
	Write(path, content string) error
	Exists(path string) bool
	Delete(path string) error
	List(path string) ([]FileInfo, error)
	Stat(path string) (FileInfo, error)
}

// CodeIntel is the boundary to the external code-intelligence engine. All
// methods are consumed here, none implemented.
type CodeIntel interface {
	Search(ctx context.Context, query string) (string, error)
	GetSymbolInfo(ctx context.Context, symbol string) (string, error)
	GetImportsExports(ctx context.Context, path string) (string, error)
	BuildDependencyGraph(ctx context.Context, root string) (string, error)
	ResolveSymbol(ctx context.Context, symbol string) (string, error)
	FindReferences(ctx context.Context, symbol string) ([]string, error)
	GenerateRepoMap(ctx context.Context, root string) (string, error)
}

// ConfirmFunc asks a human to approve a destructive operation.
type ConfirmFunc func(prompt string) bool

// ToolContext is the effective execution context supplied to every tool.
// Cancellation travels through the context.Context passed to Execute, not
// through this struct.
type ToolContext struct {
	FS         Filesystem
	Intel      CodeIntel // optional
	WorkingDir string
	Confirm    ConfirmFunc // optional, for destructive operations
	Logger     *slog.Logger
}

// merged returns the default context overlaid with any non-zero fields from
// the per-call override.
func (tc *ToolContext) merged(override *ToolContext) *ToolContext {
	if override == nil {
		return tc
	}
	out := *tc
	if override.FS != nil {
		out.FS = override.FS
	}
	if override.Intel != nil {
		out.Intel = override.Intel
	}
	if override.WorkingDir != "" {
		out.WorkingDir = override.WorkingDir
	}
	if override.Confirm != nil {
		out.Confirm = override.Confirm
	}
	if override.Logger != nil {
		out.Logger = override.Logger
	}
	return &out
}

// LocalFilesystem serves tool file operations from the local disk, rooted
// at a working directory.
type LocalFilesystem struct {
	root string
}

// NewLocalFilesystem creates a filesystem rooted at dir. An empty dir means
// the process working directory.
func NewLocalFilesystem(dir string) *LocalFilesystem {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &LocalFilesystem{root: dir}
}

func (l *LocalFilesystem) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}

func (l *LocalFilesystem) Read(path string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (l *LocalFilesystem) Write(path, content string) error {
	resolved := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.WriteFile(resolved, []byte(content), 0644)
}

func (l *LocalFilesystem) Exists(path string) bool {
	_, err := os.Stat(l.resolve(path))
	return err == nil
}

func (l *LocalFilesystem) Delete(path string) error {
	return os.Remove(l.resolve(path))
}

func (l *LocalFilesystem) List(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info := FileInfo{Name: entry.Name(), IsDir: entry.IsDir()}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (l *LocalFilesystem) Stat(path string) (FileInfo, error) {
	fi, err := os.Stat(l.resolve(path))
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return FileInfo{Name: fi.Name(), Size: fi.Size(), IsDir: fi.IsDir()}, nil
}

// listFilesRecursive returns every regular file under root, skipping hidden
// entries and vendored dependency trees. Unreadable subtrees are skipped
// rather than failing the whole walk.
func listFilesRecursive(fsys Filesystem, root string) []string {
	infos, err := fsys.List(root)
	if err != nil {
		return nil
	}
	var files []string
	for _, info := range infos {
		if strings.HasPrefix(info.Name, ".") || info.Name == "node_modules" || info.Name == "vendor" {
			continue
		}
		path := filepath.Join(root, info.Name)
		if info.IsDir {
			files = append(files, listFilesRecursive(fsys, path)...)
			continue
		}
		files = append(files, path)
	}
	return files
}
