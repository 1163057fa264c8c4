package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/martinemde/agentcore/cache"
)

// SearchCache memoizes grep and glob results keyed by the canonical query.
// Write tools clear it, since any file change can invalidate search output.
type SearchCache = cache.Cache[string, string]

// ReadFileParams selects a file slice to read.
type ReadFileParams struct {
	FilePath string `json:"file_path" validate:"required"`
	Offset   int    `json:"offset" validate:"gte=0"`   // 1-based start line
	Limit    int    `json:"limit" validate:"gte=0"`    // max lines, 0 = default
}

// WriteFileParams replaces a file's content.
type WriteFileParams struct {
	FilePath string `json:"file_path" validate:"required"`
	Content  string `json:"content"`
}

// EditFileParams replaces an exact string occurrence in a file.
type EditFileParams struct {
	FilePath   string `json:"file_path" validate:"required"`
	OldString  string `json:"old_string" validate:"required"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// ListDirectoryParams lists one directory level.
type ListDirectoryParams struct {
	Path string `json:"path"`
}

// GlobParams matches file names against a pattern.
type GlobParams struct {
	Pattern string `json:"pattern" validate:"required"`
	Path    string `json:"path"`
}

// GrepParams searches file contents for a regular expression.
type GrepParams struct {
	Pattern         string `json:"pattern" validate:"required"`
	Path            string `json:"path"`
	CaseInsensitive bool   `json:"case_insensitive"`
	MaxResults      int    `json:"max_results" validate:"gte=0"`
}

const defaultReadLimit = 2000

// RegisterCoreTools registers the filesystem tools on the registry. The
// search cache may be nil to disable memoization.
func RegisterCoreTools(reg *Registry, searches *SearchCache) error {
	tools := []*Tool{
		readFileTool(),
		writeFileTool(searches),
		editFileTool(searches),
		listDirectoryTool(),
		globTool(searches),
		grepTool(searches),
	}
	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func readFileTool() *Tool {
	return &Tool{
		Name:        "ReadFile",
		Description: "Read a file from the filesystem. Returns line-numbered content.",
		Version:     "1.0",
		Params:      ReadFileParams{},
		Capabilities: Capabilities{
			Idempotent: true,
			Retryable:  true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*ReadFileParams)
			content, err := tc.FS.Read(p.FilePath)
			if err != nil {
				return nil, err
			}

			lines := strings.Split(content, "\n")
			start := 0
			if p.Offset > 0 {
				start = p.Offset - 1
			}
			if start >= len(lines) {
				return "", nil
			}
			limit := p.Limit
			if limit == 0 {
				limit = defaultReadLimit
			}
			end := len(lines)
			if start+limit < end {
				end = start + limit
			}

			var sb strings.Builder
			for i := start; i < end; i++ {
				fmt.Fprintf(&sb, "%d | %s\n", i+1, lines[i])
			}
			return sb.String(), nil
		},
	}
}

func writeFileTool(searches *SearchCache) *Tool {
	return &Tool{
		Name:        "WriteFile",
		Description: "Write content to a file, creating it and parent directories if needed.",
		Version:     "1.0",
		Params:      WriteFileParams{},
		Capabilities: Capabilities{
			WritesFiles: true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*WriteFileParams)
			if tc.Confirm != nil && !tc.Confirm(fmt.Sprintf("Write %d bytes to %s?", len(p.Content), p.FilePath)) {
				return nil, fmt.Errorf("write to %s declined by user", p.FilePath)
			}
			if err := tc.FS.Write(p.FilePath, p.Content); err != nil {
				return nil, err
			}
			if searches != nil {
				searches.Clear()
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(p.Content), p.FilePath), nil
		},
		DryRun: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*WriteFileParams)
			return fmt.Sprintf("Would write %d bytes to %s", len(p.Content), p.FilePath), nil
		},
	}
}

func editFileTool(searches *SearchCache) *Tool {
	return &Tool{
		Name:        "EditFile",
		Description: "Replace an exact string occurrence in a file. The old string must be unique unless replace_all is set.",
		Version:     "1.0",
		Params:      EditFileParams{},
		Capabilities: Capabilities{
			WritesFiles: true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*EditFileParams)
			content, err := tc.FS.Read(p.FilePath)
			if err != nil {
				return nil, err
			}

			count := strings.Count(content, p.OldString)
			if count == 0 {
				return nil, fmt.Errorf("old_string not found in %s", p.FilePath)
			}
			if count > 1 && !p.ReplaceAll {
				return nil, fmt.Errorf("old_string appears %d times in %s; pass replace_all or make it unique", count, p.FilePath)
			}

			var updated string
			if p.ReplaceAll {
				updated = strings.ReplaceAll(content, p.OldString, p.NewString)
			} else {
				updated = strings.Replace(content, p.OldString, p.NewString, 1)
			}
			if err := tc.FS.Write(p.FilePath, updated); err != nil {
				return nil, err
			}
			if searches != nil {
				searches.Clear()
			}
			return fmt.Sprintf("Replaced %d occurrence(s) in %s", count, p.FilePath), nil
		},
	}
}

func listDirectoryTool() *Tool {
	return &Tool{
		Name:        "ListDirectory",
		Description: "List the entries of a directory.",
		Version:     "1.0",
		Params:      ListDirectoryParams{},
		Capabilities: Capabilities{
			Idempotent: true,
			Retryable:  true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*ListDirectoryParams)
			path := p.Path
			if path == "" {
				path = "."
			}
			infos, err := tc.FS.List(path)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			for _, info := range infos {
				if info.IsDir {
					fmt.Fprintf(&sb, "%s/\n", info.Name)
				} else {
					fmt.Fprintf(&sb, "%s (%d bytes)\n", info.Name, info.Size)
				}
			}
			return sb.String(), nil
		},
	}
}

func globTool(searches *SearchCache) *Tool {
	return &Tool{
		Name:        "Glob",
		Description: "Find files whose names match a glob pattern.",
		Version:     "1.0",
		Params:      GlobParams{},
		Capabilities: Capabilities{
			Idempotent: true,
			Retryable:  true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*GlobParams)
			root := p.Path
			if root == "" {
				root = "."
			}

			key := "glob:" + root + ":" + p.Pattern
			if searches != nil {
				if cached, ok := searches.Get(key); ok {
					return cached, nil
				}
			}

			var matches []string
			for _, path := range listFilesRecursive(tc.FS, root) {
				if ok, _ := filepath.Match(p.Pattern, filepath.Base(path)); ok {
					matches = append(matches, path)
					continue
				}
				if ok, _ := filepath.Match(p.Pattern, path); ok {
					matches = append(matches, path)
				}
			}

			out := strings.Join(matches, "\n")
			if searches != nil {
				searches.Set(key, out)
			}
			return out, nil
		},
	}
}

func grepTool(searches *SearchCache) *Tool {
	return &Tool{
		Name:        "Grep",
		Description: "Search file contents for a regular expression. Returns file:line matches.",
		Version:     "1.0",
		Params:      GrepParams{},
		Capabilities: Capabilities{
			Idempotent: true,
			Retryable:  true,
		},
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			p := params.(*GrepParams)
			root := p.Path
			if root == "" {
				root = "."
			}

			key := fmt.Sprintf("grep:%s:%s:%v:%d", root, p.Pattern, p.CaseInsensitive, p.MaxResults)
			if searches != nil {
				if cached, ok := searches.Get(key); ok {
					return cached, nil
				}
			}

			pattern := p.Pattern
			if p.CaseInsensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern: %w", err)
			}

			var sb strings.Builder
			count := 0
			for _, path := range listFilesRecursive(tc.FS, root) {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				content, err := tc.FS.Read(path)
				if err != nil {
					continue
				}
				for i, line := range strings.Split(content, "\n") {
					if re.MatchString(line) {
						fmt.Fprintf(&sb, "%s:%d:%s\n", path, i+1, line)
						count++
						if p.MaxResults > 0 && count >= p.MaxResults {
							break
						}
					}
				}
				if p.MaxResults > 0 && count >= p.MaxResults {
					break
				}
			}

			out := sb.String()
			if searches != nil {
				searches.Set(key, out)
			}
			return out, nil
		},
	}
}
