package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/richhaase/interpeer/internal/domain"
)

// maxResourceReaders bounds concurrent resource file reads.
const maxResourceReaders = 8

// expandResources reads paths relative to root and appends each file to
// content as a labeled block, in request order. Any unreadable path fails the
// whole expansion with a *domain.ResourceReadError.
func expandResources(ctx context.Context, root, content string, paths []string) (string, error) {
	if len(paths) == 0 {
		return content, nil
	}

	blocks := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxResourceReaders)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &domain.ResourceReadError{Path: p, Err: err}
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.Clean(p)))
			if err != nil {
				return &domain.ResourceReadError{Path: p, Err: err}
			}
			blocks[i] = fileBlock(filepath.ToSlash(filepath.Clean(p)), string(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(content, "\n"))
	for _, block := range blocks {
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	return b.String(), nil
}

func fileBlock(path, data string) string {
	return fmt.Sprintf("<file path=%q>\n%s\n</file>", path, strings.TrimRight(data, "\n"))
}
