package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// runIndex loads handbook markdown files into the knowledge store. Each
// level-2 section becomes one searchable passage.
func runIndex(args []string) error {
	dir := "handbook"
	if len(args) > 0 {
		dir = args[0]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("handbook directory %q not found", dir)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var indexed int
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		content, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the user-supplied directory
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}

		for i, section := range splitMarkdown(string(content)) {
			doc := knowledge.Document{
				ID:        fmt.Sprintf("%s#%d", filepath.ToSlash(rel), i),
				Content:   section.body,
				SourceURL: filepath.ToSlash(rel),
				Metadata: map[string]string{
					"title": section.title,
					"path":  filepath.ToSlash(rel),
				},
			}
			if err := a.Knowledge.Add(ctx, doc); err != nil {
				return fmt.Errorf("indexing %s: %w", doc.ID, err)
			}
			indexed++
		}
		a.Logger.Info("indexed file", "path", rel)
		return nil
	})
	if err != nil {
		return err
	}

	total, err := a.Knowledge.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting corpus: %w", err)
	}
	fmt.Printf("Indexed %d passages from %s (corpus total: %d)\n", indexed, dir, total)
	return nil
}

type section struct {
	title string
	body  string
}

// splitMarkdown breaks a document into passages at level-2 headings. The
// preamble before the first "## " keeps the document title (first "# " line)
// as its section title. Empty sections are dropped.
func splitMarkdown(content string) []section {
	var sections []section
	var current section

	flush := func() {
		current.body = strings.TrimSpace(current.body)
		if current.body != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			current = section{title: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
		case strings.HasPrefix(line, "# ") && current.title == "":
			current.title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		default:
			current.body += line + "\n"
		}
	}
	flush()
	return sections
}
