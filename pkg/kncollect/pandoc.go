package kncollect

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/function61/gokit/logex"
)

// converts reStructuredText to Markdown, which the backend accepts as knowledge
type PandocConverter struct {
	binary string
}

// returns nil if pandoc is not installed, so conversion is simply skipped
func DetectPandoc(logl *logex.Leveled) Converter {
	binary, err := exec.LookPath("pandoc")
	if err != nil {
		logl.Debug.Println("pandoc not found; .rst files are uploaded as-is")
		return nil
	}

	logl.Debug.Printf("pandoc found at %s", binary)

	return NewPandocConverter(binary)
}

func NewPandocConverter(binary string) *PandocConverter {
	return &PandocConverter{binary: binary}
}

func (p *PandocConverter) Converts(path string) bool {
	return strings.HasSuffix(filepath.Base(path), ".rst")
}

// original file is left untouched
func (p *PandocConverter) Convert(ctx context.Context, path string) (string, error) {
	out := strings.TrimSuffix(path, ".rst") + ".md"

	//nolint:gosec // binary is resolved from PATH by us
	pandoc := exec.CommandContext(ctx, p.binary, path, "-o", out)

	if output, err := pandoc.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pandoc %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}

	return out, nil
}
