package application

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rulehound/rulehound/internal/domain/model"
	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// ruleFileExtensions are the recognized rule-language file suffixes.
var ruleFileExtensions = []string{".yar", ".yara"}

func isRuleFile(name string) bool {
	for _, ext := range ruleFileExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// HarvestRuleFiles walks root (restricted to subPath when set), parses every
// recognized rule file, and returns one RuleFile per file that parsed
// cleanly. Paths in the result are always relative to root, even when the
// walk is restricted to a subdirectory. A file that fails to read or parse
// is logged and skipped; it never aborts the harvest. Entries follow
// traversal order.
func HarvestRuleFiles(root, subPath string, parser driven.RuleParser, logger *slog.Logger) ([]model.RuleFile, error) {
	walkRoot := root
	if subPath != "" {
		walkRoot = filepath.Join(root, subPath)
		if _, err := os.Stat(walkRoot); errors.Is(err, os.ErrNotExist) {
			logger.Warn("configured rule path missing in working copy", "root", root, "path", subPath)
			return nil, nil
		}
	}

	var files []model.RuleFile
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isRuleFile(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		text, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("rule file unreadable, skipping", "path", rel, "error", readErr)
			return nil
		}

		rules, parseErr := parser.Parse(string(text))
		if parseErr != nil {
			logger.Error("skipping rule file with syntax error", "path", rel, "error", parseErr)
			return nil
		}

		logger.Debug("parsed rule file", "path", rel, "rules", len(rules))
		files = append(files, model.RuleFile{RelativePath: rel, Rules: rules})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", walkRoot, err)
	}
	return files, nil
}
