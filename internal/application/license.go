package application

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rulehound/rulehound/internal/domain/model"
)

// licenseFilenames are the recognized license file names, matched exactly.
var licenseFilenames = map[string]bool{
	"LICENSE":     true,
	"LICENSE.txt": true,
	"LICENSE.md":  true,
}

// FindLicense locates a license file under root and returns its text and a
// browsable URL at the synchronized commit. A root-level license is
// authoritative: it wins and ends the search immediately, regardless of
// traversal order. Otherwise the first nested candidate encountered is kept.
// A read failure on a candidate is non-fatal and keeps the default.
func FindLicense(root, repoURL, commitHash string, logger *slog.Logger) model.LicenseInfo {
	info := model.DefaultLicenseInfo()
	found := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !licenseFilenames[d.Name()] {
			return nil
		}

		atRoot := filepath.Dir(path) == filepath.Clean(root)
		if !atRoot && found {
			// A nested candidate is already kept; only a root-level
			// file may still override it.
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		text, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("license file unreadable, keeping default",
				"path", path,
				"error", readErr,
			)
			if atRoot {
				return fs.SkipAll
			}
			return nil
		}

		info = model.LicenseInfo{
			Text: string(text),
			URL:  fmt.Sprintf("%s/blob/%s/%s", repoURL, commitHash, filepath.ToSlash(rel)),
		}
		found = true
		if atRoot {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		logger.Warn("license search failed, keeping default", "root", root, "error", err)
	}
	return info
}
