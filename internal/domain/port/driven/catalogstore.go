package driven

import (
	"context"

	"github.com/rulehound/rulehound/internal/domain/model"
)

// CatalogStore defines the driven port for catalog persistence. Each
// collection run replaces a repository's stored entry wholesale; there is no
// partial update.
type CatalogStore interface {
	// Upsert stores the entry, replacing any previous entry for the same
	// owner/repo pair together with its rule sets.
	Upsert(ctx context.Context, entry model.CatalogEntry) error

	// ListEntries returns all stored entries without their rule sets,
	// ordered by owner then repo.
	ListEntries(ctx context.Context) ([]model.CatalogEntry, error)

	// GetByRepo returns the full entry including rule sets, or nil, nil if
	// no entry exists for the owner/repo pair.
	GetByRepo(ctx context.Context, owner, repo string) (*model.CatalogEntry, error)
}
