// Package gitclient implements the GitClient port using go-git.
package gitclient

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitClient = (*Client)(nil)

// Client synchronizes rule repositories with go-git. The zero value is not
// usable; use NewClient.
type Client struct{}

// NewClient creates a new go-git backed client.
func NewClient() *Client {
	return &Client{}
}

// Clone performs a single-branch clone of branch from url into dest and
// returns the head commit hash.
func (c *Client) Clone(ctx context.Context, url, branch, dest string) (string, error) {
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		return "", fmt.Errorf("clone %s (branch %s): %w", url, branch, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read head of fresh clone %s: %w", dest, err)
	}
	return head.Hash().String(), nil
}

// HeadCommit opens an existing working copy and returns its head commit
// hash without touching the network.
func (c *Client) HeadCommit(_ context.Context, dest string) (string, error) {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return "", fmt.Errorf("open working copy %s: %w", dest, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read head of %s: %w", dest, err)
	}
	return head.Hash().String(), nil
}
