package gitclient_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulehound/rulehound/internal/adapter/driven/gitclient"
)

// newSourceRepo initializes a local repository with one committed rule file
// and returns its path and head commit hash. Local paths are valid clone
// URLs for go-git, which keeps these tests off the network.
func newSourceRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yar"), []byte("rule T { condition: true }\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("test.yar")
	require.NoError(t, err)

	hash, err := wt.Commit("add test rule", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestClone_ReturnsHeadCommit(t *testing.T) {
	src, want := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	client := gitclient.NewClient()
	got, err := client.Clone(context.Background(), src, "master", dest)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.FileExists(t, filepath.Join(dest, "test.yar"))
}

func TestClone_UnknownBranchFails(t *testing.T) {
	src, _ := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	client := gitclient.NewClient()
	_, err := client.Clone(context.Background(), src, "no-such-branch", dest)

	assert.Error(t, err)
}

func TestHeadCommit_ReadsExistingWorkingCopy(t *testing.T) {
	src, want := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	client := gitclient.NewClient()
	_, err := client.Clone(context.Background(), src, "master", dest)
	require.NoError(t, err)

	got, err := client.HeadCommit(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHeadCommit_MissingWorkingCopyFails(t *testing.T) {
	client := gitclient.NewClient()

	_, err := client.HeadCommit(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
