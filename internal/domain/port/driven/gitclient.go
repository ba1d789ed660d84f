package driven

import "context"

// GitClient defines the driven port for synchronizing remote rule
// repositories into local working copies. Implementations wrap the
// underlying cause in returned errors; classification of a failure as fatal
// or skippable is the caller's concern.
type GitClient interface {
	// Clone clones the given branch of the repository at url into dest and
	// returns the head commit hash of the fresh working copy.
	Clone(ctx context.Context, url, branch, dest string) (string, error)

	// HeadCommit returns the head commit hash of an existing working copy
	// without touching the network.
	HeadCommit(ctx context.Context, dest string) (string, error)
}
