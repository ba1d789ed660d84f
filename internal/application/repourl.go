package application

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidRepoURL indicates a repository URL without the owner and
// repository path segments needed to place its working copy.
var ErrInvalidRepoURL = errors.New("invalid repository URL")

// SplitRepoURL derives the owner and repository name from a clone URL of
// the shape scheme://host/owner/repo[.git]. The owner is the first path
// segment, the repository name the second with any trailing ".git"
// stripped.
func SplitRepoURL(rawURL string) (owner, repo string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRepoURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q lacks scheme or host", ErrInvalidRepoURL, rawURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("%w: %q lacks owner/repo path segments", ErrInvalidRepoURL, rawURL)
	}

	owner = segments[0]
	repo = strings.TrimSuffix(segments[1], ".git")
	if repo == "" {
		return "", "", fmt.Errorf("%w: %q has an empty repository name", ErrInvalidRepoURL, rawURL)
	}
	return owner, repo, nil
}
