package model

// RepoConfig describes one remote rule repository to collect from.
// It is read-only input: the pipeline never mutates it.
type RepoConfig struct {
	Name   string
	URL    string
	Branch string
	Author string

	// Path restricts rule harvesting to a subdirectory of the working
	// copy. Empty means the whole working copy.
	Path string

	// Quality is an optional curation tag carried through to the catalog.
	Quality string
}

// SyncResult records the outcome of synchronizing one repository into the
// staging directory. Created once per repository per run, never mutated.
type SyncResult struct {
	Config          RepoConfig
	Owner           string
	Repo            string
	WorkingCopyPath string
	CommitHash      string
}
