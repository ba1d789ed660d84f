package model

import "time"

// Sentinel values used when a repository carries no recognized license file.
const (
	NoLicenseText = "NO LICENSE SET"
	NoLicenseURL  = "N/A"
)

// LicenseInfo holds the license text of a repository and a browsable
// reference to the license file at the synchronized commit.
type LicenseInfo struct {
	Text string
	URL  string
}

// DefaultLicenseInfo returns the LicenseInfo used when no license file is
// found in a working copy.
func DefaultLicenseInfo() LicenseInfo {
	return LicenseInfo{Text: NoLicenseText, URL: NoLicenseURL}
}

// CatalogEntry aggregates everything collected for one repository in one
// run: the configured identity, the sync provenance, the license, and the
// harvested rule sets.
type CatalogEntry struct {
	Name        string
	URL         string
	Branch      string
	Author      string
	Owner       string
	Repo        string
	Quality     string
	License     LicenseInfo
	RuleSets    []RuleFile
	CommitHash  string
	RetrievedAt time.Time
	RepoPath    string
}

// RuleCount returns the total number of rules across all rule sets.
func (e CatalogEntry) RuleCount() int {
	var n int
	for _, rf := range e.RuleSets {
		n += len(rf.Rules)
	}
	return n
}

// Catalog is the output of one full pipeline run, ordered as configured.
type Catalog []CatalogEntry
