package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rulehound/rulehound/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and
// message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// tokenResponse is the body of a successful token issuance.
type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// licenseResponse is the JSON representation of a repository license.
type licenseResponse struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// entryResponse is the JSON representation of one catalog entry. RuleSets is
// populated only on the single-entry endpoint.
type entryResponse struct {
	Name        string           `json:"name"`
	URL         string           `json:"url"`
	Branch      string           `json:"branch"`
	Author      string           `json:"author"`
	Owner       string           `json:"owner"`
	Repo        string           `json:"repo"`
	Quality     string           `json:"quality,omitempty"`
	License     licenseResponse  `json:"license"`
	CommitHash  string           `json:"commit_hash"`
	RepoPath    string           `json:"repo_path"`
	RetrievedAt string           `json:"retrieved_at"`
	RuleSets    []model.RuleFile `json:"rule_sets,omitempty"`
}

func toEntryResponse(entry model.CatalogEntry, withRuleSets bool) entryResponse {
	resp := entryResponse{
		Name:        entry.Name,
		URL:         entry.URL,
		Branch:      entry.Branch,
		Author:      entry.Author,
		Owner:       entry.Owner,
		Repo:        entry.Repo,
		Quality:     entry.Quality,
		License:     licenseResponse{Text: entry.License.Text, URL: entry.License.URL},
		CommitHash:  entry.CommitHash,
		RepoPath:    entry.RepoPath,
		RetrievedAt: entry.RetrievedAt.UTC().Format(time.RFC3339),
	}
	if withRuleSets {
		resp.RuleSets = entry.RuleSets
	}
	return resp
}
