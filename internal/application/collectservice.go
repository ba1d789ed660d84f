// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rulehound/rulehound/internal/domain/model"
	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// SyncMode controls how a per-repository failure affects the rest of a run.
type SyncMode int

const (
	// ModePermissive logs the failure and leaves the repository out of the
	// catalog; the run continues.
	ModePermissive SyncMode = iota

	// ModeStrict aborts the whole run on the first repository failure.
	ModeStrict
)

func (m SyncMode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "permissive"
}

// collectRequest represents a manual collection trigger.
type collectRequest struct {
	done chan error
}

// CollectService orchestrates the rule collection pipeline: reclaim the
// staging directory, then per repository synchronize the working copy,
// extract license provenance, harvest and parse rule files, and aggregate a
// catalog entry. Results are persisted through the catalog store.
type CollectService struct {
	git            driven.GitClient
	parser         driven.RuleParser
	store          driven.CatalogStore
	repos          []model.RepoConfig
	stagingDir     string
	interval       time.Duration
	workers        int
	mode           SyncMode
	reclaimRetries int
	reclaimDelay   time.Duration
	logger         *slog.Logger
	collectCh      chan collectRequest
}

// NewCollectService creates a CollectService with all required dependencies.
// workers bounds per-repository concurrency; values below 1 are treated as 1.
func NewCollectService(
	git driven.GitClient,
	parser driven.RuleParser,
	store driven.CatalogStore,
	repos []model.RepoConfig,
	stagingDir string,
	interval time.Duration,
	workers int,
	mode SyncMode,
	logger *slog.Logger,
) *CollectService {
	if workers < 1 {
		workers = 1
	}
	return &CollectService{
		git:            git,
		parser:         parser,
		store:          store,
		repos:          repos,
		stagingDir:     stagingDir,
		interval:       interval,
		workers:        workers,
		mode:           mode,
		reclaimRetries: DefaultReclaimRetries,
		reclaimDelay:   DefaultReclaimDelay,
		logger:         logger,
		collectCh:      make(chan collectRequest),
	}
}

// Start runs an immediate collection, then repeats on the configured
// interval and serves manual triggers. Start blocks until the context is
// canceled.
func (s *CollectService) Start(ctx context.Context) {
	if _, err := s.CollectAndStore(ctx); err != nil {
		s.logger.Error("initial collection failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("collect service stopped")
			return
		case <-ticker.C:
			if _, err := s.CollectAndStore(ctx); err != nil {
				s.logger.Error("collection cycle failed", "error", err)
			}
		case req := <-s.collectCh:
			_, err := s.CollectAndStore(ctx)
			req.done <- err
		}
	}
}

// TriggerCollect requests an immediate collection run, bypassing the
// interval. It blocks until the run completes or the context is canceled.
// Start must be running for triggers to be served.
func (s *CollectService) TriggerCollect(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.collectCh <- collectRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CollectAndStore runs one full pipeline pass and persists every resulting
// catalog entry. A persistence failure for one entry is logged and does not
// fail the run.
func (s *CollectService) CollectAndStore(ctx context.Context) (model.Catalog, error) {
	catalog, err := s.Collect(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range catalog {
		if err := s.store.Upsert(ctx, entry); err != nil {
			s.logger.Error("persisting catalog entry failed", "repo", entry.Name, "error", err)
		}
	}
	return catalog, nil
}

// Collect runs one full pipeline pass: staging reclamation as an ordering
// barrier, then the per-repository phases on a bounded worker pool. Each
// worker writes into its own slot; the catalog keeps configuration order.
func (s *CollectService) Collect(ctx context.Context) (model.Catalog, error) {
	start := time.Now()

	if err := reclaimStaging(ctx, s.stagingDir, s.reclaimRetries, s.reclaimDelay, s.logger, sweepDir); err != nil {
		return nil, fmt.Errorf("reclaim staging dir: %w", err)
	}

	slots := make([]*model.CatalogEntry, len(s.repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, cfg := range s.repos {
		g.Go(func() error {
			entry, err := s.collectRepo(gctx, cfg)
			if err != nil {
				if s.mode == ModeStrict {
					return fmt.Errorf("collect %s: %w", cfg.Name, err)
				}
				s.logger.Error("skipping repository", "repo", cfg.Name, "error", err)
				return nil
			}
			slots[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := make(model.Catalog, 0, len(slots))
	for _, entry := range slots {
		if entry != nil {
			catalog = append(catalog, *entry)
		}
	}

	s.logger.Info("collection complete",
		"repos", len(catalog),
		"configured", len(s.repos),
		"mode", s.mode.String(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return catalog, nil
}

// collectRepo runs the per-repository phases in order: sync, license
// extraction, rule harvesting, aggregation.
func (s *CollectService) collectRepo(ctx context.Context, cfg model.RepoConfig) (*model.CatalogEntry, error) {
	s.logger.Info("retrieving rules from repository", "repo", cfg.Name)

	res, err := s.syncRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	license := FindLicense(res.WorkingCopyPath, cfg.URL, res.CommitHash, s.logger)

	ruleFiles, err := HarvestRuleFiles(res.WorkingCopyPath, cfg.Path, s.parser, s.logger)
	if err != nil {
		return nil, err
	}

	entry := AggregateEntry(cfg, res, license, ruleFiles, time.Now().UTC())
	s.logger.Info("retrieved rules from repository",
		"repo", cfg.Name,
		"rule_files", len(ruleFiles),
		"rules", entry.RuleCount(),
		"commit", res.CommitHash,
	)
	return &entry, nil
}

// syncRepo ensures a working copy for cfg exists under the staging
// directory and reports its head commit. An existing working copy is reused
// without cloning; after reclamation that only happens when two configured
// repositories resolve to the same owner/repo pair.
func (s *CollectService) syncRepo(ctx context.Context, cfg model.RepoConfig) (*model.SyncResult, error) {
	owner, repo, err := SplitRepoURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(s.stagingDir, owner, repo)
	res := &model.SyncResult{
		Config:          cfg,
		Owner:           owner,
		Repo:            repo,
		WorkingCopyPath: dest,
	}

	if _, statErr := os.Stat(dest); statErr == nil {
		hash, err := s.git.HeadCommit(ctx, dest)
		if err != nil {
			return nil, fmt.Errorf("read head commit of %s: %w", dest, err)
		}
		res.CommitHash = hash
		s.logger.Info("working copy already present, reusing", "repo", cfg.Name, "path", dest)
		return res, nil
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("stat working copy %s: %w", dest, statErr)
	}

	s.logger.Info("cloning repository", "repo", cfg.Name, "url", cfg.URL, "branch", cfg.Branch)
	hash, err := s.git.Clone(ctx, cfg.URL, cfg.Branch, dest)
	if err != nil {
		return nil, err
	}
	res.CommitHash = hash
	return res, nil
}

// AggregateEntry assembles a catalog entry from the outputs of one
// repository's pipeline phases. Pure assembly, no failure modes.
func AggregateEntry(cfg model.RepoConfig, res *model.SyncResult, license model.LicenseInfo, ruleFiles []model.RuleFile, retrievedAt time.Time) model.CatalogEntry {
	return model.CatalogEntry{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Branch:      cfg.Branch,
		Author:      cfg.Author,
		Owner:       res.Owner,
		Repo:        res.Repo,
		Quality:     cfg.Quality,
		License:     license,
		RuleSets:    ruleFiles,
		CommitHash:  res.CommitHash,
		RetrievedAt: retrievedAt,
		RepoPath:    res.WorkingCopyPath,
	}
}
