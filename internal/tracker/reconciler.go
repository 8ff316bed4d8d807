// Package tracker reconciles issues fetched from the remote tracker
// against the delivery ledger.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/opsshop/jiratrack/internal/apperr"
	"github.com/opsshop/jiratrack/internal/cache"
	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/ledger"
	"github.com/opsshop/jiratrack/internal/models"
)

// pageCap bounds how many issues a single reconcile fetches.
const pageCap = 75

// Reconciler fetches issues and partitions them into delivered and
// not-yet-delivered sets. All collaborators are handed in at
// construction; there is exactly one Reconciler per process.
type Reconciler struct {
	tracker jira.Tracker
	ledger  ledger.Store // nil when the ledger failed to open
	cache   *cache.Store
	logger  *slog.Logger
}

// NewReconciler builds a Reconciler. ledgerStore may be nil; reconciles
// then run in degraded mode with every issue reported as undelivered.
func NewReconciler(t jira.Tracker, ledgerStore ledger.Store, c *cache.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{tracker: t, ledger: ledgerStore, cache: c, logger: logger}
}

// LoadResult is the outcome of one reconcile.
type LoadResult struct {
	Untracked []models.Issue `json:"untracked"`
	Tracked   []models.Issue `json:"tracked"`

	// LedgerDown reports that partitioning could not consult the ledger
	// and everything was classified as untracked.
	LedgerDown bool `json:"ledger_down"`
}

// LoadIssues returns the partitioned issues for a project/status pair.
// Cached snapshots are served unless forceRefresh is set; forceRefresh
// applies to this call only. Untracked issues come back newest-created
// first, tracked issues newest-updated first, with unknown dates last.
func (r *Reconciler) LoadIssues(ctx context.Context, project, statusID string, forceRefresh bool) (*LoadResult, error) {
	if !forceRefresh {
		if untracked, ok := r.cache.Untracked(project, statusID); ok {
			tracked, _ := r.cache.Tracked(project, statusID)
			return r.finish(untracked, tracked, false), nil
		}
	}

	fetched, err := r.tracker.Search(ctx, jira.StatusJQL(project, statusID), pageCap)
	if err != nil {
		return nil, fmt.Errorf("tracker: fetch %s/%s: %w", project, statusID, err)
	}

	untracked, tracked, ledgerDown := r.partition(project, fetched)

	r.cache.PutUntracked(project, statusID, untracked)
	if !ledgerDown {
		r.cache.PutTracked(project, statusID, tracked)
	}

	return r.finish(untracked, tracked, ledgerDown), nil
}

// partition splits fetched issues by ledger membership. When the ledger
// cannot answer, everything is untracked and the caller is told.
func (r *Reconciler) partition(project string, fetched []models.Issue) (untracked, tracked []models.Issue, ledgerDown bool) {
	if r.ledger == nil {
		return fetched, nil, true
	}
	keys, err := r.ledger.TrackedKeys(project)
	if err != nil {
		r.logger.Warn("ledger unavailable, reporting all issues as undelivered",
			slog.String("project", project),
			slog.String("error", err.Error()))
		return fetched, nil, true
	}
	for _, issue := range fetched {
		if _, ok := keys[issue.Key]; ok {
			tracked = append(tracked, issue)
		} else {
			untracked = append(untracked, issue)
		}
	}
	return untracked, tracked, false
}

func (r *Reconciler) finish(untracked, tracked []models.Issue, ledgerDown bool) *LoadResult {
	sortByDateDesc(untracked, func(i *models.Issue) *time.Time { return i.Created })
	sortByDateDesc(tracked, func(i *models.Issue) *time.Time { return i.Updated })
	return &LoadResult{Untracked: untracked, Tracked: tracked, LedgerDown: ledgerDown}
}

// LoadSentIssues re-fetches every ledgered issue for a project so the UI
// can show what has gone out, including issues that since left the
// actively-watched statuses.
func (r *Reconciler) LoadSentIssues(ctx context.Context, project string) ([]models.Issue, error) {
	if r.ledger == nil {
		return nil, apperr.ErrNoLedger
	}
	rows, err := r.ledger.Tracked(project)
	if err != nil {
		return nil, fmt.Errorf("tracker: load sent rows: %w", err)
	}

	var out []models.Issue
	for _, row := range rows {
		issues, err := r.tracker.Search(ctx, jira.KeysJQL(project, []string{row.IssueKey}), 2)
		if err != nil {
			return nil, fmt.Errorf("tracker: fetch sent issue %s: %w", row.IssueKey, err)
		}
		out = append(out, issues...)
	}
	sortByDateDesc(out, func(i *models.Issue) *time.Time { return i.Updated })
	return out, nil
}

// SearchByPattern resolves a wildcard key pattern and fetches the matching
// issues, ascending by key.
func (r *Reconciler) SearchByPattern(ctx context.Context, project string, keys []string) ([]models.Issue, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	issues, err := r.tracker.Search(ctx, jira.KeysJQL(project, keys), pageCap)
	if err != nil {
		return nil, fmt.Errorf("tracker: pattern search: %w", err)
	}
	return issues, nil
}

// RecordDelivery writes ledger rows for a confirmed send. First-time
// deliveries insert, resends only stamp the resend timestamp. The cached
// snapshots for the batch's project/status are rebuilt afterwards.
func (r *Reconciler) RecordDelivery(ctx context.Context, batch *models.DeliveryBatch, sentBy string) error {
	if r.ledger == nil {
		return apperr.ErrNoLedger
	}

	if batch.Resend {
		keys := make([]string, 0, len(batch.Issues))
		for _, issue := range batch.Issues {
			keys = append(keys, issue.Key)
		}
		if err := r.ledger.MarkResent(keys); err != nil {
			return fmt.Errorf("tracker: record resend: %w", err)
		}
	} else {
		rows := make([]models.TrackedIssue, 0, len(batch.Issues))
		for _, issue := range batch.Issues {
			rows = append(rows, models.TrackedIssue{
				IssueKey:   issue.Key,
				ProjectKey: batch.ProjectKey,
				Summary:    issue.Summary,
				SentBy:     sentBy,
			})
		}
		if err := r.ledger.Insert(rows); err != nil {
			return fmt.Errorf("tracker: record delivery: %w", err)
		}
	}

	if _, err := r.LoadIssues(ctx, batch.ProjectKey, batch.StatusID, true); err != nil {
		r.logger.Warn("cache refresh after delivery failed",
			slog.String("project", batch.ProjectKey),
			slog.String("error", err.Error()))
	}
	return nil
}

// sortByDateDesc orders issues newest-first by the given date field,
// pushing issues without one to the end. The sort is stable so equal
// dates keep fetch order.
func sortByDateDesc(issues []models.Issue, date func(*models.Issue) *time.Time) {
	sort.SliceStable(issues, func(a, b int) bool {
		da, db := date(&issues[a]), date(&issues[b])
		switch {
		case da == nil:
			return false
		case db == nil:
			return true
		default:
			return da.After(*db)
		}
	})
}
