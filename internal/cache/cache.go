// Package cache holds in-memory snapshots of fetched issues keyed by
// project and status, so repeat views do not hit the remote tracker.
package cache

import (
	"sync"

	"github.com/opsshop/jiratrack/internal/models"
)

// Store keeps two independent snapshot sets, one for issues not yet
// delivered and one for delivered ones. Snapshots are copied on the way
// in and on the way out, so callers can sort or trim what they get back
// without disturbing the stored state. A missing snapshot is distinct
// from a cached empty result.
type Store struct {
	mu        sync.RWMutex
	untracked map[string][]models.Issue
	tracked   map[string][]models.Issue
}

// New creates an empty Store. One instance is built at startup and
// passed to every consumer.
func New() *Store {
	return &Store{
		untracked: make(map[string][]models.Issue),
		tracked:   make(map[string][]models.Issue),
	}
}

func snapshotKey(project, statusID string) string {
	return project + "|" + statusID
}

// Untracked returns the undelivered snapshot for a project/status pair.
func (s *Store) Untracked(project, statusID string) ([]models.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issues, ok := s.untracked[snapshotKey(project, statusID)]
	if !ok {
		return nil, false
	}
	return copyIssues(issues), true
}

// Tracked returns the delivered snapshot for a project/status pair.
func (s *Store) Tracked(project, statusID string) ([]models.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issues, ok := s.tracked[snapshotKey(project, statusID)]
	if !ok {
		return nil, false
	}
	return copyIssues(issues), true
}

// PutUntracked replaces the undelivered snapshot atomically.
func (s *Store) PutUntracked(project, statusID string, issues []models.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untracked[snapshotKey(project, statusID)] = copyIssues(issues)
}

// PutTracked replaces the delivered snapshot atomically.
func (s *Store) PutTracked(project, statusID string, issues []models.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[snapshotKey(project, statusID)] = copyIssues(issues)
}

// Clear drops every snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untracked = make(map[string][]models.Issue)
	s.tracked = make(map[string][]models.Issue)
}

func copyIssues(in []models.Issue) []models.Issue {
	out := make([]models.Issue, len(in))
	copy(out, in)
	return out
}
