// Package jobs contains implementations of scheduled jobs for the
// LinguaSpark API.
package jobs

import (
	"context"

	"github.com/linguaspark/linguaspark-api/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshLeaderboardJob periodically rebuilds the cached leaderboard
// snapshot so requests keep being served from Redis rather than from
// a fresh database sort on cache expiry.
type RefreshLeaderboardJob struct {
	leaderboard *query.GetLeaderboardHandler
}

// NewRefreshLeaderboardJob creates a new RefreshLeaderboardJob.
func NewRefreshLeaderboardJob(leaderboard *query.GetLeaderboardHandler) *RefreshLeaderboardJob {
	return &RefreshLeaderboardJob{leaderboard: leaderboard}
}

// Name returns the unique name of the job.
func (j *RefreshLeaderboardJob) Name() string {
	return "refresh_leaderboard"
}

// Run rebuilds the leaderboard snapshot.
func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	return j.leaderboard.Refresh(ctx)
}
