package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// ReleasePayoutArgs is enqueued transactionally when a campaign is approved.
type ReleasePayoutArgs struct {
	CampaignID uuid.UUID `json:"campaign_id"`
}

func (ReleasePayoutArgs) Kind() string { return "release_payout" }

// Releaser is the contract the worker needs to pay out an approved campaign.
// Release is idempotent, so River retries are safe.
type Releaser interface {
	Release(ctx context.Context, campaignID uuid.UUID) error
}

type ReleasePayoutWorker struct {
	river.WorkerDefaults[ReleasePayoutArgs]
	releaser Releaser
}

func NewReleasePayoutWorker(r Releaser) *ReleasePayoutWorker {
	return &ReleasePayoutWorker{releaser: r}
}

func (w *ReleasePayoutWorker) Work(ctx context.Context, job *river.Job[ReleasePayoutArgs]) error {
	if err := w.releaser.Release(ctx, job.Args.CampaignID); err != nil {
		return fmt.Errorf("release payout for campaign %s: %w", job.Args.CampaignID, err)
	}
	return nil
}
