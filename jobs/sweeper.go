package jobs

import (
	"fmt"

	"delivery-ledger-backend/utils"

	"github.com/hibiken/asynq"
)

// Sweeper enqueues the nightly date-range recompute so yesterday's edits are
// re-verified against the financial invariants. It implements
// utils.NightlySweeper.
type Sweeper struct {
	client *asynq.Client
}

func NewSweeper(client *asynq.Client) *Sweeper {
	return &Sweeper{client: client}
}

func (s *Sweeper) EnqueueNightlySweep() error {
	today := utils.Today()
	from := today.AddDate(0, 0, -1)

	task, err := NewRecomputeTask(RecomputePayload{
		Scope:      ScopeDateRange,
		From:       from.Format("2006-01-02"),
		To:         today.Format("2006-01-02"),
		ActorEmail: "system@nightly-sweep",
	})
	if err != nil {
		return fmt.Errorf("failed to build nightly sweep task: %w", err)
	}
	if _, err := s.client.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue nightly sweep: %w", err)
	}
	return nil
}
