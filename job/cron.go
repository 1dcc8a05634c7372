package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"loanrisk/storage/postgres"
)

// StaleAfter is how long a completed assessment stays fresh before the sweep
// flags it for re-assessment.
const StaleAfter = 90 * 24 * time.Hour

// StartCronJob schedules the nightly sweep that flags aged assessments as
// stale.
func StartCronJob(repo *postgres.AssessmentRepo) {
	c := cron.New()

	// Every day at 02:00.
	_, _ = c.AddFunc("0 2 * * *", func() {
		ctx := context.Background()
		rows, err := repo.MarkStale(ctx, time.Now().Add(-StaleAfter))
		if err != nil {
			fmt.Println("[Cron] Error:", err)
		} else {
			fmt.Printf("[Cron] flagged %d stale assessments\n", rows)
		}
	})

	c.Start()
}
