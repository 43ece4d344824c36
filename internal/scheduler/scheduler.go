// Package scheduler runs the periodic housekeeping jobs
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job struct {
	Name  string
	Every time.Duration
	Run   func()
}

// Start schedules every job and returns the running cron instance. Jobs of
// the same name never overlap, a tick that finds the previous run still going
// is skipped.
func Start(jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))

	for _, j := range jobs {
		wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(j.Run))

		if _, err := c.AddJob(fmt.Sprintf("@every %s", j.Every), wrapped); err != nil {
			return nil, fmt.Errorf("failed to schedule %s, %w", j.Name, err)
		}

		zap.L().Debug("Job attached", zap.String("job", j.Name), zap.Duration("tick_every", j.Every))
	}

	c.Start()
	return c, nil
}

// cronLogger sends cron's own messages to zap
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	zap.S().Debugw(msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	zap.S().Errorw(msg, append(kv, "error", err)...)
}
