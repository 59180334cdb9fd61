package depositor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type Summary struct {
	Attempts int `json:"attempts"`
	OK       int `json:"ok"`
	NotOK    int `json:"not_ok"`
	Errors   int `json:"errors"`
}

type Runner struct {
	cfg    Config
	client Poster
	out    *CSVLog
	now    func() time.Time
}

func NewRunner(cfg Config, client Poster, out *CSVLog) *Runner {
	return &Runner{cfg: cfg, client: client, out: out, now: time.Now}
}

// Run posts cfg.Iterations deposits one after another. A failed request is
// logged as an ERROR line and the loop moves on; only a log write failure or
// ctx cancellation ends the run early.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	tags := NewTagGenerator(r.cfg.Prefix, r.now())

	for i := 1; i <= r.cfg.Iterations; i++ {
		tag := tags.Tag(i)
		entry := log.WithFields(log.Fields{"iteration": i, "tx_musd": tag})

		rec := Record{Time: r.now(), TxTag: tag}
		resp, err := r.client.Post(NewPayload(r.cfg, tag))
		if err != nil {
			rec.Status = StatusError
			rec.Response = err.Error()
			sum.Errors++
			entry.WithError(err).Warn("Deposit request failed")
		} else {
			rec.Status = resp.Status
			rec.Response = resp.Body
			if resp.Status == "true" {
				sum.OK++
			} else {
				sum.NotOK++
			}
			entry.WithField("status", resp.Status).Info("Deposit sent")
		}
		sum.Attempts++

		if err := r.out.Append(rec); err != nil {
			return sum, err
		}

		if i == r.cfg.Iterations {
			break
		}
		if err := r.wait(ctx); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (r *Runner) wait(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
