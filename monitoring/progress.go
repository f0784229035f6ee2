package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`

	// Total is 0 when the amount of work is not known in advance.
	Total    uint64 `json:"total"`
	Finished uint64 `json:"finished"`
	Done     bool   `json:"done"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Complete marks the tracked work as finished.
func (b *ProgressBar) Complete() {
	b.Lock()
	defer b.Unlock()

	b.Done = true
}

type progressRsp struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Total    uint64  `json:"total"`
	Finished uint64  `json:"finished"`
	Done     bool    `json:"done"`
	Elapsed  float64 `json:"elapsed_sec"`
	Rate     float64 `json:"rate_per_sec"`
}

func (b *ProgressBar) snapshot(now time.Time) progressRsp {
	b.Lock()
	defer b.Unlock()

	elapsed := now.Sub(b.StartTime).Seconds()

	rsp := progressRsp{
		ID:       b.ID,
		Name:     b.Name,
		Total:    b.Total,
		Finished: b.Finished,
		Done:     b.Done,
		Elapsed:  elapsed,
	}

	if elapsed > 0 {
		rsp.Rate = float64(b.Finished) / elapsed
	}

	return rsp
}
