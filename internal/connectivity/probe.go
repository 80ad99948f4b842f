package connectivity

import (
	"context"
	"net/http"
	"time"
)

// Probe feeds a Monitor from actual network reachability. It issues a
// HEAD request against a well-known URL on an interval and reports the
// result; the monitor's own transition filtering means steady-state
// probing produces no events downstream.
type Probe struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
	Monitor  *Monitor
}

// Run probes until ctx is cancelled. Blocks; run it in a goroutine.
func (p *Probe) Run(ctx context.Context) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.Monitor.Set(p.check(ctx, client))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Probe) check(ctx context.Context, client *http.Client) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
