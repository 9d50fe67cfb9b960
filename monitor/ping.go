package monitor

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingProber probes a host with ICMP echo using unprivileged (UDP) sockets.
// On Linux this requires net.ipv4.ping_group_range to include the process group.
type PingProber struct {
	Host    string
	Count   int
	Timeout time.Duration
}

// NewPingProber creates a prober with three echoes and a two second budget.
func NewPingProber(host string) *PingProber {
	return &PingProber{Host: host, Count: 3, Timeout: 2 * time.Second}
}

func (p *PingProber) Probe(ctx context.Context) (time.Duration, float64, error) {
	if p.Host == "" {
		return 0, 0, fmt.Errorf("ping host is empty")
	}
	pinger, err := probing.NewPinger(p.Host)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create pinger for %s: %v", p.Host, err)
	}
	pinger.SetPrivileged(false)
	pinger.Count = p.Count
	pinger.Timeout = p.Timeout

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()
	select {
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return 0, 0, ctx.Err()
	case err := <-done:
		if err != nil {
			return 0, 0, fmt.Errorf("ping %s failed: %v", p.Host, err)
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, stats.PacketLoss, fmt.Errorf("ping %s: no replies", p.Host)
	}
	return stats.AvgRtt, stats.PacketLoss, nil
}
