package connectivity

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Prober polls a reachability URL and feeds the result into the monitor.
// It replaces the browser online/offline events the field app relied on:
// a headless deployment has no runtime signal, so connectivity is probed.
type Prober struct {
	client   *resty.Client
	monitor  *Monitor
	logg     *logger.Logger
	url      string
	interval time.Duration
}

// NewProber returns nil when no probe URL is configured; connectivity is
// then driven purely by explicit SetOnline calls (API or tests).
func NewProber(cfg config.SyncConfig, monitor *Monitor, logg *logger.Logger) *Prober {
	if cfg.ProbeURL == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)
	return &Prober{
		client:   client,
		monitor:  monitor,
		logg:     logg,
		url:      cfg.ProbeURL,
		interval: cfg.ProbeInterval,
	}
}

// Run probes until the context is cancelled.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	resp, err := p.client.R().SetContext(ctx).Head(p.url)
	reachable := err == nil && resp.StatusCode() < 500

	if reachable != p.monitor.Online() {
		p.logg.Info(p.logg.WithField(ctx, "online", reachable), "connectivity edge detected")
	}
	p.monitor.SetOnline(reachable)
}
