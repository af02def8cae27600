package syncengine

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

// Uploader transmits a batch of pending records to the backend. An error
// leaves every record pending; cancellation must abort promptly.
type Uploader interface {
	Upload(ctx context.Context, records []visits.VisitRecord) error
}

// SimulatedUploader stands in for the real backend. It waits the
// configured round-trip latency and never rejects a batch, but honors
// cancellation so a connectivity drop aborts the pass.
type SimulatedUploader struct {
	Latency time.Duration
}

func (u SimulatedUploader) Upload(ctx context.Context, records []visits.VisitRecord) error {
	timer := time.NewTimer(u.Latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPUploader posts record batches to the configured sync endpoint.
type HTTPUploader struct {
	client *resty.Client
	url    string
}

func NewHTTPUploader(cfg config.SyncConfig) (*HTTPUploader, error) {
	if cfg.TargetURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync target url is required")
	}
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait)
	return &HTTPUploader{client: client, url: cfg.TargetURL}, nil
}

func (u *HTTPUploader) Upload(ctx context.Context, records []visits.VisitRecord) error {
	resp, err := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"records": records}).
		Post(u.url)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload record batch")
	}
	if resp.IsError() {
		return pkgerrors.New(pkgerrors.CodeDependency, "sync endpoint returned "+resp.Status())
	}
	return nil
}
