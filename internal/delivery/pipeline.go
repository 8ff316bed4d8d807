package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/opsshop/jiratrack/internal/apperr"
	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/mail"
	"github.com/opsshop/jiratrack/internal/models"
	"github.com/opsshop/jiratrack/internal/sse"
	"github.com/opsshop/jiratrack/internal/staging"
	"github.com/opsshop/jiratrack/internal/tracker"
)

const (
	// sendAttempts is the total number of tries for the notification mail.
	sendAttempts = 3
	// sendPause sits between mail attempts.
	sendPause = time.Second
)

// attachableSize reports whether total bytes still fit an email send.
// The cutoff is 4.2 MiB, written as 21 MiB over 5 to keep the boundary
// comparison in integers. Exactly 4.2 MiB still goes by email.
func attachableSize(total int64) bool {
	return total*5 <= 21*(1<<20)
}

// Pipeline runs a delivery end to end: stage documents and attachments,
// route by size to email or the shared drive, notify, and record the send
// in the ledger. One Pipeline exists per process and it owns the staging
// directory, so only a single delivery may run at a time.
type Pipeline struct {
	tracker     jira.Tracker
	staging     *staging.Dir
	attachments *AttachmentResolver
	reconciler  *tracker.Reconciler
	sender      mail.Sender
	broker      *sse.Broker
	logger      *slog.Logger

	sharedDir string
	sentBy    string

	mu sync.Mutex
}

// NewPipeline wires a Pipeline. sharedDir is the shared-drive root for
// oversized batches; sentBy is recorded on every ledger row.
func NewPipeline(t jira.Tracker, dir *staging.Dir, rec *tracker.Reconciler, sender mail.Sender, broker *sse.Broker, sharedDir, sentBy string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		tracker:     t,
		staging:     dir,
		attachments: NewAttachmentResolver(t, dir, logger),
		reconciler:  rec,
		sender:      sender,
		broker:      broker,
		logger:      logger,
		sharedDir:   sharedDir,
		sentBy:      sentBy,
	}
}

// Deliver runs one batch. A second call while a delivery is in flight
// fails immediately with ErrDeliveryInProgress. The ledger is only
// touched after the notification went out.
func (p *Pipeline) Deliver(ctx context.Context, batch *models.DeliveryBatch) error {
	if !p.mu.TryLock() {
		return apperr.ErrDeliveryInProgress
	}
	defer p.mu.Unlock()

	keys := batchKeys(batch)
	p.broker.PublishDelivery("started", batch.ProjectKey, keys)

	if err := p.deliver(ctx, batch, keys); err != nil {
		p.broker.PublishDelivery("failed", batch.ProjectKey, keys)
		return err
	}

	p.broker.PublishDelivery("finished", batch.ProjectKey, keys)
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, batch *models.DeliveryBatch, keys []string) error {
	if err := p.staging.Reset(); err != nil {
		return err
	}

	// Re-fetch each issue with its changelog; the batch may have arrived
	// with bare keys, and ledger rows need the real summaries.
	fetched := make([]models.Issue, 0, len(keys))
	for _, key := range keys {
		issue, err := p.stageIssue(ctx, key)
		if err != nil {
			return err
		}
		fetched = append(fetched, *issue)
	}
	batch.Issues = fetched

	files, err := p.staging.StagedFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return apperr.ErrNothingToDeliver
	}

	total, err := p.staging.TotalSize()
	if err != nil {
		return err
	}

	if attachableSize(total) {
		if err := p.sendWithAttachments(ctx, batch, files); err != nil {
			return err
		}
	} else {
		p.logger.Info("batch too large for email, using shared drive",
			slog.Int64("total_bytes", total))
		if err := p.sendViaSharedDrive(ctx, batch, files); err != nil {
			return err
		}
	}

	if err := p.reconciler.RecordDelivery(ctx, batch, p.sentBy); err != nil {
		return err
	}
	return nil
}

// stageIssue assembles one issue's directory: attachments plus the
// rendered detail document, then flattens it into the staging root.
func (p *Pipeline) stageIssue(ctx context.Context, key string) (*models.Issue, error) {
	issue, err := p.tracker.GetIssueWithChangelog(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("delivery: fetch %s: %w", key, err)
	}
	if err := p.staging.MkdirIssue(key); err != nil {
		return nil, err
	}

	saved, excluded := p.attachments.Resolve(ctx, issue)
	if len(excluded) > 0 {
		p.logger.Warn("attachments excluded from delivery",
			slog.String("issue", key),
			slog.Int("saved", len(saved)),
			slog.String("excluded", strings.Join(excluded, ", ")))
	}

	doc, err := IssueHTML(issue)
	if err != nil {
		return nil, err
	}
	if err := p.staging.WriteFile(filepath.Join(key, key+".html"), strings.NewReader(doc)); err != nil {
		return nil, err
	}

	n, err := p.staging.FinalizeIssue(key)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		p.logger.Warn("issue staged no files", slog.String("issue", key))
	}
	return issue, nil
}

func (p *Pipeline) sendWithAttachments(ctx context.Context, batch *models.DeliveryBatch, files []string) error {
	body, err := EmailBody(batch, "")
	if err != nil {
		return err
	}
	return p.sendWithRetry(ctx, mail.Message{
		Subject:     Subject(batchKeys(batch)),
		HTMLBody:    body,
		Attachments: files,
		ExtraTo:     batch.ExtraRecipients,
	})
}

func (p *Pipeline) sendViaSharedDrive(ctx context.Context, batch *models.DeliveryBatch, files []string) error {
	dropPath, err := stageToSharedDrive(ctx, p.sharedDir, files, time.Now())
	if err != nil {
		return err
	}
	body, err := EmailBody(batch, dropPath)
	if err != nil {
		return err
	}
	return p.sendWithRetry(ctx, mail.Message{
		Subject:  Subject(batchKeys(batch)),
		HTMLBody: body,
		ExtraTo:  batch.ExtraRecipients,
	})
}

// sendWithRetry tries the send up to sendAttempts times with a constant
// pause between tries, returning the last error.
func (p *Pipeline) sendWithRetry(ctx context.Context, msg mail.Message) error {
	attempt := 0
	op := func() error {
		attempt++
		err := p.sender.Send(ctx, msg)
		if err != nil {
			p.logger.Warn("notification send failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(sendPause), sendAttempts-1), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("delivery: send notification: %w", err)
	}
	return nil
}

func batchKeys(batch *models.DeliveryBatch) []string {
	keys := make([]string, 0, len(batch.Issues))
	for _, issue := range batch.Issues {
		keys = append(keys, issue.Key)
	}
	return keys
}
