package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/andretaki/simurgh/internal/models"
	"github.com/andretaki/simurgh/internal/rfq"
)

const seenSet = "mail:seen"

// Source is the subset of the Graph client the poller needs.
type Source interface {
	ListUnread(ctx context.Context, max int) ([]Message, error)
	Attachments(ctx context.Context, messageID string) ([]Attachment, error)
	MarkRead(ctx context.Context, messageID string) error
}

// SeenSet records message ids so restarts do not re-ingest mail that was
// processed but not yet marked read.
type SeenSet interface {
	MarkSeen(ctx context.Context, set, member string) (bool, error)
}

// Documents accepts mailbox attachments as RFQ documents.
type Documents interface {
	IngestMail(ctx context.Context, req rfq.UploadRequest, prov models.MailProvenance) (*models.RfqDocument, error)
}

type PollResult struct {
	Fetched  int `json:"fetched"`
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
}

type Poller struct {
	source Source
	seen   SeenSet
	docs   Documents
	max    int
}

func NewPoller(source Source, seen SeenSet, docs Documents, max int) *Poller {
	if max <= 0 {
		max = 25
	}
	return &Poller{source: source, seen: seen, docs: docs, max: max}
}

// Poll ingests PDF attachments from unread mailbox messages. A message that
// fails is logged and skipped so one bad attachment cannot stall the mailbox.
func (p *Poller) Poll(ctx context.Context) (*PollResult, error) {
	messages, err := p.source.ListUnread(ctx, p.max)
	if err != nil {
		return nil, fmt.Errorf("poll mailbox: %w", err)
	}

	result := &PollResult{Fetched: len(messages)}
	for _, msg := range messages {
		fresh, err := p.seen.MarkSeen(ctx, seenSet, msg.ID)
		if err != nil {
			return result, fmt.Errorf("dedupe check: %w", err)
		}
		if !fresh {
			result.Skipped++
			continue
		}

		ingested, err := p.processMessage(ctx, msg)
		if err != nil {
			slog.Warn("mailbox message skipped", "message_id", msg.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Ingested += ingested

		if err := p.source.MarkRead(ctx, msg.ID); err != nil {
			slog.Warn("failed to mark message read", "message_id", msg.ID, "error", err)
		}
	}

	slog.Info("mailbox poll complete",
		"fetched", result.Fetched, "ingested", result.Ingested, "skipped", result.Skipped)
	return result, nil
}

func (p *Poller) processMessage(ctx context.Context, msg Message) (int, error) {
	if !msg.HasAttachments {
		return 0, nil
	}

	attachments, err := p.source.Attachments(ctx, msg.ID)
	if err != nil {
		return 0, err
	}

	prov := models.MailProvenance{
		MessageID:  msg.ID,
		Sender:     msg.From,
		Subject:    msg.Subject,
		ReceivedAt: msg.ReceivedAt,
	}

	ingested := 0
	for _, att := range attachments {
		if !isPDF(att) {
			continue
		}
		req := rfq.UploadRequest{
			FileName: att.Name,
			FileType: ".pdf",
			FileSize: int64(len(att.Data)),
			Source:   "mailbox",
			Data:     bytes.NewReader(att.Data),
		}
		if _, err := p.docs.IngestMail(ctx, req, prov); err != nil {
			return ingested, fmt.Errorf("ingest %s: %w", att.Name, err)
		}
		ingested++
	}
	return ingested, nil
}

func isPDF(att Attachment) bool {
	if strings.EqualFold(att.ContentType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(att.Name), ".pdf")
}
