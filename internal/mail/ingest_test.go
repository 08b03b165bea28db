package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andretaki/simurgh/internal/models"
	"github.com/andretaki/simurgh/internal/rfq"
)

type fakeSource struct {
	messages    []Message
	attachments map[string][]Attachment
	attErr      map[string]error
	markedRead  []string
}

func (f *fakeSource) ListUnread(_ context.Context, max int) ([]Message, error) {
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func (f *fakeSource) Attachments(_ context.Context, messageID string) ([]Attachment, error) {
	if err := f.attErr[messageID]; err != nil {
		return nil, err
	}
	return f.attachments[messageID], nil
}

func (f *fakeSource) MarkRead(_ context.Context, messageID string) error {
	f.markedRead = append(f.markedRead, messageID)
	return nil
}

type fakeSeen struct {
	members map[string]bool
}

func (f *fakeSeen) MarkSeen(_ context.Context, _, member string) (bool, error) {
	if f.members == nil {
		f.members = make(map[string]bool)
	}
	if f.members[member] {
		return false, nil
	}
	f.members[member] = true
	return true, nil
}

type ingestCall struct {
	req  rfq.UploadRequest
	prov models.MailProvenance
}

type fakeDocs struct {
	calls []ingestCall
	err   error
}

func (f *fakeDocs) IngestMail(_ context.Context, req rfq.UploadRequest, prov models.MailProvenance) (*models.RfqDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, ingestCall{req: req, prov: prov})
	return &models.RfqDocument{FileName: req.FileName}, nil
}

func pdfAttachment(name string) Attachment {
	return Attachment{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake")}
}

func TestPollIngestsPdfAttachments(t *testing.T) {
	received := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	source := &fakeSource{
		messages: []Message{
			{ID: "msg-1", Subject: "RFQ SPE4A6-26-Q-0411", From: "buyer@dla.mil", ReceivedAt: &received, HasAttachments: true},
		},
		attachments: map[string][]Attachment{
			"msg-1": {
				pdfAttachment("SPE4A6-26-Q-0411.pdf"),
				{Name: "logo.png", ContentType: "image/png", Data: []byte{1, 2}},
			},
		},
	}
	docs := &fakeDocs{}
	poller := NewPoller(source, &fakeSeen{}, docs, 25)

	result, err := poller.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 0, result.Skipped)

	require.Len(t, docs.calls, 1)
	call := docs.calls[0]
	assert.Equal(t, "SPE4A6-26-Q-0411.pdf", call.req.FileName)
	assert.Equal(t, "mailbox", call.req.Source)
	assert.Equal(t, "msg-1", call.prov.MessageID)
	assert.Equal(t, "buyer@dla.mil", call.prov.Sender)
	assert.Equal(t, "RFQ SPE4A6-26-Q-0411", call.prov.Subject)
	require.NotNil(t, call.prov.ReceivedAt)
	assert.True(t, call.prov.ReceivedAt.Equal(received))

	assert.Equal(t, []string{"msg-1"}, source.markedRead)
}

func TestPollSkipsSeenMessages(t *testing.T) {
	source := &fakeSource{
		messages: []Message{
			{ID: "msg-1", HasAttachments: true},
		},
		attachments: map[string][]Attachment{
			"msg-1": {pdfAttachment("rfq.pdf")},
		},
	}
	seen := &fakeSeen{}
	docs := &fakeDocs{}
	poller := NewPoller(source, seen, docs, 25)

	_, err := poller.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs.calls, 1)

	result, err := poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Ingested)
	assert.Len(t, docs.calls, 1)
}

func TestPollMessageWithoutAttachmentsIsMarkedRead(t *testing.T) {
	source := &fakeSource{
		messages: []Message{{ID: "msg-1", HasAttachments: false}},
	}
	docs := &fakeDocs{}
	poller := NewPoller(source, &fakeSeen{}, docs, 25)

	result, err := poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Ingested)
	assert.Empty(t, docs.calls)
	assert.Equal(t, []string{"msg-1"}, source.markedRead)
}

func TestPollBadMessageDoesNotAbortBatch(t *testing.T) {
	source := &fakeSource{
		messages: []Message{
			{ID: "msg-bad", HasAttachments: true},
			{ID: "msg-good", HasAttachments: true},
		},
		attachments: map[string][]Attachment{
			"msg-good": {pdfAttachment("good.pdf")},
		},
		attErr: map[string]error{
			"msg-bad": errors.New("attachment fetch failed"),
		},
	}
	docs := &fakeDocs{}
	poller := NewPoller(source, &fakeSeen{}, docs, 25)

	result, err := poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Ingested)
	require.Len(t, docs.calls, 1)
	assert.Equal(t, "good.pdf", docs.calls[0].req.FileName)

	// The failed message stays unread for the next poll.
	assert.Equal(t, []string{"msg-good"}, source.markedRead)
}

func TestPollRespectsMax(t *testing.T) {
	source := &fakeSource{
		messages: []Message{
			{ID: "msg-1"}, {ID: "msg-2"}, {ID: "msg-3"},
		},
	}
	poller := NewPoller(source, &fakeSeen{}, &fakeDocs{}, 2)

	result, err := poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
}
