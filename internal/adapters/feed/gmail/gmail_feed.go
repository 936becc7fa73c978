// Package gmail adapts a Gmail mailbox into a voucher event feed. Messages
// matching the configured subject keyword are fetched unread and marked read
// once their ingest outcome is terminal.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
)

// fetchPageSize bounds one Fetch so a huge backlog is drained over several
// polling cycles instead of one giant run.
const fetchPageSize = 50

type Feed struct {
	svc            *gmailapi.Service
	subjectKeyword string
	// externalID → gmail message id, so Ack can resolve the message to mark.
	mu         sync.Mutex
	messageIDs map[string]string
}

// NewFeed builds a Gmail feed from OAuth credentials and a stored user token,
// both as raw JSON. The token must carry the gmail.modify scope; marking
// messages read is how events are acknowledged.
func NewFeed(ctx context.Context, credentialsJSON, tokenJSON []byte, subjectKeyword string) (*Feed, error) {
	oauthCfg, err := google.ConfigFromJSON(credentialsJSON, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse gmail token: %w", err)
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}
	return &Feed{
		svc:            svc,
		subjectKeyword: subjectKeyword,
		messageIDs:     make(map[string]string),
	}, nil
}

var _ portssvc.VoucherFeed = (*Feed)(nil)

func (f *Feed) Source() string { return "gmail" }

// Fetch lists unread messages matching the subject keyword and materialises
// each into a raw voucher event. The message id doubles as the external id,
// which is what makes re-delivery of an unacked message harmless.
func (f *Feed) Fetch(ctx context.Context) ([]domain.RawVoucherEvent, error) {
	query := fmt.Sprintf("is:unread subject:%s", f.subjectKeyword)
	list, err := f.svc.Users.Messages.List("me").Q(query).MaxResults(fetchPageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	events := make([]domain.RawVoucherEvent, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := f.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		event, err := f.toEvent(ctx, msg)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.messageIDs[event.ExternalID] = msg.Id
		f.mu.Unlock()
		events = append(events, event)
	}
	return events, nil
}

// Ack marks the message read so the next Fetch no longer returns it.
func (f *Feed) Ack(ctx context.Context, externalID string) error {
	f.mu.Lock()
	msgID, ok := f.messageIDs[externalID]
	f.mu.Unlock()
	if !ok {
		msgID = strings.TrimPrefix(externalID, "gmail:")
	}
	_, err := f.svc.Users.Messages.Modify("me", msgID, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark message %s read: %w", msgID, err)
	}
	f.mu.Lock()
	delete(f.messageIDs, externalID)
	f.mu.Unlock()
	return nil
}

func (f *Feed) toEvent(ctx context.Context, msg *gmailapi.Message) (domain.RawVoucherEvent, error) {
	event := domain.RawVoucherEvent{
		ExternalID: "gmail:" + msg.Id,
		Subject:    headerValue(msg.Payload, "Subject"),
		ObservedAt: time.UnixMilli(msg.InternalDate),
	}

	body, attachment := walkParts(msg.Payload)
	event.RawPayload = body
	if attachment != nil {
		event.AttachmentName = attachment.Filename
		data, err := f.attachmentBytes(ctx, msg.Id, attachment)
		if err != nil {
			return domain.RawVoucherEvent{}, err
		}
		event.AttachmentBytes = data
	}
	return event, nil
}

func (f *Feed) attachmentBytes(ctx context.Context, msgID string, part *gmailapi.MessagePart) ([]byte, error) {
	if part.Body.Data != "" {
		return base64.URLEncoding.DecodeString(part.Body.Data)
	}
	att, err := f.svc.Users.Messages.Attachments.Get("me", msgID, part.Body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment for message %s: %w", msgID, err)
	}
	return base64.URLEncoding.DecodeString(att.Data)
}

func headerValue(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// walkParts flattens the MIME tree into the plain-text body and the first
// image attachment, which is where the barcode lives.
func walkParts(payload *gmailapi.MessagePart) (string, *gmailapi.MessagePart) {
	if payload == nil {
		return "", nil
	}
	var body strings.Builder
	var attachment *gmailapi.MessagePart

	var walk func(part *gmailapi.MessagePart)
	walk = func(part *gmailapi.MessagePart) {
		if part == nil {
			return
		}
		switch {
		case part.Filename != "" && strings.HasPrefix(part.MimeType, "image/"):
			if attachment == nil {
				attachment = part
			}
		case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "":
			if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
				body.Write(decoded)
			}
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(payload)
	return body.String(), attachment
}
