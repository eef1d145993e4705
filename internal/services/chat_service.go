package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type ChatService struct {
	store   *repository.Store
	objects ObjectStore
	events  EventPublisher
}

type SendMessageRequest struct {
	Text     string `json:"text,omitempty" validate:"max=4000"`
	FileURL  string `json:"file_url,omitempty" validate:"omitempty,uri,max=1024"`
	AudioURL string `json:"audio_url,omitempty" validate:"omitempty,uri,max=1024"`
}

type Attachment struct {
	Kind        models.AttachmentKind
	Filename    string
	ContentType string
	Data        []byte
}

type AttachmentResponse struct {
	Kind models.AttachmentKind `json:"kind"`
	URL  string                `json:"url"`
	Size int                   `json:"size"`
}

func NewChatService(store *repository.Store, objects ObjectStore, events EventPublisher) *ChatService {
	return &ChatService{
		store:   store,
		objects: objects,
		events:  events,
	}
}

// openLink is the gate shared by every chat operation: the caller is a
// participant and the link is ACCEPTED.
func (s *ChatService) openLink(ctx context.Context, p access.Principal, linkID uuid.UUID) (*models.Link, error) {
	link, err := loadLink(ctx, s.store, linkID)
	if err != nil {
		return nil, err
	}
	if err := EnsureParticipant(ctx, s.store, p, link); err != nil {
		return nil, err
	}
	if err := EnsureAccepted(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *ChatService) Send(ctx context.Context, p access.Principal, linkID uuid.UUID, req *SendMessageRequest) (*models.Message, error) {
	link, err := s.openLink(ctx, p, linkID)
	if err != nil {
		return nil, err
	}

	req.Text = strings.TrimSpace(req.Text)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	message := &models.Message{
		LinkID:   link.ID,
		SenderID: p.UserID(),
		Text:     req.Text,
		FileURL:  req.FileURL,
		AudioURL: req.AudioURL,
	}
	if message.IsEmpty() {
		return nil, ErrBadRequest(i18n.KeyChatEmpty)
	}

	if err := s.store.Messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	publish(ctx, s.events, Event{
		Type:       EventMessageSent,
		ActorID:    p.UserID(),
		SupplierID: link.SupplierID,
		EntityID:   message.ID,
		Data:       map[string]interface{}{"link_id": link.ID},
	})
	return message, nil
}

// List returns the link's messages newest first.
func (s *ChatService) List(ctx context.Context, p access.Principal, linkID uuid.UUID, params utils.PaginationParams) ([]models.Message, int64, error) {
	link, err := s.openLink(ctx, p, linkID)
	if err != nil {
		return nil, 0, err
	}

	messages, total, err := s.store.Messages.ListByLink(ctx, link.ID, pageOf(params.Limit, params.Offset))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

// UploadAttachment stores a file or audio clip under a content-addressed
// key and returns the URL to reference from a message.
func (s *ChatService) UploadAttachment(ctx context.Context, p access.Principal, linkID uuid.UUID, att *Attachment) (*AttachmentResponse, error) {
	link, err := s.openLink(ctx, p, linkID)
	if err != nil {
		return nil, err
	}

	if att.Kind != models.AttachmentKindFile && att.Kind != models.AttachmentKindAudio {
		return nil, ErrBadRequest(i18n.KeyChatInvalidKind).with("kind", att.Kind)
	}
	if len(att.Data) == 0 {
		return nil, ErrBadRequest(i18n.KeyChatFileMissing)
	}

	opts := UploadOptionsFor(string(att.Kind))
	if int64(len(att.Data)) > opts.MaxSize {
		return nil, ErrBadRequest(i18n.KeyChatFileTooLarge, opts.MaxSize/(1024*1024))
	}
	if !opts.allows(att.Filename) {
		return nil, ErrBadRequest(i18n.KeyValidationInvalid, "file type").with("allowed", opts.AllowedTypes)
	}

	key := fmt.Sprintf("chat/%s/%s/%s%s",
		link.ID, att.Kind, utils.HashBytes(att.Data), strings.ToLower(filepath.Ext(att.Filename)))
	url, err := s.objects.Put(ctx, key, att.ContentType, att.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	return &AttachmentResponse{Kind: att.Kind, URL: url, Size: len(att.Data)}, nil
}
