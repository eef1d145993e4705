package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/utils"
)

func TestChatRequiresAcceptedLink(t *testing.T) {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()

	link, err := f.links.Request(f.ctx, buyer, supplier.ID)
	require.NoError(t, err)

	_, err = f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{Text: "hello"})
	requireKind(t, err, KindForbidden)
	_, _, err = f.chat.List(f.ctx, owner, link.ID, utils.PaginationParams{})
	requireKind(t, err, KindForbidden)

	_, err = f.links.Accept(f.ctx, owner, link.ID)
	require.NoError(t, err)

	msg, err := f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, buyer.UserID(), msg.SenderID)

	_, err = f.links.Block(f.ctx, owner, link.ID)
	require.NoError(t, err)
	_, err = f.chat.Send(f.ctx, owner, link.ID, &SendMessageRequest{Text: "bye"})
	requireKind(t, err, KindForbidden)
}

func TestChatParticipants(t *testing.T) {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()
	sales, _ := f.hire(owner, models.StaffRoleSales)
	link := f.acceptedLink(buyer, owner, supplier)

	_, err := f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{Text: "need 40 crates"})
	require.NoError(t, err)
	_, err = f.chat.Send(f.ctx, sales, link.ID, &SendMessageRequest{Text: "on it"})
	require.NoError(t, err)

	_, err = f.chat.Send(f.ctx, f.consumer(), link.ID, &SendMessageRequest{Text: "hi"})
	requireKind(t, err, KindForbidden)
	outsider, _ := f.company()
	_, _, err = f.chat.List(f.ctx, outsider, link.ID, utils.PaginationParams{})
	requireKind(t, err, KindForbidden)

	messages, total, err := f.chat.List(f.ctx, owner, link.ID, utils.PaginationParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, messages, 2)
	assert.Len(t, f.events.types(), 4)
}

func TestChatMessageContent(t *testing.T) {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()
	link := f.acceptedLink(buyer, owner, supplier)

	_, err := f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{Text: "   "})
	requireKind(t, err, KindBadRequest)

	_, err = f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{Text: strings.Repeat("x", 4001)})
	requireKind(t, err, KindBadRequest)

	msg, err := f.chat.Send(f.ctx, buyer, link.ID, &SendMessageRequest{AudioURL: "https://cdn.test/voice.ogg"})
	require.NoError(t, err)
	assert.Empty(t, msg.Text)
	assert.Equal(t, "https://cdn.test/voice.ogg", msg.AudioURL)
}

func TestUploadAttachment(t *testing.T) {
	f := newFixture(t)
	buyer := f.consumer()
	owner, supplier := f.company()
	link := f.acceptedLink(buyer, owner, supplier)

	data := []byte("%PDF-1.4 product sheet")
	res, err := f.chat.UploadAttachment(f.ctx, buyer, link.ID, &Attachment{
		Kind:        models.AttachmentKindFile,
		Filename:    "Sheet.PDF",
		ContentType: "application/pdf",
		Data:        data,
	})
	require.NoError(t, err)
	assert.Equal(t, len(data), res.Size)

	wantKey := "chat/" + link.ID.String() + "/file/" + utils.HashBytes(data) + ".pdf"
	require.Len(t, f.objects.keys, 1)
	assert.Equal(t, wantKey, f.objects.keys[0])
	assert.Equal(t, "https://cdn.test/"+wantKey, res.URL)

	_, err = f.chat.UploadAttachment(f.ctx, buyer, link.ID, &Attachment{Kind: "video", Filename: "a.mp4", Data: data})
	requireKind(t, err, KindBadRequest)
	_, err = f.chat.UploadAttachment(f.ctx, buyer, link.ID, &Attachment{Kind: models.AttachmentKindAudio, Filename: "a.exe", Data: data})
	requireKind(t, err, KindBadRequest)
	_, err = f.chat.UploadAttachment(f.ctx, buyer, link.ID, &Attachment{Kind: models.AttachmentKindFile, Filename: "a.pdf"})
	requireKind(t, err, KindBadRequest)
	_, err = f.chat.UploadAttachment(f.ctx, f.consumer(), link.ID, &Attachment{Kind: models.AttachmentKindFile, Filename: "a.pdf", Data: data})
	requireKind(t, err, KindForbidden)
}

func TestLocalStorageWritesUnderUploadDir(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorageService(&config.Config{AWS: config.AWSConfig{
		LocalUploadDir: dir,
		LocalBaseURL:   "/uploads/",
	}})
	require.NoError(t, err)

	url, err := storage.Put(context.Background(), "chat/abc/file/x.txt", "text/plain", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/chat/abc/file/x.txt", url)

	got, err := os.ReadFile(filepath.Join(dir, "chat", "abc", "file", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}
