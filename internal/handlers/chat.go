package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /chat/:link_id/messages
func (h *ChatHandler) Send(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	linkID, ok := parseID(c, "link_id", "link")
	if !ok {
		return
	}
	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.chatService.Send(c.Request.Context(), p, linkID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeyChatMessageSent, message)
}

// GET /chat/:link_id/messages
func (h *ChatHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	linkID, ok := parseID(c, "link_id", "link")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatService.List(c.Request.Context(), p, linkID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params))
}

// POST /chat/:link_id/attachments (multipart: kind, file)
func (h *ChatHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	linkID, ok := parseID(c, "link_id", "link")
	if !ok {
		return
	}
	lang := utils.GetLangFromContext(c)

	kind := models.AttachmentKind(c.DefaultPostForm("kind", string(models.AttachmentKindFile)))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyChatFileMissing), nil)
		return
	}

	limit := services.UploadOptionsFor(string(kind)).MaxSize
	if fileHeader.Size > limit {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyChatFileTooLarge, limit/(1024*1024)), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respondError(c, err)
		return
	}

	attachment, err := h.chatService.UploadAttachment(c.Request.Context(), p, linkID, &services.Attachment{
		Kind:        kind,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, i18n.KeyChatAttachmentSent, attachment)
}
