// Package api exposes the HTTP surface: health, chat, and upload. Handlers
// are request/response glue; they inspect service status values and map them
// to HTTP codes.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flow-rag/chatbot-backend/pkg/chatbot"
	"github.com/flow-rag/chatbot-backend/pkg/document"
	"github.com/flow-rag/chatbot-backend/pkg/status"
)

// Uploader is the slice of the document service the upload endpoint needs.
type Uploader interface {
	SaveUploadedDocument(ctx context.Context, content []byte, filename string) document.UploadResult
}

// Chatbot is what the chat and health endpoints need.
type Chatbot interface {
	Setup(ctx context.Context) chatbot.SetupStatus
	ProcessMessage(ctx context.Context, message string) chatbot.Reply
}

// Handler carries the injected services; no package-level state.
type Handler struct {
	Bot            Chatbot
	Docs           Uploader
	MaxUploadBytes int64
}

func NewHandler(bot Chatbot, docs Uploader, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{Bot: bot, Docs: docs, MaxUploadBytes: maxUploadBytes}
}

// MessageRequest is the chat request body.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is the chat response body.
type MessageResponse struct {
	Response string           `json:"response"`
	Status   string           `json:"status"`
	Context  *chatbot.Context `json:"context,omitempty"`
}

// HealthResponse reports API liveness plus downstream readiness.
type HealthResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	RAGStatus status.Result `json:"rag_status"`
	APIStatus status.Result `json:"api_status"`
}

type errorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func (h *Handler) Health(c echo.Context) error {
	setup := h.Bot.Setup(c.Request().Context())
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Message:   "API is running",
		RAGStatus: setup.RAGStatus,
		APIStatus: setup.APIStatus,
	})
}

func (h *Handler) Chat(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Status: status.Error, Detail: "Invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Status: status.Error, Detail: "Message cannot be empty"})
	}

	reply := h.Bot.ProcessMessage(c.Request().Context(), req.Message)
	if reply.Status == status.Error {
		return c.JSON(http.StatusInternalServerError, errorResponse{Status: status.Error, Detail: reply.Message})
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Response: reply.Response,
		Status:   status.Success,
		Context:  reply.Context,
	})
}

func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Status: status.Error, Detail: "Missing file in request"})
	}

	if fileHeader.Size > h.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Status: status.Error,
			Detail: "File exceeds the maximum allowed size",
		})
	}

	// Extension gate lives here so unsupported types never reach the
	// document service.
	if !document.AllowedExtension(fileHeader.Filename) {
		return c.JSON(http.StatusUnsupportedMediaType, errorResponse{
			Status: status.Error,
			Detail: "Unsupported file type. Only .txt and .pdf files are supported",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Status: status.Error, Detail: "Could not read uploaded file"})
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, h.MaxUploadBytes+1))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Status: status.Error, Detail: "Could not read uploaded file"})
	}
	if int64(len(content)) > h.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Status: status.Error,
			Detail: "File exceeds the maximum allowed size",
		})
	}

	result := h.Docs.SaveUploadedDocument(c.Request().Context(), content, fileHeader.Filename)
	if result.IsError() {
		return c.JSON(http.StatusInternalServerError, errorResponse{Status: status.Error, Detail: result.Message})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":        result.Status,
		"message":       result.Message,
		"document_id":   result.DocumentID,
		"document_name": result.DocumentName,
	})
}
