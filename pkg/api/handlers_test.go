package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-rag/chatbot-backend/pkg/chatbot"
	"github.com/flow-rag/chatbot-backend/pkg/document"
	"github.com/flow-rag/chatbot-backend/pkg/status"
)

type fakeBot struct {
	reply chatbot.Reply
	setup chatbot.SetupStatus
}

func (f *fakeBot) Setup(_ context.Context) chatbot.SetupStatus { return f.setup }

func (f *fakeBot) ProcessMessage(_ context.Context, _ string) chatbot.Reply { return f.reply }

type fakeUploader struct {
	result document.UploadResult
	calls  int
}

func (f *fakeUploader) SaveUploadedDocument(_ context.Context, _ []byte, _ string) document.UploadResult {
	f.calls++
	return f.result
}

func newTestRouter(bot *fakeBot, up *fakeUploader, maxBytes int64) http.Handler {
	return NewRouter(NewHandler(bot, up, maxBytes))
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}


func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestChatEmptyMessageIs400(t *testing.T) {
	h := newTestRouter(&fakeBot{}, &fakeUploader{}, 0)
	rec := postJSON(t, h, "/api/chat", `{"message": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSuccess(t *testing.T) {
	page := 1
	bot := &fakeBot{reply: chatbot.Reply{
		Status:   status.Success,
		Response: "Artificial Intelligence is a field of computer science.",
		Context: &chatbot.Context{
			NumDocsRetrieved: 1,
			Sources:          []chatbot.SourceRef{{Source: "docs/ai.txt", Page: &page}},
		},
	}}
	h := newTestRouter(bot, &fakeUploader{}, 0)

	rec := postJSON(t, h, "/api/chat", `{"message": "What is Artificial Intelligence?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, status.Success, resp.Status)
	assert.NotEmpty(t, resp.Response)
	require.NotNil(t, resp.Context)
	assert.GreaterOrEqual(t, resp.Context.NumDocsRetrieved, 1)
}

func TestChatDownstreamErrorIs500(t *testing.T) {
	bot := &fakeBot{reply: chatbot.Reply{Status: status.Error, Message: "gateway down"}}
	h := newTestRouter(bot, &fakeUploader{}, 0)

	rec := postJSON(t, h, "/api/chat", `{"message": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway down")
}

func TestUploadUnsupportedExtensionIs415(t *testing.T) {
	up := &fakeUploader{}
	h := newTestRouter(&fakeBot{}, up, 0)

	body, contentType := multipartUpload(t, "report.docx", []byte("word doc"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), status.Error)
	assert.Zero(t, up.calls, "document service must not be invoked")
}

func TestUploadTooLargeIs413(t *testing.T) {
	up := &fakeUploader{}
	h := newTestRouter(&fakeBot{}, up, 8)

	body, contentType := multipartUpload(t, "big.txt", []byte("way more than eight bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, up.calls)
}

func TestUploadSuccess(t *testing.T) {
	up := &fakeUploader{result: document.UploadResult{
		Result:       status.OK("Document uploaded and added to existing vector store successfully"),
		DocumentID:   "0b7e915c-8a2f-4a6e-9b63-3f1f6f2a6f11",
		DocumentName: "notes.txt",
	}}
	h := newTestRouter(&fakeBot{}, up, 0)

	body, contentType := multipartUpload(t, "notes.txt", []byte("some notes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, status.Success, resp["status"])
	assert.Equal(t, "notes.txt", resp["document_name"])
	assert.NotEmpty(t, resp["document_id"])
	assert.Equal(t, 1, up.calls)
}

func TestUploadProcessingErrorIs500(t *testing.T) {
	up := &fakeUploader{result: document.UploadResult{Result: status.Err("boom")}}
	h := newTestRouter(&fakeBot{}, up, 0)

	body, contentType := multipartUpload(t, "notes.txt", []byte("some notes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUploadMissingFileIs400(t *testing.T) {
	h := newTestRouter(&fakeBot{}, &fakeUploader{}, 0)
	rec := postJSON(t, h, "/api/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	bot := &fakeBot{setup: chatbot.SetupStatus{
		RAGStatus: status.OK("Vector store is up-to-date, skipping document processing"),
		APIStatus: status.Result{Status: "ok", Message: "Successfully connected to Flow API"},
	}}
	h := newTestRouter(bot, &fakeUploader{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "API is running", resp.Message)
	assert.Equal(t, status.Success, resp.RAGStatus.Status)
}
