// Package chatbot orchestrates retrieval and generation for a user message.
package chatbot

import (
	"context"

	"github.com/flow-rag/chatbot-backend/pkg/document"
	"github.com/flow-rag/chatbot-backend/pkg/flowapi"
	"github.com/flow-rag/chatbot-backend/pkg/status"
)

// Retriever is the slice of the document service the chatbot needs.
type Retriever interface {
	SetupRAGSystem(ctx context.Context) status.Result
	Query(ctx context.Context, query string, k int) []document.Document
}

// Generator is the slice of the Flow API client the chatbot needs.
type Generator interface {
	GenerateResponse(ctx context.Context, message string, contextChunks []string) flowapi.GenerateResult
	HealthCheck(ctx context.Context) status.Result
}

// Service wires retrieval to generation and attaches attribution metadata to
// every successful answer.
type Service struct {
	Docs       Retriever
	Flow       Generator
	RetrievalK int
}

func NewService(docs Retriever, flow Generator, retrievalK int) *Service {
	if retrievalK <= 0 {
		retrievalK = 5
	}
	return &Service{Docs: docs, Flow: flow, RetrievalK: retrievalK}
}

// SourceRef attributes a retrieved chunk back to its document.
type SourceRef struct {
	Source string `json:"source"`
	Page   *int   `json:"page"`
}

// Context reports what retrieval contributed to an answer.
type Context struct {
	NumDocsRetrieved int         `json:"num_docs_retrieved"`
	Sources          []SourceRef `json:"sources"`
}

// Reply is the chatbot's answer to one message.
type Reply struct {
	Status   string   `json:"status"`
	Response string   `json:"response,omitempty"`
	Message  string   `json:"message,omitempty"`
	Context  *Context `json:"context,omitempty"`
}

// SetupStatus aggregates the readiness of the RAG index and the gateway.
type SetupStatus struct {
	RAGStatus status.Result `json:"rag_status"`
	APIStatus status.Result `json:"api_status"`
}

// Setup prepares the index and probes the gateway connection.
func (s *Service) Setup(ctx context.Context) SetupStatus {
	return SetupStatus{
		RAGStatus: s.Docs.SetupRAGSystem(ctx),
		APIStatus: s.Flow.HealthCheck(ctx),
	}
}

// ProcessMessage retrieves relevant chunks, generates an answer grounded in
// them, and attaches retrieval metadata. Failures surface as error-status
// replies, never as raised errors.
func (s *Service) ProcessMessage(ctx context.Context, message string) Reply {
	relevant := s.Docs.Query(ctx, message, s.RetrievalK)

	chunks := make([]string, len(relevant))
	for i, doc := range relevant {
		chunks[i] = doc.Content
	}

	result := s.Flow.GenerateResponse(ctx, message, chunks)
	if result.Status == status.Error {
		return Reply{Status: status.Error, Message: result.Message}
	}

	sources := make([]SourceRef, len(relevant))
	for i, doc := range relevant {
		ref := SourceRef{Source: doc.Metadata.Source}
		if doc.Metadata.Page > 0 {
			page := doc.Metadata.Page
			ref.Page = &page
		}
		sources[i] = ref
	}

	return Reply{
		Status:   status.Success,
		Response: result.Response,
		Context:  &Context{NumDocsRetrieved: len(relevant), Sources: sources},
	}
}
