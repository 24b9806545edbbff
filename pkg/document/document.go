// Package document covers the ingestion side of the pipeline: loading files
// into documents, splitting them into chunks, and handling user uploads.
package document

// Metadata traces a document back to the file it came from. Page is 1-based
// and zero when the source format has no pages.
type Metadata struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
}

// Document is an immutable text record produced by the loader, one per file
// (one per page for PDFs). Chunks produced by the splitter reuse the same
// type with inherited metadata.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}
