package rag

// Document is a normalized page promoted into the corpus and stored in the
// vector index.
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Source   string                 `json:"source"`
	Title    string                 `json:"title"`
	Vector   []float32              `json:"vector,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult pairs a retrieved document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float32
}

// Answer is the synthesizer output: the model's free-text answer plus the
// documents that were stuffed into the prompt, echoed back for citation.
type Answer struct {
	Result  string
	Sources []Document
}
