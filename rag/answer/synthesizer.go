package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"districtguide/rag"
)

const (
	// temperature keeps answers close to the retrieved material.
	temperature = float32(0.1)
	// maxTokens bounds the generated answer length.
	maxTokens = 500
)

const systemPrompt = `You are a helpful assistant answering questions about a school district.
Answer using only the provided context. If the context does not contain the
answer, say you don't know. Be concise and factual.`

// Synthesizer turns a question plus retrieved documents into an answer by
// stuffing the document texts into a single prompt. No summarization or
// map-reduce fan-out: every retrieved text goes into the context verbatim.
type Synthesizer struct {
	chatModel model.BaseChatModel
}

// NewSynthesizer creates an answer synthesizer over the given chat model.
func NewSynthesizer(chatModel model.BaseChatModel) *Synthesizer {
	return &Synthesizer{chatModel: chatModel}
}

// Answer asks the model the question grounded on docs and returns the answer
// text together with the documents used as context. A failed model call is a
// *rag.SynthesisError; the caller may retry the query, nothing else changes.
func (s *Synthesizer) Answer(ctx context.Context, question string, docs []rag.Document) (rag.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return rag.Answer{}, &rag.SynthesisError{Op: "prompt", Err: fmt.Errorf("question cannot be empty")}
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildPrompt(question, docs)),
	}

	resp, err := s.chatModel.Generate(ctx, messages,
		model.WithTemperature(temperature),
		model.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return rag.Answer{}, &rag.SynthesisError{Op: "generate", Err: err}
	}

	return rag.Answer{
		Result:  strings.TrimSpace(resp.Content),
		Sources: docs,
	}, nil
}

// buildPrompt concatenates the retrieved document texts and appends the
// user question.
func buildPrompt(question string, docs []rag.Document) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "[%s] (%s)\n%s\n\n", doc.Title, doc.Source, doc.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
