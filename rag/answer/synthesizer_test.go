package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"districtguide/rag"
)

// fakeChatModel records the prompt and returns a canned reply.
type fakeChatModel struct {
	reply    string
	err      error
	messages []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = input
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not supported")
}

func contextDocs() []rag.Document {
	return []rag.Document{
		{Content: "The superintendent is Jane Doe.", Source: "https://example/about", Title: "About"},
		{Content: "The district has five campuses.", Source: "https://example/schools", Title: "Schools"},
	}
}

func TestAnswer_StuffsContextAndCitesSources(t *testing.T) {
	chat := &fakeChatModel{reply: "The superintendent is Jane Doe."}
	s := NewSynthesizer(chat)

	ans, err := s.Answer(context.Background(), "Who is the superintendent?", contextDocs())
	require.NoError(t, err)

	assert.Contains(t, ans.Result, "Jane Doe")
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "https://example/about", ans.Sources[0].Source)

	// The prompt must contain every retrieved text verbatim plus the question.
	require.Len(t, chat.messages, 2)
	assert.Equal(t, schema.System, chat.messages[0].Role)
	prompt := chat.messages[1].Content
	for _, doc := range contextDocs() {
		assert.Contains(t, prompt, doc.Content)
		assert.Contains(t, prompt, doc.Source)
	}
	assert.True(t, strings.Contains(prompt, "Who is the superintendent?"))
}

func TestAnswer_NoDocuments(t *testing.T) {
	chat := &fakeChatModel{reply: "I don't know."}
	s := NewSynthesizer(chat)

	ans, err := s.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Empty(t, ans.Sources)
	assert.Equal(t, "I don't know.", ans.Result)
}

func TestAnswer_ModelFailure(t *testing.T) {
	chat := &fakeChatModel{err: errors.New("rate limited")}
	s := NewSynthesizer(chat)

	_, err := s.Answer(context.Background(), "Who is the superintendent?", contextDocs())
	require.Error(t, err)

	var serr *rag.SynthesisError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "generate", serr.Op)
	assert.ErrorContains(t, serr.Unwrap(), "rate limited")
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	s := NewSynthesizer(&fakeChatModel{reply: "unused"})

	_, err := s.Answer(context.Background(), "   ", contextDocs())
	var serr *rag.SynthesisError
	require.True(t, errors.As(err, &serr))
}
