package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"repoanalyst/internal/llm"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(context.Context, []llm.Message) (string, error)     { return f.reply, f.err }
func (f *fakeLLM) ChatJSON(context.Context, []llm.Message) (string, error) { return f.reply, f.err }

func TestClassifyRelevantWithRefinement(t *testing.T) {
	r := New(&fakeLLM{reply: `{"relevant": true, "reason": "asks about code", "refined_query": "where is the YAML config parsed"}`}, zap.NewNop())
	v := r.ClassifyAndRefine(context.Background(), "where's the config stuff?")
	assert.True(t, v.Relevant)
	assert.Equal(t, "where is the YAML config parsed", v.RefinedQuery)
	assert.Empty(t, v.RejectionMessage)
}

func TestClassifyIrrelevant(t *testing.T) {
	r := New(&fakeLLM{reply: `{"relevant": false, "reason": "off topic", "refined_query": ""}`}, zap.NewNop())
	v := r.ClassifyAndRefine(context.Background(), "what's the weather?")
	assert.False(t, v.Relevant)
	assert.NotEmpty(t, v.RejectionMessage)
	assert.Equal(t, "what's the weather?", v.RefinedQuery, "empty refinement falls back to the original")
}

func TestClassifyIrrelevantUsesModelRejection(t *testing.T) {
	r := New(&fakeLLM{reply: `{"relevant": false, "reason": "off topic", "refined_query": "", "rejection_message": "I only answer questions about this repository, not the weather."}`}, zap.NewNop())
	v := r.ClassifyAndRefine(context.Background(), "what's the weather?")
	assert.False(t, v.Relevant)
	assert.Equal(t, "I only answer questions about this repository, not the weather.", v.RejectionMessage)
}

func TestClassifyCallFailurePassesThrough(t *testing.T) {
	r := New(&fakeLLM{err: errors.New("timeout")}, zap.NewNop())
	v := r.ClassifyAndRefine(context.Background(), "how does dialing work?")
	assert.True(t, v.Relevant)
	assert.Equal(t, "how does dialing work?", v.RefinedQuery)
}

func TestClassifyUnparseableResponsePassesThrough(t *testing.T) {
	r := New(&fakeLLM{reply: "sure, sounds relevant to me"}, zap.NewNop())
	v := r.ClassifyAndRefine(context.Background(), "q")
	assert.True(t, v.Relevant)
	assert.Equal(t, "q", v.RefinedQuery)
}
