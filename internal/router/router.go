package router

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"repoanalyst/internal/llm"
)

// Verdict is the routing decision for one incoming query.
type Verdict struct {
	Relevant         bool
	Reason           string
	RefinedQuery     string
	RejectionMessage string
}

// Router classifies whether a query is about the indexed repository and
// rewrites vague questions into retrieval-friendly form. Classification is
// advisory: on any failure the query is treated as relevant and passed
// through unchanged.
type Router struct {
	llm llm.Client
	log *zap.Logger
}

func New(client llm.Client, log *zap.Logger) *Router {
	return &Router{llm: client, log: log}
}

const systemPrompt = `You decide whether a user question is about the contents of a software repository (its code, architecture, configuration, or documentation).

Examples of relevant questions:
- "How does the retry logic in the HTTP client work?"
- "Where is the configuration file parsed?"
- "What does the indexer do with markdown files?"

Examples of irrelevant questions:
- "What's the weather today?"
- "Write me a poem about databases."
- "Who won the world cup?"

Respond with a JSON object:
{"relevant": true/false, "reason": "<short explanation>", "refined_query": "<the question rewritten to be specific and searchable, or the original if already clear>", "rejection_message": "<for irrelevant questions only: a short, polite reply explaining why this tool cannot answer that particular question>"}`

// ClassifyAndRefine returns the routing verdict for the query.
func (r *Router) ClassifyAndRefine(ctx context.Context, query string) Verdict {
	raw, err := r.llm.ChatJSON(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: query},
	})
	if err != nil {
		r.log.Warn("router call failed, passing query through", zap.Error(err))
		return Verdict{Relevant: true, RefinedQuery: query}
	}

	cleaned := llm.CleanJSON(raw)
	relevant := gjson.Get(cleaned, "relevant")
	if !relevant.Exists() {
		r.log.Warn("router response unparseable, passing query through")
		return Verdict{Relevant: true, RefinedQuery: query}
	}

	v := Verdict{
		Relevant:     relevant.Bool(),
		Reason:       strings.TrimSpace(gjson.Get(cleaned, "reason").String()),
		RefinedQuery: strings.TrimSpace(gjson.Get(cleaned, "refined_query").String()),
	}
	if v.RefinedQuery == "" {
		v.RefinedQuery = query
	}
	if !v.Relevant {
		v.RejectionMessage = strings.TrimSpace(gjson.Get(cleaned, "rejection_message").String())
		if v.RejectionMessage == "" {
			v.RejectionMessage = "This question doesn't appear to be about the indexed repository. " +
				"Please ask about its code, architecture, configuration, or documentation."
		}
	}
	return v
}
