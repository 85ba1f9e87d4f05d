package judge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"repoanalyst/internal/domain"
	"repoanalyst/internal/llm"
)

// NeutralScore is assigned when the evaluator call fails or its response
// cannot be parsed. It sits above the retry threshold so degraded evaluation
// never loops the pipeline.
const NeutralScore = 4

// RetryThreshold is the highest score that still triggers a retry.
const RetryThreshold = 2

const (
	minScore          = 1
	maxScore          = 6
	feedbackLimit     = 150
	evidenceTextLimit = 500
)

// Thresholds maps judge scores to confidence bands for finalization.
type Thresholds struct {
	High   int
	Medium int
}

// Judge scores an answer against the evidence it was generated from. It
// never returns an error: any failure degrades to the neutral score with no
// feedback.
type Judge struct {
	llm        llm.Client
	thresholds Thresholds
	log        *zap.Logger
}

func New(client llm.Client, thresholds Thresholds, log *zap.Logger) *Judge {
	if thresholds.High == 0 {
		thresholds.High = 5
	}
	if thresholds.Medium == 0 {
		thresholds.Medium = 3
	}
	return &Judge{llm: client, thresholds: thresholds, log: log}
}

// Evaluate returns a score in [1,6] and, for failing scores only, a short
// feedback string for the retry prompt.
func (j *Judge) Evaluate(ctx context.Context, query string, evidence []domain.RetrievedChunk, answer string) (int, string) {
	prompt := j.buildPrompt(query, evidence, answer)
	raw, err := j.llm.ChatJSON(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		j.log.Warn("judge call failed, using neutral score", zap.Error(err))
		return NeutralScore, ""
	}
	score, feedback := parseResponse(raw)
	if score > RetryThreshold {
		feedback = ""
	}
	if len(feedback) > feedbackLimit {
		cut := feedbackLimit - 3
		for cut > 0 && !utf8.RuneStart(feedback[cut]) {
			cut--
		}
		feedback = feedback[:cut] + "..."
	}
	j.log.Debug("answer judged", zap.Int("score", score), zap.Bool("has_feedback", feedback != ""))
	return score, feedback
}

// ConfidenceMessage returns the annotation for a score, or "" when the score
// clears the high-confidence threshold.
func (j *Judge) ConfidenceMessage(score int) string {
	switch {
	case score >= j.thresholds.High:
		return ""
	case score >= j.thresholds.Medium:
		return "[Note: Low confidence in this answer. " +
			"The information provided may be incomplete or partially speculative. " +
			"Please verify important details.]"
	default:
		return "[Warning: Very low confidence in this answer. " +
			"The response may not be well-grounded in the available evidence.]"
	}
}

// CannotHelpMessage is the canonical refusal used when an answer keeps
// failing evaluation after all retries.
func CannotHelpMessage() string {
	return "I cannot provide a reliable answer to this query based on the available information in the repository. " +
		"The evidence found does not sufficiently support a well-grounded response. " +
		"Please try rephrasing your question or asking about a different aspect of the codebase."
}

const systemPrompt = `You are a strict evaluator of answers produced by a repository question-answering system. You grade how well an answer is grounded in the evidence provided.`

func (j *Judge) buildPrompt(query string, evidence []domain.RetrievedChunk, answer string) string {
	var b strings.Builder
	b.WriteString("Evaluate the following answer.\n\nQuestion:\n")
	b.WriteString(query)
	b.WriteString("\n\nEvidence:\n")
	if len(evidence) == 0 {
		b.WriteString("(none)\n")
	}
	for i, ev := range evidence {
		text := ev.Text
		if len(text) > evidenceTextLimit {
			text = text[:evidenceTextLimit] + "..."
		}
		fmt.Fprintf(&b, "[%d] [%s]\n%s\n\n", i+1, ev.Citation(), text)
	}
	b.WriteString("Answer:\n")
	b.WriteString(answer)
	b.WriteString(`

Score the answer from 1 to 6:
6 - fully grounded, complete, every claim supported by the evidence
5 - grounded and correct with at most trivial omissions
4 - mostly grounded, some claims weakly supported
3 - partially grounded, notable unsupported claims
2 - largely ungrounded or off-topic
1 - contradicts the evidence or fabricates information

Respond with a JSON object:
{"score": <1-6>, "feedback": "<one sentence on what to fix, only if score is 2 or lower>"}`)
	return b.String()
}

var (
	scoreRe    = regexp.MustCompile(`(?i)score["'\s:]+(\d)`)
	feedbackRe = regexp.MustCompile(`(?i)feedback["'\s:]+["']?(.+?)["']?\s*[},\n]`)
)

// parseResponse extracts a score and feedback from the evaluator's reply.
// It tries structured JSON first and falls back to regex scanning; anything
// unparseable yields the neutral score.
func parseResponse(raw string) (int, string) {
	cleaned := llm.CleanJSON(raw)

	// a score field that isn't a number is as good as no score at all;
	// let the free-text fallback have a go before defaulting
	if res := gjson.Get(cleaned, "score"); res.Exists() && res.Type == gjson.Number {
		score := clamp(int(res.Int()))
		feedback := strings.TrimSpace(gjson.Get(cleaned, "feedback").String())
		return score, feedback
	}

	if m := scoreRe.FindStringSubmatch(cleaned); m != nil {
		score := clamp(int(m[1][0] - '0'))
		feedback := ""
		if fm := feedbackRe.FindStringSubmatch(cleaned); fm != nil {
			feedback = strings.TrimSpace(fm[1])
		}
		return score, feedback
	}

	return NeutralScore, ""
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
