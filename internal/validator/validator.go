package validator

import (
	"regexp"
	"strings"
)

// Config controls the deterministic answer checks. RequireCitations false
// disables validation entirely; MinAnswerLength zero disables the length
// check; CheckGrounding false disables the grounding heuristic.
type Config struct {
	RequireCitations bool
	MinAnswerLength  int
	CheckGrounding   bool
}

// Result is the outcome of validating one answer.
type Result struct {
	Passed  bool
	Message string
}

// Validator performs rule-based checks on generated answers: citation
// presence, minimum length, and a grounding heuristic. It makes no external
// calls and is deterministic, so validating the same answer twice yields the
// same result.
type Validator struct {
	cfg Config
}

// citationRe matches path:start[-end] tokens with at least one path
// separator, e.g. internal/llm/client.go:45-67.
var citationRe = regexp.MustCompile(`(?:[\w.\-]+/)+[\w.\-]+:\d+(?:-\d+)?`)

// uncertaintyPhrases mark answers that explicitly admit missing evidence;
// such answers are not flagged as ungrounded.
var uncertaintyPhrases = []string{
	"i don't have enough information",
	"i do not have enough information",
	"i cannot find",
	"i can't find",
	"not enough information",
	"no relevant information",
	"the context doesn't contain",
	"the context does not contain",
}

const groundingLengthLimit = 100

func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate runs the configured checks against the answer text. Each failed
// check contributes one message.
func (v *Validator) Validate(answer string) Result {
	if !v.cfg.RequireCitations {
		return Result{Passed: true}
	}

	var msgs []string
	hasCitation := citationRe.MatchString(answer)
	if !hasCitation {
		msgs = append(msgs, "no file:line citations found")
	}
	if v.cfg.MinAnswerLength > 0 && len(answer) < v.cfg.MinAnswerLength {
		msgs = append(msgs, "answer is shorter than the required minimum length")
	}
	if v.cfg.CheckGrounding && len(answer) < groundingLengthLimit && !hasCitation && !admitsUncertainty(answer) {
		msgs = append(msgs, "short answer with neither citations nor an explicit uncertainty statement; possibly ungrounded")
	}

	if len(msgs) == 0 {
		return Result{Passed: true}
	}
	return Result{Passed: false, Message: strings.Join(msgs, "; ")}
}

// HasCitation reports whether the text contains at least one citation token.
func HasCitation(text string) bool {
	return citationRe.MatchString(text)
}

func admitsUncertainty(answer string) bool {
	lower := strings.ToLower(answer)
	for _, p := range uncertaintyPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
