package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strictConfig() Config {
	return Config{RequireCitations: true, MinAnswerLength: 50, CheckGrounding: true}
}

func TestValidatePassesWithCitation(t *testing.T) {
	v := New(strictConfig())
	answer := "The retry budget is set in internal/llm/client.go:128-167 and capped at four attempts per request."
	res := v.Validate(answer)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Message)
}

func TestCitationRequiresPathSeparator(t *testing.T) {
	assert.True(t, HasCitation("see internal/config/config.go:12"))
	assert.True(t, HasCitation("see a/b.go:12-40"))
	assert.False(t, HasCitation("see config.go:12"), "bare filenames are not citations")
	assert.False(t, HasCitation("see internal/config/config.go"), "a path without a line number is not a citation")
}

func TestValidateMissingCitation(t *testing.T) {
	v := New(strictConfig())
	res := v.Validate("The configuration is loaded at startup from a YAML file and merged with compiled-in defaults before use.")
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "no file:line citations")
}

func TestValidateTooShort(t *testing.T) {
	v := New(strictConfig())
	res := v.Validate("See internal/config/config.go:12.")
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "minimum length")
}

func TestValidateGroundingHeuristic(t *testing.T) {
	v := New(Config{RequireCitations: true, CheckGrounding: true})

	res := v.Validate("Yes, it uses YAML for everything.")
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "ungrounded")

	res = v.Validate("I cannot find that in the repository.")
	assert.Contains(t, res.Message, "no file:line citations")
	assert.NotContains(t, res.Message, "ungrounded", "admitted uncertainty is not flagged as ungrounded")
}

func TestValidateDisabledPassesEverything(t *testing.T) {
	v := New(Config{RequireCitations: false, MinAnswerLength: 50, CheckGrounding: true})
	res := v.Validate("x")
	assert.True(t, res.Passed)
	assert.Empty(t, res.Message)
}

func TestValidateLongAnswerSkipsGroundingCheck(t *testing.T) {
	v := New(Config{RequireCitations: true, CheckGrounding: true})
	long := strings.Repeat("The server restarts workers on failure. ", 5)
	res := v.Validate(long)
	assert.False(t, res.Passed)
	assert.NotContains(t, res.Message, "ungrounded")
}

func TestValidateIdempotent(t *testing.T) {
	v := New(strictConfig())
	answer := "Short and uncited."
	first := v.Validate(answer)
	second := v.Validate(answer)
	assert.Equal(t, first, second)
}
