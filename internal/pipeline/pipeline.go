package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repoanalyst/internal/domain"
	"repoanalyst/internal/embedding"
	"repoanalyst/internal/evidence"
	"repoanalyst/internal/history"
	"repoanalyst/internal/judge"
	"repoanalyst/internal/llm"
	"repoanalyst/internal/validator"
	"repoanalyst/internal/vectorstore"
)

// ErrNoRelevantInformation is recorded when retrieval finds no chunk above
// the relevance cutoff.
const ErrNoRelevantInformation = "No relevant information found in the repository."

// Options are the per-session pipeline settings, fixed at construction.
type Options struct {
	TopK            int
	MinScore        float64
	JudgeEnabled    bool
	MaxRetries      int
	EnableHistory   bool
	MaxHistoryTurns int
}

// State is the working data of one query execution. It is threaded by value
// through the stages; each stage returns an updated copy.
type State struct {
	Query             string
	History           []domain.ConversationTurn
	Embedding         []float64
	Evidence          []domain.RetrievedChunk
	Prompt            string
	Answer            string
	ValidationPassed  bool
	ValidationMessage string
	JudgeScore        *int
	JudgeFeedback     string
	RetryCount        int
	IsRetry           bool
	PrevAnswer        string
	Err               string
}

// Session runs queries through the answer pipeline and owns the conversation
// history between them. One session per conversation.
type Session struct {
	opts      Options
	embedder  embedding.Embedder
	index     vectorstore.Index
	evidence  *evidence.Repository
	llm       llm.Client
	judge     *judge.Judge
	validator *validator.Validator
	history   *history.Manager
	log       *zap.Logger
	id        string
}

func NewSession(
	opts Options,
	embedder embedding.Embedder,
	index vectorstore.Index,
	repo *evidence.Repository,
	client llm.Client,
	jd *judge.Judge,
	vd *validator.Validator,
	log *zap.Logger,
) *Session {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxHistoryTurns <= 0 {
		opts.MaxHistoryTurns = 5
	}
	id := uuid.NewString()
	return &Session{
		opts:      opts,
		embedder:  embedder,
		index:     index,
		evidence:  repo,
		llm:       client,
		judge:     jd,
		validator: vd,
		history:   history.NewManager(opts.MaxHistoryTurns),
		log:       log.With(zap.String("session", id)),
		id:        id,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// History returns the session's history manager.
func (s *Session) History() *history.Manager { return s.history }

// HistoryTurns returns a copy of the retained turns, oldest first.
func (s *Session) HistoryTurns() []domain.ConversationTurn { return s.history.Snapshot() }

// ClearHistory drops all retained turns.
func (s *Session) ClearHistory() { s.history.Clear() }

// Execute runs one query through the full pipeline and returns the final
// answer. The embedding is computed once per query; retries reuse the first
// pass's evidence.
func (s *Session) Execute(ctx context.Context, query string) domain.FinalAnswer {
	st := State{Query: query}
	if s.opts.EnableHistory {
		st.History = s.history.Snapshot()
	}

	stage := StageEmbed
	for stage != StageDone {
		s.log.Debug("stage", zap.Stringer("name", stage))
		st = s.runStage(ctx, stage, st)
		stage = nextStage(stage, st, s.opts)
	}

	final := domain.FinalAnswer{
		Answer:          st.Answer,
		JudgeScore:      st.JudgeScore,
		HistoryEligible: st.ValidationPassed && st.Err == "",
		Err:             st.Err,
	}
	if final.HistoryEligible && s.opts.EnableHistory {
		s.history.Append(domain.ConversationTurn{Query: query, Answer: final.Answer})
	}
	return final
}

func (s *Session) runStage(ctx context.Context, stage Stage, st State) State {
	switch stage {
	case StageEmbed:
		return s.embed(ctx, st)
	case StageRetrieve:
		return s.retrieve(ctx, st)
	case StageBuildContext:
		return s.buildContext(st)
	case StageGenerate:
		return s.generate(ctx, st)
	case StageJudge:
		return s.judgeAnswer(ctx, st)
	case StageRetry:
		return s.prepareRetry(st)
	case StageFinalize:
		return s.finalize(st)
	case StageValidate:
		return s.validate(st)
	}
	return st
}

func (s *Session) embed(ctx context.Context, st State) State {
	vec, err := s.embedder.Embed(ctx, st.Query)
	if err != nil {
		st.Err = fmt.Sprintf("Failed to process the query: %v", err)
		st.Answer = st.Err
		s.log.Error("query embedding failed", zap.Error(err))
		return st
	}
	st.Embedding = embedding.NormalizeL2(vec)
	return st
}

func (s *Session) retrieve(ctx context.Context, st State) State {
	hits, err := s.index.Search(ctx, st.Embedding, s.opts.TopK)
	if err != nil {
		st.Err = fmt.Sprintf("Search failed: %v", err)
		st.Answer = st.Err
		s.log.Error("vector search failed", zap.Error(err))
		return st
	}
	for _, h := range hits {
		if h.Score < s.opts.MinScore {
			continue
		}
		chunk, ok := s.evidence.Get(h.Index)
		if !ok {
			s.log.Warn("search hit outside evidence range", zap.Int("position", h.Index))
			continue
		}
		st.Evidence = append(st.Evidence, domain.RetrievedChunk{EvidenceChunk: chunk, Score: h.Score})
	}
	if len(st.Evidence) == 0 {
		st.Err = ErrNoRelevantInformation
		st.Answer = st.Err
		return st
	}
	s.log.Debug("evidence retrieved", zap.Int("chunks", len(st.Evidence)))
	return st
}

// buildContext assembles the generation prompt: retry guidance first, then
// prior turns oldest first, then the evidence blocks, then the question.
func (s *Session) buildContext(st State) State {
	var b strings.Builder

	if st.IsRetry && st.JudgeFeedback != "" {
		b.WriteString("Your previous answer was judged insufficiently grounded.\n")
		fmt.Fprintf(&b, "Previous answer:\n%s\n\n", st.PrevAnswer)
		fmt.Fprintf(&b, "Feedback: %s\n\n", st.JudgeFeedback)
		b.WriteString("Produce an improved answer that addresses the feedback and cites the evidence. " +
			"Do not mention the feedback or the previous answer in your response.\n\n")
	}

	if len(st.History) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range st.History {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Relevant code and documentation from the repository:\n\n")
	for i, ev := range st.Evidence {
		fmt.Fprintf(&b, "[Chunk %d] [%s] (score: %.2f)\n%s\n\n", i+1, ev.Citation(), ev.Score, ev.Text)
	}

	fmt.Fprintf(&b, "Question: %s\n\n", st.Query)
	b.WriteString("Answer the question using only the information above. " +
		"Cite your sources with [path:start-end] references taken from the chunk headers. " +
		"If the information above is insufficient, say so explicitly.")

	st.Prompt = b.String()
	return st
}

const generateSystemPrompt = "You are a code analysis assistant. You answer questions about a software repository " +
	"using only the evidence provided, and you cite file locations for every claim."

func (s *Session) generate(ctx context.Context, st State) State {
	answer, err := s.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: generateSystemPrompt},
		{Role: llm.RoleUser, Content: st.Prompt},
	})
	if err != nil {
		st.Err = fmt.Sprintf("Failed to generate an answer: %v", err)
		st.Answer = st.Err
		s.log.Error("answer generation failed", zap.Error(err))
		return st
	}
	st.Answer = strings.TrimSpace(answer)
	return st
}

func (s *Session) judgeAnswer(ctx context.Context, st State) State {
	score, feedback := s.judge.Evaluate(ctx, st.Query, st.Evidence, st.Answer)
	st.JudgeScore = &score
	st.JudgeFeedback = feedback
	return st
}

func (s *Session) prepareRetry(st State) State {
	st.RetryCount++
	st.IsRetry = true
	st.PrevAnswer = st.Answer
	s.log.Info("retrying answer", zap.Int("attempt", st.RetryCount))
	return st
}

// finalize applies the judge's verdict to the answer: persistent failing
// scores are replaced with the canonical refusal, sub-threshold scores get a
// confidence annotation.
func (s *Session) finalize(st State) State {
	if st.JudgeScore == nil {
		return st
	}
	score := *st.JudgeScore
	if score <= judge.RetryThreshold {
		st.Answer = judge.CannotHelpMessage()
		return st
	}
	if msg := s.judge.ConfidenceMessage(score); msg != "" {
		st.Answer = st.Answer + "\n\n" + msg
	}
	return st
}

// validate always records the validation verdict; it annotates the answer
// only when the judge is disabled, so the two quality signals never stack.
func (s *Session) validate(st State) State {
	res := s.validator.Validate(st.Answer)
	st.ValidationPassed = res.Passed
	st.ValidationMessage = res.Message
	if !res.Passed && !s.opts.JudgeEnabled && st.Err == "" {
		st.Answer = st.Answer + "\n\nNote: " + res.Message
	}
	return st
}
