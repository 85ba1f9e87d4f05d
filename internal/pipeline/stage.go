package pipeline

import "repoanalyst/internal/judge"

// Stage identifies one step of the answer pipeline.
type Stage int

const (
	StageEmbed Stage = iota
	StageRetrieve
	StageBuildContext
	StageGenerate
	StageJudge
	StageRetry
	StageFinalize
	StageValidate
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageEmbed:
		return "embed"
	case StageRetrieve:
		return "retrieve"
	case StageBuildContext:
		return "build_context"
	case StageGenerate:
		return "generate"
	case StageJudge:
		return "judge"
	case StageRetry:
		return "retry"
	case StageFinalize:
		return "finalize"
	case StageValidate:
		return "validate"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// nextStage is the pipeline's transition function. It depends only on the
// current stage, the state, and the options, so the full routing behavior is
// testable without any stage side effects.
//
// Failures take a short path: an embedding failure ends the run immediately,
// and any later failure skips ahead to validation so the error text is still
// recorded as the final answer. The judge loop runs only on a successful
// generation with judging enabled.
func nextStage(stage Stage, st State, opts Options) Stage {
	switch stage {
	case StageEmbed:
		if st.Err != "" {
			return StageDone
		}
		return StageRetrieve
	case StageRetrieve:
		if st.Err != "" {
			return StageValidate
		}
		return StageBuildContext
	case StageBuildContext:
		if st.Err != "" {
			return StageValidate
		}
		return StageGenerate
	case StageGenerate:
		if st.Err != "" {
			return StageValidate
		}
		if opts.JudgeEnabled {
			return StageJudge
		}
		return StageValidate
	case StageJudge:
		if st.JudgeScore != nil && *st.JudgeScore <= judge.RetryThreshold && st.RetryCount < opts.MaxRetries {
			return StageRetry
		}
		return StageFinalize
	case StageRetry:
		return StageBuildContext
	case StageFinalize:
		return StageValidate
	case StageValidate:
		return StageDone
	}
	return StageDone
}
