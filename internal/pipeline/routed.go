package pipeline

import (
	"context"

	"repoanalyst/internal/domain"
	"repoanalyst/internal/router"
)

// QueryRouter is the relevance preflight consulted before the pipeline runs.
type QueryRouter interface {
	ClassifyAndRefine(ctx context.Context, query string) router.Verdict
}

// RoutedSession runs the router preflight in front of a session: irrelevant
// queries are answered with the rejection message without touching the
// index, relevant ones proceed with the refined query.
type RoutedSession struct {
	*Session
	Router QueryRouter
}

func (r *RoutedSession) Execute(ctx context.Context, query string) domain.FinalAnswer {
	verdict := r.Router.ClassifyAndRefine(ctx, query)
	if !verdict.Relevant {
		return domain.FinalAnswer{Answer: verdict.RejectionMessage}
	}
	return r.Session.Execute(ctx, verdict.RefinedQuery)
}
