// Package transition moves Jira issues between workflow statuses by name.
//
// Jira only accepts transition ids, and the set of legal transitions depends
// on the issue's current status. A Resolver fetches that set, picks the first
// transition whose name matches case-insensitively and executes it.
package transition

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"jira-mcp-server/internal/domain"
)

// Service is the part of the Jira client the resolver needs.
type Service interface {
	FetchTransitions(ctx context.Context, issueKey string) ([]domain.Transition, error)
	ExecuteTransition(ctx context.Context, issueKey, transitionID string) error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRetryOnConflict makes Transition re-fetch and retry once when the
// execute call fails with a conflict, which happens when the issue changed
// status between fetch and execute. A nil isConflict uses domain.IsConflict.
func WithRetryOnConflict(isConflict func(error) bool) Option {
	return func(r *Resolver) {
		if isConflict == nil {
			isConflict = domain.IsConflict
		}
		r.isConflict = isConflict
	}
}

// WithLogger sets the logger used for resolution decisions.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver maps status names to transition ids for one Jira site.
type Resolver struct {
	svc        Service
	isConflict func(error) bool
	logger     zerolog.Logger
}

// NewResolver creates a Resolver. Without options it never retries and
// does not log.
func NewResolver(svc Service, opts ...Option) *Resolver {
	r := &Resolver{svc: svc, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Match returns the first transition whose name equals name, ignoring case.
func Match(transitions []domain.Transition, name string) (domain.Transition, bool) {
	for _, t := range transitions {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return domain.Transition{}, false
}

// Names lists transition names in order.
func Names(transitions []domain.Transition) []string {
	names := make([]string, len(transitions))
	for i, t := range transitions {
		names[i] = t.Name
	}
	return names
}

// Resolve fetches the issue's transitions and returns the one matching name.
// When nothing matches the error is a *domain.TransitionNotFoundError listing
// every available name.
func (r *Resolver) Resolve(ctx context.Context, issueKey, name string) (domain.Transition, error) {
	transitions, err := r.svc.FetchTransitions(ctx, issueKey)
	if err != nil {
		return domain.Transition{}, err
	}

	t, ok := Match(transitions, name)
	if !ok {
		return domain.Transition{}, &domain.TransitionNotFoundError{
			IssueKey:  issueKey,
			Name:      name,
			Available: Names(transitions),
		}
	}
	return t, nil
}

// Transition resolves name and executes the matching transition. Execute is
// never called when no transition matches.
func (r *Resolver) Transition(ctx context.Context, issueKey, name string) (domain.Transition, error) {
	t, err := r.resolveAndExecute(ctx, issueKey, name)
	if err == nil || r.isConflict == nil || !r.isConflict(err) {
		return t, err
	}

	r.logger.Debug().
		Str("issue", issueKey).
		Str("transition", name).
		Msg("transition conflicted, retrying with fresh transitions")
	return r.resolveAndExecute(ctx, issueKey, name)
}

func (r *Resolver) resolveAndExecute(ctx context.Context, issueKey, name string) (domain.Transition, error) {
	t, err := r.Resolve(ctx, issueKey, name)
	if err != nil {
		return domain.Transition{}, err
	}

	r.logger.Debug().
		Str("issue", issueKey).
		Str("transition", t.Name).
		Str("id", t.ID).
		Msg("executing transition")

	if err := r.svc.ExecuteTransition(ctx, issueKey, t.ID); err != nil {
		return t, err
	}
	return t, nil
}
