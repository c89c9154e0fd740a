// Package grading runs the full set of skill agents over one transcript and
// synthesizes their reports into a final verdict.
package grading

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gdaskalakis/troy/internal/agent"
	"github.com/gdaskalakis/troy/internal/llm"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

// DefaultWorkers is how many skill agents run at once.
const DefaultWorkers = 4

// Orchestrator owns the fixed skill set and the synthesizer for one
// deployment. It is safe for use by a single worker invocation at a time.
type Orchestrator struct {
	client  llm.Client
	policy  agent.RetryPolicy
	workers int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets how many skill agents may run concurrently. A value of 1
// reproduces strictly sequential grading.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// NewOrchestrator creates an orchestrator grading with the given model
// client and retry policy.
func NewOrchestrator(client llm.Client, policy agent.RetryPolicy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		policy:  policy,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GradeAll grades the transcript on every registered skill and synthesizes
// the final verdict. Agents own distinct result slots, so they can run
// concurrently without shared mutable state; a skill that cannot be graded
// contributes its fallback N/A report rather than an error.
func (o *Orchestrator) GradeAll(ctx context.Context, transcript string) models.GradingResults {
	start := time.Now()
	defs := skills.All()
	slog.InfoContext(ctx, "starting full grading", "skills", len(defs))

	reports := make([]models.SkillReport, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, def := range defs {
		g.Go(func() error {
			a := agent.NewSkillAgent(def, o.client, o.policy)
			reports[i] = a.Run(gctx, transcript)
			return nil
		})
	}
	// Agents resolve their own failures to fallback reports; the group only
	// coordinates completion.
	_ = g.Wait()

	scores := make(map[string]models.SkillReport, len(defs))
	for i, def := range defs {
		scores[def.ID] = reports[i]
	}

	synth := agent.NewSynthesizer(o.client, o.policy)
	result := synth.Run(ctx, scores)

	slog.InfoContext(ctx, "full grading complete",
		"grade", result.FinalGrade, "duration", time.Since(start).Round(time.Millisecond))

	return models.GradingResults{
		IndividualScores: scores,
		FinalSynthesis:   result,
	}
}
