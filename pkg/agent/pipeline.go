package agent

import (
	"context"
	"log/slog"
)

// Decision is the continuation predicate's verdict.
type Decision int

const (
	Continue Decision = iota
	End
)

// Decide is the continuation predicate evaluated after every stage merge.
// An error always ends the run, regardless of should_continue.
func Decide(s *State) Decision {
	if s.Error != "" {
		return End
	}
	if s.ShouldContinue {
		return Continue
	}
	return End
}

// Pipeline drives the five stages in fixed order. It is a straight line
// with an early-exit gate, not a graph: every run visits Plan, Search,
// Scrape, Summarize, Report in sequence until the predicate says End.
type Pipeline struct {
	Nodes  *Nodes
	Logger *slog.Logger

	// OnStateUpdate, if set, is invoked with a copy of the state after
	// every merge. The server worker uses it to persist progress.
	OnStateUpdate func(State)
}

func NewPipeline(nodes *Nodes, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Nodes: nodes, Logger: logger}
}

type stage struct {
	name string
	run  func(context.Context, *State) (Update, error)
}

// Run executes the pipeline against the given state and returns it in a
// terminal condition: current_step is exactly "completed" or "failed", and
// "failed" always carries a non-empty error.
func (p *Pipeline) Run(ctx context.Context, s *State) *State {
	stages := []stage{
		{"plan", p.Nodes.Plan},
		{"search", p.Nodes.Search},
		{"scrape", p.Nodes.Scrape},
		{"summarize", p.Nodes.Summarize},
		{"report", p.Nodes.Report},
	}

	p.notify(s)

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			p.fail(s, "pipeline cancelled: "+err.Error())
			break
		}

		p.Logger.Info("running stage", "stage", st.name)
		update, err := st.run(ctx, s)
		if err != nil {
			// Merge whatever the stage produced before recording the
			// failure, so partial append batches survive.
			s.Merge(update)
			p.fail(s, err.Error())
			break
		}

		s.Merge(update)
		p.notify(s)

		if Decide(s) == End {
			break
		}
	}

	if !s.Terminal() {
		// A stage ended the run without reaching the report; only an
		// error path can do that.
		p.fail(s, s.Error)
	}

	p.Logger.Info("pipeline finished", "step", s.CurrentStep, "error", s.Error)
	return s
}

func (p *Pipeline) fail(s *State, msg string) {
	if msg == "" {
		msg = "pipeline halted before completion"
	}
	p.Logger.Error("pipeline failed", "error", msg)
	s.Merge(Update{
		Error:          msg,
		ShouldContinue: ptr(false),
		CurrentStep:    StepFailed,
	})
	p.notify(s)
}

func (p *Pipeline) notify(s *State) {
	if p.OnStateUpdate != nil {
		p.OnStateUpdate(*s)
	}
}
