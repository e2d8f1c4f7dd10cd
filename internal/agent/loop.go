// Package agent runs the bounded tool-orchestration loop: the model reasons,
// requests tools, the loop executes them and feeds results back, until the
// model answers or the step ceiling is hit.
//
// The loop owns tool dispatch. The reasoner only ever returns tool requests;
// execution, timeouts, retries, and ordering all happen here, against a kit
// whose capabilities were bound when the request began.
//
// Run never fails outward. Reasoning errors, tool outages, panics, and the
// step ceiling all collapse into a readable degraded answer; callers can rely
// on getting a non-empty string back.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/corvid0/corvid/internal/log"
	"github.com/corvid0/corvid/internal/tools"
)

// DefaultMaxSteps bounds reasoning iterations per run.
const DefaultMaxSteps = 10

const (
	defaultToolTimeout     = 30 * time.Second
	defaultLongToolTimeout = 2 * time.Minute

	// ceilingInstruction forces a final answer when steps run out.
	ceilingInstruction = "You have used all your reasoning steps. " +
		"Answer the user's question now using only the information you already have. " +
		"Do not request any more tools."

	// ceilingFallback is the synthesized answer when even the forced final
	// generation fails.
	ceilingFallback = "I ran out of reasoning steps before reaching a complete answer. " +
		"Please try rephrasing or narrowing your question."
)

// Config configures a Loop.
type Config struct {
	Reasoner    Reasoner   // required
	Kit         *tools.Kit // required; may hold zero tools
	MaxSteps    int        // default DefaultMaxSteps
	ToolTimeout time.Duration
	RateLimiter *rate.Limiter // default 10 rps, burst 30
	Logger      log.Logger
}

// Loop is one configured agent loop. Safe for concurrent runs.
type Loop struct {
	reasoner        Reasoner
	kit             *tools.Kit
	maxSteps        int
	toolTimeout     time.Duration
	longToolTimeout time.Duration
	limiter         *rate.Limiter
	logger          log.Logger
}

// New creates a Loop.
func New(cfg Config) (*Loop, error) {
	if cfg.Reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if cfg.Kit == nil {
		return nil, errors.New("tool kit is required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = defaultToolTimeout
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = rate.NewLimiter(10, 30)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	longTimeout := defaultLongToolTimeout
	if cfg.ToolTimeout > longTimeout {
		longTimeout = cfg.ToolTimeout
	}

	return &Loop{
		reasoner:        cfg.Reasoner,
		kit:             cfg.Kit,
		maxSteps:        cfg.MaxSteps,
		toolTimeout:     cfg.ToolTimeout,
		longToolTimeout: longTimeout,
		limiter:         cfg.RateLimiter,
		logger:          cfg.Logger,
	}, nil
}

// Run drives the loop to an answer. The returned string is never empty: when
// anything goes wrong it is a degraded answer describing the failure.
func (l *Loop) Run(ctx context.Context, msgs []*ai.Message) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("agent loop panicked", "panic", r)
			answer = degraded(fmt.Errorf("internal failure: %v", r))
		}
	}()

	conv := make([]*ai.Message, len(msgs))
	copy(conv, msgs)

	state := StateAwaitingModel
	for step := 0; step < l.maxSteps; step++ {
		resp, err := l.generate(ctx, conv)
		if err != nil {
			// Reasoning failures are terminal for the turn; the retry
			// budget belongs to tools, not the model.
			l.logger.Error("reasoning failed", "step", step, "state", state, "error", err)
			return degraded(err)
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			state = StateAnswered
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				l.logger.Warn("model answered with empty text", "step", step)
				return degraded(errors.New("the model returned an empty answer"))
			}
			l.logger.Debug("agent answered", "steps", step+1, "state", state)
			return text
		}

		state = StateToolCallRequested
		l.logger.Debug("tool calls requested", "step", step, "count", len(requests), "state", state)
		if resp.Message != nil {
			conv = append(conv, resp.Message)
		}

		state = StateToolExecuting
		results := l.dispatch(ctx, requests)
		conv = append(conv, &ai.Message{Role: ai.RoleTool, Content: results})
		state = StateAwaitingModel
	}

	return l.forceFinalAnswer(ctx, conv)
}

// generate calls the reasoner under the rate limiter.
func (l *Loop) generate(ctx context.Context, conv []*ai.Message) (*ai.ModelResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	resp, err := l.reasoner.Generate(ctx, conv)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("reasoner returned no response")
	}
	return resp, nil
}

// forceFinalAnswer handles the step ceiling: one more generation with an
// explicit no-more-tools instruction, falling back to a synthesized message
// when that fails too.
func (l *Loop) forceFinalAnswer(ctx context.Context, conv []*ai.Message) string {
	l.logger.Warn("step ceiling reached, forcing final answer", "maxSteps", l.maxSteps)

	conv = append(conv, &ai.Message{
		Role:    ai.RoleUser,
		Content: []*ai.Part{ai.NewTextPart(ceilingInstruction)},
	})

	resp, err := l.generate(ctx, conv)
	if err != nil {
		l.logger.Error("forced final generation failed", "error", err)
		return ceilingFallback
	}

	// Tool requests in the forced answer are ignored; only text counts.
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}
	return ceilingFallback
}

// degraded renders a failure as the turn's answer.
func degraded(err error) string {
	return fmt.Sprintf("I encountered an error: %v", err)
}
