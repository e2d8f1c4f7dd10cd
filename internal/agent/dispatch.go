package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/corvid0/corvid/internal/tools"
)

const (
	toolRetryDelay = 200 * time.Millisecond

	// unavailableMessage is what the model sees for a tool that timed out
	// or kept failing. Structured like any other tool output so the model
	// can route around it.
	unavailableMessage = "tool unavailable"
)

// retryableToolError reports whether a tool failure is worth one retry.
// Handlers return transient backend errors (tools.Transient) instead of
// Result envelopes precisely so they land here; timeouts count too.
func retryableToolError(err error) bool {
	return tools.Transient(err)
}

// dispatch runs every tool request from one model step. Calls run
// concurrently; results come back in request order so the tool message
// mirrors the request message part for part.
func (l *Loop) dispatch(ctx context.Context, requests []*ai.ToolRequest) []*ai.Part {
	parts := make([]*ai.Part, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req *ai.ToolRequest) {
			defer wg.Done()
			parts[i] = l.runTool(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return parts
}

// runTool executes one tool call with a per-call timeout and at most one
// retry for transient failures. Whatever happens, the model gets a tool
// response part; a failed tool never fails the turn.
func (l *Loop) runTool(ctx context.Context, req *ai.ToolRequest) (part *ai.Part) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("tool panicked", "tool", req.Name, "panic", r)
			part = toolResponsePart(req, map[string]any{
				"status": "error",
				"error":  unavailableMessage,
			})
		}
	}()

	for attempt := 0; ; attempt++ {
		output, err := l.executeOnce(ctx, req)
		if err == nil {
			return toolResponsePart(req, output)
		}

		if attempt == 0 && retryableToolError(err) && ctx.Err() == nil {
			l.logger.Warn("tool failed, retrying once",
				"tool", req.Name, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(toolRetryDelay):
				continue
			}
		}

		l.logger.Warn("tool call failed", "tool", req.Name, "attempts", attempt+1, "error", err)
		return toolResponsePart(req, map[string]any{
			"status": "error",
			"error":  fmt.Sprintf("%s: %v", unavailableMessage, err),
		})
	}
}

// executeOnce runs one attempt under the per-call timeout.
func (l *Loop) executeOnce(ctx context.Context, req *ai.ToolRequest) (any, error) {
	timeout := l.toolTimeout
	if tool := l.kit.Get(req.Name); tool != nil && tool.IsLongRunning() {
		timeout = l.longToolTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	output, err := l.kit.Execute(callCtx, req.Name, req.Input)
	if err != nil {
		return nil, err
	}
	if callCtx.Err() != nil {
		return nil, callCtx.Err()
	}

	l.logger.Debug("tool executed", "tool", req.Name, "elapsed", time.Since(start))
	return output, nil
}

func toolResponsePart(req *ai.ToolRequest, output any) *ai.Part {
	return ai.NewToolResponsePart(&ai.ToolResponse{
		Name:   req.Name,
		Ref:    req.Ref,
		Output: output,
	})
}
