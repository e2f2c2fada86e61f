// Package approval gates agent access to sensitive data behind user
// consent. Each category carries two independent persisted flags: whether
// approval is required at all, and whether the user already granted a
// standing "always allow". The blocking prompt is delegated through the
// Prompter interface so tests and headless environments can swap it out.
package approval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"proxybridge-go/internal/observability"
)

// Category is one of the sensitive data domains gated independently
type Category string

const (
	CategoryTrafficHistory   Category = "traffic_history"
	CategoryWebSocketHistory Category = "websocket_history"
	CategoryInteractiveTool  Category = "interactive_tool"
)

// Decision is the transient outcome of a consent check
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// PromptResponse is what the user picked on a consent prompt
type PromptResponse int

const (
	PromptDeny PromptResponse = iota
	PromptAllowOnce
	PromptAlwaysAllow
)

// Prompter blocks until the user responds to a consent request. It runs on
// the calling goroutine only; other sessions keep being served while one
// call waits. A cancelled context or an error means Deny.
type Prompter interface {
	Prompt(ctx context.Context, category Category, clientName string) (PromptResponse, error)
}

// PrompterFunc adapts a function to the Prompter interface
type PrompterFunc func(ctx context.Context, category Category, clientName string) (PromptResponse, error)

func (f PrompterFunc) Prompt(ctx context.Context, category Category, clientName string) (PromptResponse, error) {
	return f(ctx, category, clientName)
}

// FlagStore persists the per-category flag pairs. The storage settings
// bucket implements it; tests use an in-memory map.
type FlagStore interface {
	ApprovalRequired(category Category) (bool, error)
	AlwaysAllow(category Category) (bool, error)
	SetAlwaysAllow(category Category, allow bool) error
}

// Engine is the consent state machine. It holds no per-session state:
// category flags are global, and every category is evaluated on its own.
type Engine struct {
	flags    FlagStore
	prompter Prompter
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewEngine creates an approval engine
func NewEngine(flags FlagStore, prompter Prompter, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		flags:    flags,
		prompter: prompter,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckAccess runs the consent state machine for one category:
// not required -> Allow; always-allow set -> Allow; otherwise block on the
// prompt. "Always Allow" persists the flag before allowing. Flag-store
// read errors fail closed.
func (e *Engine) CheckAccess(ctx context.Context, category Category, clientName string) (Decision, error) {
	required, err := e.flags.ApprovalRequired(category)
	if err != nil {
		return Deny, fmt.Errorf("failed to read approval-required flag: %w", err)
	}
	if !required {
		return e.record(category, Allow), nil
	}

	always, err := e.flags.AlwaysAllow(category)
	if err != nil {
		return Deny, fmt.Errorf("failed to read always-allow flag: %w", err)
	}
	if always {
		return e.record(category, Allow), nil
	}

	response, err := e.prompter.Prompt(ctx, category, clientName)
	if err != nil {
		// No user decision reachable: fail closed.
		e.logger.Warn("consent prompt failed, denying access",
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return e.record(category, Deny), nil
	}

	switch response {
	case PromptAllowOnce:
		return e.record(category, Allow), nil
	case PromptAlwaysAllow:
		if err := e.flags.SetAlwaysAllow(category, true); err != nil {
			return Deny, fmt.Errorf("failed to persist always-allow flag: %w", err)
		}
		return e.record(category, Allow), nil
	default:
		return e.record(category, Deny), nil
	}
}

func (e *Engine) record(category Category, decision Decision) Decision {
	if e.metrics != nil {
		e.metrics.ApprovalDecisions.WithLabelValues(string(category), decision.String()).Inc()
	}
	e.logger.Debug("approval decision",
		zap.String("category", string(category)),
		zap.String("decision", decision.String()),
	)
	return decision
}
