package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

var categoryLabels = map[Category]string{
	CategoryTrafficHistory:   "proxy HTTP history",
	CategoryWebSocketHistory: "WebSocket message history",
	CategoryInteractiveTool:  "interactive request editor contents",
}

// TerminalPrompter asks for consent on the controlling terminal and raises
// a desktop notification so an unattended user notices the pending request.
// Prompts are serialized so two concurrent sessions never interleave reads
// on the same input stream.
type TerminalPrompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
	sem    chan struct{}
}

// NewTerminalPrompter creates a prompter reading decisions from in and
// writing questions to out
func NewTerminalPrompter(in io.Reader, out io.Writer, logger *zap.Logger) *TerminalPrompter {
	return &TerminalPrompter{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		sem:    make(chan struct{}, 1),
	}
}

// Prompt implements Prompter. It blocks the calling goroutine until the
// user answers or the context is cancelled.
func (p *TerminalPrompter) Prompt(ctx context.Context, category Category, clientName string) (PromptResponse, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return PromptDeny, ctx.Err()
	}

	label := categoryLabels[category]
	if label == "" {
		label = string(category)
	}
	who := clientName
	if who == "" {
		who = "an unidentified agent"
	}

	if err := beeep.Notify("proxybridge consent request",
		fmt.Sprintf("%s is requesting access to %s", who, label), ""); err != nil {
		p.logger.Debug("desktop notification failed", zap.Error(err))
	}

	fmt.Fprintf(p.out, "\n%s is requesting access to %s.\n", who, label)
	fmt.Fprintf(p.out, "[a]llow once / always [A]llow / [d]eny: ")

	answerCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if err != nil {
			errCh <- err
			return
		}
		answerCh <- line
	}()

	select {
	case <-ctx.Done():
		return PromptDeny, ctx.Err()
	case err := <-errCh:
		return PromptDeny, fmt.Errorf("failed to read consent response: %w", err)
	case line := <-answerCh:
		switch strings.TrimSpace(line) {
		case "a", "allow":
			return PromptAllowOnce, nil
		case "A", "always":
			return PromptAlwaysAllow, nil
		default:
			return PromptDeny, nil
		}
	}
}
