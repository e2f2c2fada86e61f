package traffic

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"proxybridge-go/internal/extract"
)

// TreeProvider returns the current widget tree of the user-facing window.
// Called on every read so the bridge always sees live editor state.
type TreeProvider func() extract.Node

// UIEditorBridge implements EditorBridge over a widget tree. Reads run the
// extraction heuristics; the write path goes through a callback into the
// UI toolkit.
type UIEditorBridge struct {
	mu           sync.Mutex
	tree         TreeProvider
	applyRequest func(text string) error
	intercept    func(enabled bool)
	taskEngine   func(enabled bool)
	logger       *zap.Logger
}

// NewUIEditorBridge wires a bridge to the UI collaborator's callbacks.
// Any nil callback turns the matching operation into a no-op error.
func NewUIEditorBridge(tree TreeProvider, applyRequest func(string) error, intercept, taskEngine func(bool), logger *zap.Logger) *UIEditorBridge {
	return &UIEditorBridge{
		tree:         tree,
		applyRequest: applyRequest,
		intercept:    intercept,
		taskEngine:   taskEngine,
		logger:       logger,
	}
}

// RequestText extracts the most likely raw HTTP request from the user's
// request tabs
func (b *UIEditorBridge) RequestText() (string, bool) {
	root := b.currentTree()
	if root == nil {
		return "", false
	}
	return extract.FindRequestText(b.requestScope(root))
}

// ResponseText extracts the most likely raw HTTP response
func (b *UIEditorBridge) ResponseText() (string, bool) {
	root := b.currentTree()
	if root == nil {
		return "", false
	}
	return extract.FindResponseText(b.requestScope(root))
}

// SetRequestText replaces the interactive editor's request content
func (b *UIEditorBridge) SetRequestText(text string) error {
	b.mu.Lock()
	apply := b.applyRequest
	b.mu.Unlock()

	if apply == nil {
		return fmt.Errorf("no editor write callback wired")
	}
	return apply(text)
}

// SetInterceptEnabled flips the proxy engine's intercept toggle
func (b *UIEditorBridge) SetInterceptEnabled(enabled bool) {
	b.mu.Lock()
	intercept := b.intercept
	b.mu.Unlock()

	if intercept != nil {
		b.logger.Info("intercept state changed", zap.Bool("enabled", enabled))
		intercept(enabled)
	}
}

// SetTaskEngineEnabled flips the task engine toggle
func (b *UIEditorBridge) SetTaskEngineEnabled(enabled bool) {
	b.mu.Lock()
	taskEngine := b.taskEngine
	b.mu.Unlock()

	if taskEngine != nil {
		b.logger.Info("task engine state changed", zap.Bool("enabled", enabled))
		taskEngine(enabled)
	}
}

// requestScope narrows extraction to the user's request tab group when one
// can be identified; otherwise the whole tree is searched
func (b *UIEditorBridge) requestScope(root extract.Node) extract.Node {
	groups := extract.CollectTabGroups(root)
	if len(groups) == 0 {
		return root
	}
	if picked := extract.PickRequestTabGroup(groups, root.Bounds()); picked != nil {
		return picked
	}
	return root
}

func (b *UIEditorBridge) currentTree() extract.Node {
	b.mu.Lock()
	tree := b.tree
	b.mu.Unlock()

	if tree == nil {
		return nil
	}
	return tree()
}
