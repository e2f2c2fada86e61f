package traffic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"proxybridge-go/internal/extract"
)

const (
	rawRequest  = "GET /account HTTP/1.1\r\nHost: example.com\r\n\r\n"
	rawResponse = "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<html></html>"
)

func editorTree() extract.Node {
	// A window with numbered request tabs top-left and an inner sub-editor
	// whose own panes hold decoy captions
	return &extract.Container{
		Rect: extract.Rect{Width: 1200, Height: 800},
		Child: []extract.Node{
			&extract.Label{Content: "Interceptor"},
			&extract.TabGroup{
				Rect:   extract.Rect{X: 10, Y: 40, Width: 900, Height: 600},
				Titles: []string{"1", "2"},
				Panes: []extract.Node{
					&extract.Container{Child: []extract.Node{
						&extract.TextArea{Content: rawRequest},
						&extract.TextArea{Content: rawResponse},
					}},
				},
			},
		},
	}
}

func TestRequestTextFromTree(t *testing.T) {
	b := NewUIEditorBridge(editorTree, nil, nil, nil, zap.NewNop())

	text, found := b.RequestText()
	require.True(t, found)
	assert.Contains(t, text, "GET /account HTTP/1.1")
}

func TestResponseTextFromTree(t *testing.T) {
	b := NewUIEditorBridge(editorTree, nil, nil, nil, zap.NewNop())

	text, found := b.ResponseText()
	require.True(t, found)
	assert.Contains(t, text, "HTTP/1.1 200 OK")
}

func TestRequestTextWithoutProvider(t *testing.T) {
	b := NewUIEditorBridge(nil, nil, nil, nil, zap.NewNop())

	_, found := b.RequestText()
	assert.False(t, found)
	_, found = b.ResponseText()
	assert.False(t, found)
}

func TestRequestTextEmptyWindow(t *testing.T) {
	b := NewUIEditorBridge(func() extract.Node {
		return &extract.Container{}
	}, nil, nil, nil, zap.NewNop())

	_, found := b.RequestText()
	assert.False(t, found)
}

func TestSetRequestText(t *testing.T) {
	var applied string
	b := NewUIEditorBridge(nil, func(text string) error {
		applied = text
		return nil
	}, nil, nil, zap.NewNop())

	require.NoError(t, b.SetRequestText(rawRequest))
	assert.Equal(t, rawRequest, applied)
}

func TestSetRequestTextWithoutCallback(t *testing.T) {
	b := NewUIEditorBridge(nil, nil, nil, nil, zap.NewNop())
	assert.Error(t, b.SetRequestText("GET / HTTP/1.1\r\n\r\n"))
}

func TestSetRequestTextPropagatesCallbackError(t *testing.T) {
	wantErr := errors.New("editor busy")
	b := NewUIEditorBridge(nil, func(string) error { return wantErr }, nil, nil, zap.NewNop())

	assert.ErrorIs(t, b.SetRequestText("x"), wantErr)
}

func TestEngineToggles(t *testing.T) {
	var interceptState, taskState bool
	b := NewUIEditorBridge(nil, nil,
		func(enabled bool) { interceptState = enabled },
		func(enabled bool) { taskState = enabled },
		zap.NewNop())

	b.SetInterceptEnabled(true)
	b.SetTaskEngineEnabled(true)
	assert.True(t, interceptState)
	assert.True(t, taskState)

	b.SetInterceptEnabled(false)
	assert.False(t, interceptState)

	// Nil toggle callbacks are a no-op, not a panic
	unwired := NewUIEditorBridge(nil, nil, nil, nil, zap.NewNop())
	unwired.SetInterceptEnabled(true)
	unwired.SetTaskEngineEnabled(true)
}
