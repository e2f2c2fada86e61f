package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"proxybridge-go/internal/approval"
	"proxybridge-go/internal/contracts"
	"proxybridge-go/internal/redact"
	"proxybridge-go/internal/session"
)

const (
	defaultHistoryCount  = 10
	maxHistoryCount      = 100
	outboundHTTPTimeout  = 30 * time.Second
	maxOutboundBodyBytes = 4 << 20 // 4MB
)

// BridgeServer is the MCP server exposing the proxy's capabilities to
// agent clients
type BridgeServer struct {
	server *mcpserver.MCPServer
	main   *Server
	logger *zap.Logger
	client *http.Client
}

// NewBridgeServer creates the MCP server, registers session hooks and the
// tool catalog
func NewBridgeServer(main *Server, logger *zap.Logger) *BridgeServer {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(_ context.Context, sess mcpserver.ClientSession) {
		sessionID := sess.SessionID()

		var clientName, clientVersion string
		if sessWithInfo, ok := sess.(mcpserver.SessionWithClientInfo); ok {
			clientInfo := sessWithInfo.GetClientInfo()
			clientName = clientInfo.Name
			clientVersion = clientInfo.Version
		}

		// Only the handshake is inspected for identity; later calls rely
		// on the registry entry seeded here.
		category, detectedBy := session.Detect(clientName, "")
		main.registry.Upsert(sessionID, category, clientName, clientVersion, detectedBy, time.Now())

		logger.Info("MCP session registered",
			zap.String("session_id", sessionID),
			zap.String("client_name", clientName),
			zap.String("category", string(category)),
		)
	})
	hooks.AddOnUnregisterSession(func(_ context.Context, sess mcpserver.ClientSession) {
		logger.Debug("MCP session closed", zap.String("session_id", sess.SessionID()))
	})

	mcpServer := mcpserver.NewMCPServer(
		"proxybridge",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithHooks(hooks),
	)

	b := &BridgeServer{
		server: mcpServer,
		main:   main,
		logger: logger,
		client: &http.Client{Timeout: outboundHTTPTimeout},
	}
	b.registerTools()
	return b
}

// MCPServer returns the underlying MCP server for transport wiring
func (b *BridgeServer) MCPServer() *mcpserver.MCPServer {
	return b.server
}

func (b *BridgeServer) registerTools() {
	b.server.AddTool(mcp.NewTool("send_http_request",
		mcp.WithDescription("Send an HTTP request and return the raw response. Sensitive header and parameter values are redacted unless the operator enabled sensitive data."),
		mcp.WithString("method", mcp.Required(), mcp.Description("HTTP method (GET, POST, ...)")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute target URL")),
		mcp.WithString("headers", mcp.Description("Extra request headers, one 'Name: value' per line")),
		mcp.WithString("body", mcp.Description("Request body")),
	), b.handleSendHTTPRequest)

	b.server.AddTool(mcp.NewTool("get_proxy_http_history",
		mcp.WithDescription("Read captured HTTP exchanges from the proxy history. Requires user consent."),
		mcp.WithNumber("count", mcp.Description(fmt.Sprintf("Maximum entries to return (default %d, max %d)", defaultHistoryCount, maxHistoryCount))),
		mcp.WithNumber("offset", mcp.Description("Entries to skip from the start of the history (default 0)")),
	), b.handleGetProxyHistory)

	b.server.AddTool(mcp.NewTool("get_proxy_websocket_history",
		mcp.WithDescription("Read captured WebSocket messages from the proxy history. Requires user consent."),
		mcp.WithNumber("count", mcp.Description(fmt.Sprintf("Maximum messages to return (default %d, max %d)", defaultHistoryCount, maxHistoryCount))),
		mcp.WithNumber("offset", mcp.Description("Messages to skip from the start of the history (default 0)")),
	), b.handleGetWebSocketHistory)

	b.server.AddTool(mcp.NewTool("get_interactive_request",
		mcp.WithDescription("Read the raw HTTP request currently shown in the interactive request editor. Requires user consent."),
	), b.handleGetInteractiveRequest)

	b.server.AddTool(mcp.NewTool("get_interactive_response",
		mcp.WithDescription("Read the raw HTTP response currently shown in the interactive request editor. Requires user consent."),
	), b.handleGetInteractiveResponse)

	b.server.AddTool(mcp.NewTool("set_interactive_request",
		mcp.WithDescription("Replace the text of the interactive request editor. Requires user consent."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw HTTP request text to place in the editor")),
	), b.handleSetInteractiveRequest)

	b.server.AddTool(mcp.NewTool("set_intercept_state",
		mcp.WithDescription("Enable or disable proxy interception."),
		mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("Desired intercept state")),
	), b.handleSetInterceptState)

	b.server.AddTool(mcp.NewTool("set_task_engine_state",
		mcp.WithDescription("Pause or resume the task engine."),
		mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("Desired task engine state")),
	), b.handleSetTaskEngineState)

	b.server.AddTool(mcp.NewTool("list_active_sessions",
		mcp.WithDescription("List agent sessions seen within the liveness window."),
		mcp.WithBoolean("include_system", mcp.Description("Include internal system clients (default false)")),
	), b.handleListActiveSessions)
}

// Tool handlers

func (b *BridgeServer) handleSendHTTPRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	method, err := request.RequireString("method")
	if err != nil {
		return toolError(contracts.CodeInvalidArgument, "missing required parameter 'method': %v", err), nil
	}
	targetURL, err := request.RequireString("url")
	if err != nil {
		return toolError(contracts.CodeInvalidArgument, "missing required parameter 'url': %v", err), nil
	}

	var body io.Reader
	if raw := request.GetString("body", ""); raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), targetURL, body)
	if err != nil {
		return toolError(contracts.CodeInvalidArgument, "invalid request: %v", err), nil
	}
	for _, line := range strings.Split(request.GetString("headers", ""), "\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return toolError(contracts.CodeInternal, "request failed: %v", err), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxOutboundBodyBytes))
	if err != nil {
		return toolError(contracts.CodeInternal, "failed to read response body: %v", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\r\n", resp.Proto, resp.Status)
	for name, values := range resp.Header {
		for _, value := range values {
			fmt.Fprintf(&sb, "%s: %s\r\n", name, value)
		}
	}
	sb.WriteString("\r\n")
	sb.Write(respBody)

	return mcp.NewToolResultText(b.redacted(sb.String())), nil
}

func (b *BridgeServer) handleGetProxyHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := b.requireAccess(ctx, approval.CategoryTrafficHistory); denied != nil {
		return denied, nil
	}

	count, offset := b.pagination(request)
	entries, err := b.main.storage.GetProxyHistory(count, offset)
	if err != nil {
		b.logger.Error("failed to read proxy history", zap.Error(err))
		return toolError(contracts.CodeInternal, "failed to read proxy history"), nil
	}

	for _, entry := range entries {
		entry.Request = b.redacted(entry.Request)
		entry.Response = b.redacted(entry.Response)
	}
	return jsonResult(entries)
}

func (b *BridgeServer) handleGetWebSocketHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := b.requireAccess(ctx, approval.CategoryWebSocketHistory); denied != nil {
		return denied, nil
	}

	count, offset := b.pagination(request)
	messages, err := b.main.storage.GetWebSocketHistory(count, offset)
	if err != nil {
		b.logger.Error("failed to read websocket history", zap.Error(err))
		return toolError(contracts.CodeInternal, "failed to read websocket history"), nil
	}

	for _, msg := range messages {
		msg.Payload = b.redacted(msg.Payload)
	}
	return jsonResult(messages)
}

func (b *BridgeServer) handleGetInteractiveRequest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := b.requireAccess(ctx, approval.CategoryInteractiveTool); denied != nil {
		return denied, nil
	}

	text, found := b.main.bridge.RequestText()
	if !found {
		return toolError(contracts.CodeNotFound, "no request text could be located in the editor"), nil
	}
	return mcp.NewToolResultText(b.redacted(text)), nil
}

func (b *BridgeServer) handleGetInteractiveResponse(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := b.requireAccess(ctx, approval.CategoryInteractiveTool); denied != nil {
		return denied, nil
	}

	text, found := b.main.bridge.ResponseText()
	if !found {
		return toolError(contracts.CodeNotFound, "no response text could be located in the editor"), nil
	}
	return mcp.NewToolResultText(b.redacted(text)), nil
}

func (b *BridgeServer) handleSetInteractiveRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return toolError(contracts.CodeInvalidArgument, "missing required parameter 'text': %v", err), nil
	}

	if denied := b.requireAccess(ctx, approval.CategoryInteractiveTool); denied != nil {
		return denied, nil
	}

	if err := b.main.bridge.SetRequestText(text); err != nil {
		b.logger.Error("failed to set editor text", zap.Error(err))
		return toolError(contracts.CodeInternal, "failed to set editor text"), nil
	}
	return mcp.NewToolResultText("request editor updated"), nil
}

func (b *BridgeServer) handleSetInterceptState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled := request.GetBool("enabled", false)
	b.main.bridge.SetInterceptEnabled(enabled)
	return mcp.NewToolResultText(fmt.Sprintf("intercept enabled: %v", enabled)), nil
}

func (b *BridgeServer) handleSetTaskEngineState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled := request.GetBool("enabled", false)
	b.main.bridge.SetTaskEngineEnabled(enabled)
	return mcp.NewToolResultText(fmt.Sprintf("task engine enabled: %v", enabled)), nil
}

func (b *BridgeServer) handleListActiveSessions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeSystem := request.GetBool("include_system", false)
	return jsonResult(b.main.registry.Snapshot(time.Now(), includeSystem))
}

// Helpers

// requireAccess runs the approval engine for a category. A non-nil return
// is the denial result to hand back; consent denial is a normal outcome,
// not an error.
func (b *BridgeServer) requireAccess(ctx context.Context, category approval.Category) *mcp.CallToolResult {
	decision, err := b.main.approver.CheckAccess(ctx, category, b.callerName(ctx))
	if err != nil {
		b.logger.Error("approval check failed", zap.String("category", string(category)), zap.Error(err))
		return toolError(contracts.CodeInternal, "approval check failed")
	}
	if decision != approval.Allow {
		return toolError(contracts.CodeAccessDenied, "user denied access to %s", category)
	}
	return nil
}

// callerName resolves the requesting client's display name for consent
// prompts, falling back to the session ID
func (b *BridgeServer) callerName(ctx context.Context) string {
	sess := mcpserver.ClientSessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	if sessWithInfo, ok := sess.(mcpserver.SessionWithClientInfo); ok {
		if name := sessWithInfo.GetClientInfo().Name; name != "" {
			return name
		}
	}
	return sess.SessionID()
}

func (b *BridgeServer) pagination(request mcp.CallToolRequest) (count, offset int) {
	count = int(request.GetFloat("count", defaultHistoryCount))
	if count <= 0 {
		count = defaultHistoryCount
	}
	if count > maxHistoryCount {
		count = maxHistoryCount
	}
	offset = int(request.GetFloat("offset", 0))
	if offset < 0 {
		offset = 0
	}
	return count, offset
}

func (b *BridgeServer) redacted(text string) string {
	out, stats := redact.RedactWithStats(text, b.main.cfg.IncludeSensitiveData)
	for pass, n := range stats {
		b.main.metrics.Redactions.WithLabelValues(pass).Add(float64(n))
	}
	return out
}

// toolError serializes a structured error for the agent; the code stays
// machine-readable while the message stays human
func toolError(code, format string, args ...interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(contracts.NewToolError(code, format, args...))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, fmt.Sprintf(format, args...)))
	}
	return mcp.NewToolResultError(string(data))
}

func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(contracts.CodeInternal, "failed to serialize result: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
