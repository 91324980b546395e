package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/evanschultz/tackboard/internal/adapters/server/common"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
)

// stubBoardService provides deterministic board responses for MCP tool tests.
type stubBoardService struct {
	boards    []common.BoardSummary
	state     app.BoardState
	moved     common.MoveItemResult
	moves     []common.MoveEvent
	err       error
	lastList  common.ListBoardsRequest
	lastState string
	lastMove  common.MoveItemRequest
	lastMoves common.ListMovesRequest
}

// ListBoards records the request and returns fixture boards.
func (s *stubBoardService) ListBoards(_ context.Context, req common.ListBoardsRequest) ([]common.BoardSummary, error) {
	s.lastList = req
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.BoardSummary(nil), s.boards...), nil
}

// BoardState records the board id and returns the fixture state.
func (s *stubBoardService) BoardState(_ context.Context, boardID string) (app.BoardState, error) {
	s.lastState = boardID
	if s.err != nil {
		return app.BoardState{}, s.err
	}
	return s.state, nil
}

// MoveItem records the request and returns the fixture result.
func (s *stubBoardService) MoveItem(_ context.Context, req common.MoveItemRequest) (common.MoveItemResult, error) {
	s.lastMove = req
	if s.err != nil {
		return common.MoveItemResult{}, s.err
	}
	return s.moved, nil
}

// ListMoves records the request and returns fixture history.
func (s *stubBoardService) ListMoves(_ context.Context, req common.ListMovesRequest) ([]common.MoveEvent, error) {
	s.lastMoves = req
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.MoveEvent(nil), s.moves...), nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "tackboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// newTestServer starts one MCP handler over svc and runs the initialize handshake.
func newTestServer(t *testing.T, svc common.BoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, svc)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRequiresBoardService verifies construction fails without a backing service.
func TestHandlerRequiresBoardService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error without board service")
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists every board tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newTestServer(t, &stubBoardService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{"tack.list_boards", "tack.board_state", "tack.move_item", "tack.list_moves"} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %s: %#v", required, toolNames)
		}
	}
}

// TestHandlerMoveItemTool verifies tools/call forwards move arguments and returns structured output.
func TestHandlerMoveItemTool(t *testing.T) {
	svc := &stubBoardService{moved: common.MoveItemResult{Applied: true, ItemID: "a", GroupID: "done", Order: 2, Changed: 4}}
	server := newTestServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "tack.move_item", map[string]any{
		"item_id":         "a",
		"target_group_id": "done",
		"target_order":    2,
	}))
	if isErr, _ := resp.Result["isError"].(bool); isErr {
		t.Fatalf("unexpected tool error: %s", toolResultText(t, resp.Result))
	}
	if svc.lastMove.ItemID != "a" || svc.lastMove.TargetGroupID != "done" {
		t.Fatalf("unexpected forwarded move %#v", svc.lastMove)
	}
	if svc.lastMove.TargetOrder == nil || *svc.lastMove.TargetOrder != 2 {
		t.Fatalf("expected target_order 2, got %v", svc.lastMove.TargetOrder)
	}
	structured := toolResultStructured(t, resp.Result)
	if structured["group_id"] != "done" || structured["applied"] != true {
		t.Fatalf("unexpected structured result %#v", structured)
	}
}

// TestHandlerBoardStateTool verifies board_state forwards the id and returns columns.
func TestHandlerBoardStateTool(t *testing.T) {
	svc := &stubBoardService{state: app.BoardState{
		Board:  app.StateBoard{ID: "b1", Name: "Launch"},
		Groups: []app.StateGroup{{ID: "todo", Title: "To Do"}},
	}}
	server := newTestServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "tack.board_state", map[string]any{
		"board_id": "b1",
	}))
	if svc.lastState != "b1" {
		t.Fatalf("board id = %q, want b1", svc.lastState)
	}
	if !strings.Contains(toolResultText(t, resp.Result), "To Do") {
		t.Fatalf("expected column title in tool text, got %#v", resp.Result)
	}
}

// TestHandlerListToolsForwardArguments verifies list_boards and list_moves argument mapping.
func TestHandlerListToolsForwardArguments(t *testing.T) {
	svc := &stubBoardService{
		boards: []common.BoardSummary{{ID: "b1", Name: "Launch"}},
		moves:  []common.MoveEvent{{ID: 1, ItemID: "a", Operation: "move"}},
	}
	server := newTestServer(t, svc)

	_, _ = postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "tack.list_boards", map[string]any{
		"include_archived": true,
	}))
	if !svc.lastList.IncludeArchived {
		t.Fatal("expected include_archived to be forwarded")
	}

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "tack.list_moves", map[string]any{
		"board_id": "b1",
		"limit":    10,
	}))
	if svc.lastMoves.BoardID != "b1" || svc.lastMoves.Limit != 10 {
		t.Fatalf("unexpected list_moves request %#v", svc.lastMoves)
	}
	if _, ok := toolResultStructured(t, resp.Result)["moves"]; !ok {
		t.Fatalf("expected moves payload, got %#v", resp.Result)
	}
}

// TestHandlerToolErrors verifies service failures surface as tool errors with stable prefixes.
func TestHandlerToolErrors(t *testing.T) {
	svc := &stubBoardService{err: errors.Join(common.ErrInvalidRequest, errors.New("group is not on this board"))}
	server := newTestServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(7, "tack.move_item", map[string]any{
		"item_id":         "a",
		"target_group_id": "elsewhere",
		"target_order":    0,
	}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected tool error, got %#v", resp.Result)
	}
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "invalid_request: ") {
		t.Fatalf("unexpected error text %q", text)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(8, "tack.board_state", map[string]any{}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected missing board_id error, got %#v", resp.Result)
	}
}

// TestToolResultFromError verifies error class prefixes.
func TestToolResultFromError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: "unknown error"},
		{err: errors.Join(common.ErrNotFound, errors.New("board")), want: "not_found: "},
		{err: common.ErrServiceUnavailable, want: "service_unavailable: "},
		{err: errors.New("boom"), want: "internal_error: boom"},
	}
	for _, tc := range cases {
		result := toolResultFromError(tc.err)
		if !result.IsError {
			t.Fatalf("expected IsError for %v", tc.err)
		}
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok || !strings.HasPrefix(text.Text, tc.want) {
			t.Fatalf("expected prefix %q, got %#v", tc.want, result.Content[0])
		}
	}
}
