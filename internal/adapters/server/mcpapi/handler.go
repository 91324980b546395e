// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/tackboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing board read and move tools.
func NewHandler(cfg Config, boards common.BoardService) (*Handler, error) {
	if boards == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, boards)
	registerMoveTools(mcpSrv, boards)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig fills the server identity and canonicalizes the endpoint path.
func normalizeConfig(cfg Config) Config {
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "tackboard"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = "/" + strings.Trim(strings.TrimSpace(cfg.EndpointPath), "/")
	if cfg.EndpointPath == "/" {
		cfg.EndpointPath = "/mcp"
	}
	return cfg
}

// jsonResult encodes payload as a structured tool result.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// registerBoardTools registers the `tack.list_boards` and `tack.board_state` tools.
func registerBoardTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tack.list_boards",
			mcp.WithDescription("List boards, newest last."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived boards")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			list, err := boards.ListBoards(ctx, common.ListBoardsRequest{
				IncludeArchived: req.GetBool("include_archived", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_boards", map[string]any{"boards": list})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tack.board_state",
			mcp.WithDescription("Return one board with its columns and cards in display order."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			state, err := boards.BoardState(ctx, boardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("board_state", state)
		},
	)
}

// registerMoveTools registers the `tack.move_item` and `tack.list_moves` tools.
func registerMoveTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tack.move_item",
			mcp.WithDescription("Move one card to a slot in a column. target_order counts slots before the move."),
			mcp.WithString("item_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("target_group_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithNumber("target_order", mcp.Required(), mcp.Min(0), mcp.Description("Destination slot index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			itemID, err := req.RequireString("item_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			groupID, err := req.RequireString("target_group_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			order, err := req.RequireInt("target_order")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			moved, err := boards.MoveItem(ctx, common.MoveItemRequest{
				ItemID:        itemID,
				TargetGroupID: groupID,
				TargetOrder:   &order,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_item", moved)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tack.list_moves",
			mcp.WithDescription("List newest-first card history for one board."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithNumber("limit", mcp.Min(0), mcp.Description("Maximum rows; 0 uses the server page size")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			moves, err := boards.ListMoves(ctx, common.ListMovesRequest{
				BoardID: boardID,
				Limit:   req.GetInt("limit", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_moves", map[string]any{"moves": moves})
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrServiceUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
