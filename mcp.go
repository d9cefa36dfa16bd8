package anyclick

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anyclick/anyclick/internal/kit"
)

// RegisterMCP registers session tools on an MCP server so assistants
// can attach pages, flip the capture switch and inspect state.
func (s *Session) RegisterMCP(srv *mcp.Server) {
	s.registerAttachTool(srv)
	s.registerDetachTool(srv)
	s.registerCaptureTool(srv)
	s.registerEnableTool(srv)
	s.registerStatusTool(srv)
	s.registerSettingsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// --- attach ---

type attachRequest struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
}

type attachResponse struct {
	PageID string `json:"page_id"`
	URL    string `json:"url"`
}

func (s *Session) registerAttachTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_attach",
		Description: "Attach the capture agent to a page URL. Opens a tab and enables right-click capture on it.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to open"},
			"id":  map[string]any{"type": "string", "description": "Optional page identifier, generated when empty"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*attachRequest)
		if r.URL == "" {
			return nil, fmt.Errorf("url is required")
		}
		id, err := s.AttachPage(ctx, r.URL, r.ID)
		if err != nil {
			return nil, err
		}
		return attachResponse{PageID: id, URL: r.URL}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[attachRequest])
}

// --- detach ---

type detachRequest struct {
	PageID string `json:"page_id"`
}

func (s *Session) registerDetachTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_detach",
		Description: "Detach the capture agent from a page and close its tab.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page identifier"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*detachRequest)
		if err := s.DetachPage(r.PageID); err != nil {
			return nil, err
		}
		return map[string]any{"detached": r.PageID}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[detachRequest])
}

// --- capture ---

type captureRequest struct {
	PageID   string `json:"page_id"`
	Selector string `json:"selector"`
}

func (s *Session) registerCaptureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_capture",
		Description: "Capture the element matching a CSS selector on an attached page. The capture payload flows to the configured sinks.",
		InputSchema: inputSchema(map[string]any{
			"page_id":  map[string]any{"type": "string", "description": "Page identifier"},
			"selector": map[string]any{"type": "string", "description": "CSS selector of the element to capture"},
		}, []string{"page_id", "selector"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*captureRequest)
		if r.Selector == "" {
			return nil, fmt.Errorf("selector is required")
		}
		if err := s.Capture(r.PageID, r.Selector); err != nil {
			return nil, err
		}
		return map[string]any{"requested": true, "page_id": r.PageID, "selector": r.Selector}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[captureRequest])
}

// --- enable ---

type enableRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

func (s *Session) registerEnableTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_enable",
		Description: "Set or toggle the capture master switch across all attached pages.",
		InputSchema: inputSchema(map[string]any{
			"enabled": map[string]any{"type": "boolean", "description": "Desired state. Omit to toggle."},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*enableRequest)
		if r.Enabled == nil {
			state, err := s.Toggle(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"enabled": state}, nil
		}
		if err := s.SetEnabled(ctx, *r.Enabled); err != nil {
			return nil, err
		}
		return map[string]any{"enabled": *r.Enabled}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[enableRequest])
}

// --- status ---

type statusRequest struct{}

func (s *Session) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_status",
		Description: "List attached pages with their capture state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return map[string]any{
			"enabled": s.Enabled(),
			"pages":   s.Status(),
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[statusRequest])
}

// --- settings ---

type settingsRequest struct {
	Theme      *string `json:"theme,omitempty"`
	CustomMenu *string `json:"custom_menu,omitempty"`
}

func (s *Session) registerSettingsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "anyclick_settings",
		Description: "Read or update runtime settings (theme, custom menu). Fields left out are unchanged.",
		InputSchema: inputSchema(map[string]any{
			"theme":       map[string]any{"type": "string", "enum": []any{"light", "dark"}, "description": "Menu theme"},
			"custom_menu": map[string]any{"type": "string", "description": "Custom menu item tree as JSON, empty string restores the default menu"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*settingsRequest)
		cur := s.Settings()
		if r.Theme != nil {
			cur.Theme = *r.Theme
		}
		if r.CustomMenu != nil {
			cur.CustomMenu = *r.CustomMenu
		}
		if r.Theme != nil || r.CustomMenu != nil {
			if err := s.ApplySettings(ctx, cur); err != nil {
				return nil, err
			}
		}
		return cur, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[settingsRequest])
}

// decodeJSON unmarshals tool arguments into *T.
func decodeJSON[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}
