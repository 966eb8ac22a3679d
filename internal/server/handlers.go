package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mdobak/go-xerrors"

	"github.com/ironsheep/panel-area-mcp/internal/estimate"
	"github.com/ironsheep/panel-area-mcp/internal/service"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "area_estimate", "image_crop_target").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; tool execution errors return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		s.log.WarnContext(ctx, "tool execution failed",
			slog.String("tool", params.Name),
			slog.Any("error", xerrors.New(err)))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// argumentError reports tool arguments that could not be decoded.
type argumentError struct {
	tool string
	err  error
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.tool, e.err)
}

func (e *argumentError) Unwrap() error { return e.err }

func decodeArgs(tool string, args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argumentError{tool: tool, err: err}
	}
	return nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Estimation
	case "area_estimate":
		return s.handleAreaEstimate(ctx, args)
	case "area_default":
		return s.handleAreaDefault(args)
	case "area_reference_classes":
		return s.handleReferenceClasses()

	// Visual checks
	case "area_annotate":
		return s.handleAreaAnnotate(ctx, args)
	case "image_crop_target":
		return s.handleCropTarget(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// History
	case "area_history":
		return s.handleAreaHistory(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Estimation Handlers ===

type areaEstimateArgs struct {
	Path           string                   `json:"path"`
	Width          int                      `json:"width"`
	Height         int                      `json:"height"`
	X1             float64                  `json:"x1"`
	Y1             float64                  `json:"y1"`
	X2             float64                  `json:"x2"`
	Y2             float64                  `json:"y2"`
	Detections     []service.DetectionInput `json:"detections"`
	DetectionsPath string                   `json:"detections_path"`
	PixelUnits     bool                     `json:"pixel_units"`
	Setting        string                   `json:"setting"`
	Category       string                   `json:"category"`
}

func (a *areaEstimateArgs) request() service.Request {
	return service.Request{
		ImagePath:      a.Path,
		Width:          a.Width,
		Height:         a.Height,
		Target:         estimate.PixelBox{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2},
		Detections:     a.Detections,
		DetectionsPath: a.DetectionsPath,
		PixelUnits:     a.PixelUnits,
		Category:       a.Category,
		Setting:        a.Setting,
	}
}

func (s *Server) handleAreaEstimate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a areaEstimateArgs
	if err := decodeArgs("area_estimate", args, &a); err != nil {
		return nil, err
	}
	return s.svc.Estimate(ctx, a.request())
}

type areaDefaultArgs struct {
	Setting  string `json:"setting"`
	Category string `json:"category"`
}

type areaDefaultResult struct {
	Setting  string  `json:"setting"`
	Category string  `json:"category"`
	AreaM2   float64 `json:"area_m2"`
}

func (s *Server) handleAreaDefault(args json.RawMessage) (interface{}, error) {
	var a areaDefaultArgs
	if err := decodeArgs("area_default", args, &a); err != nil {
		return nil, err
	}
	area, err := s.svc.DefaultArea(a.Setting, a.Category)
	if err != nil {
		return nil, err
	}
	return &areaDefaultResult{Setting: a.Setting, Category: a.Category, AreaM2: area}, nil
}

func (s *Server) handleReferenceClasses() (interface{}, error) {
	return map[string]interface{}{
		"classes": s.svc.Classes(),
	}, nil
}

// === Visual Check Handlers ===

type areaAnnotateArgs struct {
	areaEstimateArgs
	Dim *float64 `json:"dim"`
}

func (s *Server) handleAreaAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a areaAnnotateArgs
	if err := decodeArgs("area_annotate", args, &a); err != nil {
		return nil, err
	}
	dim := 0.4
	if a.Dim != nil {
		dim = *a.Dim
	}
	return s.svc.Annotate(ctx, a.request(), dim)
}

type cropTargetArgs struct {
	Path    string  `json:"path"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleCropTarget(args json.RawMessage) (interface{}, error) {
	var a cropTargetArgs
	if err := decodeArgs("image_crop_target", args, &a); err != nil {
		return nil, err
	}
	return s.svc.Crop(a.Path, a.X1, a.Y1, a.X2, a.Y2, a.Padding, a.Scale)
}

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := decodeArgs("image_dimensions", args, &a); err != nil {
		return nil, err
	}
	return s.svc.Cache().Dimensions(a.Path)
}

// === History Handlers ===

type areaHistoryArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleAreaHistory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a areaHistoryArgs
	if err := decodeArgs("area_history", args, &a); err != nil {
		return nil, err
	}
	entries, err := s.svc.History(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	}, nil
}
