package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/panel-area-mcp/internal/history"
	"github.com/ironsheep/panel-area-mcp/internal/service"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the raw response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name, "arguments": args}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the text content of a successful tool response into v.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
}

var carArgs = map[string]interface{}{
	"width":  1000,
	"height": 1000,
	"x1":     100, "y1": 100, "x2": 300, "y2": 300,
	"detections": []map[string]interface{}{
		{"label": 2, "bbox": []float64{0.5, 0.5, 0.3, 0.2}},
	},
	"setting":  "indoor",
	"category": "Bar",
}

func TestHandleToolsCall_AreaEstimate(t *testing.T) {
	s := New(nil, nil)

	var got struct {
		AreaM2    float64 `json:"area_m2"`
		Method    string  `json:"method"`
		Reference struct {
			Name  string `json:"name"`
			Label int    `json:"label"`
		} `json:"reference"`
	}
	toolResult(t, callTool(t, s, "area_estimate", carArgs), &got)

	if got.AreaM2 != 5.4 || got.Method != "reference" {
		t.Errorf("got %v via %s, want 5.4 via reference", got.AreaM2, got.Method)
	}
	if got.Reference.Name != "car" {
		t.Errorf("reference name: got %q", got.Reference.Name)
	}
}

func TestHandleToolsCall_AreaEstimate_Default(t *testing.T) {
	s := New(nil, nil)

	args := map[string]interface{}{
		"width": 640, "height": 480,
		"x1": 0, "y1": 0, "x2": 10, "y2": 10,
		"setting": "Outdoor", "category": "Szechuan",
	}
	var got struct {
		AreaM2 float64 `json:"area_m2"`
		Method string  `json:"method"`
	}
	toolResult(t, callTool(t, s, "area_estimate", args), &got)

	if got.AreaM2 != 37 || got.Method != "default" {
		t.Errorf("got %v via %s, want 37 via default", got.AreaM2, got.Method)
	}
}

func TestHandleToolsCall_AreaEstimate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     interface{}
		wantCode int
	}{
		{"unknown category", map[string]interface{}{"width": 10, "height": 10, "setting": "indoor", "category": "Cafe"}, -32000},
		{"no dimensions", map[string]interface{}{"setting": "indoor", "category": "Bar"}, -32000},
		{"missing image", map[string]interface{}{"path": "/nonexistent/image.png", "setting": "indoor", "category": "Bar"}, -32000},
		{"wrong argument type", map[string]interface{}{"x1": "left"}, -32602},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, New(nil, nil), "area_estimate", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Error code: got %d, want %d", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleToolsCall_AreaDefault(t *testing.T) {
	s := New(nil, nil)

	var got areaDefaultResult
	toolResult(t, callTool(t, s, "area_default", map[string]interface{}{"setting": "indoor", "category": "Store"}), &got)
	if got.AreaM2 != 35 {
		t.Errorf("got %v, want 35", got.AreaM2)
	}
}

func TestHandleToolsCall_ReferenceClasses(t *testing.T) {
	s := New(nil, nil)

	var got struct {
		Classes []struct {
			ID     int     `json:"id"`
			Name   string  `json:"name"`
			AreaM2 float64 `json:"area_m2"`
		} `json:"classes"`
	}
	toolResult(t, callTool(t, s, "area_reference_classes", map[string]interface{}{}), &got)

	if len(got.Classes) != 30 {
		t.Fatalf("got %d classes, want 30", len(got.Classes))
	}
	if got.Classes[2].Name != "car" || got.Classes[2].AreaM2 != 8.1 {
		t.Errorf("class 2: got %+v", got.Classes[2])
	}
}

func TestHandleToolsCall_AreaAnnotate(t *testing.T) {
	s := New(nil, nil)

	args := map[string]interface{}{}
	for k, v := range carArgs {
		args[k] = v
	}
	args["path"] = createTestImageFile(t, 1000, 1000, color.RGBA{80, 80, 80, 255})

	var got struct {
		Estimate struct {
			AreaM2 float64 `json:"area_m2"`
		} `json:"estimate"`
		Overlay struct {
			Width       int    `json:"width"`
			ImageBase64 string `json:"image_base64"`
			MimeType    string `json:"mime_type"`
		} `json:"overlay"`
	}
	toolResult(t, callTool(t, s, "area_annotate", args), &got)

	if got.Estimate.AreaM2 != 5.4 {
		t.Errorf("area: got %v", got.Estimate.AreaM2)
	}
	if got.Overlay.Width != 1000 || got.Overlay.ImageBase64 == "" || got.Overlay.MimeType != "image/png" {
		t.Errorf("overlay: width %d, mime %s", got.Overlay.Width, got.Overlay.MimeType)
	}
}

func TestHandleToolsCall_CropTarget(t *testing.T) {
	s := New(nil, nil)
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var got struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	args := map[string]interface{}{"path": imgPath, "x1": 20, "y1": 10, "x2": 70, "y2": 40, "scale": 2.0}
	toolResult(t, callTool(t, s, "image_crop_target", args), &got)

	if got.Width != 100 || got.Height != 60 {
		t.Errorf("got %dx%d, want 100x60", got.Width, got.Height)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New(nil, nil)
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var got struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	toolResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}), &got)

	if got.Width != 200 || got.Height != 150 {
		t.Errorf("got %dx%d, want 200x150", got.Width, got.Height)
	}
}

func TestHandleToolsCall_AreaHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		resp := callTool(t, New(nil, nil), "area_history", map[string]interface{}{})
		if resp.Error == nil || resp.Error.Code != -32000 {
			t.Errorf("expected tool error, got %+v", resp.Error)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		store, err := history.Open(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()

		s := New(service.New(service.Options{History: store}), nil)
		for i := 0; i < 3; i++ {
			if resp := callTool(t, s, "area_estimate", carArgs); resp.Error != nil {
				t.Fatalf("estimate failed: %+v", resp.Error)
			}
		}

		var got struct {
			Count   int `json:"count"`
			Entries []struct {
				AreaM2 float64 `json:"area_m2"`
			} `json:"entries"`
		}
		toolResult(t, callTool(t, s, "area_history", map[string]interface{}{"limit": 2}), &got)

		if got.Count != 2 || len(got.Entries) != 2 {
			t.Fatalf("got %d entries, want 2", got.Count)
		}
		if got.Entries[0].AreaM2 != 5.4 {
			t.Errorf("area: got %v", got.Entries[0].AreaM2)
		}
	})
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	resp := callTool(t, New(nil, nil), "nonexistent_tool", map[string]interface{}{})
	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil, nil)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestExecuteTool_MissingArguments(t *testing.T) {
	s := New(nil, nil)
	// Absent arguments decode as an empty object
	if _, err := s.executeTool(context.Background(), "area_reference_classes", nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := s.executeTool(context.Background(), "area_default", nil); err == nil {
		t.Error("expected error for missing setting and category")
	}
}
