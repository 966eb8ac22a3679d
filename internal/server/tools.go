package server

import "github.com/ironsheep/panel-area-mcp/internal/catalog"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func coordProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": desc,
	}
}

// targetProperties are the corner coordinates of the measured region.
func targetProperties() map[string]interface{} {
	return map[string]interface{}{
		"x1": coordProperty("Target first corner X in pixels"),
		"y1": coordProperty("Target first corner Y in pixels"),
		"x2": coordProperty("Target opposite corner X in pixels"),
		"y2": coordProperty("Target opposite corner Y in pixels"),
	}
}

func settingProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        settingNames(),
		"description": "Venue setting; selects the fallback area table",
	}
}

func categoryProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        categoryNames(),
		"description": "Venue category; selects the fallback area within the setting",
	}
}

func settingNames() []string {
	names := make([]string, len(catalog.Settings))
	for i, s := range catalog.Settings {
		names[i] = string(s)
	}
	return names
}

func categoryNames() []string {
	names := make([]string, len(catalog.Categories))
	for i, c := range catalog.Categories {
		names[i] = string(c)
	}
	return names
}

// estimateProperties is the argument set shared by area_estimate and
// area_annotate.
func estimateProperties() map[string]interface{} {
	props := targetProperties()
	props["path"] = pathProperty("Absolute path to the photo. Required unless width and height are given")
	props["width"] = map[string]interface{}{"type": "integer", "description": "Image width in pixels"}
	props["height"] = map[string]interface{}{"type": "integer", "description": "Image height in pixels"}
	props["detections"] = map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"label": map[string]interface{}{"type": "integer", "description": "Detector class id"},
				"bbox": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"minItems":    4,
					"maxItems":    4,
					"description": "[center_x, center_y, width, height] as fractions of the image",
				},
			},
			"required": []string{"label", "bbox"},
		},
		"description": "Objects found by the detector",
	}
	props["detections_path"] = pathProperty("Optional JSON file with more detections in the same format")
	props["pixel_units"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Detection boxes are in pixels instead of fractions. Default false",
		"default":     false,
	}
	props["setting"] = settingProperty()
	props["category"] = categoryProperty()
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Estimation
		{
			Name: "area_estimate",
			Description: "Estimate the physical area in square meters of a display panel in a venue photo. " +
				"The detected reference object nearest to the panel sets the scale; with no usable reference " +
				"the flat default for the venue setting and category is returned.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": estimateProperties(),
				"required":   []string{"x1", "y1", "x2", "y2", "setting", "category"},
			},
		},
		{
			Name:        "area_default",
			Description: "Look up the flat default panel area for a venue setting and category.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"setting":  settingProperty(),
					"category": categoryProperty(),
				},
				"required": []string{"setting", "category"},
			},
		},
		{
			Name:        "area_reference_classes",
			Description: "List the reference object classes with their average real-world areas.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Visual checks
		{
			Name: "area_annotate",
			Description: "Estimate the panel area and return the photo with the panel, the detections and " +
				"the chosen reference drawn on it, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := estimateProperties()
					props["dim"] = map[string]interface{}{
						"type":        "number",
						"description": "Darken the photo outside the panel, 0 to 0.95. Default 0.4",
						"default":     0.4,
					}
					return props
				}(),
				"required": []string{"path", "x1", "y1", "x2", "y2", "setting", "category"},
			},
		},
		{
			Name:        "image_crop_target",
			Description: "Crop the panel region from a photo and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := targetProperties()
					props["path"] = pathProperty("Absolute path to the image file")
					props["padding"] = map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of context to keep around the target. Default 0",
						"default":     0,
					}
					props["scale"] = map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					}
					return props
				}(),
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// History
		{
			Name:        "area_history",
			Description: "List recent estimates, newest first. Only available when a history database is configured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum entries to return (default 20)",
						"default":     20,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
