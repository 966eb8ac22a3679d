package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"area_estimate",
		"area_default",
		"area_reference_classes",
		"area_annotate",
		"image_crop_target",
		"image_dimensions",
		"area_history",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("properties should be a map")
			}

			// Every required field must be declared
			required, _ := tool.InputSchema["required"].([]string)
			for _, field := range required {
				if _, ok := props[field]; !ok {
					t.Errorf("required field %s missing from properties", field)
				}
			}
		})
	}
}

func TestToolDefinitions_EnumsMatchCatalog(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		for field, want := range map[string][]string{"setting": settingNames(), "category": categoryNames()} {
			prop, ok := props[field].(map[string]interface{})
			if !ok {
				continue
			}
			got, _ := prop["enum"].([]string)
			if len(got) != len(want) {
				t.Errorf("%s.%s enum: got %v, want %v", tool.Name, field, got, want)
			}
		}
	}
}

func TestToolDefinitions_TargetCoordinates(t *testing.T) {
	for _, name := range []string{"area_estimate", "area_annotate", "image_crop_target"} {
		t.Run(name, func(t *testing.T) {
			var tool Tool
			for _, candidate := range GetToolDefinitions() {
				if candidate.Name == name {
					tool = candidate
				}
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, coord := range []string{"x1", "y1", "x2", "y2"} {
				prop, ok := props[coord].(map[string]interface{})
				if !ok {
					t.Fatalf("missing %s", coord)
				}
				if prop["type"] != "number" {
					t.Errorf("%s type: got %v, want number", coord, prop["type"])
				}
			}
		})
	}
}
