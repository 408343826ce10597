package server

import (
	"github.com/ironsheep/image-filters-mcp/internal/filters"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent filter calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Filters
		{
			Name:        "image_list_filters",
			Description: "List the filters accepted by image_filter, with a short description of each.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name: "image_filter",
			Description: "Apply a named filter to an image. Returns the result as base64-encoded PNG, " +
				"or writes it to output_path when given. The mean filter options only apply to " +
				"adaptive-mean-filter and mean-filter.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"filter": map[string]interface{}{
						"type":        "string",
						"description": "Filter name",
						"enum":        filters.Names(),
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write instead of returning the image inline. Format follows the extension.",
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Adaptive radius scale K: radius = K * (255/min) * intensity / 255",
						"default":     filters.DefaultDepthScale,
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Fixed window radius for mean-filter",
						"default":     2,
					},
					"normalization": map[string]interface{}{
						"type":        "string",
						"description": "Divisor applied to each window sum",
						"enum":        []string{"radius-squared", "window-area", "clipped-area"},
					},
					"channel_mode": map[string]interface{}{
						"type":        "string",
						"description": "combined blurs the intensity channel into a gray result; per-channel keeps colour",
						"enum":        []string{"combined", "per-channel"},
					},
					"intensity_channel": map[string]interface{}{
						"type":        "string",
						"description": "Channel that drives the adaptive radius",
						"enum":        []string{"red", "green", "blue", "luma"},
						"default":     "red",
					},
					"zero_radius": map[string]interface{}{
						"type":        "string",
						"description": "What pixels with radius 0 become: the source pixel or its intensity",
						"enum":        []string{"copy", "intensity"},
						"default":     "copy",
					},
				},
				"required": []string{"path", "filter"},
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
