package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ironsheep/image-filters-mcp/internal/filters"
	"github.com/ironsheep/image-filters-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_filter").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token of the call.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When the request carries _meta.progressToken, filter milestones are sent
// as notifications/progress before the response.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	var progress filters.ProgressFunc
	if params.Meta != nil && params.Meta.ProgressToken != nil {
		token := params.Meta.ProgressToken
		progress = func(percent int) {
			s.notify("notifications/progress", &ProgressParams{
				ProgressToken: token,
				Progress:      percent,
				Total:         100,
			})
		}
	}

	start := time.Now()
	result, err := s.executeTool(context.Background(), params.Name, params.Arguments, progress)
	if s.debug {
		log.Printf("tool %s finished in %v (err=%v)", params.Name, time.Since(start), err)
	}
	if err != nil {
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

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/filters function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage, progress filters.ProgressFunc) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Filters
	case "image_list_filters":
		return listFilters(), nil
	case "image_filter":
		return s.handleImageFilter(ctx, args, progress)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Filter Handlers ===

// FilterInfo describes one entry of image_list_filters.
type FilterInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var filterDescriptions = map[string]string{
	filters.Grayscale:         "BT.709 luminance as an 8-bit gray image",
	filters.ContrastUpgrade:   "Per-channel contrast stretch followed by histogram equalization",
	filters.EdgeDetect:        "Canny edges, white on black",
	filters.CornerDetect:      "Harris corners marked with small diamonds on a copy of the image",
	filters.DistanceTransform: "Euclidean distance of bright pixels to the nearest dark pixel, scaled to 0..255",
	filters.AdaptiveMean:      "Depth-of-field blur whose window radius grows with the red channel intensity",
	filters.Mean:              "Radius 2 box blur on each colour channel",
}

func listFilters() []FilterInfo {
	names := filters.Names()
	out := make([]FilterInfo, len(names))
	for i, name := range names {
		out[i] = FilterInfo{Name: name, Description: filterDescriptions[name]}
	}
	return out
}

type imageFilterArgs struct {
	Path       string `json:"path"`
	Filter     string `json:"filter"`
	OutputPath string `json:"output_path"`

	// Mean filter overrides; nil or empty keeps the preset value.
	Scale            *int   `json:"scale"`
	Radius           *int   `json:"radius"`
	Normalization    string `json:"normalization"`
	ChannelMode      string `json:"channel_mode"`
	IntensityChannel string `json:"intensity_channel"`
	ZeroRadius       string `json:"zero_radius"`
}

func (a *imageFilterArgs) params() filters.Params {
	return filters.Params{
		Scale:            a.Scale,
		Radius:           a.Radius,
		Normalization:    a.Normalization,
		ChannelMode:      a.ChannelMode,
		IntensityChannel: a.IntensityChannel,
		ZeroRadius:       a.ZeroRadius,
	}
}

// FilterResult is returned by image_filter. Exactly one of Image and
// OutputPath is set.
type FilterResult struct {
	Filter     string                `json:"filter"`
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleImageFilter(ctx context.Context, args json.RawMessage, progress filters.ProgressFunc) (interface{}, error) {
	var a imageFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	f, err := buildFilter(&a)
	if err != nil {
		return nil, err
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := f.Apply(ctx, src, progress)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", f.Name(), err)
	}

	b := out.Bounds()
	result := &FilterResult{
		Filter: f.Name(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}

	if a.OutputPath != "" {
		if err := imaging.Save(out, a.OutputPath); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
		return result, nil
	}

	result.Image, err = imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildFilter resolves the named filter, applying mean filter overrides to
// the preset options of adaptive-mean-filter or mean-filter.
func buildFilter(a *imageFilterArgs) (filters.ImageFilter, error) {
	if a.Filter == "" {
		return nil, fmt.Errorf("filter is required")
	}
	return filters.NewWithParams(a.Filter, a.params())
}
