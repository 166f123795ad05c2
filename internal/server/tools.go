package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Schema fragments shared by several tools.
var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}

	gridProperty = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "number"},
				"minItems": 9,
				"maxItems": 9,
			},
			"y": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "number"},
				"minItems": 9,
				"maxItems": 9,
			},
		},
		"required":    []string{"x", "y"},
		"description": "Optional manual grid: 9 vertical line x positions and 9 horizontal line y positions, left to right and top to bottom. Skips board detection when given.",
	}

	optionsProperty = map[string]interface{}{
		"type":        "object",
		"description": "Optional configuration overrides by section, e.g. {\"locator\": {\"fast_path_score\": 30}, \"tiles\": {\"size\": 64}}. Sections: contrast, edges, locator, aligner, tiles.",
	}

	predictionsProperty = map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"class": map[string]interface{}{
					"description": "Class name (empty, wP..wK, bP..bK), FEN letter or index 0-12",
				},
				"probabilities": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"minItems":    13,
					"maxItems":    13,
					"description": "Probabilities in class order empty, wP, wN, wB, wR, wQ, wK, bP, bN, bB, bR, bQ, bK. When given, the most probable class is used.",
				},
			},
		},
		"minItems":    64,
		"maxItems":    64,
		"description": "64 per-square predictions in image order, row-major from the top-left tile",
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and content digest. The image stays cached for subsequent board operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
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
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Board Geometry
		{
			Name:        "board_locate",
			Description: "Find the coarse square bounding box of a chessboard in a screenshot from the alternating light/dark pattern of its squares. Always returns a square inside the image, with the pattern score that selected it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"options": optionsProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "board_align",
			Description: "Locate the board and refine it against the image's edges. Returns the coarse and refined rectangles, tile size and the 9+9 grid lines.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"options": optionsProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "board_tiles",
			Description: "Cut the board into its 64 squares, each resampled to the configured tile size, and return them as base64 PNGs in image order (row-major from the top-left). Feed these to a square classifier.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"grid":    gridProperty,
					"options": optionsProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "board_crop",
			Description: "Crop the detected (or given) board out of the image as a base64 PNG, optionally scaled and rotated 180° so white is at the bottom.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"grid": gridProperty,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
					"rotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Rotate the crop by 180°",
						"default":     false,
					},
					"options": optionsProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "board_overlay",
			Description: "Draw the detected (or given) 9+9 grid lines over the image so the detection can be checked by eye. Returns a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"grid": gridProperty,
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Write file letters and rank numbers beside the board. Default true",
						"default":     true,
					},
					"flipped": map[string]interface{}{
						"type":        "boolean",
						"description": "Label the board as seen from black's side",
						"default":     false,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour as #RRGGBB or #RRGGBBAA. Default #FF0000",
						"default":     "#FF0000",
					},
					"options": optionsProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "board_edges",
			Description: "Return the edge map the grid aligner works on: luminance, optional CLAHE contrast enhancement, then Canny with hysteresis. White pixels are edges.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"strong": map[string]interface{}{
						"type":        "number",
						"description": "Strong hysteresis threshold. Default 80",
						"default":     80,
					},
					"weak": map[string]interface{}{
						"type":        "number",
						"description": "Weak hysteresis threshold. Default 30",
						"default":     30,
					},
					"contrast": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply CLAHE before edge detection. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},

		// Position
		{
			Name:        "position_assemble",
			Description: "Turn 64 per-square classifier predictions into a legal-looking FEN. Pawns on the back ranks, missing kings and excess pieces are corrected using the probabilities, and every correction is reported as a warning.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"predictions": predictionsProperty,
					"flipped": map[string]interface{}{
						"type":        "boolean",
						"description": "Board is shown from black's side. When omitted it is detected from where the pieces stand.",
					},
				},
				"required": []string{"predictions"},
			},
		},
		{
			Name:        "position_validate",
			Description: "Check that a FEN (or a bare piece placement) parses as a chess position and return the class of every square.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fen": map[string]interface{}{
						"type":        "string",
						"description": "Full FEN or piece placement field",
					},
				},
				"required": []string{"fen"},
			},
		},
		{
			Name:        "board_recognize",
			Description: "Run the whole pipeline on a screenshot: locate and align the board, pair its 64 tiles with the given predictions, detect orientation and assemble the FEN. The result is recorded in the position history when one is configured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"predictions": predictionsProperty,
					"grid":        gridProperty,
					"options":     optionsProperty,
				},
				"required": []string{"path", "predictions"},
			},
		},
		{
			Name:        "position_history",
			Description: "List recent recognitions, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of entries. Defaults to the configured history limit",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Only list recognitions of this image (matched by content digest)",
					},
				},
			},
		},
	}
}
