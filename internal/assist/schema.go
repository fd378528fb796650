package assist

import "github.com/abhisek/workbook/internal/llm"

// CitationSchema defines the structured output for URL citations.
var CitationSchema = &llm.Schema{
	Name:        "citation-list",
	Description: "MLA-style citations for a list of URLs",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"citations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url":       map[string]any{"type": "string"},
						"author":    map[string]any{"type": "string", "description": "Author or site name"},
						"title":     map[string]any{"type": "string"},
						"publisher": map[string]any{"type": "string", "description": "Publisher or site"},
						"date":      map[string]any{"type": "string", "description": "Publication date if available"},
						"mla":       map[string]any{"type": "string", "description": "The full citation, markdown with **bold** title and *italic* author"},
					},
					"required":             []any{"url", "author", "title", "publisher", "date", "mla"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"citations"},
		"additionalProperties": false,
	},
}
