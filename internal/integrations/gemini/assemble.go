package gemini

import (
	"fmt"

	"alphavault-backend/internal/models"
	"alphavault-backend/internal/prompts"
)

// Default temperatures. Chat runs slightly warm for better fuzzy
// matching and inference; extraction and synthesis pin near zero.
const (
	DefaultChatTemperature = 0.4
	PrecisionTemperature   = 0.1
)

// QueryOptions describe one request build.
type QueryOptions struct {
	// Query is the user's literal question, or a complete task prompt
	// when Raw is set.
	Query string
	// Raw skips the instruction envelope; extraction and synthesis
	// prompts carry their own instructions.
	Raw bool
	// History is the prior conversation; system rows are filtered out.
	History []models.Message
	// Documents is the active set to send as context parts.
	Documents []models.Document
	// WebSearch attaches the google_search tool.
	WebSearch bool
	// WantChart adds the trailing chart-block directive to the envelope.
	WantChart bool
	// Temperature overrides DefaultChatTemperature when non-nil.
	Temperature *float64
	// SystemInstruction overrides the analyst persona when non-empty.
	// Raw requests carry no system instruction unless one is given here.
	SystemInstruction string
	// ResponseMimeType constrains output, e.g. "application/json".
	ResponseMimeType string
}

// BuildRequest assembles the exact generateContent payload: mapped
// history first, then a final user turn of document parts followed by
// the (wrapped) query text.
func BuildRequest(opts QueryOptions) *GenerateRequest {
	contents := historyContents(opts.History)

	queryText := opts.Query
	if !opts.Raw {
		queryText = prompts.WrapQuery(opts.Query, opts.WantChart)
	}

	parts := DocumentParts(opts.Documents)
	parts = append(parts, Part{Text: queryText})
	contents = append(contents, Content{Role: RoleUser, Parts: parts})

	req := &GenerateRequest{Contents: contents}

	temp := DefaultChatTemperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	req.GenerationConfig = &GenerationConfig{
		Temperature:      &temp,
		ResponseMimeType: opts.ResponseMimeType,
	}

	switch {
	case opts.SystemInstruction != "":
		req.SystemInstruction = &Content{Parts: []Part{{Text: opts.SystemInstruction}}}
	case !opts.Raw:
		req.SystemInstruction = &Content{Parts: []Part{{Text: prompts.SystemInstruction}}}
	}

	if opts.WebSearch {
		req.Tools = []Tool{{GoogleSearch: &GoogleSearch{}}}
	}

	return req
}

// DocumentParts maps documents to request parts: inline binary content
// goes as inlineData, everything else as a delimited text frame.
func DocumentParts(docs []models.Document) []Part {
	parts := make([]Part, 0, len(docs))
	for _, doc := range docs {
		if doc.IsInlineData {
			parts = append(parts, Part{InlineData: &InlineData{
				Data:     doc.Content,
				MimeType: doc.MimeType,
			}})
			continue
		}
		parts = append(parts, Part{
			Text: fmt.Sprintf("DOCUMENT START [Name: %s]:\n%s\nDOCUMENT END\n", doc.Name, doc.Content),
		})
	}
	return parts
}

// historyContents filters out system-role messages and maps the rest to
// the provider's two-party role vocabulary, preserving order.
func historyContents(history []models.Message) []Content {
	var contents []Content
	for _, m := range history {
		if m.Role == models.RoleSystem {
			continue
		}
		role := RoleModel
		if m.Role == models.RoleUser {
			role = RoleUser
		}
		contents = append(contents, Content{
			Role:  role,
			Parts: []Part{{Text: m.Content}},
		})
	}
	return contents
}
