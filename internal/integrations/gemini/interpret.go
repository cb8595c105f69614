package gemini

import (
	"encoding/json"
	"regexp"
	"strings"

	"alphavault-backend/internal/models"
	"alphavault-backend/internal/prompts"
)

// Interpreted is the post-processed form of a provider response:
// human-readable prose, separated from the optional chart spec and the
// web grounding citations.
type Interpreted struct {
	Text    string
	Chart   *models.ChartData
	Sources []models.SearchSource
}

// fencedJSONRe matches a fenced code block whose body looks like a JSON
// object. Tolerant on purpose: the block is expected near the end of the
// answer but must be found wherever the model put it.
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?[ \t]*\n?(\\{.*?\\})\n?[ \t]*```")

// Interpret separates prose, chart spec, and citations from a raw
// response. An empty reply becomes the fixed fallback notice.
func Interpret(resp *GenerateResponse) Interpreted {
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Interpreted{Text: prompts.FallbackResponse, Sources: extractSources(resp)}
	}

	chart, cleaned := ExtractChartBlock(text)
	return Interpreted{
		Text:    cleaned,
		Chart:   chart,
		Sources: extractSources(resp),
	}
}

// ExtractChartBlock finds a fenced JSON block with a top-level "chart"
// key, returning the parsed spec and the text with that exact block
// removed. Malformed blocks are ignored and the text returned unchanged;
// a bad chart payload must never fail the turn. When several candidate
// blocks parse, the last one wins, since the model is instructed to
// append the block at the very end.
func ExtractChartBlock(text string) (*models.ChartData, string) {
	matches := fencedJSONRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		raw := text[m[2]:m[3]]

		var wrapper struct {
			Chart *models.ChartData `json:"chart"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapper); err != nil || wrapper.Chart == nil {
			continue
		}

		cleaned := strings.TrimSpace(text[:m[0]] + text[m[1]:])
		return wrapper.Chart, cleaned
	}
	return nil, text
}

// extractSources maps web-kind grounding chunks to citations. Other
// grounding kinds are ignored.
func extractSources(resp *GenerateResponse) []models.SearchSource {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []models.SearchSource
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = "Web Source"
		}
		sources = append(sources, models.SearchSource{Title: title, URI: chunk.Web.URI})
	}
	return sources
}
