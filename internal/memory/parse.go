package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse indicates the model returned text that is not
// parseable as the expected JSON shape. It is always recoverable: the
// bank maps it to an empty extraction or a degraded search.
var ErrMalformedResponse = errors.New("memory: malformed model response")

// extractedItem is the wire shape of one extraction result.
type extractedItem struct {
	Fact       string `json:"fact"`
	Context    string `json:"context"`
	Importance int    `json:"importance"`
}

// rankedItem is the wire shape of one search result. RelevanceScore may
// be absent; degraded fallback results never carry it.
type rankedItem struct {
	Fact           string `json:"fact"`
	Context        string `json:"context"`
	Importance     int    `json:"importance"`
	RelevanceScore int    `json:"relevance_score"`
}

// stripFences removes a surrounding Markdown code fence (``` or ```json)
// from a model response. Models routinely wrap JSON output in fences even
// when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language label.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseExtraction decodes an extraction response. Items without fact text
// are dropped; importance is clamped to 1..10. A valid empty list means
// the model found nothing worth remembering and is not an error.
func parseExtraction(raw string) ([]extractedItem, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var items []extractedItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	kept := items[:0]
	for _, it := range items {
		if strings.TrimSpace(it.Fact) == "" {
			continue
		}
		it.Importance = clampScore(it.Importance)
		kept = append(kept, it)
	}
	return kept, nil
}

// parseRanking decodes a search response and enforces the top-K cap.
func parseRanking(raw string, maxResults int) ([]rankedItem, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var items []rankedItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	kept := items[:0]
	for _, it := range items {
		if strings.TrimSpace(it.Fact) == "" {
			continue
		}
		it.Importance = clampScore(it.Importance)
		if it.RelevanceScore != 0 {
			it.RelevanceScore = clampScore(it.RelevanceScore)
		}
		kept = append(kept, it)
	}

	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept, nil
}

// clampScore forces a 1-10 score into range; zero and negatives become 1.
func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
