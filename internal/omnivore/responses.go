package omnivore

import (
	"encoding/json"
	"fmt"
)

// ServerHighlight is one highlight as the server reports it.
type ServerHighlight struct {
	ID    string `json:"id"`
	Quote string `json:"quote"`
}

// ArticleHighlights groups the server-side highlights of one article.
type ArticleHighlights struct {
	ArticleID  string
	Highlights []ServerHighlight
}

// SavedPageID extracts the client request ID from a savePage or saveUrl
// response.
func SavedPageID(data map[string]json.RawMessage) (string, error) {
	for _, op := range []string{"savePage", "saveUrl"} {
		raw, ok := data[op]
		if !ok {
			continue
		}
		var result struct {
			ClientRequestID string   `json:"clientRequestId"`
			ErrorCodes      []string `json:"errorCodes"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return "", fmt.Errorf("omnivore: parse %s result: %w", op, err)
		}
		if result.ClientRequestID == "" {
			return "", fmt.Errorf("omnivore: %s failed: %v", op, result.ErrorCodes)
		}
		return result.ClientRequestID, nil
	}
	return "", fmt.Errorf("omnivore: response has no save result")
}

// CreatedHighlightID extracts the new highlight's ID from a createHighlight
// response.
func CreatedHighlightID(data map[string]json.RawMessage) (string, error) {
	raw, ok := data["createHighlight"]
	if !ok {
		return "", fmt.Errorf("omnivore: response has no createHighlight result")
	}
	var result struct {
		Highlight struct {
			ID string `json:"id"`
		} `json:"highlight"`
		ErrorCodes []string `json:"errorCodes"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("omnivore: parse createHighlight result: %w", err)
	}
	if result.Highlight.ID == "" {
		return "", fmt.Errorf("omnivore: createHighlight failed: %v", result.ErrorCodes)
	}
	return result.Highlight.ID, nil
}

// ParseSearchHighlighted extracts per-article highlight lists from a
// has:highlights search response.
func ParseSearchHighlighted(data map[string]json.RawMessage) ([]ArticleHighlights, error) {
	raw, ok := data["search"]
	if !ok {
		return nil, fmt.Errorf("omnivore: response has no search result")
	}
	var result struct {
		Edges []struct {
			Node struct {
				ID         string            `json:"id"`
				Highlights []ServerHighlight `json:"highlights"`
			} `json:"node"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("omnivore: parse search result: %w", err)
	}
	articles := make([]ArticleHighlights, 0, len(result.Edges))
	for _, edge := range result.Edges {
		articles = append(articles, ArticleHighlights{
			ArticleID:  edge.Node.ID,
			Highlights: edge.Node.Highlights,
		})
	}
	return articles, nil
}
