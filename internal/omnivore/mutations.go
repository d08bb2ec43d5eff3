package omnivore

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Label is a name attached to a page or a highlight.
type Label struct {
	Name string `json:"name"`
}

// PageMetadata carries the updatable page fields. Empty strings are left
// out of the mutation entirely rather than sent as nulls.
type PageMetadata struct {
	Title        string
	Description  string
	Byline       string
	SavedAt      string
	PublishedAt  string
	PreviewImage string
}

const searchHighlightedQuery = `
query Search {
  search(query: "has:highlights") {
    ... on SearchSuccess {
      edges {
        node {
          id
          highlights {
            id
            quote
          }
        }
      }
    }
  }
}`

// SearchHighlighted builds the query fetching every article that has
// highlights, with their server-side IDs and quotes.
func SearchHighlighted() Request {
	return Request{Query: searchHighlightedQuery}
}

const savePageMutation = `
mutation SavePage($input: SavePageInput!) {
    savePage(input: $input) {
        ... on SaveSuccess {
            url
            clientRequestId
        }
        ... on SaveError {
            errorCodes
        }
    }
}`

// SavePage builds the mutation storing a page with its full HTML content.
func SavePage(url, content, title string, labels []Label) Request {
	return Request{
		Query: savePageMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"url":             url,
				"originalContent": content,
				"title":           title,
				"source":          "api_import",
				"labels":          labels,
				"clientRequestId": uuid.NewString(),
			},
		},
	}
}

const saveURLMutation = `
mutation SaveUrl($input: SaveUrlInput!) {
    saveUrl(input: $input) {
        ... on SaveSuccess {
            url
            clientRequestId
        }
        ... on SaveError {
            errorCodes
        }
    }
}`

// SaveURL builds the mutation storing a page from its URL alone.
func SaveURL(url string, labels []Label) Request {
	return Request{
		Query: saveURLMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"url":             url,
				"source":          "api_import",
				"labels":          labels,
				"clientRequestId": uuid.NewString(),
			},
		},
	}
}

const updatePageMutation = `
mutation UpdatePage($input: UpdatePageInput!) {
    updatePage(input: $input) {
        ... on UpdatePageError {
            errorCodes
        }
    }
}`

// UpdatePage builds the mutation refreshing page metadata. Unset fields are
// omitted.
func UpdatePage(pageID string, meta PageMetadata) Request {
	input := map[string]any{"pageId": pageID}
	setIf := func(key, val string) {
		if val != "" {
			input[key] = val
		}
	}
	setIf("title", meta.Title)
	setIf("description", meta.Description)
	setIf("byline", meta.Byline)
	setIf("savedAt", meta.SavedAt)
	setIf("publishedAt", meta.PublishedAt)
	setIf("previewImage", meta.PreviewImage)
	return Request{
		Query:     updatePageMutation,
		Variables: map[string]any{"input": input},
	}
}

const readingProgressMutation = `
mutation SaveArticleReadingProgress($input: SaveArticleReadingProgressInput!) {
    saveArticleReadingProgress(input: $input) {
        ... on SaveArticleReadingProgressError {
            errorCodes
        }
    }
}`

// SetReadingProgress builds the mutation recording a reading percentage.
func SetReadingProgress(pageID string, progress int) Request {
	return Request{
		Query: readingProgressMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"id":                     pageID,
				"readingProgressPercent": progress,
			},
		},
	}
}

const archiveMutation = `
mutation SetLinkArchived($input: ArchiveLinkInput!) {
    setLinkArchived(input: $input) {
        ... on ArchiveLinkError {
            errorCodes
        }
    }
}`

// Archive builds the mutation marking a page archived.
func Archive(pageID string) Request {
	return Request{
		Query: archiveMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"linkId":   pageID,
				"archived": true,
			},
		},
	}
}

const updateHighlightMutation = `
mutation UpdateHighlight($input: UpdateHighlightInput!) {
    updateHighlight(input: $input) {
        ... on UpdateHighlightSuccess {
            highlight {
                id
            }
        }
        ... on UpdateHighlightError {
            errorCodes
        }
    }
}`

// UpdateHighlight builds the mutation attaching an annotation to an
// existing highlight.
func UpdateHighlight(highlightID, annotation string) Request {
	return Request{
		Query: updateHighlightMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"highlightId": highlightID,
				"annotation":  annotation,
			},
		},
	}
}

const setHighlightLabelsMutation = `
mutation SetLabelsForHighlight($input: SetLabelsForHighlightInput!) {
  setLabelsForHighlight(input: $input) {
    ... on SetLabelsSuccess {
      labels {
        id
      }
    }
  }
}`

// SetHighlightLabels builds the mutation replacing a highlight's labels.
func SetHighlightLabels(highlightID string, labels []Label) Request {
	return Request{
		Query: setHighlightLabelsMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"highlightId": highlightID,
				"labels":      labels,
			},
		},
	}
}

const createHighlightMutation = `
mutation CreateHighlight($input: CreateHighlightInput!) {
    createHighlight(input: $input) {
        ... on CreateHighlightSuccess {
            highlight {
                id
            }
        }
        ... on CreateHighlightError {
            errorCodes
        }
    }
}`

// CreateHighlight builds the mutation saving a new highlight on a page,
// optionally with an annotation.
func CreateHighlight(pageID, quote, annotation string) (Request, error) {
	shortID, err := gonanoid.New(8)
	if err != nil {
		return Request{}, err
	}
	input := map[string]any{
		"id":        uuid.NewString(),
		"articleId": pageID,
		"shortId":   shortID,
		"quote":     quote,
		"type":      "HIGHLIGHT",
	}
	if annotation != "" {
		input["annotation"] = annotation
	}
	return Request{
		Query:     createHighlightMutation,
		Variables: map[string]any{"input": input},
	}, nil
}

// CreateNote builds the mutation saving an article-level note. The API
// models it as a highlight of type NOTE with no quote.
func CreateNote(pageID, note string) (Request, error) {
	shortID, err := gonanoid.New(8)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Query: createHighlightMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"id":         uuid.NewString(),
				"articleId":  pageID,
				"shortId":    shortID,
				"annotation": note,
				"type":       "NOTE",
			},
		},
	}, nil
}
