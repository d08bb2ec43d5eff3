// Package importer walks an exported article archive and imports each
// article into Omnivore: page content with highlight markers placed back
// into the HTML, page metadata, the article-level note, and per-highlight
// notes and labels.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"omniport/internal/flatten"
	"omniport/internal/highlight"
	"omniport/internal/ledger"
	"omniport/internal/match"
	"omniport/internal/notes"
	"omniport/internal/omnivore"
)

// Article is one entry of the archive's metadata JSON.
type Article struct {
	URL             string   `json:"url"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Author          string   `json:"author"`
	SavedAt         string   `json:"savedAt"`
	PublishedAt     string   `json:"publishedAt"`
	Thumbnail       string   `json:"thumbnail"`
	Labels          []string `json:"labels"`
	State           string   `json:"state"`
	ReadingProgress int      `json:"readingProgress"`
}

// Importer drives one archive import run.
type Importer struct {
	api    *omnivore.Client
	ledger *ledger.Ledger
	cutoff float64
}

// New returns an importer using the given API client and similarity cutoff
// for highlight placement. A cutoff outside (0, 1] falls back to
// match.DefaultCutoff. The ledger may be nil to disable resume bookkeeping.
func New(api *omnivore.Client, led *ledger.Ledger, cutoff float64) *Importer {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = match.DefaultCutoff
	}
	return &Importer{api: api, ledger: led, cutoff: cutoff}
}

// ImportFolder imports every article described by the *.json metadata files
// in folder. Content is read from content/<slug>.html and highlight notes
// from highlights/<slug>.md. A failed article is logged and skipped;
// the run continues.
func (imp *Importer) ImportFolder(ctx context.Context, folder string) error {
	articles, err := loadMetadata(folder)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("importer: no article metadata found in %s", folder)
	}

	contentDir := filepath.Join(folder, "content")
	highlightsDir := filepath.Join(folder, "highlights")

	for _, article := range articles {
		if article.Slug == "" {
			slog.Warn("skipping article without slug", "title", article.Title)
			continue
		}
		slug, err := safeSlug(article.Slug)
		if err != nil {
			slog.Warn("skipping article with unsafe slug", "slug", article.Slug, "title", article.Title)
			continue
		}
		article.Slug = slug
		if imp.ledger != nil {
			if pageID, done, err := imp.ledger.Lookup(ctx, article.Slug); err != nil {
				return err
			} else if done {
				slog.Info("already imported", "slug", article.Slug, "page_id", pageID)
				continue
			}
		}

		slog.Info("importing", "title", article.Title, "slug", article.Slug)
		if err := imp.importArticle(ctx, article, contentDir, highlightsDir); err != nil {
			slog.Error("import failed", "title", article.Title, "err", err)
		}
	}
	return nil
}

// loadMetadata reads every *.json file in folder; each file may hold one
// article object or an array of them. Unreadable files are logged and
// skipped.
func loadMetadata(folder string) ([]Article, error) {
	paths, err := filepath.Glob(filepath.Join(folder, "*.json"))
	if err != nil {
		return nil, err
	}
	var articles []Article
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("read metadata", "path", path, "err", err)
			continue
		}
		var list []Article
		if err := json.Unmarshal(data, &list); err == nil {
			articles = append(articles, list...)
			continue
		}
		var single Article
		if err := json.Unmarshal(data, &single); err != nil {
			slog.Warn("invalid metadata json", "path", path, "err", err)
			continue
		}
		articles = append(articles, single)
	}
	return articles, nil
}

func (imp *Importer) importArticle(ctx context.Context, article Article, contentDir, highlightsDir string) error {
	doc, err := notes.ParseFile(filepath.Join(highlightsDir, article.Slug+".md"))
	if err != nil {
		return fmt.Errorf("parse highlights: %w", err)
	}

	content, haveContent, err := loadContent(filepath.Join(contentDir, article.Slug+".html"))
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	placed := 0
	if haveContent && len(doc.Highlights) > 0 {
		var results []highlight.Result
		content, results = highlight.PlaceAll(content, doc.Highlights, imp.cutoff)
		for _, res := range results {
			if res.Placement == nil {
				slog.Warn("highlight not found in content",
					"slug", article.Slug, "quote", clip(res.Record.Quote, 50))
				continue
			}
			placed++
			slog.Debug("highlight placed",
				"slug", article.Slug,
				"start", res.Placement.Span.Start,
				"end", res.Placement.Span.End,
				"similarity", res.Placement.Similarity)
		}
	}

	pageID, err := imp.savePage(ctx, article, content, haveContent)
	if err != nil {
		return err
	}
	slog.Info("page saved", "slug", article.Slug, "page_id", pageID)

	if err := imp.updateMetadata(ctx, pageID, article); err != nil {
		return err
	}

	if doc.ArticleNote != "" {
		req, err := omnivore.CreateNote(pageID, doc.ArticleNote)
		if err != nil {
			return err
		}
		if _, err := imp.api.Do(ctx, req); err != nil {
			return fmt.Errorf("create article note: %w", err)
		}
	}

	if len(doc.Highlights) > 0 {
		if haveContent {
			if err := imp.annotateHighlights(ctx, pageID, doc.Highlights); err != nil {
				return err
			}
		} else {
			// No content means no markers for the server to pick up, so the
			// records are saved as fresh highlights instead.
			if err := imp.createHighlights(ctx, pageID, doc.Highlights); err != nil {
				return err
			}
			placed = len(doc.Highlights)
		}
	}

	if imp.ledger != nil {
		if err := imp.ledger.Record(ctx, ledger.Entry{
			Slug:       article.Slug,
			PageID:     pageID,
			Title:      article.Title,
			Highlights: placed,
		}); err != nil {
			return fmt.Errorf("record import: %w", err)
		}
	}
	return nil
}

// loadContent reads and cleans an article's HTML. A missing file means the
// article is imported by URL only.
func loadContent(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return flatten.Clean(string(data)), true, nil
}

func (imp *Importer) savePage(ctx context.Context, article Article, content string, haveContent bool) (string, error) {
	labels := make([]omnivore.Label, 0, len(article.Labels))
	for _, name := range article.Labels {
		labels = append(labels, omnivore.Label{Name: name})
	}

	var req omnivore.Request
	if haveContent {
		req = omnivore.SavePage(article.URL, content, article.Title, labels)
	} else {
		req = omnivore.SaveURL(article.URL, labels)
	}
	data, err := imp.api.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("save page: %w", err)
	}
	pageID, err := omnivore.SavedPageID(data)
	if err != nil {
		return "", err
	}
	return pageID, nil
}

func (imp *Importer) updateMetadata(ctx context.Context, pageID string, article Article) error {
	req := omnivore.UpdatePage(pageID, omnivore.PageMetadata{
		Title:        article.Title,
		Description:  article.Description,
		Byline:       article.Author,
		SavedAt:      article.SavedAt,
		PublishedAt:  article.PublishedAt,
		PreviewImage: article.Thumbnail,
	})
	if _, err := imp.api.Do(ctx, req); err != nil {
		return fmt.Errorf("update page: %w", err)
	}

	if article.State == "Archived" {
		if _, err := imp.api.Do(ctx, omnivore.Archive(pageID)); err != nil {
			return fmt.Errorf("archive page: %w", err)
		}
	}
	if article.ReadingProgress > 0 {
		if _, err := imp.api.Do(ctx, omnivore.SetReadingProgress(pageID, article.ReadingProgress)); err != nil {
			return fmt.Errorf("set reading progress: %w", err)
		}
	}
	return nil
}

// annotateHighlights reconciles the local records against the server's
// stored highlights for the page and pushes notes and labels onto the best
// match of each.
func (imp *Importer) annotateHighlights(ctx context.Context, pageID string, records []notes.Record) error {
	serverHighlights, err := imp.fetchPageHighlights(ctx, pageID)
	if err != nil {
		return err
	}
	if len(serverHighlights) == 0 {
		slog.Warn("no server-side highlights for page", "page_id", pageID)
		return nil
	}

	quotes := make([]string, 0, len(serverHighlights))
	byQuote := make(map[string]omnivore.ServerHighlight, len(serverHighlights))
	for _, h := range serverHighlights {
		if h.Quote == "" {
			continue
		}
		quotes = append(quotes, h.Quote)
		if _, seen := byQuote[h.Quote]; !seen {
			byQuote[h.Quote] = h
		}
	}

	for _, rec := range records {
		closest, err := match.Closest(rec.Quote, quotes)
		if err != nil {
			if errors.Is(err, match.ErrNoCandidates) {
				slog.Warn("no quoted highlights to reconcile against", "page_id", pageID)
				return nil
			}
			return err
		}
		server, ok := byQuote[closest]
		if !ok {
			continue
		}

		if rec.Notes != "" {
			req := omnivore.UpdateHighlight(server.ID, rec.Notes)
			if _, err := imp.api.Do(ctx, req); err != nil {
				return fmt.Errorf("update highlight: %w", err)
			}
		}
		if len(rec.Labels) > 0 {
			labels := make([]omnivore.Label, 0, len(rec.Labels))
			for _, name := range rec.Labels {
				labels = append(labels, omnivore.Label{Name: name})
			}
			req := omnivore.SetHighlightLabels(server.ID, labels)
			if _, err := imp.api.Do(ctx, req); err != nil {
				return fmt.Errorf("set highlight labels: %w", err)
			}
		}
	}
	return nil
}

// createHighlights saves each record as a new highlight on a page imported
// without content, with its note as the annotation and its labels attached
// afterwards.
func (imp *Importer) createHighlights(ctx context.Context, pageID string, records []notes.Record) error {
	for _, rec := range records {
		req, err := omnivore.CreateHighlight(pageID, rec.Quote, rec.Notes)
		if err != nil {
			return err
		}
		data, err := imp.api.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("create highlight: %w", err)
		}
		if len(rec.Labels) == 0 {
			continue
		}
		highlightID, err := omnivore.CreatedHighlightID(data)
		if err != nil {
			return err
		}
		labels := make([]omnivore.Label, 0, len(rec.Labels))
		for _, name := range rec.Labels {
			labels = append(labels, omnivore.Label{Name: name})
		}
		if _, err := imp.api.Do(ctx, omnivore.SetHighlightLabels(highlightID, labels)); err != nil {
			return fmt.Errorf("set highlight labels: %w", err)
		}
	}
	return nil
}

// fetchPageHighlights queries every highlighted article and picks out this
// page's highlights. A body that fails to decode is retried once; retry
// policy lives here, not in the client.
func (imp *Importer) fetchPageHighlights(ctx context.Context, pageID string) ([]omnivore.ServerHighlight, error) {
	data, err := imp.api.Do(ctx, omnivore.SearchHighlighted())
	if err != nil {
		var decodeErr *omnivore.DecodeError
		if !errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("search highlights: %w", err)
		}
		slog.Warn("search response not decodable, retrying once", "err", decodeErr)
		data, err = imp.api.Do(ctx, omnivore.SearchHighlighted())
		if err != nil {
			return nil, fmt.Errorf("search highlights retry: %w", err)
		}
	}

	articles, err := omnivore.ParseSearchHighlighted(data)
	if err != nil {
		return nil, err
	}
	for _, article := range articles {
		if article.ArticleID == pageID {
			return article.Highlights, nil
		}
	}
	return nil, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
