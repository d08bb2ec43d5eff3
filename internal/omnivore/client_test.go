package omnivore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDo(t *testing.T) {
	var gotAuth, gotContentType string
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"data":{"savePage":{"clientRequestId":"req-1"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key")
	data, err := c.Do(context.Background(), Request{Query: "mutation X", Variables: map[string]any{"a": "b"}})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "secret-key" {
		t.Fatalf("unexpected Authorization header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected Content-Type %q", gotContentType)
	}
	if gotReq.Query != "mutation X" {
		t.Fatalf("unexpected query %q", gotReq.Query)
	}
	if _, ok := data["savePage"]; !ok {
		t.Fatalf("expected savePage in data, got %v", data)
	}
}

func TestDoNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k").Do(context.Background(), Request{Query: "query Q"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if string(decodeErr.Body) != "<html>upstream error</html>" {
		t.Fatalf("decode error lost the body: %q", decodeErr.Body)
	}
}

func TestDoJSONWithoutData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"unauthorized"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k").Do(context.Background(), Request{Query: "query Q"})
	if err == nil {
		t.Fatalf("expected error for missing data field")
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		t.Fatalf("missing data is not a decode failure: %v", err)
	}
}

func TestSavePageVariables(t *testing.T) {
	req := SavePage("https://example.com/a", "<html></html>", "A title", []Label{{Name: "imported"}})
	input, ok := req.Variables["input"].(map[string]any)
	if !ok {
		t.Fatalf("missing input variable")
	}
	if input["url"] != "https://example.com/a" || input["title"] != "A title" {
		t.Fatalf("unexpected input %v", input)
	}
	if input["source"] != "api_import" {
		t.Fatalf("unexpected source %v", input["source"])
	}
	id, _ := input["clientRequestId"].(string)
	if len(id) != 36 {
		t.Fatalf("clientRequestId is not a UUID: %q", id)
	}
}

func TestUpdatePageOmitsEmptyFields(t *testing.T) {
	req := UpdatePage("page-1", PageMetadata{Title: "T", PublishedAt: "2024-01-02T00:00:00Z"})
	input := req.Variables["input"].(map[string]any)
	if input["pageId"] != "page-1" || input["title"] != "T" {
		t.Fatalf("unexpected input %v", input)
	}
	if input["publishedAt"] != "2024-01-02T00:00:00Z" {
		t.Fatalf("unexpected publishedAt %v", input["publishedAt"])
	}
	for _, key := range []string{"description", "byline", "savedAt", "previewImage"} {
		if _, present := input[key]; present {
			t.Fatalf("empty field %q must be omitted", key)
		}
	}
}

func TestCreateHighlight(t *testing.T) {
	req, err := CreateHighlight("page-1", "the quote", "the annotation")
	if err != nil {
		t.Fatalf("create highlight: %v", err)
	}
	input := req.Variables["input"].(map[string]any)
	if input["type"] != "HIGHLIGHT" || input["quote"] != "the quote" {
		t.Fatalf("unexpected input %v", input)
	}
	if input["annotation"] != "the annotation" {
		t.Fatalf("unexpected annotation %v", input["annotation"])
	}
	shortID, _ := input["shortId"].(string)
	if len(shortID) != 8 {
		t.Fatalf("unexpected shortId %q", shortID)
	}

	req, err = CreateHighlight("page-1", "the quote", "")
	if err != nil {
		t.Fatalf("create highlight: %v", err)
	}
	input = req.Variables["input"].(map[string]any)
	if _, present := input["annotation"]; present {
		t.Fatalf("empty annotation must be omitted")
	}
}

func TestCreateNote(t *testing.T) {
	req, err := CreateNote("page-1", "overall thoughts")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	input := req.Variables["input"].(map[string]any)
	if input["type"] != "NOTE" || input["annotation"] != "overall thoughts" {
		t.Fatalf("unexpected input %v", input)
	}
	if _, present := input["quote"]; present {
		t.Fatalf("notes carry no quote")
	}
}

func TestSavedPageID(t *testing.T) {
	data := map[string]json.RawMessage{
		"savePage": json.RawMessage(`{"url":"https://x","clientRequestId":"req-9"}`),
	}
	id, err := SavedPageID(data)
	if err != nil || id != "req-9" {
		t.Fatalf("got %q, %v", id, err)
	}

	data = map[string]json.RawMessage{
		"saveUrl": json.RawMessage(`{"clientRequestId":"req-10"}`),
	}
	id, err = SavedPageID(data)
	if err != nil || id != "req-10" {
		t.Fatalf("got %q, %v", id, err)
	}

	data = map[string]json.RawMessage{
		"savePage": json.RawMessage(`{"errorCodes":["UNAUTHORIZED"]}`),
	}
	if _, err := SavedPageID(data); err == nil {
		t.Fatalf("expected error for save failure")
	}

	if _, err := SavedPageID(map[string]json.RawMessage{}); err == nil {
		t.Fatalf("expected error for missing result")
	}
}

func TestCreatedHighlightID(t *testing.T) {
	data := map[string]json.RawMessage{
		"createHighlight": json.RawMessage(`{"highlight":{"id":"h-7"}}`),
	}
	id, err := CreatedHighlightID(data)
	if err != nil || id != "h-7" {
		t.Fatalf("got %q, %v", id, err)
	}

	data = map[string]json.RawMessage{
		"createHighlight": json.RawMessage(`{"errorCodes":["BAD_DATA"]}`),
	}
	if _, err := CreatedHighlightID(data); err == nil {
		t.Fatalf("expected error for create failure")
	}
}

func TestParseSearchHighlighted(t *testing.T) {
	data := map[string]json.RawMessage{
		"search": json.RawMessage(`{"edges":[
			{"node":{"id":"a1","highlights":[{"id":"h1","quote":"alpha"},{"id":"h2","quote":"beta"}]}},
			{"node":{"id":"a2","highlights":[]}}
		]}`),
	}
	articles, err := ParseSearchHighlighted(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].ArticleID != "a1" || len(articles[0].Highlights) != 2 {
		t.Fatalf("unexpected first article %+v", articles[0])
	}
	if articles[0].Highlights[1].Quote != "beta" {
		t.Fatalf("unexpected highlight %+v", articles[0].Highlights[1])
	}

	if _, err := ParseSearchHighlighted(map[string]json.RawMessage{}); err == nil {
		t.Fatalf("expected error for missing search result")
	}
}
