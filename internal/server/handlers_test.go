package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/articles"
	"newsdesk/internal/content"
	"newsdesk/internal/domain"
	"newsdesk/internal/speech"
	"newsdesk/internal/summarizer"

	"github.com/labstack/echo/v4"
)

type memStore struct {
	rows   []domain.Article
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) CreateArticle(
	_ context.Context,
	url, title, summary string,
) (domain.Article, error) {
	for _, a := range s.rows {
		if a.URL == url {
			return domain.Article{}, domain.Conflict("article with this URL already exists")
		}
	}

	article := domain.Article{
		ID:        s.nextID,
		URL:       url,
		Title:     title,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	s.rows = append(s.rows, article)
	s.nextID++

	return article, nil
}

func (s *memStore) GetArticle(_ context.Context, id int64) (domain.Article, error) {
	for _, a := range s.rows {
		if a.ID == id {
			return a, nil
		}
	}

	return domain.Article{}, domain.NotFound("article with ID %d not found", id)
}

func (s *memStore) ListArticles(
	_ context.Context,
	skip, limit int64,
) ([]domain.Article, int64, error) {
	total := int64(len(s.rows))

	if skip >= total {
		return []domain.Article{}, total, nil
	}

	end := skip + limit
	if end > total {
		end = total
	}

	return s.rows[skip:end], total, nil
}

func (s *memStore) UpdateArticle(
	_ context.Context,
	id int64,
	upd domain.ArticleUpdate,
) (domain.Article, error) {
	for i, a := range s.rows {
		if a.ID != id {
			continue
		}

		if upd.Title != nil {
			a.Title = *upd.Title
		}
		if upd.Summary != nil {
			a.Summary = *upd.Summary
		}
		now := time.Now().UTC()
		a.UpdatedAt = &now
		s.rows[i] = a

		return a, nil
	}

	return domain.Article{}, domain.NotFound("article with ID %d not found", id)
}

func (s *memStore) DeleteArticle(_ context.Context, id int64) error {
	for i, a := range s.rows {
		if a.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)

			return nil
		}
	}

	return domain.NotFound("article with ID %d not found", id)
}

func (s *memStore) SetSummary(_ context.Context, id int64, summary string) error {
	for i, a := range s.rows {
		if a.ID == id {
			s.rows[i].Summary = summary

			return nil
		}
	}

	return domain.NotFound("article with ID %d not found", id)
}

func (s *memStore) ListPendingSummaries(_ context.Context, _ int64) ([]domain.Article, error) {
	return nil, nil
}

type memFetcher struct {
	title string
	text  string
	err   error
}

func (f *memFetcher) Fetch(_ context.Context, url string) (*content.Document, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &content.Document{
		URL:   url,
		Kind:  content.KindHTML,
		Ext:   "html",
		Raw:   []byte("<html>raw</html>"),
		Title: f.title,
		Text:  f.text,
	}, nil
}

type memPinger struct {
	err error
}

func (p *memPinger) Ping(_ context.Context) error {
	return p.err
}

type testEnv struct {
	srv     *Server
	store   *memStore
	fetcher *memFetcher
	pinger  *memPinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	fetcher := &memFetcher{title: "Example", text: "The article body text."}
	pinger := &memPinger{}

	svc := articles.NewService(
		store,
		fetcher,
		summarizer.NewMockSummarizer(),
		content.NewArchive(t.TempDir()),
		nil,
		articles.Options{SummaryMaxChars: 200},
		log)

	srv := New(svc, speech.NewMockSynthesizer(), pinger, Options{
		SpeechFormat: "mp3",
		SpeechSpeed:  1.0,
		Version:      "test",
	}, log)

	return &testEnv{srv: srv, store: store, fetcher: fetcher, pinger: pinger}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)

	return rec
}

func decodeArticle(t *testing.T, rec *httptest.ResponseRecorder) domain.Article {
	t.Helper()

	var article domain.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &article); err != nil {
		t.Fatalf("decode article: %v, body %q", err, rec.Body.String())
	}

	return article
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) domain.Code {
	t.Helper()

	var body struct {
		Error errorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v, body %q", err, rec.Body.String())
	}

	return body.Error.Code
}

func TestCreateArticle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/",
		`{"url": "https://example.com/a", "title": "Client Title"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	article := decodeArticle(t, rec)
	if article.ID != 1 {
		t.Fatalf("expected ID 1, got %d", article.ID)
	}
	if article.Title != "Example" {
		t.Fatalf("extracted title must win over the client one, got %q", article.Title)
	}
	if article.Summary == "" {
		t.Fatalf("expected a generated summary")
	}
}

func TestCreateArticleValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing url", `{"title": "T"}`},
		{"relative url", `{"url": "/articles/1", "title": "T"}`},
		{"bad scheme", `{"url": "ftp://example.com/a", "title": "T"}`},
		{"url with trailing junk", `{"url": "https://example.com/a and more", "title": "T"}`},
		{"missing title", `{"url": "https://example.com/a"}`},
		{"overlong title", `{"url": "https://example.com/a", "title": "` +
			strings.Repeat("x", 501) + `"}`},
		{"malformed json", `{"url": `},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/articles/", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != domain.CodeValidation {
				t.Fatalf("expected validation_error, got %q", code)
			}
			if len(env.store.rows) != 0 {
				t.Fatalf("nothing must be persisted, found %d rows", len(env.store.rows))
			}
		})
	}
}

func TestCreateArticleDuplicate(t *testing.T) {
	env := newTestEnv(t)

	body := `{"url": "https://example.com/a", "title": "T"}`
	if rec := env.do(t, http.MethodPost, "/api/articles/", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/articles/", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != domain.CodeConflict {
		t.Fatalf("expected conflict, got %q", code)
	}
}

func TestCreateArticleFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = errors.New("connection refused")

	rec := env.do(t, http.MethodPost, "/api/articles/",
		`{"url": "https://example.com/a", "title": "T"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != domain.CodeUpstream {
		t.Fatalf("expected upstream_error, got %q", code)
	}
	if len(env.store.rows) != 0 {
		t.Fatalf("nothing must be persisted after a failed fetch")
	}
}

func TestGetArticle(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/articles/", `{"url": "https://example.com/a", "title": "T"}`)

	rec := env.do(t, http.MethodGet, "/api/articles/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	article := decodeArticle(t, rec)
	if article.URL != "https://example.com/a" {
		t.Fatalf("unexpected article URL %q", article.URL)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/articles/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != domain.CodeNotFound {
		t.Fatalf("expected not_found, got %q", code)
	}
}

func TestGetArticleBadID(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"abc", "0", "-1"} {
		rec := env.do(t, http.MethodGet, "/api/articles/"+id, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestListArticlesPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		env.do(t, http.MethodPost, "/api/articles/", `{"url": "`+u+`", "title": "T"}`)
	}

	rec := env.do(t, http.MethodGet, "/api/articles/?skip=1&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp articleListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}

	if resp.Total != 3 {
		t.Fatalf("expected total 3, got %d", resp.Total)
	}
	if resp.Skip != 1 || resp.Limit != 1 {
		t.Fatalf("expected echoed skip=1 limit=1, got skip=%d limit=%d", resp.Skip, resp.Limit)
	}
	if len(resp.Articles) != 1 || resp.Articles[0].ID != 2 {
		t.Fatalf("expected the second article only, got %+v", resp.Articles)
	}
}

func TestListArticlesBadParams(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{"?skip=-1", "?limit=0", "?limit=1001", "?skip=abc"} {
		rec := env.do(t, http.MethodGet, "/api/articles/"+query, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestUpdateArticle(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/articles/", `{"url": "https://example.com/a", "title": "T"}`)

	rec := env.do(t, http.MethodPut, "/api/articles/1", `{"title": "New Title"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	article := decodeArticle(t, rec)
	if article.Title != "New Title" {
		t.Fatalf("expected updated title, got %q", article.Title)
	}
	if article.Summary == "" {
		t.Fatalf("omitted fields must keep their value")
	}
	if article.UpdatedAt == nil {
		t.Fatalf("expected updated_at to be set")
	}
}

func TestUpdateArticleNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/articles/99", `{"title": "T"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/articles/", `{"url": "https://example.com/a", "title": "T"}`)

	rec := env.do(t, http.MethodDelete, "/api/articles/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if resp["message"] != "article 1 deleted" {
		t.Fatalf("unexpected message %q", resp["message"])
	}

	if rec = env.do(t, http.MethodGet, "/api/articles/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec = env.do(t, http.MethodDelete, "/api/articles/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a second delete, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp["status"] != "healthy" || resp["version"] != "test" {
		t.Fatalf("unexpected health body %v", resp)
	}
}

func TestHealthUnhealthy(t *testing.T) {
	env := newTestEnv(t)
	env.pinger.err = errors.New("database is locked")

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestArticleAudio(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/articles/", `{"url": "https://example.com/a", "title": "T"}`)

	rec := env.do(t, http.MethodPost, "/api/articles/1/audio", `{"format": "wav"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp audioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode audio response: %v", err)
	}

	if resp.Source != "summary" {
		t.Fatalf("expected the summary as source, got %q", resp.Source)
	}
	if resp.ContentType != "audio/wav" {
		t.Fatalf("expected audio/wav, got %q", resp.ContentType)
	}
	if resp.SizeBytes == 0 || resp.Path == "" {
		t.Fatalf("expected a stored audio file, got %+v", resp)
	}
}

func TestArticleAudioBadFormat(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/articles/", `{"url": "https://example.com/a", "title": "T"}`)

	rec := env.do(t, http.MethodPost, "/api/articles/1/audio", `{"format": "ogg"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestArticleAudioNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/99/audio", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVoices(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/speech/voices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string][]speech.Voice
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode voices response: %v", err)
	}
	if len(resp["voices"]) == 0 {
		t.Fatalf("expected at least one voice")
	}
}
