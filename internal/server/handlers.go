package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsdesk/internal/domain"
	"newsdesk/internal/speech"

	"github.com/labstack/echo/v4"
	"mvdan.cc/xurls/v2"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxTitleLength   = 500
)

var strictURL = xurls.Strict()

type createArticleRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type updateArticleRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

type articleListResponse struct {
	Articles []domain.Article `json:"articles"`
	Total    int64            `json:"total"`
	Skip     int64            `json:"skip"`
	Limit    int64            `json:"limit"`
}

func (s *Server) handleCreateArticle(c echo.Context) error {
	var req createArticleRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid request body")
	}

	req.URL = strings.TrimSpace(req.URL)
	req.Title = strings.TrimSpace(req.Title)

	if err := validateArticleURL(req.URL); err != nil {
		return err
	}
	if req.Title == "" || len(req.Title) > maxTitleLength {
		return domain.Validation("title must be 1-%d characters", maxTitleLength)
	}

	article, err := s.svc.Ingest(c.Request().Context(), req.URL, req.Title)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, article)
}

func (s *Server) handleListArticles(c echo.Context) error {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		return domain.Validation("skip must be a non-negative integer")
	}

	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		return domain.Validation("limit must be between 1 and %d", maxListLimit)
	}

	articles, total, err := s.svc.List(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, articleListResponse{
		Articles: articles,
		Total:    total,
		Skip:     skip,
		Limit:    limit,
	})
}

func (s *Server) handleGetArticle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	article, err := s.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, article)
}

func (s *Server) handleUpdateArticle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateArticleRequest
	if err = c.Bind(&req); err != nil {
		return domain.Validation("invalid request body")
	}

	if req.Title != nil && len(strings.TrimSpace(*req.Title)) > maxTitleLength {
		return domain.Validation("title must be 1-%d characters", maxTitleLength)
	}

	article, err := s.svc.Update(c.Request().Context(), id, domain.ArticleUpdate{
		Title:   req.Title,
		Summary: req.Summary,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err = s.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "article " + strconv.FormatInt(id, 10) + " deleted",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	overall := "healthy"
	dbStatus := "healthy"
	status := http.StatusOK
	if err := s.pinger.Ping(ctx); err != nil {
		overall = "unhealthy"
		dbStatus = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]string{
		"status":    overall,
		"database":  dbStatus,
		"version":   s.opts.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// validateArticleURL rejects anything that is not a whole absolute http(s)
// URL before touching the network.
func validateArticleURL(raw string) error {
	if raw == "" {
		return domain.Validation("url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return domain.Validation("url must be an absolute http(s) URL")
	}

	if strictURL.FindString(raw) != raw {
		return domain.Validation("url must be an absolute http(s) URL")
	}

	return nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Validation("id must be a positive integer")
	}

	return id, nil
}

func queryInt(c echo.Context, name string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}

	return strconv.ParseInt(raw, 10, 64)
}

type audioRequest struct {
	Voice  string  `json:"voice"`
	Format string  `json:"format"`
	Speed  float64 `json:"speed"`
}

type audioResponse struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
	Source      string `json:"source"`
	Voice       string `json:"voice"`
}

func (s *Server) handleArticleAudio(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req audioRequest
	if err = c.Bind(&req); err != nil {
		return domain.Validation("invalid request body")
	}

	if req.Format != "" && req.Format != "mp3" && req.Format != "wav" {
		return domain.Validation("format must be mp3 or wav")
	}

	ctx := c.Request().Context()

	text, source, err := s.svc.SpeechText(ctx, id)
	if err != nil {
		return err
	}

	opts := speech.Options{
		Voice:  s.opts.SpeechVoice,
		Format: s.opts.SpeechFormat,
		Speed:  s.opts.SpeechSpeed,
	}
	if req.Voice != "" {
		opts.Voice = req.Voice
	}
	if req.Format != "" {
		opts.Format = req.Format
	}
	if req.Speed > 0 {
		opts.Speed = req.Speed
	}

	synthesis, err := s.synth.Synthesize(ctx, text, opts)
	if err != nil {
		return domain.Upstream(err, "failed to synthesize speech for article %d", id)
	}

	path, err := s.svc.SaveSpeech(id, source, synthesis.Format, synthesis.Content)
	if err != nil {
		return domain.Internal(err, "failed to store audio for article %d", id)
	}

	return c.JSON(http.StatusOK, audioResponse{
		Path:        path,
		ContentType: synthesis.ContentType,
		SizeBytes:   len(synthesis.Content),
		Source:      source,
		Voice:       synthesis.Voice,
	})
}

func (s *Server) handleVoices(c echo.Context) error {
	voices, err := s.synth.Voices(c.Request().Context())
	if err != nil {
		return domain.Upstream(err, "failed to list voices")
	}

	return c.JSON(http.StatusOK, map[string][]speech.Voice{"voices": voices})
}
