package articles

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"newsdesk/internal/content"
	"newsdesk/internal/domain"
	"newsdesk/internal/summarizer"
)

const backfillBatchSize = 20

// Store is the article persistence contract, implemented by the database
// package.
type Store interface {
	CreateArticle(ctx context.Context, url, title, summary string) (domain.Article, error)
	GetArticle(ctx context.Context, id int64) (domain.Article, error)
	ListArticles(ctx context.Context, skip, limit int64) ([]domain.Article, int64, error)
	UpdateArticle(ctx context.Context, id int64, upd domain.ArticleUpdate) (domain.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	SetSummary(ctx context.Context, id int64, summary string) error
	ListPendingSummaries(ctx context.Context, limit int64) ([]domain.Article, error)
}

// Fetcher retrieves and extracts one URL, implemented by content.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*content.Document, error)
}

// Notifier is told about successfully ingested articles.
type Notifier interface {
	ArticleCreated(ctx context.Context, article domain.Article)
}

// Options tune the ingestion behavior.
type Options struct {
	// SummaryMaxChars bounds generated summaries.
	SummaryMaxChars int
	// StrictSummaries aborts ingestion when summarization fails instead of
	// persisting the article with an empty summary.
	StrictSummaries bool
}

// Service runs the ingestion pipeline and fronts the store for CRUD.
type Service struct {
	store      Store
	fetcher    Fetcher
	summarizer summarizer.Summarizer
	archive    *content.Archive
	notifier   Notifier
	opts       Options
	log        *slog.Logger
}

func NewService(
	store Store,
	fetcher Fetcher,
	s summarizer.Summarizer,
	archive *content.Archive,
	notifier Notifier,
	opts Options,
	log *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		fetcher:    fetcher,
		summarizer: s,
		archive:    archive,
		notifier:   notifier,
		opts:       opts,
		log:        log,
	}
}

// Ingest runs fetch → extract → summarize → persist for one URL. A failed
// fetch aborts with nothing persisted; a failed summary follows the
// configured strictness. The raw content is archived under the assigned ID
// after the insert.
func (s *Service) Ingest(ctx context.Context, url, fallbackTitle string) (domain.Article, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.Article{}, domain.Upstream(err, "failed to fetch content from %s", url)
	}

	title := doc.Title
	if title == "" {
		title = strings.TrimSpace(fallbackTitle)
	}

	summary := ""
	if s.summarizer != nil && strings.TrimSpace(doc.Text) != "" {
		summary, err = s.summarizer.Summarize(ctx, summarizer.Input{
			Text:      doc.Text,
			SourceURL: url,
			MaxChars:  s.opts.SummaryMaxChars,
		})
		if err != nil {
			if s.opts.StrictSummaries {
				return domain.Article{}, domain.Upstream(err, "failed to summarize %s", url)
			}

			s.log.WarnContext(ctx, "Summary generation failed, persisting without summary",
				"error", err,
				"url", url)
			summary = ""
		}
	}

	article, err := s.store.CreateArticle(ctx, url, title, summary)
	if err != nil {
		return domain.Article{}, err
	}

	s.archiveDocument(ctx, doc, article.ID)

	if s.notifier != nil {
		s.notifier.ArticleCreated(ctx, article)
	}

	return article, nil
}

// archiveDocument writes the raw payload and extracted text. Failures are
// logged only; the article is already persisted.
func (s *Service) archiveDocument(ctx context.Context, doc *content.Document, articleID int64) {
	path, err := s.archive.SaveRaw(doc, articleID)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to archive raw content",
			"error", err,
			"articleID", articleID)
	} else {
		s.log.InfoContext(ctx, "Raw content is archived",
			"articleID", articleID,
			"path", path)
	}

	if strings.TrimSpace(doc.Text) == "" {
		return
	}

	if err = s.archive.SaveText(articleID, doc.Text); err != nil {
		s.log.WarnContext(ctx, "Failed to archive extracted text",
			"error", err,
			"articleID", articleID)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Article, error) {
	return s.store.GetArticle(ctx, id)
}

func (s *Service) List(ctx context.Context, skip, limit int64) ([]domain.Article, int64, error) {
	return s.store.ListArticles(ctx, skip, limit)
}

func (s *Service) Update(
	ctx context.Context,
	id int64,
	upd domain.ArticleUpdate,
) (domain.Article, error) {
	return s.store.UpdateArticle(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteArticle(ctx, id)
}

// SpeechText returns the text an audio rendition of the article should read:
// the summary when present, otherwise the archived extracted body. The second
// return names the source ("summary" or "text").
func (s *Service) SpeechText(ctx context.Context, id int64) (string, string, error) {
	article, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return "", "", err
	}

	if text := strings.TrimSpace(article.Summary); text != "" {
		return content.PrepareForSpeech(text), "summary", nil
	}

	if text := strings.TrimSpace(s.archive.ReadText(id)); text != "" {
		return content.PrepareForSpeech(text), "text", nil
	}

	return "", "", domain.Validation("article %d has no text to read", id)
}

// SaveSpeech stores synthesized audio for an article in the archive and
// returns its path.
func (s *Service) SaveSpeech(id int64, source, format string, audio []byte) (string, error) {
	return s.archive.SaveSpeech(id, source, format, audio)
}

// BackfillSummaries re-attempts summarization for articles left without one.
// Used by the cron job; safe to call concurrently with ingestion since it
// only touches rows whose summary is still empty.
func (s *Service) BackfillSummaries(ctx context.Context) (int, error) {
	if s.summarizer == nil {
		return 0, nil
	}

	pending, err := s.store.ListPendingSummaries(ctx, backfillBatchSize)
	if err != nil {
		return 0, err
	}

	var (
		filled int
		errs   []error
	)
	for _, article := range pending {
		text := strings.TrimSpace(s.archive.ReadText(article.ID))
		if text == "" {
			continue
		}

		summary, sumErr := s.summarizer.Summarize(ctx, summarizer.Input{
			Text:      text,
			SourceURL: article.URL,
			MaxChars:  s.opts.SummaryMaxChars,
		})
		if sumErr != nil {
			errs = append(errs, sumErr)
			continue
		}

		if setErr := s.store.SetSummary(ctx, article.ID, summary); setErr != nil {
			errs = append(errs, setErr)
			continue
		}

		filled++
	}

	return filled, errors.Join(errs...)
}
