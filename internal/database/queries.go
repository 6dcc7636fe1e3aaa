package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"newsdesk/internal/domain"

	"github.com/mattn/go-sqlite3"
)

const articleColumns = "id, url, title, summary, created_at, updated_at"

func (d *Database) CreateArticle(
	ctx context.Context,
	url string,
	title string,
	summary string,
) (domain.Article, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Article{}, domain.Validation("article URL is empty")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = url
	}

	query := "insert into articles (url, title, summary) values (?, ?, ?)"

	res, err := d.db.ExecContext(ctx, query, url, title, summary)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.Article{}, domain.Conflict("URL already registered: %s", url)
		}

		return domain.Article{}, domain.Internal(err, "create article")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Article{}, domain.Internal(err, "read inserted article ID")
	}

	return d.GetArticle(ctx, id)
}

func (d *Database) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	query := "select " + articleColumns + " from articles where id = ?"

	a, err := scanArticle(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Article{}, domain.NotFound("article with ID %d not found", id)
		}

		return domain.Article{}, domain.Internal(err, "get article %d", id)
	}

	return a, nil
}

// ListArticles returns one page of articles in insertion order plus the total
// row count.
func (d *Database) ListArticles(
	ctx context.Context,
	skip int64,
	limit int64,
) ([]domain.Article, int64, error) {
	var total int64
	if err := d.db.QueryRowContext(ctx, "select count(*) from articles").Scan(&total); err != nil {
		return nil, 0, domain.Internal(err, "count articles")
	}

	query := "select " + articleColumns + " from articles order by id limit ? offset ?"

	rows, err := d.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, 0, domain.Internal(err, "list articles")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", closeErr,
				"operation", "ListArticles")
		}
	}()

	articles := make([]domain.Article, 0, limit)
	for rows.Next() {
		a, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, 0, domain.Internal(scanErr, "scan article row")
		}

		articles = append(articles, a)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, domain.Internal(err, "iterate article rows")
	}

	return articles, total, nil
}

func (d *Database) UpdateArticle(
	ctx context.Context,
	id int64,
	upd domain.ArticleUpdate,
) (domain.Article, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return domain.Article{}, domain.Validation("article title is empty")
		}

		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if upd.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *upd.Summary)
	}

	if len(sets) == 0 {
		return d.GetArticle(ctx, id)
	}

	query := "update articles set " + strings.Join(sets, ", ") +
		", updated_at = current_timestamp where id = ?"
	args = append(args, id)

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Article{}, domain.Internal(err, "update article %d", id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Article{}, domain.Internal(err, "read affected rows")
	}
	if affected == 0 {
		return domain.Article{}, domain.NotFound("article with ID %d not found", id)
	}

	return d.GetArticle(ctx, id)
}

func (d *Database) DeleteArticle(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, "delete from articles where id = ?", id)
	if err != nil {
		return domain.Internal(err, "delete article %d", id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Internal(err, "read affected rows")
	}
	if affected == 0 {
		return domain.NotFound("article with ID %d not found", id)
	}

	return nil
}

func (d *Database) SetSummary(ctx context.Context, id int64, summary string) error {
	query := "update articles set summary = ?, updated_at = current_timestamp where id = ?"

	res, err := d.db.ExecContext(ctx, query, summary, id)
	if err != nil {
		return domain.Internal(err, "set summary for article %d", id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Internal(err, "read affected rows")
	}
	if affected == 0 {
		return domain.NotFound("article with ID %d not found", id)
	}

	return nil
}

// ListPendingSummaries returns articles whose summary is still empty, oldest
// first, for the backfill job.
func (d *Database) ListPendingSummaries(
	ctx context.Context,
	limit int64,
) ([]domain.Article, error) {
	query := "select " + articleColumns + " from articles where summary = '' order by id limit ?"

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending summaries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", closeErr,
				"operation", "ListPendingSummaries")
		}
	}()

	var articles []domain.Article
	for rows.Next() {
		a, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan article row: %w", scanErr)
		}

		articles = append(articles, a)
	}

	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a         domain.Article
		updatedAt sql.NullTime
	)

	if err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Summary, &a.CreatedAt, &updatedAt); err != nil {
		return domain.Article{}, err
	}

	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}

	return a, nil
}
