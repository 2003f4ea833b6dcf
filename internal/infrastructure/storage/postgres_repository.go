package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const (
	articlesTable   = "articles"
	defaultPerPage  = 15
	maxPerPage      = 100
	defaultSortBy   = "created_at"
	defaultSortDesc = "desc"
)

var articleColumns = []string{
	"id", "title", "source_url", "original_content", "updated_content",
	"meta_description", "status", "citations", "created_at", "updated_at",
}

var sortableColumns = map[string]struct{}{
	"id": {}, "title": {}, "status": {}, "created_at": {}, "updated_at": {},
}

// PostgresRepository stores articles in Postgres when the pipeline owns the table directly.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ArticleStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetArticle loads one article by id.
func (r *PostgresRepository) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	query, args, err := r.sb.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}

// ListArticles filters, sorts and paginates like the article service's index endpoint.
func (r *PostgresRepository) ListArticles(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	countBuilder := r.sb.Select("COUNT(*)").From(articlesTable)
	listBuilder := r.sb.Select(articleColumns...).From(articlesTable)
	if filter.Status != "" {
		cond := sq.Eq{"status": string(filter.Status)}
		countBuilder = countBuilder.Where(cond)
		listBuilder = listBuilder.Where(cond)
	}
	if filter.Search != "" {
		cond := sq.ILike{"title": "%" + filter.Search + "%"}
		countBuilder = countBuilder.Where(cond)
		listBuilder = listBuilder.Where(cond)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("count articles: %w", err)
	}

	query, args, err := listBuilder.
		OrderBy(orderClause(filter.SortBy, filter.SortOrder)).
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("query articles: %w", err)
	}

	articles := make([]domain.Article, 0, perPage)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return domain.ArticlePage{}, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return domain.ArticlePage{}, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return domain.ArticlePage{}, fmt.Errorf("close rows: %w", closeErr)
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}

	return domain.ArticlePage{
		Articles:    articles,
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}, nil
}

// UpdateArticle applies the non-nil fields of update and bumps updated_at.
func (r *PostgresRepository) UpdateArticle(ctx context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error) {
	builder := r.sb.Update(articlesTable).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(articleColumns, ", "))

	if update.Status != nil {
		builder = builder.Set("status", string(*update.Status))
	}
	if update.UpdatedContent != nil {
		builder = builder.Set("updated_content", *update.UpdatedContent)
	}
	if update.MetaDescription != nil {
		builder = builder.Set("meta_description", *update.MetaDescription)
	}
	if update.Citations != nil {
		builder = builder.Set("citations", pq.StringArray(update.Citations))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build update: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("update article %d: %w: %w", id, domain.ErrPersistence, err)
	}
	return article, nil
}

// CreateArticle inserts a new article; status defaults to "scraped".
func (r *PostgresRepository) CreateArticle(ctx context.Context, article domain.NewArticle) (domain.Article, error) {
	status := article.Status
	if status == "" {
		status = domain.StatusScraped
	}
	citations := article.Citations
	if citations == nil {
		citations = []string{}
	}

	query, args, err := r.sb.Insert(articlesTable).
		Columns("title", "source_url", "original_content", "meta_description", "status", "citations").
		Values(article.Title, nullString(article.SourceURL), article.OriginalContent,
			nullString(article.MetaDescription), string(status), pq.StringArray(citations)).
		Suffix("RETURNING " + strings.Join(articleColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w: %w", domain.ErrPersistence, err)
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article         domain.Article
		sourceURL       sql.NullString
		originalContent sql.NullString
		updatedContent  sql.NullString
		metaDescription sql.NullString
		status          string
		citations       pq.StringArray
		createdAt       time.Time
		updatedAt       time.Time
	)

	if err := row.Scan(
		&article.ID,
		&article.Title,
		&sourceURL,
		&originalContent,
		&updatedContent,
		&metaDescription,
		&status,
		&citations,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Article{}, err
	}

	article.SourceURL = stringPtr(sourceURL)
	article.OriginalContent = originalContent.String
	article.UpdatedContent = stringPtr(updatedContent)
	article.MetaDescription = stringPtr(metaDescription)
	article.Status = domain.Status(status)
	article.Citations = []string(citations)
	if article.Citations == nil {
		article.Citations = []string{}
	}
	article.CreatedAt = createdAt
	article.UpdatedAt = updatedAt
	return article, nil
}

func orderClause(sortBy, sortOrder string) string {
	if _, ok := sortableColumns[sortBy]; !ok {
		sortBy = defaultSortBy
	}
	order := strings.ToLower(sortOrder)
	if order != "asc" {
		order = defaultSortDesc
	}
	return sortBy + " " + strings.ToUpper(order)
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
