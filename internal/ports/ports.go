package ports

import (
	"context"
	"time"

	"ContentRefresher/internal/domain"
)

// ArticleStore is the client side of the external article service.
type ArticleStore interface {
	GetArticle(ctx context.Context, id int64) (domain.Article, error)
	ListArticles(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error)
	UpdateArticle(ctx context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error)
	CreateArticle(ctx context.Context, article domain.NewArticle) (domain.Article, error)
}

// RelatedContentFinder looks up competitor pages for a query.
type RelatedContentFinder interface {
	GenerateSearchQuery(title string) string
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// ContentExtractor fetches a page and derives its title and body.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (domain.ExtractedContent, error)
}

// ChatClient performs a single chat-style completion.
type ChatClient interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
	Model() string
}

// Locker hands out per-article leases so two refreshes of one id never overlap.
type Locker interface {
	// Acquire returns domain.ErrRefreshInProgress when the lease is held elsewhere.
	Acquire(ctx context.Context, articleID int64) (release func(), err error)
}

// JobStore keeps completion records of background batches.
type JobStore interface {
	SaveJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id string) (domain.Job, error)
}

// Notifier streams batch summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// RefreshMetrics records pipeline outcomes; implementations must be safe for concurrent use.
type RefreshMetrics interface {
	ObserveRefresh(success bool, elapsed time.Duration)
	ObserveCandidate(succeeded bool)
	ObserveSynthesis(fallback bool)
	ObserveJob(kind domain.JobKind, state domain.JobState)
}
