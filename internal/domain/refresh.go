package domain

import "time"

// SearchResult is a candidate page returned by the related-content finder.
type SearchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet,omitempty"`
	DisplayURL string `json:"display_url,omitempty"`
}

// ExtractedContent is the best-effort title/body pair pulled from a page.
type ExtractedContent struct {
	Title   string
	Content string
}

// ScrapedReference records the extraction outcome for one candidate.
// Only references with Succeeded set are citable.
type ScrapedReference struct {
	URL       string
	Title     string
	Content   string
	Succeeded bool
	Err       error
}

// SucceededReferences keeps the references whose extraction worked, in order.
func SucceededReferences(refs []ScrapedReference) []ScrapedReference {
	out := make([]ScrapedReference, 0, len(refs))
	for _, ref := range refs {
		if ref.Succeeded {
			out = append(out, ref)
		}
	}
	return out
}

// Synthesis is the rewritten body and the URLs it cites.
type Synthesis struct {
	Content   string
	Citations []string
	Model     string
	Fallback  bool
}

// Prompt is a single chat-style completion request.
type Prompt struct {
	System string
	User   string
}

// RefreshResult reports the outcome of refreshing one article.
type RefreshResult struct {
	ArticleID          int64  `json:"article_id"`
	Success            bool   `json:"success"`
	Title              string `json:"title,omitempty"`
	SearchResultsCount int    `json:"search_results_count"`
	ScrapedCount       int    `json:"scraped_count"`
	Error              string `json:"error,omitempty"`
}

// CountSucceeded returns how many results in the batch succeeded.
func CountSucceeded(results []RefreshResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

// JobKind names what a background job refreshes.
type JobKind string

const (
	JobRefreshAll      JobKind = "refresh_all"
	JobRefreshByStatus JobKind = "refresh_by_status"
	JobRefreshMany     JobKind = "refresh_many"
)

// JobState tracks a background job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Job is the retrievable completion record of a background batch.
type Job struct {
	ID         string          `json:"id"`
	Kind       JobKind         `json:"kind"`
	Status     Status          `json:"status,omitempty"`
	ArticleIDs []int64         `json:"article_ids,omitempty"`
	State      JobState        `json:"state"`
	Results    []RefreshResult `json:"results,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
