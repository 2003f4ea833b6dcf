package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

const (
	referenceExcerptLimit = 800
	synthesisSystemPrompt = "You are a professional content writer. You rewrite articles so they match " +
		"the tone and SEO structure of top-ranking competitors while keeping the original facts."
)

// Synthesizer rewrites an article body from competitor references.
// It never fails: without a working backend it appends a references section instead.
type Synthesizer struct {
	chat    ports.ChatClient
	metrics ports.RefreshMetrics
	logger  *slog.Logger
}

// NewSynthesizer wires an optional chat backend. A nil chat always yields the fallback.
func NewSynthesizer(chat ports.ChatClient, metrics ports.RefreshMetrics, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = logging.Discard()
	}
	return &Synthesizer{chat: chat, metrics: metrics, logger: log}
}

// Synthesize produces the rewritten body and its citations from the succeeded references.
func (s *Synthesizer) Synthesize(ctx context.Context, original string, refs []domain.ScrapedReference) domain.Synthesis {
	citations := referenceURLs(refs)

	if s.chat == nil {
		s.observe(true)
		return domain.Synthesis{Content: FallbackContent(original, refs), Citations: citations, Fallback: true}
	}

	content, err := s.chat.Complete(ctx, BuildPrompt(original, refs))
	if err == nil {
		content = strings.TrimSpace(content)
	}
	if err != nil || content == "" {
		if err != nil {
			s.logger.Warn("synthesis failed, using fallback", "error", err)
		} else {
			s.logger.Warn("synthesis returned empty output, using fallback")
		}
		s.observe(true)
		return domain.Synthesis{Content: FallbackContent(original, refs), Citations: citations, Fallback: true}
	}

	s.observe(false)
	return domain.Synthesis{Content: content, Citations: citations, Model: s.chat.Model()}
}

func (s *Synthesizer) observe(fallback bool) {
	if s.metrics != nil {
		s.metrics.ObserveSynthesis(fallback)
	}
}

// BuildPrompt assembles the rewrite request from the original body and reference excerpts.
func BuildPrompt(original string, refs []domain.ScrapedReference) domain.Prompt {
	var b strings.Builder
	b.WriteString("Original article:\n")
	b.WriteString(original)
	b.WriteString("\n\nTop-ranking competitor articles:\n")
	for i, ref := range refs {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, ref.Title, ref.URL, truncateRunes(ref.Content, referenceExcerptLimit))
	}
	b.WriteString("\nRewrite the original article so its tone, structure and SEO match the competitor articles. ")
	b.WriteString("Keep the facts aligned with the original and the references. ")
	b.WriteString("Answer in markdown and cite the references by their [n] markers.")

	return domain.Prompt{System: synthesisSystemPrompt, User: b.String()}
}

// FallbackContent is the deterministic body used when no model output is available.
func FallbackContent(original string, refs []domain.ScrapedReference) string {
	lines := make([]string, 0, len(refs))
	for i, ref := range refs {
		lines = append(lines, fmt.Sprintf("[%d] %s", i+1, ref.URL))
	}
	return original + "\n\n## References\n" + strings.Join(lines, "\n")
}

func referenceURLs(refs []domain.ScrapedReference) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
