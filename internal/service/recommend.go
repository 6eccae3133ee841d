package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

// Classifier is the hosted-model surface used for category detection.
type Classifier interface {
	Available() bool
	Classify(ctx context.Context, prompt string) (string, error)
}

// RecommendService classifies user queries into content categories and
// resolves them to media items from the static catalog. Classification is
// advisory: a wrong or missing result degrades to "no extra media", never
// to an error.
type RecommendService struct {
	classifier Classifier
	categories []domain.Category
	catalog    []domain.MediaItem
}

func NewRecommendService(classifier Classifier) *RecommendService {
	return &RecommendService{
		classifier: classifier,
		categories: defaultCategories,
		catalog:    defaultCatalog,
	}
}

// DetectCategories classifies query into zero or more category ids. The
// hosted model handles arbitrary languages; the trigger-phrase fallback
// only covers literally-listed phrases and is intentionally coarser.
func (s *RecommendService) DetectCategories(ctx context.Context, query string) []string {
	if s.classifier != nil && s.classifier.Available() {
		raw, err := s.classifier.Classify(ctx, s.classifyPrompt(query))
		if err == nil {
			return s.parseCategories(raw)
		}
		slog.Warn("category classification failed, using keyword fallback", "error", err)
	}
	return s.keywordMatch(query)
}

func (s *RecommendService) classifyPrompt(query string) string {
	var sb strings.Builder
	sb.WriteString("Classify the user question below into zero or more of these content categories. The question may be in any language.\n\nCategories:\n")
	for _, c := range s.categories {
		fmt.Fprintf(&sb, "- %s: %s (examples: %s)\n", c.ID, c.Description, strings.Join(c.Triggers, ", "))
	}
	sb.WriteString("\nReply with a comma-separated list of category ids, or the word none.\n\nQuestion: ")
	sb.WriteString(query)
	return sb.String()
}

// parseCategories normalizes the model output and filters it against the
// known category set. Unrecognized tokens are discarded silently.
func (s *RecommendService) parseCategories(raw string) []string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "none" {
		return nil
	}

	known := make(map[string]bool, len(s.categories))
	for _, c := range s.categories {
		known[c.ID] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if known[token] && !seen[token] {
			seen[token] = true
			out = append(out, token)
		}
	}
	return out
}

// keywordMatch is the local fallback: a category matches when any one of
// its trigger phrases is a substring of the normalized query.
func (s *RecommendService) keywordMatch(query string) []string {
	normalized := strings.ToLower(query)
	var out []string
	for _, c := range s.categories {
		for _, trigger := range c.Triggers {
			if strings.Contains(normalized, strings.ToLower(trigger)) {
				out = append(out, c.ID)
				break
			}
		}
	}
	return out
}

// ItemsForCategories resolves categories to catalog items in input order,
// taking at most maxPerCategory items per category.
// Empty results are nil throughout this service.
func (s *RecommendService) ItemsForCategories(categories []string, maxPerCategory int) []domain.MediaItem {
	var items []domain.MediaItem
	for _, cat := range categories {
		n := 0
		for _, item := range s.catalog {
			if item.Category != cat {
				continue
			}
			items = append(items, item)
			n++
			if n >= maxPerCategory {
				break
			}
		}
	}
	return items
}

// Enrich pairs the (unmodified) response text with media matched to the
// query. It never fails and never alters the primary answer.
func (s *RecommendService) Enrich(ctx context.Context, responseText, query string, maxItems int) (string, []domain.MediaItem) {
	categories := s.DetectCategories(ctx, query)
	if len(categories) == 0 {
		return responseText, nil
	}
	return responseText, s.ItemsForCategories(categories, maxItems)
}
