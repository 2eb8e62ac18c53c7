// Package normalize turns raw fetched HTML into canonical articles with a
// content-derived fingerprint.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

// bodySelectors are tried in priority order; first non-empty wins.
var bodySelectors = []string{
	"div.single-article-content",
	"div.entry-content",
	"div.article-content",
	"article",
}

type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Normalize extracts title, body, publish date and company tags from the raw
// HTML and derives the fingerprint. Malformed and partial documents degrade
// instead of failing: a missing title becomes the empty string and a missing
// or unparseable date falls back to the fetch time.
func (n *Normalizer) Normalize(item domain.RawItem) (*domain.Article, error) {
	if strings.TrimSpace(item.URL) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "normalize item", errMissingURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.HTML))
	if err != nil {
		// goquery's parser is lenient; a hard error here means the input is
		// not HTML at all. Treat the whole payload as body text.
		return n.fallbackArticle(item), nil
	}

	title := firstText(doc, "h1.page-title span", "h1.page-title", "title")

	publishedAt := item.FetchedAt
	if raw := firstText(doc, "#single-article-date", "time"); raw != "" {
		if parsed, ok := ParseArticleDate(raw); ok {
			publishedAt = parsed
		}
	}

	var companies []string
	doc.Find("div.article-company a").Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			companies = append(companies, name)
		}
	})

	body := extractBody(doc)

	article := &domain.Article{
		URL:         item.URL,
		Title:       title,
		Body:        body,
		PublishedAt: publishedAt.UTC(),
		Companies:   companies,
		FetchedAt:   item.FetchedAt.UTC(),
	}
	article.Fingerprint = Fingerprint(item.URL, title+"\n"+body)
	return article, nil
}

func (n *Normalizer) fallbackArticle(item domain.RawItem) *domain.Article {
	body := CollapseText(item.HTML)
	return &domain.Article{
		Fingerprint: Fingerprint(item.URL, body),
		URL:         item.URL,
		Body:        body,
		PublishedAt: item.FetchedAt.UTC(),
		FetchedAt:   item.FetchedAt.UTC(),
	}
}

func extractBody(doc *goquery.Document) string {
	for _, selector := range bodySelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := CollapseText(sel.Text()); text != "" {
			return text
		}
	}

	// Last resort: stitch together the block-level elements.
	var parts []string
	doc.Find("p, li, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		if text := CollapseText(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
	ordinals    = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)`)
)

// CollapseText flattens whitespace noise so cosmetic markup changes do not
// alter the fingerprint: space runs collapse to one space, three or more
// newlines to a blank line.
func CollapseText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var articleDateLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2006-01-02",
}

// ParseArticleDate parses the date formats the source uses, tolerating
// ordinal suffixes ("3rd September 2025") and commas.
func ParseArticleDate(raw string) (time.Time, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	s = ordinals.ReplaceAllString(s, "$1")
	for _, layout := range articleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
