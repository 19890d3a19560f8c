package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
)

const (
	maxSiteTextChars = 50000
	fetchTimeout     = 30 * time.Second
	fetchUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scanner fetches parish and school websites and extracts structured
// organization facts from their text.
type Scanner struct {
	generator ai.ContentGenerator
	logger    *zap.Logger
	sanitize  *bluemonday.Policy
}

func NewScanner(generator ai.ContentGenerator, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		generator: generator,
		logger:    logger,
		sanitize:  bluemonday.UGCPolicy(),
	}
}

// ScanWebsites fetches one or both sites and runs extraction over the
// combined text. Either URL may be empty; both empty is an error. A site
// that fails to fetch is logged and skipped rather than failing the scan.
func (s *Scanner) ScanWebsites(ctx context.Context, churchURL, schoolURL string) (*ai.WebsiteScan, error) {
	var sections []string

	if churchURL = strings.TrimSpace(churchURL); churchURL != "" {
		text, err := s.fetchPageText(ctx, churchURL)
		if err != nil {
			s.logger.Warn("church website fetch failed", zap.String("url", churchURL), zap.Error(err))
		} else if text != "" {
			sections = append(sections, fmt.Sprintf("=== CHURCH WEBSITE (%s) ===\n%s", churchURL, text))
		}
	}
	if schoolURL = strings.TrimSpace(schoolURL); schoolURL != "" {
		text, err := s.fetchPageText(ctx, schoolURL)
		if err != nil {
			s.logger.Warn("school website fetch failed", zap.String("url", schoolURL), zap.Error(err))
		} else if text != "" {
			sections = append(sections, fmt.Sprintf("=== SCHOOL WEBSITE (%s) ===\n%s", schoolURL, text))
		}
	}

	if len(sections) == 0 {
		return nil, errors.New("no website content could be fetched")
	}

	return ai.ScanWebsiteText(ctx, s.generator, strings.Join(sections, "\n\n"))
}

// fetchPageText downloads one page and reduces it to clean text capped at
// maxSiteTextChars.
func (s *Scanner) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(fetchUserAgent),
		colly.MaxBodySize(10*1024*1024),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(fetchTimeout)

	var body []byte
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("visit %s: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response from %s", pageURL)
	}

	return s.htmlToText(string(body)), nil
}

// htmlToText strips navigation chrome, sanitizes what remains, and
// flattens to text. Chrome removal has to run before sanitization; the
// policy drops the nav/footer tags themselves but keeps their text.
func (s *Scanner) htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncateText(s.sanitize.Sanitize(html), maxSiteTextChars)
	}
	doc.Find("script, style, nav, footer, header").Remove()

	body, err := doc.Html()
	if err != nil {
		body = html
	}
	text := htmlTagText(s.sanitize.Sanitize(body))
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return truncateText(strings.Join(cleaned, "\n"), maxSiteTextChars)
}

// htmlTagText flattens sanitized markup to its text content.
func htmlTagText(sanitized string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return sanitized
	}
	return doc.Text()
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}
