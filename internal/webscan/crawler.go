package webscan

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	errs "github.com/sentrascan/sentra/internal/shared/errors"

	"github.com/sentrascan/sentra/internal/scan"
)

const (
	// DefaultMaxPages bounds crawl size.
	DefaultMaxPages = 100
	// DefaultMaxDepth bounds crawl hops from the seed.
	DefaultMaxDepth = 3

	maxBodyBytes = 512 * 1024
)

// CrawledPage is one unique URL's fetch outcome. HTML stays empty for
// non-HTML content types; those pages are recorded but not parsed.
type CrawledPage struct {
	URL         string         `json:"url"`
	StatusCode  int            `json:"status_code"`
	Title       string         `json:"title,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Headers     http.Header    `json:"-"`
	HTML        string         `json:"-"`
	Cookies     []*http.Cookie `json:"-"`
}

// FormField is one input in a harvested form.
type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// FormDescriptor is a form harvested from a crawled page. Read-only after
// extraction.
type FormDescriptor struct {
	ID                string      `json:"id"`
	PageURL           string      `json:"page_url"`
	Action            string      `json:"action"` // absolute URL
	Method            string      `json:"method"`
	Fields            []FormField `json:"fields"`
	HasCSRFProtection bool        `json:"has_csrf_protection"`
}

// CrawlResult accumulates everything the crawler learned.
type CrawlResult struct {
	BaseURL *url.URL
	Pages   []CrawledPage
	Forms   []FormDescriptor
	Errors  []string
}

// Crawler walks same-host links breadth first from a seed URL.
type Crawler struct {
	MaxPages int
	MaxDepth int
	Timeout  time.Duration
	Client   *http.Client
	Logger   *zap.SugaredLogger
}

// csrfTokenFieldNames is the fixed ordered list of hidden-input and meta
// names recognized as anti-CSRF tokens, both for form-auth token discovery
// and for the CSRF audit.
var csrfTokenFieldNames = []string{
	"csrf_token",
	"_csrf",
	"csrfmiddlewaretoken",
	"authenticity_token",
	"_token",
	"__requestverificationtoken",
	"xsrf_token",
	"anti_csrf",
}

// NewHTTPClient builds the client the web scanner shares across phases.
// Assessment targets routinely present self-signed certificates, so
// verification is disabled; the cookie jar carries auth sessions.
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

// Crawl visits up to MaxPages same-hostname pages within MaxDepth hops of
// seed. A visited set keyed by canonical absolute URL prevents revisits.
// Per-page fetch failures are recorded in the result and never abort the
// crawl.
func (c *Crawler) Crawl(ctx context.Context, seed string, lc *scan.Lifecycle, em *scan.Emitter) (*CrawlResult, error) {
	root, err := url.Parse(seed)
	if err != nil || root.Scheme == "" || root.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTarget, seed)
	}
	if root.Path == "" {
		root.Path = "/"
	}

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	client := c.Client
	if client == nil {
		client = NewHTTPClient(c.Timeout, nil)
	}

	type queueItem struct {
		u     *url.URL
		depth int
	}

	result := &CrawlResult{BaseURL: root}
	queue := []queueItem{{u: root, depth: 0}}
	visited := map[string]struct{}{canonicalURL(root): {}}

	for len(queue) > 0 && len(result.Pages) < maxPages {
		if lc != nil && lc.Aborted() {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}

		item := queue[0]
		queue = queue[1:]

		page, doc, err := c.fetch(ctx, client, item.u)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.u, err))
			if c.Logger != nil {
				c.Logger.Debugw("page fetch failed", "url", item.u.String(), "error", err)
			}
			continue
		}

		result.Pages = append(result.Pages, page)
		em.Progress("crawling", len(result.Pages), maxPages, page.URL)

		if doc == nil {
			continue
		}

		links, forms := extractDocument(item.u, doc)
		result.Forms = append(result.Forms, forms...)

		// the depth bound stops link following, not form harvesting
		if item.depth >= maxDepth {
			continue
		}

		for _, link := range links {
			if !strings.EqualFold(link.Hostname(), root.Hostname()) {
				continue
			}
			key := canonicalURL(link)
			if _, ok := visited[key]; ok {
				continue
			}
			visited[key] = struct{}{}
			queue = append(queue, queueItem{u: link, depth: item.depth + 1})
		}
	}

	return result, nil
}

// fetch retrieves one page. The parsed document is nil for non-HTML
// responses.
func (c *Crawler) fetch(ctx context.Context, client *http.Client, u *url.URL) (CrawledPage, *html.Node, error) {
	page := CrawledPage{URL: u.String()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return page, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return page, nil, err
	}
	defer resp.Body.Close()

	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	page.ContentType = resp.Header.Get("Content-Type")
	page.Cookies = resp.Cookies()

	if !isHTMLContentType(page.ContentType) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return page, nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return page, nil, err
	}
	page.HTML = string(body)

	doc, err := html.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return page, nil, nil
	}
	page.Title = extractTitle(doc)
	return page, doc, nil
}

// extractDocument harvests resolvable same-scheme links and form
// descriptors from a parsed page.
func extractDocument(base *url.URL, doc *html.Node) ([]*url.URL, []FormDescriptor) {
	var links []*url.URL
	var forms []FormDescriptor

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := attrValue(n, "href"); href != "" {
					if resolved := resolveLink(base, href); resolved != nil {
						links = append(links, resolved)
					}
				}
			case "form":
				forms = append(forms, buildForm(base, n, len(forms)))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, forms
}

func buildForm(base *url.URL, formNode *html.Node, index int) FormDescriptor {
	form := FormDescriptor{
		ID:      attrValue(formNode, "id"),
		PageURL: base.String(),
		Method:  strings.ToUpper(attrValue(formNode, "method")),
	}
	if form.ID == "" {
		form.ID = fmt.Sprintf("form-%d", index)
	}
	if form.Method == "" {
		form.Method = http.MethodGet
	}

	action := attrValue(formNode, "action")
	if action == "" {
		form.Action = base.String()
	} else if resolved := resolveLink(base, action); resolved != nil {
		form.Action = resolved.String()
	} else {
		form.Action = base.String()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input", "select", "textarea":
				name := attrValue(n, "name")
				if name != "" {
					fieldType := strings.ToLower(attrValue(n, "type"))
					if fieldType == "" {
						fieldType = "text"
					}
					form.Fields = append(form.Fields, FormField{
						Name:     name,
						Type:     fieldType,
						Required: hasAttr(n, "required"),
					})
					if fieldType == "hidden" && isCSRFTokenName(name) {
						form.HasCSRFProtection = true
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(formNode)

	return form
}

func isCSRFTokenName(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range csrfTokenFieldNames {
		if lower == known {
			return true
		}
	}
	// frameworks commonly embed "csrf" or "xsrf" in custom token names
	return strings.Contains(lower, "csrf") || strings.Contains(lower, "xsrf")
}

func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "#"):
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	return resolved
}

func canonicalURL(u *url.URL) string {
	clone := *u
	clone.Fragment = ""
	if clone.Path == "" {
		clone.Path = "/"
	}
	return clone.String()
}

func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	lower := strings.ToLower(contentType)
	return strings.Contains(lower, "text/html") || strings.Contains(lower, "application/xhtml")
}

func extractTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return true
		}
	}
	return false
}
