// Package source locates the weekly menu document on the meal board page and
// downloads it.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/korjavin/mealwatch/pkg/logger"
)

// maxDocumentSize caps how much of a response body is read
const maxDocumentSize = 32 << 20

var pdfPathPattern = regexp.MustCompile(`(?i)(/[^"'\s]*\.pdf[^"'\s]*)`)

// ErrNoDocument is wrapped by FetchError when the page links no document
var ErrNoDocument = errors.New("no menu document linked on page")

// FetchError reports that the source page or document could not be retrieved
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches the meal board page and the document it links
type Client struct {
	http    *http.Client
	pageURL string
	baseURL *url.URL
	logger  *logger.Logger
}

// New creates a new source client
func New(pageURL, baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		pageURL: pageURL,
		baseURL: base,
		logger:  logger.New("source"),
	}, nil
}

// Fetch finds the current menu document and returns its bytes
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	docURL, err := c.FindDocumentURL(ctx)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, docURL)
}

// FindDocumentURL loads the meal board page and returns the absolute URL of
// the menu document
func (c *Client) FindDocumentURL(ctx context.Context) (string, error) {
	body, _, err := c.get(ctx, c.pageURL)
	if err != nil {
		return "", err
	}

	docURL, ok := FindDocumentURL(bytes.NewReader(body), c.baseURL)
	if !ok {
		return "", &FetchError{URL: c.pageURL, Err: ErrNoDocument}
	}
	c.logger.Info("Found menu document %s", docURL)
	return docURL, nil
}

// Download retrieves the document. An HTML response means the link pointed
// at a viewer page rather than the document and is rejected.
func (c *Client) Download(ctx context.Context, docURL string) ([]byte, error) {
	body, contentType, err := c.get(ctx, docURL)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return nil, &FetchError{URL: docURL, Err: fmt.Errorf("unexpected content type %q", contentType)}
	}
	c.logger.Info("Downloaded %d bytes (%s)", len(body), contentType)
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; mealwatch/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &FetchError{URL: target, Err: fmt.Errorf("HTTP %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// FindDocumentURL scans an HTML page for the menu document. It looks at the
// first <embed>, then the first <iframe>, then every <a> in order.
func FindDocumentURL(page io.Reader, base *url.URL) (string, bool) {
	doc, err := html.Parse(page)
	if err != nil {
		return "", false
	}

	var embed, iframe *html.Node
	var anchors []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "embed":
				if embed == nil {
					embed = n
				}
			case "iframe":
				if iframe == nil {
					iframe = n
				}
			case "a":
				if getAttr(n, "href") != "" {
					anchors = append(anchors, n)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	for _, frame := range []*html.Node{embed, iframe} {
		if frame == nil {
			continue
		}
		src := getAttr(frame, "src")
		if src == "" {
			continue
		}
		if target, ok := viewerTarget(src, base); ok {
			return target, true
		}
		if m := pdfPathPattern.FindStringSubmatch(src); m != nil && !strings.HasPrefix(src, "http") {
			src = m[1]
		}
		if resolved, ok := resolve(base, src); ok {
			return resolved, true
		}
	}

	for _, a := range anchors {
		href := getAttr(a, "href")
		if target, ok := viewerTarget(href, base); ok {
			return target, true
		}
		if m := pdfPathPattern.FindStringSubmatch(href); m != nil {
			if strings.HasPrefix(href, "http") {
				return href, true
			}
			if resolved, ok := resolve(base, m[1]); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// viewerTarget unwraps a PDFViewer link to the document in its file parameter
func viewerTarget(link string, base *url.URL) (string, bool) {
	if !strings.Contains(link, "PDFViewer") {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	file := u.Query().Get("file")
	if file == "" {
		return "", false
	}
	if decoded, err := url.PathUnescape(file); err == nil {
		file = decoded
	}
	return resolve(base, file)
}

func resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	if base == nil {
		return u.String(), u.IsAbs()
	}
	return base.ResolveReference(u).String(), true
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
