package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/robalobadob/namequiz/internal/quiz"
)

var (
	ErrNoImage  = errors.New("no image")
	ErrNotImage = errors.New("not an image")
)

// HTTPProber accepts an item when its image URL answers 2xx with an image content type.
type HTTPProber struct {
	Client *http.Client
}

func (p HTTPProber) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p HTTPProber) Probe(ctx context.Context, item quiz.Item) (string, error) {
	if item.ImageURL == "" {
		return "", ErrNoImage
	}
	return item.ImageURL, p.check(ctx, item.ImageURL)
}

// check issues HEAD, falling back to GET for servers that reject HEAD.
func (p HTTPProber) check(ctx context.Context, rawURL string) error {
	res, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusForbidden {
		res, err = p.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("probe %s: status %d", rawURL, res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("probe %s: %q: %w", rawURL, ct, ErrNotImage)
	}
	return nil
}

func (p HTTPProber) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))
	_ = res.Body.Close()
	return res, nil
}

// WikiImages looks up a page thumbnail by the item's name through the
// MediaWiki pageimages API, then probes the thumbnail.
type WikiImages struct {
	Client   *http.Client
	Endpoint string // defaults to the English Wikipedia API
	Size     int
}

const defaultWikiEndpoint = "https://en.wikipedia.org/w/api.php"

func (w WikiImages) ResolvesImages() bool { return true }

func (w WikiImages) Probe(ctx context.Context, item quiz.Item) (string, error) {
	if item.ImageURL != "" {
		return HTTPProber{Client: w.Client}.Probe(ctx, item)
	}
	thumb, err := w.thumbnail(ctx, item.Name)
	if err != nil {
		return "", err
	}
	if err := (HTTPProber{Client: w.Client}).check(ctx, thumb); err != nil {
		return "", err
	}
	return thumb, nil
}

type wikiResponse struct {
	Query struct {
		Pages map[string]struct {
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

func (w WikiImages) thumbnail(ctx context.Context, title string) (string, error) {
	endpoint := w.Endpoint
	if endpoint == "" {
		endpoint = defaultWikiEndpoint
	}
	size := w.Size
	if size <= 0 {
		size = 500
	}
	q := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"pageimages"},
		"format":      {"json"},
		"pithumbsize": {fmt.Sprint(size)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wiki lookup %q: status %d", title, res.StatusCode)
	}
	var body wikiResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("wiki lookup %q: %w", title, err)
	}
	for id, page := range body.Query.Pages {
		if id != "-1" && page.Thumbnail != nil && page.Thumbnail.Source != "" {
			return page.Thumbnail.Source, nil
		}
	}
	return "", fmt.Errorf("wiki lookup %q: %w", title, ErrNoImage)
}
