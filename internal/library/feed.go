package library

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// GofeedResolver resolves .rss references to the newest episode enclosure.
type GofeedResolver struct {
	HTTP *http.Client
}

// NewGofeedResolver creates a feed resolver with the given fetch timeout.
func NewGofeedResolver(timeout time.Duration) *GofeedResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GofeedResolver{HTTP: &http.Client{Timeout: timeout}}
}

// LatestEnclosure fetches and parses the feed, returning the enclosure URL of
// the most recently published item.
func (g *GofeedResolver) LatestEnclosure(feedURL string) (string, error) {
	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(feedURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("feed fetch failed: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return "", err
	}

	var best *gofeed.Item
	for _, item := range feed.Items {
		if len(item.Enclosures) == 0 || item.Enclosures[0].URL == "" {
			continue
		}
		if best == nil || publishedAfter(item, best) {
			best = item
		}
	}
	if best == nil {
		return "", errors.New("feed has no enclosures")
	}
	return best.Enclosures[0].URL, nil
}

func publishedAfter(a *gofeed.Item, b *gofeed.Item) bool {
	if a.PublishedParsed == nil || b.PublishedParsed == nil {
		return false
	}
	return a.PublishedParsed.After(*b.PublishedParsed)
}
