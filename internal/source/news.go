package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/fetch"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

const maxNewsItems = 6

// NewsAdapter pulls the crypto news feed. Articles missing a title, url or
// image are dropped; the result is capped at six items. The section never
// goes empty: on failure, or when no valid articles remain, a single
// placeholder item is substituted instead.
type NewsAdapter struct {
	client  *fetch.Client
	store   *store.Store
	baseURL string
	apiKey  string
}

func NewNewsAdapter(client *fetch.Client, st *store.Store, baseURL, apiKey string) *NewsAdapter {
	return &NewsAdapter{client: client, store: st, baseURL: baseURL, apiKey: apiKey}
}

func (a *NewsAdapter) Refresh(ctx context.Context) error {
	a.store.SetLoading(models.SectionNews, true)
	defer a.store.SetLoading(models.SectionNews, false)

	items, err := a.fetchArticles(ctx)
	if err != nil {
		a.store.SetNewsPlaceholder(placeholderItem())
		return fmt.Errorf("failed to fetch news: %w", err)
	}

	a.store.SetNews(items)
	return nil
}

func (a *NewsAdapter) fetchArticles(ctx context.Context) ([]models.NewsItem, error) {
	url := fmt.Sprintf("%s/data/v2/news/?lang=EN&api_key=%s", a.baseURL, a.apiKey)

	body, err := a.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			ImageURL    string `json:"imageurl"`
			Source      string `json:"source"`
			PublishedOn int64  `json:"published_on"`
		} `json:"Data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	items := make([]models.NewsItem, 0, maxNewsItems)
	for _, article := range raw.Data {
		if article.Title == "" || article.URL == "" || article.ImageURL == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Title:       article.Title,
			URL:         article.URL,
			Source:      article.Source,
			Image:       article.ImageURL,
			PublishedAt: time.Unix(article.PublishedOn, 0),
		})
		if len(items) == maxNewsItems {
			break
		}
	}

	// a successful call with nothing usable is still a failure
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid articles in response")
	}
	return items, nil
}

func placeholderItem() models.NewsItem {
	return models.NewsItem{
		Title:  "Unable to load news right now",
		Source: "ethvsbtc",
	}
}
