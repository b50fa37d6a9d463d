package yahoo

import "time"

// NewsArticle is one entry of the news block returned by the search endpoint
type NewsArticle struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Type        string    `json:"type"`
	Tickers     []string  `json:"tickers,omitempty"`
}

// searchResponse represents the response from the Yahoo Finance search API
type searchResponse struct {
	News []struct {
		UUID                string   `json:"uuid"`
		Title               string   `json:"title"`
		Publisher           string   `json:"publisher"`
		Link                string   `json:"link"`
		ProviderPublishTime int64    `json:"providerPublishTime"`
		Type                string   `json:"type"`
		RelatedTickers      []string `json:"relatedTickers"`
	} `json:"news"`
	Finance *struct {
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"finance"`
}
