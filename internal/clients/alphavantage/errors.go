package alphavantage

import "fmt"

// ErrRateLimitExceeded is returned when the daily request budget is spent,
// either locally or as reported by the API.
type ErrRateLimitExceeded struct {
	Limit int
}

func (e ErrRateLimitExceeded) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("alpha vantage rate limit exceeded (%d requests per day)", e.Limit)
	}
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when the API rejects the configured key.
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "alpha vantage: invalid API key"
}

// APIError carries an "Error Message" payload returned with HTTP 200.
type APIError struct {
	Message string
}

func (e APIError) Error() string {
	return fmt.Sprintf("alpha vantage API error: %s", e.Message)
}
