// Package watchlist loads the ordered list of tracked tickers from a tabular
// file (local or s3://) or from a Google Sheets spreadsheet.
package watchlist

import (
	"context"
	"errors"
	"strings"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultColumn is the header of the identifier column.
const DefaultColumn = "Ticker"

// Config selects and configures the watch-list strategy.
type Config struct {
	TickersFile     string
	SheetID         string
	CredentialsFile string
	Column          string
	S3              S3Config
}

// New returns the provider for the configured strategy. The tickers file wins
// when both are set; with neither, every Load fails with a SourceUnavailableError.
func New(cfg Config, log zerolog.Logger) domain.WatchlistProvider {
	column := strings.TrimSpace(cfg.Column)
	if column == "" {
		column = DefaultColumn
	}

	switch {
	case cfg.TickersFile != "":
		return NewFileProvider(cfg.TickersFile, column, cfg.S3, log)
	case cfg.SheetID != "" && cfg.CredentialsFile != "":
		return NewSheetProvider(cfg.SheetID, cfg.CredentialsFile, column, log)
	default:
		return unconfigured{}
	}
}

type unconfigured struct{}

func (unconfigured) Load(ctx context.Context) ([]domain.WatchEntry, error) {
	return nil, &domain.SourceUnavailableError{
		Source: "watchlist",
		Err:    errors.New("neither a tickers file nor a sheet id with credentials is configured"),
	}
}
