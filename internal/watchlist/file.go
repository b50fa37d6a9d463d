package watchlist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// FileProvider reads the watch-list from a CSV or TSV file on disk or in object storage.
// The file is re-read on every Load.
type FileProvider struct {
	location string
	column   string
	s3       *s3Fetcher
	log      zerolog.Logger
}

// NewFileProvider creates a provider for location, a local path or an s3://bucket/key URL.
func NewFileProvider(location, column string, s3cfg S3Config, log zerolog.Logger) *FileProvider {
	p := &FileProvider{
		location: location,
		column:   column,
		log:      log.With().Str("component", "watchlist").Str("source", "file").Logger(),
	}
	if bucket, key, ok := parseS3URL(location); ok {
		p.s3 = newS3Fetcher(bucket, key, s3cfg)
	}
	return p
}

// Load returns the tickers in file order.
func (p *FileProvider) Load(ctx context.Context) ([]domain.WatchEntry, error) {
	data, err := p.read(ctx)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: p.location, Err: err}
	}

	entries, err := parseTable(bytes.NewReader(data), delimiterFor(p.location), p.column)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: p.location, Err: err}
	}

	p.log.Debug().Int("entries", len(entries)).Msg("Watch-list loaded")
	return entries, nil
}

func (p *FileProvider) read(ctx context.Context) ([]byte, error) {
	if p.s3 != nil {
		return p.s3.fetch(ctx)
	}
	return os.ReadFile(p.location)
}

func delimiterFor(location string) rune {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}
