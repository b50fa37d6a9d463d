package watchlist

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// sheetRange covers the first sheet of the spreadsheet.
const sheetRange = "A:ZZ"

// SheetProvider reads the watch-list from the first sheet of a Google spreadsheet,
// authenticating with a service-account credentials file.
type SheetProvider struct {
	sheetID         string
	credentialsFile string
	column          string
	log             zerolog.Logger

	mu         sync.Mutex
	svc        *sheets.Service
	newService func(ctx context.Context) (*sheets.Service, error)
}

// NewSheetProvider creates a provider for the given spreadsheet.
func NewSheetProvider(sheetID, credentialsFile, column string, log zerolog.Logger) *SheetProvider {
	p := &SheetProvider{
		sheetID:         sheetID,
		credentialsFile: credentialsFile,
		column:          column,
		log:             log.With().Str("component", "watchlist").Str("source", "sheet").Logger(),
	}
	p.newService = p.connect
	return p
}

// Load returns the tickers in row order.
func (p *SheetProvider) Load(ctx context.Context) ([]domain.WatchEntry, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "sheet " + p.sheetID, Err: err}
	}

	resp, err := svc.Spreadsheets.Values.Get(p.sheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "sheet " + p.sheetID, Err: err}
	}
	if len(resp.Values) == 0 {
		p.log.Info().Str("sheet_id", p.sheetID).Msg("No records found in sheet")
		return []domain.WatchEntry{}, nil
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		rows[i] = cells
	}

	entries, err := entriesFromRows(rows[0], rows[1:], p.column)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "sheet " + p.sheetID, Err: err}
	}

	p.log.Debug().Int("entries", len(entries)).Msg("Watch-list loaded")
	return entries, nil
}

// service authenticates once; a failed attempt is retried on the next Load.
func (p *SheetProvider) service(ctx context.Context) (*sheets.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.svc != nil {
		return p.svc, nil
	}
	svc, err := p.newService(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Info().Msg("Authenticated with Google Sheets")
	p.svc = svc
	return svc, nil
}

func (p *SheetProvider) connect(ctx context.Context) (*sheets.Service, error) {
	data, err := os.ReadFile(p.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	// The token source outlives this call.
	base := context.WithoutCancel(ctx)

	creds, err := google.CredentialsFromJSON(base, data, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	svc, err := sheets.NewService(base, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}
