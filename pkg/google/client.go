package google

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/tasksheet/pkg/auth"
)

// NewClient authenticates and opens the spreadsheet with the given id.
func NewClient(ctx context.Context, spreadsheetID string) (*SheetsClient, error) {
	srv, err := auth.GetSheetsService(ctx)
	if err != nil {
		return nil, err
	}

	c := NewSheetsClient(srv, spreadsheetID)
	if err := c.refresh(ctx); err != nil {
		return nil, fmt.Errorf("spreadsheet '%s' not found: %w", spreadsheetID, err)
	}
	return c, nil
}

// NewSheetsClient wraps an existing service. Sheet metadata is loaded lazily.
func NewSheetsClient(srv *sheets.Service, spreadsheetID string) *SheetsClient {
	return &SheetsClient{srv: srv, spreadsheetID: spreadsheetID}
}
