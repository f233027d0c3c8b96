// Package interfaces defines service contracts for Catalyst
package interfaces

import (
	"context"

	"github.com/bobmcallan/catalyst/internal/models"
)

// EdgarClient retrieves company identity and filings from SEC EDGAR.
type EdgarClient interface {
	// ResolveTicker looks up a ticker in the EDGAR company index.
	// Returns models.ErrNotFound if the ticker is unknown.
	ResolveTicker(ctx context.Context, ticker string) (*models.Company, error)

	// FetchFilings returns the company's filings of the requested types with
	// filed dates inside the window, ordered by filed date ascending, with
	// document text extracted to plain text. An empty result is not an error.
	FetchFilings(ctx context.Context, cik string, filingTypes []string, window models.FilingWindow) ([]models.FilingDocument, error)
}

// GeminiClient generates AI content from prompts.
type GeminiClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}
