package edgar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/catalyst/internal/models"
)

// tickerIndexEntry is one entry in the EDGAR company ticker index.
// The index is a JSON object keyed by arbitrary position strings.
type tickerIndexEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// submissionsResponse is the shape of data.sec.gov/submissions/CIK{n}.json.
// Recent filings are column-oriented: parallel arrays indexed together.
type submissionsResponse struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// ResolveTicker looks up a ticker symbol in the EDGAR company index and
// returns the company with its CIK zero-padded to 10 digits.
func (c *Client) ResolveTicker(ctx context.Context, ticker string) (*models.Company, error) {
	url := c.baseURL + "/files/company_tickers.json"

	var index map[string]tickerIndexEntry
	if err := c.getJSON(ctx, url, &index); err != nil {
		return nil, fmt.Errorf("failed to fetch ticker index: %w", err)
	}

	want := strings.ToUpper(strings.TrimSpace(ticker))
	for _, entry := range index {
		if strings.ToUpper(entry.Ticker) == want {
			company := &models.Company{
				Ticker: want,
				CIK:    fmt.Sprintf("%010d", entry.CIK),
				Name:   entry.Title,
			}
			c.logger.Debug().Str("ticker", want).Str("cik", company.CIK).Msg("Resolved ticker")
			return company, nil
		}
	}

	return nil, fmt.Errorf("ticker %s: %w", want, models.ErrNotFound)
}

// FetchFilings returns the company's filings of the requested types filed
// inside the window, ordered by filed date ascending. Documents that fail to
// download or parse are skipped and logged; an empty result is not an error.
func (c *Client) FetchFilings(ctx context.Context, cik string, filingTypes []string, window models.FilingWindow) ([]models.FilingDocument, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, padCIK(cik))

	var submissions submissionsResponse
	if err := c.getJSON(ctx, url, &submissions); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for CIK %s: %w", cik, err)
	}

	recent := submissions.Filings.Recent
	n := len(recent.Form)
	if len(recent.FilingDate) != n || len(recent.AccessionNumber) != n || len(recent.PrimaryDocument) != n {
		return nil, fmt.Errorf("unexpected EDGAR response schema: submissions arrays misaligned for CIK %s", cik)
	}

	wanted := make(map[string]bool, len(filingTypes))
	for _, t := range filingTypes {
		wanted[t] = true
	}

	var filings []models.FilingDocument
	for i := 0; i < n; i++ {
		if !wanted[recent.Form[i]] {
			continue
		}

		filedDate, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			c.logger.Warn().
				Str("cik", cik).
				Str("date", recent.FilingDate[i]).
				Msg("Skipping filing with unparseable date")
			continue
		}
		if !window.Contains(filedDate) {
			continue
		}

		doc := models.FilingDocument{
			Type:            recent.Form[i],
			FiledDate:       filedDate,
			AccessionNumber: recent.AccessionNumber[i],
			PrimaryDocument: recent.PrimaryDocument[i],
		}

		text, err := c.fetchDocumentText(ctx, cik, doc)
		if err != nil {
			if models.IsTransient(err) {
				// Let the job-level retry policy handle upstream flakiness.
				return nil, err
			}
			c.logger.Warn().
				Str("cik", cik).
				Str("accession", doc.AccessionNumber).
				Err(err).
				Msg("Skipping filing that failed to parse")
			continue
		}
		doc.Text = text

		filings = append(filings, doc)
	}

	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].FiledDate.Before(filings[j].FiledDate)
	})

	c.logger.Debug().
		Str("cik", cik).
		Int("count", len(filings)).
		Msg("Fetched filings")

	return filings, nil
}

// fetchDocumentText downloads a filing's primary document and extracts its
// readable text.
func (c *Client) fetchDocumentText(ctx context.Context, cik string, doc models.FilingDocument) (string, error) {
	accession := strings.ReplaceAll(doc.AccessionNumber, "-", "")
	url := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.baseURL, trimCIK(cik), accession, doc.PrimaryDocument)

	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", doc.PrimaryDocument, err)
	}
	if text == "" {
		return "", fmt.Errorf("document %s contains no readable text", doc.PrimaryDocument)
	}

	return text, nil
}

// padCIK zero-pads a CIK to the 10 digits data.sec.gov expects.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

// trimCIK strips leading zeros for archive URLs.
func trimCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
