package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/catalyst/internal/models"
)

// rawResult mirrors the required model payload with pointer fields so a
// missing key is distinguishable from a zero value.
type rawResult struct {
	StockExpectedToGoUp *bool   `json:"stock_expected_to_go_up"`
	ExpectedByDate      *string `json:"expected_by_date"`
	IsGoodBuy           *bool   `json:"is_good_buy"`
	Reasoning           *string `json:"reasoning"`
}

// invokeModel sends the prompt to the model and parses the structured
// verdict. A malformed response gets exactly one stricter re-prompt; a second
// malformed response is returned as a validation failure for the caller to
// record as permanent.
func (a *Analyzer) invokeModel(ctx context.Context, job *models.AnalysisJob, prompt string) (*models.AnalysisResult, error) {
	raw, err := a.callModel(ctx, job, prompt)
	if err != nil {
		return nil, err
	}

	result, perr := ParseResult(raw)
	if perr == nil {
		return result, nil
	}
	if !models.IsValidation(perr) {
		return nil, perr
	}

	a.logger.Warn().
		Str("job_id", job.ID).
		Err(perr).
		Msg("Malformed model response, re-prompting")

	raw, err = a.callModel(ctx, job, BuildRetryPrompt(prompt, perr))
	if err != nil {
		return nil, err
	}
	return ParseResult(raw)
}

// callModel wraps a single model call with the transient retry policy and the
// per-call timeout.
func (a *Analyzer) callModel(ctx context.Context, job *models.AnalysisJob, prompt string) (string, error) {
	var raw string
	err := a.retryTransient(ctx, job, "model_invoke", a.config.Clients.Gemini.GetTimeout(), func(callCtx context.Context) error {
		var callErr error
		raw, callErr = a.gemini.GenerateContent(callCtx, prompt)
		return callErr
	})
	return raw, err
}

// ParseResult validates a model response against the required four-field
// verdict. Fields are never inferred or corrected: any missing field, wrong
// type, or unparseable date rejects the whole response.
func ParseResult(raw string) (*models.AnalysisResult, error) {
	cleaned := stripMarkdownFences(raw)

	var parsed rawResult
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&parsed); err != nil {
		return nil, &models.ValidationError{Detail: fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	if parsed.StockExpectedToGoUp == nil {
		return nil, &models.ValidationError{Detail: "missing field stock_expected_to_go_up"}
	}
	if parsed.IsGoodBuy == nil {
		return nil, &models.ValidationError{Detail: "missing field is_good_buy"}
	}
	if parsed.Reasoning == nil || *parsed.Reasoning == "" {
		return nil, &models.ValidationError{Detail: "missing field reasoning"}
	}

	var expectedBy string
	if parsed.ExpectedByDate != nil && *parsed.ExpectedByDate != "" && !strings.EqualFold(*parsed.ExpectedByDate, "null") {
		if _, err := time.Parse("2006-01-02", *parsed.ExpectedByDate); err != nil {
			return nil, &models.ValidationError{Detail: fmt.Sprintf("expected_by_date %q is not YYYY-MM-DD", *parsed.ExpectedByDate)}
		}
		expectedBy = *parsed.ExpectedByDate
	}

	return &models.AnalysisResult{
		StockExpectedToGoUp: *parsed.StockExpectedToGoUp,
		ExpectedByDate:      expectedBy,
		IsGoodBuy:           *parsed.IsGoodBuy,
		Reasoning:           *parsed.Reasoning,
	}, nil
}

// stripMarkdownFences removes a surrounding ```json fence when the model
// ignores the plain-JSON instruction.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
