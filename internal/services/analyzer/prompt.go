package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/catalyst/internal/models"
)

const promptInstructions = `You are a financial analysis assistant specializing in biotech companies.
Analyze the SEC filings above to identify key information related to:

1. New Drug Applications (NDAs)
2. Positive phase 3 trial results
3. Signs of upcoming FDA approval
4. Any other significant events that could impact stock price

Based on your analysis, determine:
- If the stock is expected to go up soon (yes/no)
- By what approximate date
- If it's a good buy (yes/no)
- Detailed reasoning for your conclusion

IMPORTANT: Return your analysis ONLY in the following JSON format:
{
  "stock_expected_to_go_up": boolean,
  "expected_by_date": "YYYY-MM-DD" or null,
  "is_good_buy": boolean,
  "reasoning": "detailed explanation for your conclusion"
}`

const noFilingsMarker = "No SEC filings of the requested types were found for this company in the analysis window. State this in your reasoning and answer conservatively."

// BuildPrompt assembles the model input from retrieved filing text. The output
// is deterministic: identical inputs produce byte-identical prompts.
//
// Truncation policy when combined filing text exceeds maxChars: filings are
// dropped oldest-first, except that the newest filing of each requested type
// is kept where possible; as a final step the oldest surviving filing is
// trimmed from the end to fit the budget. The instruction block is never
// truncated.
func BuildPrompt(companyName, ticker string, filingTypes []string, filings []models.FilingDocument, maxChars int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following SEC filings for %s (%s). Focus on information related to NDAs, positive phase 3 trials, and signs of upcoming FDA approval.\n", companyName, ticker)

	if len(filings) == 0 {
		b.WriteString("\n")
		b.WriteString(noFilingsMarker)
		b.WriteString("\n\n")
		b.WriteString(promptInstructions)
		return b.String()
	}

	selected, truncated := fitToBudget(filings, maxChars-b.Len()-len(promptInstructions)-64)

	for _, f := range selected {
		fmt.Fprintf(&b, "\n--- %s FILING DATE: %s ---\n\n%s\n", f.Type, f.FiledDate.Format("2006-01-02"), f.Text)
	}
	if truncated {
		b.WriteString("\n[Note: Some filings were omitted or truncated due to length constraints]\n")
	}

	b.WriteString("\n")
	b.WriteString(promptInstructions)
	return b.String()
}

// BuildRetryPrompt produces the stricter re-prompt used after a malformed
// model response. The original prompt is reused verbatim with an explicit
// correction appended.
func BuildRetryPrompt(prompt string, validationErr error) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nYour previous response was invalid: ")
	b.WriteString(validationErr.Error())
	b.WriteString("\nRespond again with ONLY the JSON object, no surrounding text or markdown, with all four fields present and correctly typed.")
	return b.String()
}

// fitToBudget selects and trims filings so their rendered text fits budget
// characters. Input is assumed sorted by filed date ascending; the returned
// slice preserves that order.
func fitToBudget(filings []models.FilingDocument, budget int) ([]models.FilingDocument, bool) {
	if budget < 0 {
		budget = 0
	}

	// Per-filing overhead for the header and separators.
	const headerOverhead = 48

	total := 0
	for _, f := range filings {
		total += len(f.Text) + headerOverhead
	}
	if total <= budget {
		return filings, false
	}

	// Keep the newest filing of each type unconditionally, then drop the
	// remaining filings oldest-first until under budget.
	newestByType := make(map[string]int)
	for i, f := range filings {
		newestByType[f.Type] = i
	}
	protected := make(map[int]bool, len(newestByType))
	for _, i := range newestByType {
		protected[i] = true
	}

	kept := make(map[int]bool, len(filings))
	for i := range filings {
		kept[i] = true
	}
	for i := 0; i < len(filings) && total > budget; i++ {
		if protected[i] {
			continue
		}
		total -= len(filings[i].Text) + headerOverhead
		delete(kept, i)
	}

	// Still over budget with only protected filings left: trim the oldest
	// survivors' text from the end, never below zero.
	indices := make([]int, 0, len(kept))
	for i := range kept {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]models.FilingDocument, 0, len(indices))
	for _, i := range indices {
		out = append(out, filings[i])
	}
	for i := 0; i < len(out) && total > budget; i++ {
		excess := total - budget
		cut := len(out[i].Text)
		if cut > excess {
			cut = excess
		}
		out[i].Text = out[i].Text[:len(out[i].Text)-cut]
		total -= cut
	}

	return out, true
}
