package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseOutput converts the model's JSON object into a NarrativeOutput. Structural
// problems fail the call; a malformed budget suggestion is only dropped and returned
// in dropped so the caller can log it.
func parseOutput(raw map[string]interface{}, in domain.NarrativeInput) (out *domain.NarrativeOutput, dropped []error, err error) {
	out = &domain.NarrativeOutput{}

	summary, err := getOptionalStringField(raw, "summary")
	if err != nil {
		return nil, nil, fmt.Errorf("parseOutput: %w", err)
	}
	if summary != nil {
		out.Summary = *summary
	}

	lists := []struct {
		key string
		dst *[]string
	}{
		{"insights", &out.Insights},
		{"recommendations", &out.Recommendations},
		{"behaviorPatterns", &out.BehaviorPatterns},
		{"risks", &out.Risks},
		{"opportunities", &out.Opportunities},
	}
	for _, l := range lists {
		items, err := getStringList(raw, l.key)
		if err != nil {
			return nil, nil, fmt.Errorf("parseOutput: %w", err)
		}
		*l.dst = items
	}

	rawSuggestions, ok := raw["budgetSuggestions"]
	if !ok || rawSuggestions == nil {
		return out, nil, nil
	}
	items, ok := rawSuggestions.([]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("parseOutput: field \"budgetSuggestions\" has type %T, want array", rawSuggestions)
	}

	categories := make(map[string]domain.Category, len(in.Categories))
	for _, c := range in.Categories {
		categories[c.ID] = c
	}
	budgets := make(map[string]bool, len(in.Budgets))
	for _, b := range in.Budgets {
		budgets[b.ID] = true
	}

	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			dropped = append(dropped, fmt.Errorf("suggestion %d is %T, want object", i, item))
			continue
		}
		s, err := parseSuggestion(obj, categories, budgets)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("suggestion %d: %w", i, err))
			continue
		}
		out.BudgetSuggestions = append(out.BudgetSuggestions, s)
	}

	return out, dropped, nil
}

func parseSuggestion(obj map[string]interface{}, categories map[string]domain.Category, budgets map[string]bool) (domain.BudgetSuggestion, error) {
	kind, err := getStringField(obj, "type", true)
	if err != nil {
		return domain.BudgetSuggestion{}, err
	}
	categoryID, err := getStringField(obj, "categoryId", true)
	if err != nil {
		return domain.BudgetSuggestion{}, err
	}
	category, ok := categories[categoryID]
	if !ok {
		return domain.BudgetSuggestion{}, fmt.Errorf("unknown category %q", categoryID)
	}
	reason, err := getStringField(obj, "reason", false)
	if err != nil {
		return domain.BudgetSuggestion{}, err
	}

	switch domain.SuggestionKind(strings.ToUpper(kind)) {
	case domain.SuggestionKindCreate:
		proposal, err := parseProposal(obj, categoryID)
		if err != nil {
			return domain.BudgetSuggestion{}, err
		}
		return domain.NewCreateSuggestion(categoryID, category.Name, reason, proposal)

	case domain.SuggestionKindUpdate:
		budgetID, err := getStringField(obj, "budgetId", true)
		if err != nil {
			return domain.BudgetSuggestion{}, err
		}
		if !budgets[budgetID] {
			return domain.BudgetSuggestion{}, fmt.Errorf("unknown budget %q", budgetID)
		}
		amount, err := getDecimalField(obj, "newAmount", true)
		if err != nil {
			return domain.BudgetSuggestion{}, err
		}
		return domain.NewUpdateSuggestion(categoryID, category.Name, reason, domain.BudgetAdjustment{
			BudgetID:  budgetID,
			NewAmount: amount,
		})

	default:
		return domain.BudgetSuggestion{}, fmt.Errorf("unknown suggestion type %q", kind)
	}
}

// parseProposal returns nil when the model gave no usable amount or dates.
func parseProposal(obj map[string]interface{}, categoryID string) (*domain.BudgetProposal, error) {
	amount, err := getDecimalField(obj, "amount", false)
	if err != nil {
		return nil, err
	}
	startStr, err := getStringField(obj, "startDate", false)
	if err != nil {
		return nil, err
	}
	endStr, err := getStringField(obj, "endDate", false)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() || startStr == "" || endStr == "" {
		return nil, nil
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate %q: %w", startStr, err)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return nil, fmt.Errorf("invalid endDate %q: %w", endStr, err)
	}
	name, err := getStringField(obj, "name", false)
	if err != nil {
		return nil, err
	}

	return &domain.BudgetProposal{
		CategoryID: categoryID,
		Name:       strings.TrimSpace(name),
		Amount:     amount.Round(2),
		StartDate:  start,
		EndDate:    end.Add(24*time.Hour - time.Millisecond),
	}, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getStringList reads an array of strings, skipping blank and non-string items.
func getStringList(m map[string]interface{}, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want array", key, v)
	}
	var out []string
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// getDecimalField accepts JSON numbers and numeric strings.
func getDecimalField(m map[string]interface{}, key string, required bool) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return decimal.Zero, fmt.Errorf("missing required field %q", key)
		}
		return decimal.Zero, nil
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not a number: %q", key, val)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
