package notionsync

import (
	"strings"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/jomei/notionapi"
)

// Notion rejects rich text items longer than this.
const maxRichTextLen = 2000

// Property names of the reports database.
const (
	propTitle       = "Report"
	propReportID    = "Report ID"
	propHousehold   = "Household"
	propKind        = "Kind"
	propPeriod      = "Period"
	propCurrency    = "Currency"
	propIncome      = "Income"
	propExpenses    = "Expenses"
	propNet         = "Net"
	propSavingsRate = "Savings Rate"
	propTxCount     = "Transactions"
	propSummary     = "Summary"
	propGeneratedAt = "Generated At"
)

// ReportToNotionProperties converts a completed report to Notion page properties.
func ReportToNotionProperties(report *domain.Report) notionapi.Properties {
	label := string(report.Kind) + " report"
	if report.Data != nil && report.Data.Meta.Label != "" {
		label = report.Data.Meta.Label
	}

	start := notionapi.Date(report.StartDate)
	end := notionapi.Date(report.EndDate)
	generated := notionapi.Date(report.UpdatedAt)

	props := notionapi.Properties{
		propTitle: notionapi.TitleProperty{
			Title: richText(label),
		},
		propReportID: notionapi.RichTextProperty{
			RichText: richText(report.ID),
		},
		propHousehold: notionapi.RichTextProperty{
			RichText: richText(report.HouseholdID),
		},
		propKind: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(report.Kind)},
		},
		propPeriod: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start, End: &end},
		},
		propTxCount: notionapi.NumberProperty{
			Number: float64(report.TransactionCount),
		},
	}

	if report.Currency != "" {
		props[propCurrency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: report.Currency},
		}
	}
	if !report.UpdatedAt.IsZero() {
		props[propGeneratedAt] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &generated},
		}
	}

	if report.Data == nil {
		return props
	}

	totals := report.Data.Totals
	props[propIncome] = notionapi.NumberProperty{Number: totals.Income.InexactFloat64()}
	props[propExpenses] = notionapi.NumberProperty{Number: totals.Expenses.InexactFloat64()}
	props[propNet] = notionapi.NumberProperty{Number: totals.Net.InexactFloat64()}
	props[propSavingsRate] = notionapi.NumberProperty{Number: totals.SavingsRate}

	if n := report.Data.LLM[report.Kind.Key()]; n != nil && n.Summary != "" {
		props[propSummary] = notionapi.RichTextProperty{
			RichText: richText(n.Summary),
		}
	}

	return props
}

// ReportToBlocks renders the narrative lists as page content.
func ReportToBlocks(report *domain.Report) []notionapi.Block {
	if report.Data == nil {
		return nil
	}
	n := report.Data.LLM[report.Kind.Key()]
	if n == nil {
		return nil
	}

	sections := []struct {
		heading string
		items   []string
	}{
		{"Insights", n.Insights},
		{"Suggestions", n.Suggestions},
		{"Behavior patterns", n.BehaviorPatterns},
		{"Risks", n.Risks},
		{"Opportunities", n.Opportunities},
	}

	var blocks []notionapi.Block
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		blocks = append(blocks, &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
			Heading2:   notionapi.Heading{RichText: richText(sec.heading)},
		})
		for _, item := range sec.items {
			blocks = append(blocks, &notionapi.BulletedListItemBlock{
				BasicBlock:       notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
				BulletedListItem: notionapi.ListItem{RichText: richText(item)},
			})
		}
	}
	return blocks
}

func richText(content string) []notionapi.RichText {
	content = strings.TrimSpace(content)
	if r := []rune(content); len(r) > maxRichTextLen {
		content = string(r[:maxRichTextLen-3]) + "..."
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// extractReportID reads the report id back from a queried page.
func extractReportID(page notionapi.Page) string {
	if prop, ok := page.Properties[propReportID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(rt.RichText) > 0 {
				return rt.RichText[0].PlainText
			}
		}
	}
	return ""
}

