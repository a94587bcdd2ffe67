package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/logger"
	"github.com/jomei/notionapi"
)

// Publisher writes one page per completed report. Re-publishing a report updates its
// existing page instead of creating a duplicate.
type Publisher struct {
	notion     NotionService
	databaseID string
}

// NewPublisher creates a publisher for the given reports database.
func NewPublisher(notion NotionService, databaseID string) *Publisher {
	return &Publisher{notion: notion, databaseID: databaseID}
}

// Name implements pipeline.ReportSink.
func (p *Publisher) Name() string {
	return "notion"
}

// Publish implements pipeline.ReportSink.
func (p *Publisher) Publish(ctx context.Context, report *domain.Report) error {
	log := logger.FromContext(ctx)

	existing, err := p.findPage(ctx, report.ID)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	props := ReportToNotionProperties(report)

	if existing != "" {
		if _, err := p.notion.UpdatePage(ctx, existing, props); err != nil {
			return fmt.Errorf("Publish: updating page %s: %w", existing, err)
		}
		log.Info().
			Str("report_id", report.ID).
			Str("page_id", existing).
			Msg("Updated Notion page")
		return nil
	}

	page, err := p.notion.CreatePage(ctx, p.databaseID, props, ReportToBlocks(report))
	if err != nil {
		return fmt.Errorf("Publish: creating page: %w", err)
	}
	log.Info().
		Str("report_id", report.ID).
		Str("page_id", string(page.ID)).
		Msg("Created Notion page")
	return nil
}

// findPage returns the id of the page already holding reportID, or "".
func (p *Publisher) findPage(ctx context.Context, reportID string) (string, error) {
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter: &notionapi.PropertyFilter{
				Property: propReportID,
				RichText: &notionapi.TextFilterCondition{Equals: reportID},
			},
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := p.notion.QueryDatabase(ctx, p.databaseID, req)
		if err != nil {
			return "", fmt.Errorf("findPage: %w", err)
		}

		for _, page := range resp.Results {
			if extractReportID(page) == reportID {
				return string(page.ID), nil
			}
		}

		if !resp.HasMore {
			return "", nil
		}
		cursor = resp.NextCursor
	}
}
