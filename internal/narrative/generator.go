// Package narrative produces the text section of a report with a language model and
// validates what comes back before it reaches the pipeline.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/logger"
)

// Generator implements the pipeline's narrative generator on top of a TextModel.
type Generator struct {
	model   TextModel
	timeout time.Duration
}

// NewGenerator creates a Generator. A zero timeout leaves the deadline to ctx.
func NewGenerator(model TextModel, timeout time.Duration) *Generator {
	return &Generator{model: model, timeout: timeout}
}

// Generate builds the prompt, calls the model and parses its JSON answer.
func (g *Generator) Generate(ctx context.Context, in domain.NarrativeInput) (*domain.NarrativeOutput, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.model.GenerateText(ctx, buildPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	clean := cleanModelJSON(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("Generate: unmarshal JSON: %w\nraw response: %s", err, truncate(raw, 500))
	}

	out, dropped, err := parseOutput(parsed, in)
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}
	if len(dropped) > 0 {
		log := logger.FromContext(ctx)
		for _, d := range dropped {
			log.Warn().Err(d).Msg("Dropped malformed budget suggestion")
		}
	}
	return out, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.IndexAny(s, "{["); start != -1 {
		closing := "}"
		if s[start] == '[' {
			closing = "]"
		}
		if end := strings.LastIndex(s, closing); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
