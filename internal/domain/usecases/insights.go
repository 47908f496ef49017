package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const (
	faqMinLogRows       = 10
	faqMinFrequency     = 3
	faqMaxCandidates    = 5
	defaultKeywordLimit = 10
	maxKeywordLimit     = 100
)

// chatLogReader is the read side of ports.ChatLogStore.
type chatLogReader interface {
	Count(ctx context.Context) (int, error)
	TopQuestions(ctx context.Context, minCount, limit int) ([]entities.FAQCandidate, error)
	TopKeywords(ctx context.Context, limit int) ([]entities.KeywordCount, error)
}

// InsightsUseCase mines the chat log for the admin dashboard.
type InsightsUseCase struct {
	log chatLogReader
}

// NewInsightsUseCase creates an InsightsUseCase. A nil log disables
// insights: every query answers empty.
func NewInsightsUseCase(log chatLogReader) *InsightsUseCase {
	return &InsightsUseCase{log: log}
}

// FAQ suggests up to five frequently asked questions. Nothing is
// suggested until the log holds at least ten exchanges.
func (uc *InsightsUseCase) FAQ(ctx context.Context) ([]entities.FAQCandidate, error) {
	if uc.log == nil {
		return []entities.FAQCandidate{}, nil
	}
	n, err := uc.log.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chat log: %w", err)
	}
	if n < faqMinLogRows {
		return []entities.FAQCandidate{}, nil
	}
	faq, err := uc.log.TopQuestions(ctx, faqMinFrequency, faqMaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("mining questions: %w", err)
	}
	return faq, nil
}

// Keywords returns the most frequent words. limit is clamped to 1..100
// and defaults to 10.
func (uc *InsightsUseCase) Keywords(ctx context.Context, limit int) ([]entities.KeywordCount, error) {
	if limit <= 0 {
		limit = defaultKeywordLimit
	}
	if limit > maxKeywordLimit {
		limit = maxKeywordLimit
	}
	if uc.log == nil {
		return []entities.KeywordCount{}, nil
	}
	kw, err := uc.log.TopKeywords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("counting keywords: %w", err)
	}
	return kw, nil
}
