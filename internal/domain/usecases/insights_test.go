package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

// mockInsightLog implements the chat log read side for testing
type mockInsightLog struct {
	rows      int
	questions []entities.FAQCandidate
	keywords  []entities.KeywordCount
	err       error

	gotMinCount, gotLimit, gotKeywordLimit int
}

func (m *mockInsightLog) Count(ctx context.Context) (int, error) { return m.rows, m.err }

func (m *mockInsightLog) TopQuestions(ctx context.Context, minCount, limit int) ([]entities.FAQCandidate, error) {
	m.gotMinCount, m.gotLimit = minCount, limit
	return m.questions, nil
}

func (m *mockInsightLog) TopKeywords(ctx context.Context, limit int) ([]entities.KeywordCount, error) {
	m.gotKeywordLimit = limit
	return m.keywords, m.err
}

func TestInsightsUseCase_FAQNeedsTenRows(t *testing.T) {
	log := &mockInsightLog{rows: 9, questions: []entities.FAQCandidate{{Question: "q", Frequency: 3}}}
	uc := NewInsightsUseCase(log)

	faq, err := uc.FAQ(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, faq)
	assert.Empty(t, faq)
}

func TestInsightsUseCase_FAQ(t *testing.T) {
	log := &mockInsightLog{rows: 10, questions: []entities.FAQCandidate{{Question: "이노비즈 인증 기간은 얼마나 걸리나요", Frequency: 4, Suggested: true}}}
	uc := NewInsightsUseCase(log)

	faq, err := uc.FAQ(context.Background())

	require.NoError(t, err)
	require.Len(t, faq, 1)
	assert.Equal(t, 3, log.gotMinCount)
	assert.Equal(t, 5, log.gotLimit)
}

func TestInsightsUseCase_FAQError(t *testing.T) {
	uc := NewInsightsUseCase(&mockInsightLog{err: errors.New("db closed")})

	_, err := uc.FAQ(context.Background())

	assert.Error(t, err)
}

func TestInsightsUseCase_KeywordLimits(t *testing.T) {
	log := &mockInsightLog{}
	uc := NewInsightsUseCase(log)

	uc.Keywords(context.Background(), 0)
	assert.Equal(t, 10, log.gotKeywordLimit)

	uc.Keywords(context.Background(), 1000)
	assert.Equal(t, 100, log.gotKeywordLimit)

	uc.Keywords(context.Background(), 7)
	assert.Equal(t, 7, log.gotKeywordLimit)
}

func TestInsightsUseCase_Disabled(t *testing.T) {
	uc := NewInsightsUseCase(nil)

	faq, err := uc.FAQ(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, faq)
	assert.Empty(t, faq)

	kw, err := uc.Keywords(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, kw)
}
