package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

func TestBuilder_HeaderOnlyWhenNothingRetrieved(t *testing.T) {
	b := NewBuilder()

	got := b.Build(nil, nil)

	assert.Equal(t, policyHeader, got)
	assert.NotContains(t, got, knowledgeHeading)
	assert.NotContains(t, got, pricingHeading)
}

func TestBuilder_KnowledgeBlock(t *testing.T) {
	b := NewBuilder()
	knowledge := []entities.KnowledgeResult{{
		Key:   "innobiz",
		Score: 3,
		Snippets: []entities.ScoredSnippet{
			{Text: "이노비즈 신청 조건", Score: 2},
			{Text: "이노비즈 평가", Score: 1},
		},
	}}

	got := b.Build(knowledge, nil)

	require.True(t, strings.HasPrefix(got, policyHeader))
	assert.Contains(t, got, knowledgeHeading+"\n### innobiz\n이노비즈 신청 조건\n\n이노비즈 평가\n\n")
	assert.NotContains(t, got, pricingHeading)
}

func TestBuilder_PricingBlockFormatsPrice(t *testing.T) {
	b := NewBuilder()
	pricing := []entities.PricingMatch{{
		PricedService: entities.PricedService{
			Name:        "나라장터 등록",
			Description: "국가종합전자조달시스템 등록",
			BasePrice:   3000000,
			Timeframe:   "2-4주",
		},
		Score: 1,
	}}

	got := b.Build(nil, pricing)

	assert.Contains(t, got, "- 나라장터 등록: 3,000,000원 (2-4주)\n  국가종합전자조달시스템 등록\n")
	assert.NotContains(t, got, knowledgeHeading)
}

func TestBuilder_KnowledgeBeforePricing(t *testing.T) {
	b := NewBuilder()
	knowledge := []entities.KnowledgeResult{{Key: "guide", Snippets: []entities.ScoredSnippet{{Text: "x"}}}}
	pricing := []entities.PricingMatch{{PricedService: entities.PricedService{Name: "GS 인증", BasePrice: 2000000}}}

	got := b.Build(knowledge, pricing)

	assert.Less(t, strings.Index(got, knowledgeHeading), strings.Index(got, pricingHeading))
}

func TestBuilder_Deterministic(t *testing.T) {
	b := NewBuilder()
	knowledge := []entities.KnowledgeResult{{Key: "a", Snippets: []entities.ScoredSnippet{{Text: "t"}}}}

	assert.Equal(t, b.Build(knowledge, nil), b.Build(knowledge, nil))
}

func TestBuilder_FormatPrice(t *testing.T) {
	b := NewBuilder()

	assert.Equal(t, "1,000,000원", b.formatPrice(1000000))
	assert.Equal(t, "500원", b.formatPrice(500))
}

func TestBuilder_Sources(t *testing.T) {
	b := NewBuilder()
	knowledge := []entities.KnowledgeResult{{Key: "a"}, {Key: "b"}}
	pricing := []entities.PricingMatch{{}}

	assert.Equal(t, []string{GuideSource, GuideSource, PriceSource}, b.Sources(knowledge, pricing))
	assert.Empty(t, b.Sources(nil, nil))
	assert.NotNil(t, b.Sources(nil, nil))
}
