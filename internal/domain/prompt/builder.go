// Package prompt assembles the system prompt sent on the AI path.
package prompt

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

// policyHeader is sent on every AI call unchanged.
const policyHeader = `너는 'AI휴먼'의 B2B 대행 플랫폼 상담원이다.

## 역할과 서비스
- 서비스: 행정·인증 대행(연구소·벤처·이노·메인비즈·GS·나라장터 등), 홀로그램 사이니지, 키오스크
- 답변 원칙: 정확·간결·정중, 한국어 기본, 과장 금지, 법적 확정 표현 금지
- 개인정보 요청 시 동의 고지 필수

## 답변 가이드라인
- 결과는 "예시/일반적 범주" 기준으로 안내
- 구체 견적은 상담으로 유도
- 자료가 불충분하면 추가질문 후 요약·선택지 제시
- 응답 형식: 짧은 요약 → 항목형 단계(최대 5개) → CTA("빠른 상담 시작")

## 법적 한계
- "가능/예시/권장" 등의 표현 사용
- 법률·행정 확정 표현 피하기
- 민감 주제 시 일반 가이드 + 전문가 상담 권유`

const (
	knowledgeHeading = "## 참고 자료"
	pricingHeading   = "## 가격 정보 (참고용)"

	// Citation labels returned alongside AI answers.
	GuideSource = "서비스 가이드 v2025-08"
	PriceSource = "가격표 v1.2"
)

// Builder implements ports.PromptBuilder.
type Builder struct {
	printer *message.Printer
}

// NewBuilder creates a prompt builder that formats prices for the Korean locale.
func NewBuilder() *Builder {
	return &Builder{printer: message.NewPrinter(language.Korean)}
}

// Build renders the header followed by the reference and pricing blocks.
// Blocks without rows are left out entirely.
func (b *Builder) Build(knowledge []entities.KnowledgeResult, pricing []entities.PricingMatch) string {
	var sb strings.Builder
	sb.WriteString(policyHeader)

	if len(knowledge) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(knowledgeHeading)
		sb.WriteString("\n")
		for _, r := range knowledge {
			sb.WriteString("### ")
			sb.WriteString(r.Key)
			sb.WriteString("\n")
			for _, s := range r.Snippets {
				sb.WriteString(s.Text)
				sb.WriteString("\n\n")
			}
		}
	}

	if len(pricing) > 0 {
		sb.WriteString("\n")
		sb.WriteString(pricingHeading)
		sb.WriteString("\n")
		for _, p := range pricing {
			sb.WriteString("- " + p.Name + ": " + b.formatPrice(p.BasePrice) + " (" + p.Timeframe + ")\n")
			sb.WriteString("  ")
			sb.WriteString(p.Description)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// formatPrice renders an amount with thousands separators, e.g. 1,000,000원.
func (b *Builder) formatPrice(amount int64) string {
	return b.printer.Sprintf("%d원", amount)
}

// Sources lists one guide citation per knowledge hit and one price-table
// citation when pricing rows were used.
func (b *Builder) Sources(knowledge []entities.KnowledgeResult, pricing []entities.PricingMatch) []string {
	sources := make([]string, 0, len(knowledge)+1)
	for range knowledge {
		sources = append(sources, GuideSource)
	}
	if len(pricing) > 0 {
		sources = append(sources, PriceSource)
	}
	return sources
}
