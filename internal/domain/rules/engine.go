// Package rules is the deterministic chatbot: keyword rules evaluated in a
// fixed priority order, first match wins. It is the default mode and the
// fallback target of the AI path, so it must never fail and depends on no
// external resource.
package rules

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

// Intents produced by the engine.
const (
	IntentGreeting      = "greeting"
	IntentServiceInfo   = "service_info"
	IntentPricingScope  = "pricing_scope"
	IntentDocumentCheck = "document_check"
	IntentTimeline      = "timeline"
	IntentBidProposal   = "bid_proposal"
	IntentLeadCapture   = "lead_capture"
	IntentServiceDetail = "service_detail"
	IntentFallback      = "fallback"
)

// serviceListSize is how many menu entries the service_info answer lists.
const serviceListSize = 8

// rule is one keyword rule. Keywords are matched as lowercase substrings.
type rule struct {
	intent      string
	keywords    []string
	content     string
	suggestions []string
}

// Engine implements ports.RuleResponder.
type Engine struct {
	menu  []entities.ServiceOffering
	rules []rule
}

// NewEngine creates a rule engine over the given service menu.
// An empty menu falls back to DefaultMenu.
func NewEngine(menu []entities.ServiceOffering) *Engine {
	if len(menu) == 0 {
		menu = DefaultMenu()
	}
	e := &Engine{menu: menu}
	e.rules = e.buildRules()
	return e
}

// Respond classifies message and returns the canned answer for the first
// matching rule, then the named-service lookup, then the generic fallback.
func (e *Engine) Respond(message string, sc entities.SessionContext) entities.ChatResponse {
	msg := strings.ToLower(message)

	for _, r := range e.rules {
		if containsAny(msg, r.keywords) {
			return respond(r.intent, r.content, r.suggestions)
		}
	}

	if svc, ok := e.lookupService(msg); ok {
		content := fmt.Sprintf("%s 서비스 안내입니다:\n\n• 난이도: %s급\n• 예시 비용: %s원\n• 설명: %s\n\n정확한 견적과 일정은 현재 상황에 따라 달라집니다. 상담을 통해 자세히 안내해 드리겠습니다.",
			svc.Name, svc.Difficulty, svc.PriceLabel, svc.Description)
		return respond(IntentServiceDetail, content, []string{"상담 신청", "다른 서비스 보기", "필요 서류 안내"})
	}

	return respond(IntentFallback,
		"죄송합니다. 정확히 이해하지 못했습니다.\n\n다음과 같이 도움을 드릴 수 있습니다:\n• 서비스 목록 안내\n• 가격 범주 설명\n• 필요 서류 안내\n• 처리 기간 안내\n• 상담 예약\n\n구체적으로 어떤 도움이 필요하신가요?",
		[]string{"서비스 목록", "가격 문의", "상담 신청"})
}

// ContextualSuggestions returns follow-up chips for AI-mode answers.
func (e *Engine) ContextualSuggestions(message string) []string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, []string{"연구소", "research"}):
		return []string{"연구소 설립 요건", "연구소 연장 절차", "연구개발비 혜택"}
	case containsAny(msg, []string{"벤처", "venture"}):
		return []string{"벤처기업 인증 유형", "벤처 투자 요건", "벤처 세제혜택"}
	case containsAny(msg, []string{"이노비즈", "innobiz"}):
		return []string{"이노비즈 신청 조건", "이노비즈 평가 기준", "이노비즈 혜택"}
	case containsAny(msg, []string{"입찰", "제안서", "발표", "bid"}):
		return []string{"입찰 분석 상담", "제안서 작성 문의", "발표 대행 상담"}
	case containsAny(msg, []string{"나라장터", "조달"}):
		return []string{"나라장터 등록 절차", "조달청 입찰", "공공조달 경험"}
	case containsAny(msg, []string{"가격", "비용"}):
		return []string{"구체적 견적 문의", "할인 프로그램", "패키지 상품"}
	}
	return []string{"빠른 상담 시작", "서비스 목록 보기", "성공 사례 보기"}
}

// lookupService does a bidirectional substring test between the message and
// each menu entry name.
func (e *Engine) lookupService(msg string) (entities.ServiceOffering, bool) {
	if msg == "" {
		return entities.ServiceOffering{}, false
	}
	for _, s := range e.menu {
		name := strings.ToLower(s.Name)
		if strings.Contains(msg, name) || strings.Contains(name, msg) {
			return s, true
		}
	}
	return entities.ServiceOffering{}, false
}

func (e *Engine) serviceList() string {
	n := serviceListSize
	if len(e.menu) < n {
		n = len(e.menu)
	}
	lines := make([]string, n)
	for i, s := range e.menu[:n] {
		lines[i] = fmt.Sprintf("• %s (%s급 · %s원)", s.Name, s.Difficulty, s.PriceLabel)
	}
	return strings.Join(lines, "\n")
}

// buildRules returns the rules in priority order. The order is a tie-break:
// a message with both 가격 and 상담 resolves to pricing_scope.
func (e *Engine) buildRules() []rule {
	return []rule{
		{
			intent:      IntentGreeting,
			keywords:    []string{"안녕", "hello", "hi"},
			content:     "안녕하세요! AI휴먼 상담 챗봇입니다. 어떤 행정 대행 서비스에 관심이 있으신가요?\n\n주요 서비스:\n• 연구소/벤처기업 등록\n• 이노비즈/메인비즈 인증\n• 나라장터 등록\n• 기타 행정 인증 대행",
			suggestions: []string{"서비스 목록 보기", "가격 문의", "필요 서류 안내"},
		},
		{
			intent:      IntentServiceInfo,
			keywords:    []string{"서비스", "목록", "뭐가", "어떤"},
			content:     "주요 대행 서비스 목록입니다:\n\n" + e.serviceList() + "\n\n더 자세한 정보가 필요하시면 구체적인 서비스명을 말씀해 주세요.",
			suggestions: []string{"가격 범주 설명", "필요 서류", "상담 신청"},
		},
		{
			intent:      IntentPricingScope,
			keywords:    []string{"가격", "비용", "얼마", "요금"},
			content:     "대행 서비스 가격 범주입니다:\n\n• 하급: 20-30만원 (차량등록, 간단한 신고)\n• 중급: 30-50만원 (이노비즈, 소프트웨어사업자)\n• 상급: 100-300만원 (연구소, 벤처기업, 나라장터)\n• 극상급: 200만원+ (GS인증 등 고난도)\n\n※ 실제 견적은 서류 상태와 진행 난이도에 따라 달라집니다.",
			suggestions: []string{"구체적 견적 문의", "서류 안내", "상담 예약"},
		},
		{
			intent:      IntentDocumentCheck,
			keywords:    []string{"서류", "문서", "준비", "필요"},
			content:     "일반적으로 필요한 서류들입니다:\n\n• 기본: 사업자등록증, 법인등기부등본\n• 재무: 재무제표, 세무신고서\n• 기술: 기술보유현황, 연구개발비 내역\n• 기타: 각 인증별 특수 서류\n\n정확한 서류 목록은 신청하시는 서비스에 따라 달라집니다. 구체적인 안내를 위해 상담을 신청해 주세요.",
			suggestions: []string{"상담 신청", "처리 기간 문의", "서비스 선택"},
		},
		{
			intent:      IntentTimeline,
			keywords:    []string{"기간", "시간", "언제", "얼마나"},
			content:     "일반적인 처리 기간입니다:\n\n• 하급 서비스: 1-2주\n• 중급 서비스: 2-4주\n• 상급 서비스: 4-8주\n• 극상급 서비스: 2-3개월\n\n※ 서류 준비 상태와 관련 기관 심사 일정에 따라 달라질 수 있습니다.",
			suggestions: []string{"상담 예약", "서비스 선택", "견적 문의"},
		},
		{
			intent:      IntentBidProposal,
			keywords:    []string{"입찰", "제안서", "발표", "공고", "bid"},
			content:     "입찰 제안서 대행 서비스 안내입니다:\n\n🔍 **입찰 제안서 분석**\n• 입찰공고문 정밀 분석\n• 평가기준 및 배점표 해석\n• 처리기간: 3-5일\n• 비용: 50만원~200만원\n\n✍️ **입찰 제안서 작성**\n• 기술제안서 전문 작성\n• 사업수행계획서 작성\n• 처리기간: 7-14일\n• 비용: 200만원~1,000만원\n\n🎤 **입찰 제안서 발표 대행**\n• 발표용 PPT 제작\n• 발표자 트레이닝\n• 처리기간: 3-7일\n• 비용: 100만원~500만원\n\n※ 프로젝트 규모에 따라 견적이 달라집니다. 상담을 통해 확정합니다.",
			suggestions: []string{"입찰 분석 상담", "제안서 작성 문의", "발표 대행 상담"},
		},
		{
			intent:      IntentLeadCapture,
			keywords:    []string{"상담", "문의", "신청", "예약"},
			content:     "전문 상담을 도와드리겠습니다!\n\n상담 신청을 위해 다음 정보를 알려주세요:\n• 성함\n• 연락처 (이메일 또는 전화번호)\n• 관심 있는 서비스\n• 희망 상담 일정\n\n입력하신 정보는 상담 목적으로만 사용되며, 개인정보 보호정책에 따라 안전하게 관리됩니다.",
			suggestions: []string{"개인정보 동의 후 신청", "서비스 더 알아보기"},
		},
	}
}

func respond(intent, content string, suggestions []string) entities.ChatResponse {
	return entities.ChatResponse{
		Content:     content,
		Mode:        entities.ModeRule,
		Sources:     []string{},
		Intent:      intent,
		Suggestions: append([]string(nil), suggestions...),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
