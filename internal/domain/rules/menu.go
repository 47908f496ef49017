package rules

import "github.com/0xcro3dile/bizchat-go/internal/domain/entities"

// DefaultMenu returns the built-in service menu used by named-service lookup.
func DefaultMenu() []entities.ServiceOffering {
	return []entities.ServiceOffering{
		{Name: "연구소 신설·연장", Difficulty: "상", PriceLabel: "100만", Description: "연구소 설립 및 연장 신청 대행"},
		{Name: "벤처기업 등록·연장", Difficulty: "상", PriceLabel: "100만", Description: "벤처기업 확인 등록 및 연장"},
		{Name: "전문연구기관 등록·연장", Difficulty: "상", PriceLabel: "200만", Description: "전문연구기관 신규 등록 및 연장"},
		{Name: "이노비즈 등록·연장", Difficulty: "중", PriceLabel: "50만", Description: "기술혁신형 중소기업 인증"},
		{Name: "메인비즈 등록·연장", Difficulty: "중", PriceLabel: "50만", Description: "주력기업 확인 등록"},
		{Name: "중소기업확인증 등록·연장", Difficulty: "중", PriceLabel: "30만", Description: "중소기업 확인서 발급 대행"},
		{Name: "직접생산증명원 등록·연장", Difficulty: "중", PriceLabel: "30만", Description: "직접생산 증명서 발급"},
		{Name: "하이서울 인증", Difficulty: "상", PriceLabel: "100만", Description: "서울시 우수기업 인증"},
		{Name: "강소기업 등록", Difficulty: "상", PriceLabel: "100만", Description: "강소기업 확인 등록"},
		{Name: "GS 인증 등록", Difficulty: "극상", PriceLabel: "200만", Description: "GS(Good Software) 인증"},
		{Name: "나라장터 등록", Difficulty: "상", PriceLabel: "300만", Description: "국가종합전자조달시스템 등록"},
		{Name: "소프트웨어 사업자 등록", Difficulty: "중", PriceLabel: "30만", Description: "SW사업자 신고 대행"},
		{Name: "차량 등록·이전", Difficulty: "하", PriceLabel: "20만", Description: "자동차 등록 및 이전 대행"},
		{Name: "통신판매업 신고", Difficulty: "중", PriceLabel: "30만", Description: "온라인 판매업 신고"},
		{Name: "공장등록", Difficulty: "중", PriceLabel: "50만", Description: "제조업 공장 등록 신청"},
	}
}
