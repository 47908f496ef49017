package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_MasksPhoneNumbers(t *testing.T) {
	f := NewFilter()

	assert.Equal(t, "연락처는 ***-****-**** 입니다", f.Mask("연락처는 010-1234-5678 입니다"))
	assert.Equal(t, "***-****-****", f.Mask("02.123.4567"))
	assert.Equal(t, "전화***-****-****", f.Mask("전화031 9876 5432"))
}

func TestFilter_MasksEmails(t *testing.T) {
	f := NewFilter()

	assert.Equal(t, "메일 ***@***.*** 로 회신", f.Mask("메일 ceo@example.co.kr 로 회신"))
}

func TestFilter_MasksNameKeepingHonorific(t *testing.T) {
	f := NewFilter()

	assert.Equal(t, "***님 안녕하세요", f.Mask("홍길동님 안녕하세요"))
	assert.Equal(t, "저는 *** 대표입니다", f.Mask("저는 김철수 대표입니다"))
	assert.Equal(t, "***과장에게 전달", f.Mask("이영희과장에게 전달"))
}

func TestFilter_LeavesOrdinaryTextAlone(t *testing.T) {
	f := NewFilter()

	for _, s := range []string{
		"이노비즈 인증 가격이 얼마인가요",
		"안녕하세요",
		"처리 기간은 2-4주",
		"version 1.2.3",
	} {
		assert.Equal(t, s, f.Mask(s), s)
		assert.False(t, f.Contains(s), s)
	}
}

func TestFilter_Contains(t *testing.T) {
	f := NewFilter()

	assert.True(t, f.Contains("010-1234-5678"))
	assert.True(t, f.Contains("a.b@c.io"))
	assert.True(t, f.Contains("박지성 씨"))
	assert.False(t, f.Contains("서비스 목록"))
}

func TestFilter_MaskIsIdempotent(t *testing.T) {
	f := NewFilter()

	inputs := []string{
		"홍길동님 010-1234-5678 hong@test.com",
		"김철수님이영희씨",
		"최대표님",
		"010-1234-5678-9999",
		"a010-1234-5678@x.com",
		"이사 대표 과장 부장 님 씨",
		"",
		"***님",
		"연락 02-123-4567이고 메일은 x@y.kr 김민수부장",
	}
	for _, in := range inputs {
		once := f.Mask(in)
		assert.Equal(t, once, f.Mask(once), "input %q", in)
	}
}

func TestFilter_MaskedOutputHasNoPII(t *testing.T) {
	f := NewFilter()

	masked := f.Mask("홍길동님 010-1234-5678 hong@test.com")

	assert.False(t, f.Contains(masked), masked)
	assert.NotContains(t, masked, "홍길동")
	assert.NotContains(t, masked, "5678")
	assert.NotContains(t, masked, "hong@")
}

func TestFilter_MasksNameGluedToPrecedingWord(t *testing.T) {
	f := NewFilter()

	cases := map[string]string{
		"저는홍길동님":      "홍길동",
		"안녕하세요홍길동님":   "홍길동",
		"담당자김철수대표":    "김철수",
		"문의드립니다이영희과장": "이영희",
	}
	for in, name := range cases {
		assert.True(t, f.Contains(in), in)

		masked := f.Mask(in)
		assert.NotContains(t, masked, name, in)
		assert.Contains(t, masked, maskedName, in)
		assert.False(t, f.Contains(masked), "masked %q", masked)
		assert.Equal(t, masked, f.Mask(masked), "idempotent for %q", in)
	}

	assert.Equal(t, "저***님", f.Mask("저는홍길동님"))
	assert.Equal(t, "담당***대표", f.Mask("담당자김철수대표"))
}
