package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("calling provider: %w", NewAIError(ErrNetwork, cause))

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)

	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "network", aiErr.Reason())
}

func TestAIError_WithoutCause(t *testing.T) {
	err := NewAIError(ErrConfig, nil)

	assert.Equal(t, ErrConfig.Error(), err.Error())
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, "config", err.Reason())
}

func TestAIError_Reasons(t *testing.T) {
	cases := map[error]string{
		ErrBudgetExceeded: "budget_exceeded",
		ErrTimeout:        "timeout",
		ErrProvider:       "provider",
		ErrResponseParse:  "response_parse",
		errors.New("x"):   "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, NewAIError(kind, nil).Reason())
	}
}

func TestChatResponse_OmitsEmptyOptionalFields(t *testing.T) {
	resp := ChatResponse{Content: "안녕하세요", Mode: ModeRule, Sources: []string{}}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"mode":"rule"`)
	assert.Contains(t, s, `"sources":[]`)
	assert.NotContains(t, s, "fallbackReason")
	assert.NotContains(t, s, "suggestions")
}

func TestChatRequest_DecodesClientPayload(t *testing.T) {
	payload := `{"message":"가격 문의","aiMode":true,"history":[{"role":"user","message":"안녕"}]}`

	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, "가격 문의", req.Message)
	assert.True(t, req.AIMode)
	require.Len(t, req.History, 1)
	assert.Equal(t, "user", req.History[0].Role)
}
