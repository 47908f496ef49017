package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

func aiResponse(content string) entities.ChatResponse {
	return entities.ChatResponse{Content: content, Mode: entities.ModeAI, Sources: []string{}}
}

func TestKey_Normalizes(t *testing.T) {
	cases := map[string]string{
		"이노비즈 가격?":       "ai-이노비즈 가격",
		"GS인증!!":          "ai-gs인증",
		"ㅎㅎ 벤처 문의...":     "ai-ㅎㅎ 벤처 문의",
		"price: $300 / 月": "ai-price 300  ",
		"":                 "ai-",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(entities.ModeAI, in), in)
	}
}

func TestKey_DistinguishesMode(t *testing.T) {
	assert.NotEqual(t, Key(entities.ModeAI, "q"), Key(entities.ModeRule, "q"))
}

func TestResponseCache_GetPut(t *testing.T) {
	c := New(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", aiResponse("a"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "a", got.Content)

	c.Put("k", aiResponse("b"))
	got, _ = c.Get("k")
	assert.Equal(t, "b", got.Content)
	assert.Equal(t, 1, c.Len())
}

func TestResponseCache_EvictsOldestInsertion(t *testing.T) {
	c := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), aiResponse(fmt.Sprint(i)))
	}

	// reads must not refresh recency
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Put("k3", aiResponse("3"))

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("k0")
	assert.False(t, ok, "oldest insertion should be evicted")
	assert.Equal(t, []string{"k1", "k2", "k3"}, c.lru.Keys())
}

func TestResponseCache_CapacityNeverExceeded(t *testing.T) {
	c := New(DefaultCapacity, time.Minute)

	for i := 0; i < 250; i++ {
		c.Put(fmt.Sprintf("k%d", i), aiResponse("x"))
		assert.LessOrEqual(t, c.Len(), DefaultCapacity)
	}
}

func TestResponseCache_Expires(t *testing.T) {
	c := New(10, 50*time.Millisecond)
	c.Put("k", aiResponse("a"))

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, 0)

	for i := 0; i < DefaultCapacity+1; i++ {
		c.Put(fmt.Sprint(i), aiResponse("x"))
	}
	assert.Equal(t, DefaultCapacity, c.Len())
}
