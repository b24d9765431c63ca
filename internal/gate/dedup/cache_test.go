package dedup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edgegate/checkpoint-agent/internal/gate/dedup"
)

func TestShouldSuppress_UnseenTag(t *testing.T) {
	c := dedup.New(time.Second)
	assert.False(t, c.ShouldSuppress("04AABBCCDD11"))
}

func TestShouldSuppress_WithinTTL(t *testing.T) {
	c := dedup.New(time.Second)
	c.MarkSeen("04AABBCCDD11")
	assert.True(t, c.ShouldSuppress("04AABBCCDD11"))
	assert.False(t, c.ShouldSuppress("04FFEEDDCC22"), "other tags are unaffected")
}

func TestShouldSuppress_ExpiresAfterTTL(t *testing.T) {
	c := dedup.New(30 * time.Millisecond)
	c.MarkSeen("04AABBCCDD11")

	assert.Eventually(t, func() bool {
		return !c.ShouldSuppress("04AABBCCDD11")
	}, time.Second, 10*time.Millisecond, "entry should expire")
}

func TestNew_ZeroTTLFallsBackToDefault(t *testing.T) {
	c := dedup.New(0)
	c.MarkSeen("04AABBCCDD11")
	// The default TTL is seconds long, so the entry is still present.
	assert.True(t, c.ShouldSuppress("04AABBCCDD11"))
}
