package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Backoff tests

func TestBackoff_ReadyByDefault(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)
	assert.True(t, b.Ready())
}

func TestBackoff_FailureClosesGate(t *testing.T) {
	b := NewBackoff(time.Minute, time.Hour)
	b.Failure()
	assert.False(t, b.Ready())
}

func TestBackoff_GateReopensAfterDelay(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, time.Second)
	b.Failure()
	assert.False(t, b.Ready())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Ready())
}

func TestBackoff_SuccessResets(t *testing.T) {
	b := NewBackoff(time.Minute, time.Hour)
	b.Failure()
	b.Failure()
	b.Success()

	assert.True(t, b.Ready())
	assert.Equal(t, uint(0), b.failures)
}

func TestBackoff_DelayDoublesAndCaps(t *testing.T) {
	b := NewBackoff(time.Second, 4*time.Second)

	assert.Equal(t, time.Second, b.delayLocked())
	b.failures = 1
	assert.Equal(t, 2*time.Second, b.delayLocked())
	b.failures = 2
	assert.Equal(t, 4*time.Second, b.delayLocked())
	b.failures = 10
	assert.Equal(t, 4*time.Second, b.delayLocked())
}

func TestBackoff_InvalidConfigNormalized(t *testing.T) {
	b := NewBackoff(0, 0)
	assert.Equal(t, time.Second, b.base)
	assert.Equal(t, time.Second, b.max)
}

// Device ID tests

func TestGenerateDeviceID(t *testing.T) {
	id := GenerateDeviceID()
	assert.True(t, strings.HasPrefix(id, "gate-"))
	assert.Len(t, id, len("gate-")+8)

	assert.NotEqual(t, id, GenerateDeviceID())
}
