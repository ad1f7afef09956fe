package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, DefaultMaxOutputTokens, config.MaxOutputTokens)
	assert.Equal(t, DefaultCallTimeout, config.Timeout())
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	config.CallTimeout = 5 * time.Second
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))
	assert.Equal(t, config.GetModel(TierLite), newConfig.GetModel(TierLite))
	assert.Equal(t, 5*time.Second, newConfig.Timeout())
}

func TestTimeout(t *testing.T) {
	var nilConfig *Config
	assert.Equal(t, DefaultCallTimeout, nilConfig.Timeout())
	assert.Equal(t, DefaultCallTimeout, (&Config{}).Timeout())
	assert.Equal(t, time.Second, (&Config{CallTimeout: time.Second}).Timeout())
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, TierStandard, o.Tier)
	assert.False(t, o.JSON)
	assert.Nil(t, o.Temperature)

	o = ApplyOptions(WithTier(TierLite), WithJSON(), WithMaxTokens(64), WithTemperature(0.5))
	assert.Equal(t, TierLite, o.Tier)
	assert.True(t, o.JSON)
	assert.Equal(t, 64, o.MaxTokens)
	if assert.NotNil(t, o.Temperature) {
		assert.InDelta(t, 0.5, *o.Temperature, 1e-6)
	}
}
