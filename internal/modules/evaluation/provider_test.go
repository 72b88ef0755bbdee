package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appcfg "github.com/uidex/core/internal/config"
)

func TestSelectProvider(t *testing.T) {
	cfg := appcfg.AIConfig{
		Providers: []appcfg.AIProvider{
			{ID: "a", Name: "disabled", Type: "OpenAI", Enabled: false},
			{ID: "b", Name: "first", Type: "OpenAI", DefaultModel: "gpt-4o", Enabled: true},
			{ID: "c", Name: "second", Type: "Anthropic", DefaultModel: "claude-sonnet-4-5", Enabled: true},
		},
	}

	t.Run("falls back to first enabled", func(t *testing.T) {
		p := selectProvider(cfg, nil)
		require.NotNil(t, p)
		assert.Equal(t, "b", p.ID)
	})

	t.Run("honors assignment", func(t *testing.T) {
		p := selectProvider(cfg, &appcfg.AIModelAssignment{ProviderID: "c"})
		require.NotNil(t, p)
		assert.Equal(t, "c", p.ID)
		assert.Equal(t, "claude-sonnet-4-5", p.DefaultModel)
	})

	t.Run("assignment model overrides default", func(t *testing.T) {
		p := selectProvider(cfg, &appcfg.AIModelAssignment{ProviderID: "b", Model: "gpt-4.1"})
		require.NotNil(t, p)
		assert.Equal(t, "gpt-4.1", p.DefaultModel)
	})

	t.Run("unknown assignment falls back", func(t *testing.T) {
		p := selectProvider(cfg, &appcfg.AIModelAssignment{ProviderID: "zzz"})
		require.NotNil(t, p)
		assert.Equal(t, "b", p.ID)
	})

	t.Run("no enabled providers", func(t *testing.T) {
		assert.Nil(t, selectProvider(appcfg.AIConfig{}, nil))
	})
}

func TestIsPlaceholderKey(t *testing.T) {
	for _, key := range []string{"", "   ", "your-api-key", "sk-xxxxxxxx", "CHANGEME", "<api key here>", "sk-example-123"} {
		assert.True(t, isPlaceholderKey(key), "key %q should be rejected", key)
	}
	for _, key := range []string{"sk-proj-abc123def", "sk-ant-api03-realkey"} {
		assert.False(t, isPlaceholderKey(key), "key %q should be accepted", key)
	}
}

func TestNewInvokerConfigurationErrors(t *testing.T) {
	opts := appcfg.EvaluationOptions{}

	_, err := NewInvoker(nil, opts, nil)
	assert.True(t, IsConfigurationError(err))

	_, err = NewInvoker(&appcfg.AIProvider{Name: "p", Type: "OpenAI", APIKey: "your-api-key"}, opts, nil)
	require.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "placeholder")

	_, err = NewInvoker(&appcfg.AIProvider{Name: "p", Type: "OpenAI", APIKey: "sk-proj-realkey123"}, opts, nil)
	assert.NoError(t, err)
}

func TestNormalizeProviderType(t *testing.T) {
	assert.True(t, isAnthropicProviderType("Anthropic"))
	assert.True(t, isAnthropicProviderType(" anthropic "))
	assert.True(t, isOpenAICompatibleProviderType("OpenAI-Compatible"))
	assert.True(t, isOpenAICompatibleProviderType("openai_compatible"))
	assert.False(t, isOpenAICompatibleProviderType("OpenAI"))
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", normalizeOpenAIBaseURL(""))
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com"))
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com/v1/"))
}

func TestNormalizeOpenAICompatibleEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com", normalizeOpenAICompatibleEndpoint(""))
	assert.Equal(t, "https://llm.internal", normalizeOpenAICompatibleEndpoint("https://llm.internal/v1"))
	assert.Equal(t, "https://llm.internal", normalizeOpenAICompatibleEndpoint("https://llm.internal/"))
}
