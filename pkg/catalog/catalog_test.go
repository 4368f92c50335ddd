package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Features, 11)
	assert.Len(t, c.Providers, 3)
	assert.Equal(t, "Chatbot", c.FeatureLabel("tokens_chatbots"))
	assert.Equal(t, "tokens_unknown", c.FeatureLabel("tokens_unknown"))
	assert.True(t, c.HasFeature("tokens_forms"))
	assert.Equal(t, []int{-1, 0, 1, 2, 3, 4, 5}, c.ReasonCodes())
}

func TestReasonLabel(t *testing.T) {
	c := Default()
	tests := []struct {
		code int64
		want string
	}{
		{-1, "Not specified"},
		{0, "Requires third-party APIs"},
		{4, "Missing features in the free version"},
		{5, "Other"},
		{6, UnknownReason},
		{-7, UnknownReason},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ReasonLabel(tt.code), "code %d", tt.code)
	}
}

func TestParse(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		c, err := Parse([]byte(`
features:
  - key: tokens_chatbots
    label: Chat
correlation_features: [tokens_chatbots]
`))
		require.NoError(t, err)
		assert.Equal(t, "Chat", c.FeatureLabel("tokens_chatbots"))
		assert.Len(t, c.Providers, 3)
		assert.Equal(t, "Other", c.ReasonLabel(5))
	})

	t.Run("reason overrides", func(t *testing.T) {
		c, err := Parse([]byte("reasons:\n  7: Too expensive\n"))
		require.NoError(t, err)
		assert.Equal(t, "Too expensive", c.ReasonLabel(7))
		assert.Equal(t, UnknownReason, c.ReasonLabel(5))
	})

	invalid := map[string]string{
		"bad key":           "features:\n  - key: chatbots\n    label: Chat\n",
		"missing label":     "features:\n  - key: tokens_chatbots\n",
		"duplicate feature": "features:\n  - {key: tokens_a, label: A}\n  - {key: tokens_a, label: B}\ncorrelation_features: [tokens_a]\n",
		"bad correlation":   "correlation_features: [tokens_nope]\n",
		"malformed yaml":    "features: [",
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - {key: apikey, label: OpenAI}\n"), 0o644))

	s, err := NewStore(path, logrus.New())
	require.NoError(t, err)
	assert.Len(t, s.Current().Providers, 1)

	require.NoError(t, os.WriteFile(path, []byte("features: ["), 0o644))
	assert.Error(t, s.Reload())
	assert.Len(t, s.Current().Providers, 1, "invalid file keeps previous catalog")

	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - {key: apikey, label: OpenAI}\n  - {key: gemini_api_key, label: Gemini}\n"), 0o644))
	require.NoError(t, s.Reload())
	assert.Len(t, s.Current().Providers, 2)
}

func TestStore_DefaultsWithoutPath(t *testing.T) {
	s, err := NewStore("", nil)
	require.NoError(t, err)
	assert.Len(t, s.Current().Features, 11)
	assert.NoError(t, s.Reload())
	assert.NoError(t, s.Watch(context.Background()))
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reasons:\n  1: Hard\n"), 0o644))

	s, err := NewStore(path, logrus.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("reasons:\n  1: Confusing\n"), 0o644))

	assert.Eventually(t, func() bool {
		return s.Current().ReasonLabel(1) == "Confusing"
	}, 5*time.Second, 20*time.Millisecond)
}
