package httputil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?date_from=2024-01-01&plan=+pro+", nil)
	assert.Equal(t, "2024-01-01", ParseParamString(req, "date_from", ""))
	assert.Equal(t, "pro", ParseParamString(req, "plan", ""))
	assert.Equal(t, "all", ParseParamString(req, "feature", "all"))
}

func TestParseParamString_Form(t *testing.T) {
	form := url.Values{"date_to": {"2024-02-01"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "2024-02-01", ParseParamString(req, "date_to", ""))
}

func TestParseParamInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"default", "", 50, false},
		{"valid", "per_page=20", 20, false},
		{"invalid", "per_page=lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := ParseParamInt(req, "per_page", 50)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParamBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?refresh=true&bad=maybe", nil)
	v, err := ParseParamBool(req, "refresh", false)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = ParseParamBool(req, "bad", false)
	assert.Error(t, err)

	v, err = ParseParamBool(req, "missing", true)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header  string
		want    string
		wantErr bool
	}{
		"valid":        {"Bearer abc123", "abc123", false},
		"lowercase":    {"bearer abc123", "abc123", false},
		"missing":      {"", "", true},
		"wrong scheme": {"Basic dXNlcg==", "", true},
		"empty token":  {"Bearer  ", "", true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
