package middleware_test

import (
	"testing"

	"github.com/aretw0/auticonnect/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactor_MasksSensitiveAnswers(t *testing.T) {
	r, err := middleware.NewRedactor(middleware.DefaultPIIPatterns)
	require.NoError(t, err)

	s := profileSession()
	s.Answers["details"] = map[string]any{"professionals": []string{"Dr. João"}, "city": "Recife"}

	out := r.Redact(s)
	assert.Equal(t, middleware.Mask, out.Answers["emergency_contacts"])
	assert.Equal(t, 30, out.Answers["age"])
	details := out.Answers["details"].(map[string]any)
	assert.Equal(t, middleware.Mask, details["professionals"])
	assert.Equal(t, "Recife", details["city"])

	// The input session is untouched.
	assert.Equal(t, []string{"Maria - Mãe - 123"}, s.Answers["emergency_contacts"])
	assert.Equal(t, []string{"Dr. João"}, s.Answers["details"].(map[string]any)["professionals"])
}

func TestNewRedactor_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactor([]string{"("})
	assert.Error(t, err)
}
