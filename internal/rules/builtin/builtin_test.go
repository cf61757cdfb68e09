package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

func TestRegistered(t *testing.T) {
	for _, key := range []string{RosterKey, ExamTemplateKey} {
		s, ok := rules.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, "builtin", s.Source)
		assert.NotEmpty(t, s.Rules)
	}
}

func TestRoster(t *testing.T) {
	s, err := rules.Lookup(RosterKey)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "department name"}, s.RequiredColumns())

	headers := []string{"name", "department name", "email"}
	rows := [][]string{
		{"張三", "研發部", "zhang@example.com"},
		{"李", "研發部", ""},
		{"王五", "業務部", "not-an-email"},
	}
	res := validation.Validate(headers, rows, s.Rules)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, validation.KindRange, res.Errors[0].Kind)
	assert.Equal(t, 3, res.Errors[1].Row)
	assert.Equal(t, validation.KindFormat, res.Errors[1].Kind)
	assert.Equal(t, 1, res.Summary.ValidRows)
}

func TestExamTemplate(t *testing.T) {
	s, err := rules.Lookup(ExamTemplateKey)
	require.NoError(t, err)

	headers := []string{"question", "type", "difficulty", "correct answer", "score"}
	tests := []struct {
		name string
		row  []string
		kind validation.Kind
	}{
		{"valid", []string{"What is 2 + 2?", "single_choice", "easy", "4", "10"}, ""},
		{"blank score allowed", []string{"Pick all primes", "multiple_choice", "medium", "2,3", ""}, ""},
		{"short question", []string{"Why?", "true_false", "hard", "true", ""}, validation.KindRange},
		{"bad type", []string{"Explain TCP", "essay", "hard", "-", ""}, validation.KindEnum},
		{"bad difficulty", []string{"Explain TCP", "single_choice", "Easy", "A", ""}, validation.KindEnum},
		{"score too high", []string{"Explain TCP", "single_choice", "easy", "A", "150"}, validation.KindRange},
		{"score not number", []string{"Explain TCP", "single_choice", "easy", "A", "ten"}, validation.KindType},
		{"missing answer", []string{"Explain TCP", "single_choice", "easy", "", ""}, validation.KindMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validation.Validate(headers, [][]string{tt.row}, s.Rules)
			if tt.kind == "" {
				assert.True(t, res.Valid, "%+v", res.Errors)
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.kind, res.Errors[0].Kind)
		})
	}
}
