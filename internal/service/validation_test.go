package service

import (
	"testing"
	"time"

	"cuerpofit_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberQuestion(min, max, step float64) *model.Question {
	return &model.Question{
		ID:   "weight",
		Type: model.QuestionNumber,
		Validation: &model.Validation{
			Min:  fptr(min),
			Max:  fptr(max),
			Step: fptr(step),
		},
	}
}

func TestValidateNumberRange(t *testing.T) {
	q := numberQuestion(30, 400, 0.1)
	now := time.Now()

	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "weight", Text: "82.5"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "weight", Text: "20"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "weight", Text: "500"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "weight", Text: "ochenta"}, now))
}

func TestValidateNumberStepTolerance(t *testing.T) {
	q := numberQuestion(100, 250, 1)
	now := time.Now()

	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "h", Text: "178"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "h", Text: "178.5"}, now))

	// Accumulated float error within 1e-6 of a step boundary passes.
	q = numberQuestion(30, 400, 0.1)
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "w", Text: "82.3"}, now))
}

func TestValidateNumberCommaDecimal(t *testing.T) {
	q := numberQuestion(30, 400, 0.1)
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "w", Text: "82,5"}, time.Now()))

	v, err := parseDecimal(" 82,5 ")
	require.NoError(t, err)
	assert.InDelta(t, 82.5, v, 1e-9)
}

func TestValidateEmptyValuePasses(t *testing.T) {
	q := numberQuestion(30, 400, 0.1)
	assert.NoError(t, validateAnswer(q, nil, time.Now()))
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "w", Text: "   "}, time.Now()))
}

func TestValidatePatternFailsOpen(t *testing.T) {
	q := &model.Question{
		ID:         "email",
		Type:       model.QuestionText,
		Validation: &model.Validation{Pattern: `([unclosed`},
	}
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "email", Text: "whatever"}, time.Now()))

	q.Validation.Pattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "email", Text: "ana@example.com"}, time.Now()))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "email", Text: "no-arroba"}, time.Now()))
}

func TestValidateLength(t *testing.T) {
	q := &model.Question{
		ID:         "full_name",
		Type:       model.QuestionText,
		Validation: &model.Validation{MinLength: 3, MaxLength: 10},
	}
	now := time.Now()
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "n", Text: "Al"}, now))
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "n", Text: "Ana López"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "n", Text: "Ana María Pérez"}, now))
}

func TestValidateAgeCalendarBoundary(t *testing.T) {
	q := &model.Question{
		ID:         "birthday",
		Type:       model.QuestionDate,
		Validation: &model.Validation{MinAge: 14, MaxAge: 99},
	}
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	// Birthday today: exactly 14.
	assert.NoError(t, validateAnswer(q, &model.StoredAnswer{ID: "b", Text: "2012-06-15"}, now))
	// Birthday tomorrow: still 13.
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "b", Text: "2012-06-16"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "b", Text: "1900-01-01"}, now))
	assert.Error(t, validateAnswer(q, &model.StoredAnswer{ID: "b", Text: "mañana"}, now))
}

func TestValidateSubFieldPatterns(t *testing.T) {
	q := &model.Question{
		ID:   "whatsapp",
		Type: model.QuestionPhone,
		SubFields: []model.SubField{
			{ID: "country_code", Pattern: `^\d{1,3}$`},
			{ID: "number", Pattern: `^\d{6,12}$`},
		},
	}
	now := time.Now()

	ok := &model.StoredAnswer{ID: "whatsapp", FieldValues: map[string]string{
		"country_code": "54", "number": "1155873035",
	}}
	assert.NoError(t, validateAnswer(q, ok, now))

	bad := &model.StoredAnswer{ID: "whatsapp", FieldValues: map[string]string{
		"country_code": "54", "number": "abc",
	}}
	assert.Error(t, validateAnswer(q, bad, now))

	// Empty sub-fields are a completeness concern, not a format error.
	partial := &model.StoredAnswer{ID: "whatsapp", FieldValues: map[string]string{"country_code": "54"}}
	assert.NoError(t, validateAnswer(q, partial, now))
}

func TestParseDateLayouts(t *testing.T) {
	for _, text := range []string{"1990-01-15", "1990-01-15T00:00:00Z", "15/01/1990"} {
		d, err := parseDate(text)
		require.NoError(t, err, text)
		assert.Equal(t, 1990, d.Year())
		assert.Equal(t, time.January, d.Month())
		assert.Equal(t, 15, d.Day())
	}
	_, err := parseDate("15 de enero")
	assert.Error(t, err)
}
