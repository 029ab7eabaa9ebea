package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cuerpofit_backend/internal/model"
)

const stepTolerance = 1e-6

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// validateAnswer applies the format/range rules of a question to its
// stored answer. Required-ness and structural completeness are checked
// separately by the advance protocol; an empty value always passes here.
func validateAnswer(q *model.Question, a *model.StoredAnswer, now time.Time) error {
	if a == nil {
		return nil
	}

	if len(q.SubFields) > 0 {
		for _, sf := range q.SubFields {
			text := strings.TrimSpace(a.FieldValues[sf.ID])
			if text == "" {
				continue
			}
			if err := validatePattern(sf.Pattern, text); err != nil {
				return err
			}
		}
		return nil
	}

	text := strings.TrimSpace(a.Text)
	if text == "" {
		return nil
	}

	v := q.Validation
	if v != nil {
		if err := validatePattern(v.Pattern, text); err != nil {
			return err
		}
		if err := validateLength(v, text); err != nil {
			return err
		}
	}

	switch q.Type {
	case model.QuestionNumber:
		return validateNumber(v, text)
	case model.QuestionDate:
		return validateAge(v, text, now)
	}

	return nil
}

// validatePattern fails open: a pattern that does not compile is treated
// as always matching.
func validatePattern(pattern, text string) error {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	if !re.MatchString(text) {
		return fmt.Errorf("El formato ingresado no es válido.")
	}
	return nil
}

func validateLength(v *model.Validation, text string) error {
	if v.MinLength > 0 && len([]rune(text)) < v.MinLength {
		return fmt.Errorf("Ingresá al menos %d caracteres.", v.MinLength)
	}
	if v.MaxLength > 0 && len([]rune(text)) > v.MaxLength {
		return fmt.Errorf("Ingresá como máximo %d caracteres.", v.MaxLength)
	}
	return nil
}

// parseDecimal tolerates a comma as the decimal separator.
func parseDecimal(text string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
}

func validateNumber(v *model.Validation, text string) error {
	value, err := parseDecimal(text)
	if err != nil {
		return fmt.Errorf("Ingresá un número válido.")
	}
	if v == nil {
		return nil
	}
	if v.Min != nil && value < *v.Min {
		return fmt.Errorf("El valor debe ser al menos %s.", formatNumber(*v.Min))
	}
	if v.Max != nil && value > *v.Max {
		return fmt.Errorf("El valor debe ser como máximo %s.", formatNumber(*v.Max))
	}
	if v.Step != nil && *v.Step > 0 {
		base := 0.0
		if v.Min != nil {
			base = *v.Min
		}
		ratio := (value - base) / *v.Step
		if math.Abs(ratio-math.Round(ratio)) > stepTolerance {
			return fmt.Errorf("El valor debe avanzar de a %s.", formatNumber(*v.Step))
		}
	}
	return nil
}

func validateAge(v *model.Validation, text string, now time.Time) error {
	dob, err := parseDate(text)
	if err != nil {
		return fmt.Errorf("Ingresá una fecha válida.")
	}

	age := ageInYears(dob, now)
	if age < 0 {
		return fmt.Errorf("Ingresá una fecha válida.")
	}
	if v == nil {
		return nil
	}
	if v.MinAge > 0 && age < v.MinAge {
		return fmt.Errorf("Debés tener al menos %d años.", v.MinAge)
	}
	if v.MaxAge > 0 && age > v.MaxAge {
		return fmt.Errorf("La edad máxima admitida es %d años.", v.MaxAge)
	}
	return nil
}

func parseDate(text string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(text))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ageInYears computes whole calendar years between dob and now,
// adjusting for month/day not yet reached.
func ageInYears(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
