package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/models"
)

// CurrencyPattern - код ISO 4217 из трёх заглавных латинских букв
var CurrencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

const (
	// MaxNameLen максимальная длина имени счёта, категории или правила
	MaxNameLen = 100
	// MaxMonthlyStep максимальный шаг для частоты "monthly:N"
	MaxMonthlyStep = 24
)

// TransactionType checks t is one of ingreso, gasto, transferencia.
func TransactionType(t string) error {
	switch t {
	case models.TxnTypeIncome, models.TxnTypeExpense, models.TxnTypeTransfer:
		return nil
	}
	return apperrors.NewValidationError("type", "invalid transaction type %q", t)
}

// PositiveAmount checks v > 0.
func PositiveAmount(field string, v float64) error {
	if v <= 0 {
		return apperrors.NewValidationError(field, "must be positive, got %v", v)
	}
	return nil
}

// Currency checks c is a three-letter uppercase code.
func Currency(c string) error {
	if !CurrencyPattern.MatchString(c) {
		return apperrors.NewValidationError("currency", "invalid currency code %q", c)
	}
	return nil
}

// Name checks a display name is present and not too long.
func Name(field, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return apperrors.NewValidationError(field, "cannot be empty")
	}
	if len(s) > MaxNameLen {
		return apperrors.NewValidationError(field, "must not exceed %d characters", MaxNameLen)
	}
	return nil
}

// Month checks m has the form YYYY-MM.
func Month(m string) error {
	if _, err := time.Parse("2006-01", m); err != nil {
		return apperrors.NewValidationError("month", "expected YYYY-MM, got %q", m)
	}
	return nil
}

// Frequency checks f is weekly, monthly, annual or monthly:N.
func Frequency(f string) error {
	_, err := MonthlyStep(f)
	return err
}

// MonthlyStep returns the month step of a monthly frequency: 1 for
// "monthly", N for "monthly:N", 12 for "annual" and 0 for "weekly".
func MonthlyStep(f string) (int, error) {
	switch f {
	case models.FrequencyWeekly:
		return 0, nil
	case models.FrequencyMonthly:
		return 1, nil
	case models.FrequencyAnnual:
		return 12, nil
	}

	raw, ok := strings.CutPrefix(f, models.FrequencyMonthly+":")
	if !ok {
		return 0, apperrors.NewValidationError("frequency", "invalid frequency %q", f)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxMonthlyStep {
		return 0, apperrors.NewValidationError("frequency", "invalid month step in %q", f)
	}
	return n, nil
}

// Tags checks that every tag has a non-blank name.
func Tags(tags []string) error {
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return apperrors.NewValidationError("tags", "tag %d is empty", i)
		}
	}
	return nil
}
