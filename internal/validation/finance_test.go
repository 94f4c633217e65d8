package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/apperrors"
)

func TestMonthlyStep(t *testing.T) {
	tests := []struct {
		name      string
		frequency string
		want      int
		wantErr   bool
	}{
		{name: "weekly", frequency: "weekly", want: 0},
		{name: "monthly", frequency: "monthly", want: 1},
		{name: "annual", frequency: "annual", want: 12},
		{name: "every 3 months", frequency: "monthly:3", want: 3},
		{name: "zero step", frequency: "monthly:0", wantErr: true},
		{name: "step too large", frequency: "monthly:25", wantErr: true},
		{name: "not a number", frequency: "monthly:x", wantErr: true},
		{name: "daily", frequency: "daily", wantErr: true},
		{name: "empty", frequency: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthlyStep(tt.frequency)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "expense type", err: TransactionType("gasto")},
		{name: "unknown type", err: TransactionType("refund"), wantErr: true},
		{name: "positive amount", err: PositiveAmount("amount", 0.01)},
		{name: "zero amount", err: PositiveAmount("amount", 0), wantErr: true},
		{name: "negative amount", err: PositiveAmount("amount", -5), wantErr: true},
		{name: "currency", err: Currency("EUR")},
		{name: "lowercase currency", err: Currency("eur"), wantErr: true},
		{name: "long currency", err: Currency("EURO"), wantErr: true},
		{name: "name", err: Name("name", "Groceries")},
		{name: "blank name", err: Name("name", "   "), wantErr: true},
		{name: "month", err: Month("2026-02")},
		{name: "bad month", err: Month("2026-13"), wantErr: true},
		{name: "tags", err: Tags([]string{"food", "weekly"})},
		{name: "blank tag", err: Tags([]string{"food", " "}), wantErr: true},
		{name: "passphrase", err: Passphrase("correct horse battery")},
		{name: "short passphrase", err: Passphrase("short"), wantErr: true},
		{name: "empty passphrase", err: Passphrase(""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.wantErr {
				assert.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.True(t, apperrors.IsValidation(tt.err))
		})
	}
}
