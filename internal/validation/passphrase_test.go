package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/finsync/internal/apperrors"
)

func TestPassphrase(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantErr    bool
	}{
		{name: "valid", passphrase: "correct horse battery", wantErr: false},
		{name: "exactly min length", passphrase: strings.Repeat("a", MinPassphraseLen), wantErr: false},
		{name: "too short", passphrase: strings.Repeat("a", MinPassphraseLen-1), wantErr: true},
		{name: "empty", passphrase: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Passphrase(tt.passphrase)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
