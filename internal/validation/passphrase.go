package validation

import "github.com/iudanet/finsync/internal/apperrors"

// MinPassphraseLen минимальная длина парольной фразы хранилища токена
const MinPassphraseLen = 12

// Passphrase проверяет минимальные требования к парольной фразе
func Passphrase(p string) error {
	if p == "" {
		return apperrors.NewValidationError("passphrase", "cannot be empty")
	}

	if len(p) < MinPassphraseLen {
		return apperrors.NewValidationError("passphrase", "must be at least %d characters long", MinPassphraseLen)
	}

	return nil
}
