package auth

import (
	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret creates a new TOTP secret for an admin user and
// returns the secret plus the provisioning URL for authenticator apps.
func GenerateTOTPSecret(email string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "taller-backend",
		AccountName: email,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTPCode checks a 6-digit code against the stored secret.
func ValidateTOTPCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
