package twofactor

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/xlzd/gotp"
)

const (
	Issuer = "DiscordAlt"

	secretBytes     = 20
	backupCodeCount = 8
	backupCodeBytes = 4
	period          = 30
	skewSteps       = 1
)

func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("totp secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

func newBackupCodes() ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		b := make([]byte, backupCodeBytes)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("backup code: %w", err)
		}
		codes[i] = hex.EncodeToString(b)
	}
	return codes, nil
}

// Label is the account name shown by authenticator apps.
func Label(username string) string {
	return fmt.Sprintf("%s (%s)", Issuer, username)
}

func ProvisioningURI(secret, username string) string {
	return gotp.NewDefaultTOTP(secret).ProvisioningUri(Label(username), Issuer)
}

// CodeAt returns the 6 digit code for secret at t.
func CodeAt(secret string, t time.Time) string {
	return gotp.NewDefaultTOTP(secret).At(t.Unix())
}

// Verify accepts the code of the current time step or of one step either side.
// Every candidate is compared so timing does not depend on which step matched.
func Verify(secret, code string, at time.Time) bool {
	totp := gotp.NewDefaultTOTP(secret)
	ok := 0
	for step := -skewSteps; step <= skewSteps; step++ {
		want := totp.At(at.Unix() + int64(step*period))
		ok |= subtle.ConstantTimeCompare([]byte(want), []byte(code))
	}
	return ok == 1
}
