package config

import (
	"bytes"
	"log"
)

const defaultJWTSecret = "change-this-secret-key"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustProductionSecrets refuses to start a production process that still
// signs tokens with the development default.
func (c Config) MustProductionSecrets() {
	if !c.IsProduction() {
		return
	}
	if bytes.Equal(c.JWTAccessSecret, []byte(defaultJWTSecret)) {
		log.Fatalf("JWT_SECRET must be set in production")
	}
	if bytes.Equal(c.JWTRefreshSecret, []byte(defaultJWTSecret)) {
		log.Fatalf("JWT_REFRESH_SECRET must be set in production")
	}
}
