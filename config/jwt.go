package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const devJWTSecret = "dev-secret-change-me"

type JWTConfig struct {
	Secret            string        `yaml:"secret"`
	Expiration        time.Duration `yaml:"expiration"`
	RefreshExpiration time.Duration `yaml:"refresh_expiration"`
}

func (c JWTConfig) SecretBytes() []byte {
	if c.Secret == "" {
		return []byte(devJWTSecret)
	}
	return []byte(c.Secret)
}

func (c JWTConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Secret, validation.Length(16, 0)),
		validation.Field(&c.Expiration, validation.Required),
		validation.Field(&c.RefreshExpiration, validation.Required),
	)
}
