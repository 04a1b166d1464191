package config

import "time"

// DevSessionSecret signs tokens in DEV when SESSION_SECRET is unset
const DevSessionSecret = "devsecret"

// Session configures bearer session tokens.
type Session struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"168h"`
}

// Password is the password policy applied on signup and on password updates.
type Password struct {
	MinLength    int      `env:"MIN_LENGTH" envDefault:"7"`
	Forbidden    []string `env:"FORBIDDEN" envDefault:"password"`
	Blocklist    []string `env:"BLOCKLIST" envDefault:"12345678,123456789,qwerty123,letmein1,iloveyou,abc12345,1q2w3e4r"`
	RequireUpper bool     `env:"REQUIRE_UPPER" envDefault:"false"`
	RequireLower bool     `env:"REQUIRE_LOWER" envDefault:"false"`
	RequireDigit bool     `env:"REQUIRE_DIGIT" envDefault:"false"`
}

// Mail configures the lifecycle email transport.
type Mail struct {
	From           string        `env:"MAIL_FROM" envDefault:"no-reply@example.com"`
	FromName       string        `env:"MAIL_FROM_NAME" envDefault:"Account Service"`
	SendGridAPIKey string        `env:"SENDGRID_API_KEY"`
	SendTimeout    time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"10s"`
}
