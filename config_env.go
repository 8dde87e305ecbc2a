package goAuthClient

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by LoadConfigFromEnv.
const EnvPrefix = "GOAUTHCLIENT_"

// LoadConfigFromEnv returns DefaultConfig overridden by GOAUTHCLIENT_*
// environment variables, for example GOAUTHCLIENT_API_BASE_URL or
// GOAUTHCLIENT_TOKEN_EXPIRATION_BUFFER=90s. Unset variables keep their
// defaults. The result is not validated; Build does that.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
