// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// secretEnvVars are removed from the process environment once parsed so
// that helper processes (clipboard tools) do not inherit them.
var secretEnvVars = []string{"APP_STORE_PASSPHRASE"}

// parseEnv populates cfg from environment variables using the caarlos0/env
// library. Struct fields are mapped via their `env` and `envPrefix` tags
// defined on [StructuredConfig] and its nested types.
func parseEnv(cfg any) error {
	err := env.Parse(cfg)
	if err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	for _, name := range secretEnvVars {
		_ = os.Unsetenv(name)
	}

	return nil
}
