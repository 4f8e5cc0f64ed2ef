// Package secrets resolves credentials such as the marketplace token and the
// AI provider key from files, inline values or the environment.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source lists the places a secret may come from, in order of precedence:
// File, Value, then the environment variable named by Env.
type Source struct {
	// Name is used in error messages.
	Name  string
	Value string
	File  string
	Env   string
}

// Load returns the trimmed secret from the first configured place of src.
// A configured file that is missing or empty is an error even when Value or
// Env could supply the secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s is not configured (set %s)", name, env)
	}

	return "", fmt.Errorf("%s is not configured", name)
}
