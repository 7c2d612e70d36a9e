package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the working directory when
// present. Variables already set in the process environment win.
func loadEnvFiles() ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, ferrors.ConfigError("failed to load environment file").
				WithSource(name).
				WithCause(err).
				Build()
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}
