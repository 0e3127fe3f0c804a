// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: gemini-api-key, openai-api-key, groq-api-key,
// openrouter-api-key, tavily-api-key, brave-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envNames maps secret file names to the environment variables the model
// registry and search tools look up. Per prd005-providers R4.2.
var envNames = map[string]string{
	"gemini-api-key":     "GEMINI_API_KEY",
	"openai-api-key":     "OPENAI_API_KEY",
	"groq-api-key":       "GROQ_API_KEY",
	"openrouter-api-key": "OPENROUTER_API_KEY",
	"tavily-api-key":     "TAVILY_API_KEY",
	"brave-api-key":      "BRAVE_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ExportEnv sets the environment variable for each known secret that is not
// already set. Values present in the environment win over the files, so a
// shell-exported key overrides .secrets/. Unknown file names are left alone.
func ExportEnv(secrets map[string]string) {
	for name, value := range secrets {
		envName, ok := envNames[name]
		if !ok {
			continue
		}
		if os.Getenv(envName) != "" {
			continue
		}
		os.Setenv(envName, value)
	}
}
