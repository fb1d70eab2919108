package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is where Docker mounts secrets. SECRETS_DIR overrides it.
const DefaultSecretsDir = "/run/secrets"

func secretsDir() string {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		return dir
	}
	return DefaultSecretsDir
}

func readSecretFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", path, err)
	}
	v := strings.TrimSpace(string(b))
	if v == "" {
		return "", fmt.Errorf("secret %s is empty", path)
	}
	return v, nil
}

// SecretOrEnv resolves a credential in order: the file named by <envName>_FILE,
// the mounted secret secretName, then the plain envName variable. An empty
// string means none is set.
func SecretOrEnv(secretName, envName string) string {
	if path := os.Getenv(envName + "_FILE"); path != "" {
		if v, err := readSecretFile(path); err == nil {
			return v
		}
	}
	if v, err := readSecretFile(filepath.Join(secretsDir(), secretName)); err == nil {
		return v
	}
	return strings.TrimSpace(os.Getenv(envName))
}
