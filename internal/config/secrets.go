package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets. Переменная для тестов.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets, а если файла нет -
// из переменной окружения с тем же именем в верхнем регистре.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	if secretBytes, err := os.ReadFile(filePath); err == nil {
		if secret := strings.TrimSpace(string(secretBytes)); secret != "" {
			return secret, nil
		}
	}

	envName := strings.ToUpper(secretName)
	if secret := strings.TrimSpace(os.Getenv(envName)); secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("secret %s not found in %s or env %s", secretName, filePath, envName)
}

// SecretSource возвращает функцию, читающую секрет при каждом вызове.
// Ошибка превращается в пустую строку: отсутствие ключа обрабатывает вызывающий.
func SecretSource(secretName string) func() string {
	return func() string {
		secret, err := ReadSecret(secretName)
		if err != nil {
			return ""
		}
		return secret
	}
}
