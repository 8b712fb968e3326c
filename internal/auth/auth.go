// Package auth resolves API keys for the generative backends. Keys live in
// the OS keychain by default; environment variables are an opt-in fallback.
package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	serviceName   = "scriptgen"
	geminiAccount = "gemini-api-key"
	openaiAccount = "openai-api-key"
	geminiEnvVar  = "GEMINI_API_KEY"
	openaiEnvVar  = "OPENAI_API_KEY"
)

func accountFor(service string) (account, envVar string) {
	if service == "openai" {
		return openaiAccount, openaiEnvVar
	}
	return geminiAccount, geminiEnvVar
}

// GetKey retrieves the API key for a backend ("gemini" or "openai").
// If allowEnv is false, environment variables are ignored.
// The second return value names where the key came from, for logging.
func GetKey(service string, allowEnv bool) (string, string) {
	account, envVar := accountFor(service)

	key, err := keyring.Get(serviceName, account)
	if err == nil && key != "" {
		return strings.TrimSpace(key), "Keychain"
	}

	if allowEnv {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, "Environment Variable"
		}
	}

	return "", ""
}

// GetEnvKey retrieves the key from environment variables only.
func GetEnvKey(service string) (string, bool) {
	_, envVar := accountFor(service)
	key := strings.TrimSpace(os.Getenv(envVar))
	if key == "" {
		return "", false
	}
	return key, true
}

// SaveKey saves the key for a backend to the OS keychain.
func SaveKey(service, key string) error {
	account, _ := accountFor(service)
	return keyring.Set(serviceName, account, strings.TrimSpace(key))
}

// DeleteKey removes the key for a backend from the OS keychain.
func DeleteKey(service string) error {
	account, _ := accountFor(service)
	return keyring.Delete(serviceName, account)
}

// GetStatus reports whether a key exists for a backend in the keychain.
func GetStatus(service string) bool {
	account, _ := accountFor(service)
	key, err := keyring.Get(serviceName, account)
	return err == nil && key != ""
}

// PromptForAPIKey securely prompts the user for their API key.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // newline after hidden input
	return strings.TrimSpace(string(bytePassword)), nil
}
