package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdkecdsa "github.com/Layr-Labs/eigensdk-go/crypto/ecdsa"
	"golang.org/x/term"

	"github.com/trigg3rX/irs-avs/pkg/cryptography"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

var errNotTerminal = errors.New("stdin is not a terminal")

// PasswordPrompt asks for a keystore password. A nil prompt never asks.
type PasswordPrompt func(prompt string) (string, error)

// TerminalPrompt reads a password from stdin without echo.
func TerminalPrompt(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNotTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// LoadOperatorKey returns the key from PRIVATE_KEY or, failing that, from
// the ECDSA keystore.
func LoadOperatorKey(e Env, prompt PasswordPrompt, logger logging.Logger) (*ecdsa.PrivateKey, error) {
	if e.PrivateKey != "" {
		key, err := cryptography.ParsePrivateKey(e.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid PRIVATE_KEY: %w", err)
		}
		return key, nil
	}
	if e.KeystorePath == "" {
		return nil, fmt.Errorf("%w: PRIVATE_KEY or ECDSA_KEYSTORE_PATH", ErrMissingEnv)
	}

	password := e.KeystorePassword
	if !e.PasswordSet {
		if prompt == nil {
			logger.Warn("ECDSA_KEY_PASSWORD env var not set. using empty string")
		} else if entered, err := prompt("ECDSA keystore password: "); err != nil {
			logger.Warn("ECDSA_KEY_PASSWORD env var not set and no password entered. using empty string", "error", err)
		} else {
			password = entered
		}
	}

	key, err := sdkecdsa.ReadKey(expandHome(e.KeystorePath), password)
	if err != nil {
		return nil, fmt.Errorf("cannot read ecdsa keystore: %w", err)
	}
	return key, nil
}

// LoadSecondKey parses PRIVATE_KEY_2, used by irsctl for the counterparty
// wallet.
func LoadSecondKey(e Env) (*ecdsa.PrivateKey, error) {
	if e.SecondPrivateKey == "" {
		return nil, fmt.Errorf("%w: PRIVATE_KEY_2", ErrMissingEnv)
	}
	key, err := cryptography.ParsePrivateKey(e.SecondPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIVATE_KEY_2: %w", err)
	}
	return key, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
