package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/trigg3rX/irs-avs/pkg/env"
)

// ErrMissingEnv is returned when a required variable is unset.
var ErrMissingEnv = env.ErrMissingEnv

// Env is everything read from the process environment.
type Env struct {
	RPCURL           string
	WSURL            string
	PrivateKey       string
	KeystorePath     string
	KeystorePassword string
	PasswordSet      bool
	SecondPrivateKey string
	ConfigFile       string
}

// LoadDotEnv loads .env from the working directory when it exists.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadEnv reads the operator's environment. Only RPC_URL is required here;
// key material is checked when it is loaded.
func LoadEnv() (Env, error) {
	rpcURL, err := env.GetEnvRequired("RPC_URL")
	if err != nil {
		return Env{}, err
	}
	if !env.IsValidEndpoint(rpcURL, "http", "https", "ws", "wss") {
		return Env{}, fmt.Errorf("invalid RPC_URL %q", rpcURL)
	}
	wsURL := env.GetEnvString("WS_URL", "")
	if wsURL != "" && !env.IsValidEndpoint(wsURL, "ws", "wss") {
		return Env{}, fmt.Errorf("invalid WS_URL %q: expected ws:// or wss://", wsURL)
	}
	password := env.GetEnvString("ECDSA_KEY_PASSWORD", "")
	return Env{
		RPCURL:           rpcURL,
		WSURL:            wsURL,
		PrivateKey:       env.GetEnvString("PRIVATE_KEY", ""),
		KeystorePath:     env.GetEnvString("ECDSA_KEYSTORE_PATH", ""),
		KeystorePassword: password,
		PasswordSet:      env.IsSet("ECDSA_KEY_PASSWORD"),
		SecondPrivateKey: env.GetEnvString("PRIVATE_KEY_2", ""),
		ConfigFile:       env.GetEnvString("CONFIG_FILE", ""),
	}, nil
}
