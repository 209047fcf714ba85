package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultMarker = "<make-channel>"
	DefaultPrefix = "mc"
	DefaultEmoji  = "👍"
	DefaultQuorum = 4
)

var ErrMissingToken = errors.New("config: DISCORD_TOKEN o DISCORD_TOKEN_FILE no configurados")

type Config struct {
	DiscordToken string

	// Marker es el texto que marca en el topic a los canales de comandos.
	Marker           string
	Prefix           string
	Emoji            string
	Quorum           int
	MaxNameLength    int
	ExcludeRequester bool

	// DatabasePath vacío desactiva el registro de auditoría.
	DatabasePath string
	// ObserverAddr vacío desactiva el servidor de observadores.
	ObserverAddr string
}

// Load lee el .env (si existe) y después el entorno. envFiles vacío usa ".env".
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Marker:       envOr("MAKE_CHANNEL_MARKER", DefaultMarker),
		Prefix:       envOr("MAKE_CHANNEL_PREFIX", DefaultPrefix),
		Emoji:        envOr("MAKE_CHANNEL_EMOJI", DefaultEmoji),
		DatabasePath: strings.TrimSpace(os.Getenv("DATABASE_PATH")),
		ObserverAddr: strings.TrimSpace(os.Getenv("OBSERVER_ADDR")),
	}

	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	cfg.DiscordToken = token

	if cfg.Quorum, err = envInt("MAKE_CHANNEL_QUORUM", DefaultQuorum); err != nil {
		return nil, err
	}
	if cfg.Quorum <= 0 {
		return nil, fmt.Errorf("config: MAKE_CHANNEL_QUORUM debe ser positivo, es %d", cfg.Quorum)
	}
	if cfg.MaxNameLength, err = envInt("MAKE_CHANNEL_MAX_NAME_LENGTH", 0); err != nil {
		return nil, err
	}
	if cfg.ExcludeRequester, err = envBool("MAKE_CHANNEL_EXCLUDE_REQUESTER", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadToken prioriza DISCORD_TOKEN; si no está, lee el archivo de DISCORD_TOKEN_FILE.
func loadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("DISCORD_TOKEN")); token != "" {
		return token, nil
	}

	path := strings.TrimSpace(os.Getenv("DISCORD_TOKEN_FILE"))
	if path == "" {
		return "", ErrMissingToken
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: leyendo token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("config: archivo de token vacío: %s", path)
	}
	return token, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	return b, nil
}
