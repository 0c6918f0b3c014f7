// Package config loads the server settings file. The on-disk format is the
// legacy key=value text the shard tooling already produces; unknown keys are
// warned about and ignored.
package config

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Settings holds every tunable of the shard server.
type Settings struct {
	// Crypto key material, 64 bytes each, big-endian.
	AuthN, AuthK []byte
	GameN, GameK []byte
	GateN, GateK []byte

	// WdysKey is the 16-byte droid key returned in login replies.
	WdysKey [16]byte

	// Listen addresses
	LobbyAddr  string
	LobbyPort  int
	StatusAddr string
	StatusPort int

	// Advertised addresses handed to clients (sent as UTF-16).
	FileServ string
	AuthServ string
	GameServ string
	GateServ string

	// Database
	DbHost     string
	DbPort     int
	DbUsername string
	DbPassword string
	DbName     string

	// Data paths
	FileRoot string
	AgePath  string
	SDLPath  string

	// Misc
	WelcomeMsg     string
	ClientBuildID  uint32
	RestrictLogins bool
	LogLevel       string
}

// Default returns settings with development defaults. Crypto keys have no
// default; a missing key is a startup error.
func Default() Settings {
	return Settings{
		LobbyAddr:     "0.0.0.0",
		LobbyPort:     14617,
		StatusAddr:    "0.0.0.0",
		StatusPort:    8080,
		FileServ:      "127.0.0.1",
		AuthServ:      "127.0.0.1",
		GameServ:      "127.0.0.1",
		GateServ:      "127.0.0.1",
		DbHost:        "127.0.0.1",
		DbPort:        5432,
		DbUsername:    "moulgo",
		DbPassword:    "moulgo",
		DbName:        "moulgo",
		FileRoot:      "data",
		AgePath:       "ages",
		SDLPath:       "SDL",
		WelcomeMsg:    "Welcome to the shard!",
		ClientBuildID: 918,
		LogLevel:      "info",
	}
}

// DSN assembles the PostgreSQL connection string for pgx.
func (s Settings) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		s.DbUsername, s.DbPassword, s.DbHost, s.DbPort, s.DbName)
}

// Load parses the settings file at path over the defaults.
func Load(path string) (Settings, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer file.Close()

	decodeKey := func(value string, size int) ([]byte, error) {
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("bad base64: %w", err)
		}
		if len(raw) != size {
			return nil, fmt.Errorf("expected %d bytes, got %d", size, len(raw))
		}
		return raw, nil
	}

	scanner := bufio.NewScanner(file)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("invalid config line", "file", path, "line", lineno)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var keyErr error
		switch key {
		case "Key.Auth.N":
			cfg.AuthN, keyErr = decodeKey(value, 64)
		case "Key.Auth.K":
			cfg.AuthK, keyErr = decodeKey(value, 64)
		case "Key.Game.N":
			cfg.GameN, keyErr = decodeKey(value, 64)
		case "Key.Game.K":
			cfg.GameK, keyErr = decodeKey(value, 64)
		case "Key.Gate.N":
			cfg.GateN, keyErr = decodeKey(value, 64)
		case "Key.Gate.K":
			cfg.GateK, keyErr = decodeKey(value, 64)
		case "Key.Wdys":
			var raw []byte
			if raw, keyErr = decodeKey(value, 16); keyErr == nil {
				copy(cfg.WdysKey[:], raw)
			}
		case "Lobby.Addr":
			cfg.LobbyAddr = value
		case "Lobby.Port":
			_, keyErr = fmt.Sscanf(value, "%d", &cfg.LobbyPort)
		case "Status.Addr":
			cfg.StatusAddr = value
		case "Status.Port":
			_, keyErr = fmt.Sscanf(value, "%d", &cfg.StatusPort)
		case "File.Serv":
			cfg.FileServ = value
		case "Auth.Serv":
			cfg.AuthServ = value
		case "Game.Serv":
			cfg.GameServ = value
		case "Gate.Serv":
			cfg.GateServ = value
		case "Db.Host":
			cfg.DbHost = value
		case "Db.Port":
			_, keyErr = fmt.Sscanf(value, "%d", &cfg.DbPort)
		case "Db.Username":
			cfg.DbUsername = value
		case "Db.Password":
			cfg.DbPassword = value
		case "Db.Database":
			cfg.DbName = value
		case "File.Root":
			cfg.FileRoot = value
		case "Age.Path":
			cfg.AgePath = value
		case "SDL.Path":
			cfg.SDLPath = value
		case "Welcome.Msg":
			cfg.WelcomeMsg = value
		case "Client.BuildId":
			_, keyErr = fmt.Sscanf(value, "%d", &cfg.ClientBuildID)
		case "Login.Restricted":
			cfg.RestrictLogins = value == "true" || value == "1"
		case "Log.Level":
			cfg.LogLevel = value
		default:
			slog.Warn("unrecognized config parameter", "file", path, "key", key)
		}
		if keyErr != nil {
			return cfg, fmt.Errorf("%s:%d: %s: %w", path, lineno, key, keyErr)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts that cannot default.
func (s Settings) Validate() error {
	keys := []struct {
		name string
		data []byte
	}{
		{"Key.Auth.N", s.AuthN}, {"Key.Auth.K", s.AuthK},
		{"Key.Game.N", s.GameN}, {"Key.Game.K", s.GameK},
		{"Key.Gate.N", s.GateN}, {"Key.Gate.K", s.GateK},
	}
	for _, key := range keys {
		if len(key.data) != 64 {
			return fmt.Errorf("missing or invalid crypto key %s", key.name)
		}
	}
	return nil
}
