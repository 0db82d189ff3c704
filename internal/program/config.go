package program

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	ErrEntryNotFound = errors.Base("entry file not found")
	ErrConfig        = errors.Base("invalid project configuration")
	ErrParse         = errors.Base("parse failed")
)

// ConfigFileName is the project configuration looked up next to the entry.
const ConfigFileName = "tsconfig.json"

// Config holds the compiler options that affect module resolution.
type Config struct {
	// Path is the absolute path of the configuration file.
	Path string
	// Dir is the directory of the configuration file.
	Dir string
	// PathsBaseDir is the directory path targets resolve against: baseUrl
	// when set, else the directory of the configuration declaring paths.
	PathsBaseDir string
	BaseURL      string
	Paths        map[string][]string
}

type rawConfig struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// FindConfigFile walks up from the directory of file looking for
// tsconfig.json. Returns "" if none is found.
func FindConfigFile(file string) string {
	dir := filepath.Dir(file)
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadConfig reads a tsconfig.json, following relative extends chains.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Path: path, Dir: filepath.Dir(path)}
	if err := loadConfigInto(cfg, path, map[string]bool{}); err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" {
		cfg.PathsBaseDir = cfg.BaseURL
	} else if cfg.PathsBaseDir == "" {
		cfg.PathsBaseDir = cfg.Dir
	}
	return cfg, nil
}

// loadConfigInto applies the config at path onto cfg. Options of the
// extending file override those of the extended one, so bases load first.
func loadConfigInto(cfg *Config, path string, seen map[string]bool) error {
	if seen[path] {
		return errors.WithDetails(errors.Errorf("%w: extends cycle", ErrConfig), "path", path)
	}
	seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrConfig), "path", path)
	}
	var raw rawConfig
	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrConfig), "path", path)
	}

	for _, base := range extendsList(raw.Extends) {
		if !strings.HasPrefix(base, ".") && !filepath.IsAbs(base) {
			// Package-provided base configs live in node_modules and only
			// carry options that do not affect resolution here.
			continue
		}
		basePath := base
		if !filepath.IsAbs(basePath) {
			basePath = filepath.Join(filepath.Dir(path), base)
		}
		if filepath.Ext(basePath) != ".json" {
			basePath += ".json"
		}
		if err := loadConfigInto(cfg, basePath, seen); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if raw.CompilerOptions.BaseURL != "" {
		cfg.BaseURL = filepath.Join(dir, raw.CompilerOptions.BaseURL)
	}
	if raw.CompilerOptions.Paths != nil {
		cfg.Paths = raw.CompilerOptions.Paths
		cfg.PathsBaseDir = dir
	}
	return nil
}

func extendsList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// stripJSONC removes comments and trailing commas so tsconfig files can be
// decoded as plain JSON.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			j := skipTrivia(data, i+1)
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func skipTrivia(data []byte, j int) int {
	for j < len(data) {
		switch {
		case strings.ContainsRune(" \t\r\n", rune(data[j])):
			j++
		case data[j] == '/' && j+1 < len(data) && data[j+1] == '/':
			for j < len(data) && data[j] != '\n' {
				j++
			}
		case data[j] == '/' && j+1 < len(data) && data[j+1] == '*':
			j += 2
			for j+1 < len(data) && !(data[j] == '*' && data[j+1] == '/') {
				j++
			}
			j += 2
		default:
			return j
		}
	}
	return j
}
