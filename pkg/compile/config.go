package compile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Config file names looked up in the project directory when no explicit
// config is given.
const (
	TSConfigFileName = "tsconfig.json"
	YAMLConfigName   = "errhunter.yaml"
)

// Config holds the compiler settings relevant to the build driver.
// Directory fields are absolute after LoadConfig.
type Config struct {
	// Path is the config file the settings were read from, if any.
	Path string

	RootDir   string
	OutDir    string
	Target    string
	JSX       string
	IndexFile string

	// Exclude holds gitignore-style patterns relative to RootDir.
	Exclude []string

	// raw is the standardized tsconfig passed through to the transpiler.
	raw string
}

// ConfigError reports a compiler config that cannot be read or parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid compiler config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

type tsconfigFile struct {
	CompilerOptions struct {
		RootDir string `json:"rootDir"`
		OutDir  string `json:"outDir"`
		Target  string `json:"target"`
		JSX     string `json:"jsx"`
	} `json:"compilerOptions"`
	Exclude []string `json:"exclude"`
}

type yamlFile struct {
	RootDir   string   `yaml:"rootDir"`
	OutDir    string   `yaml:"outDir"`
	Target    string   `yaml:"target"`
	JSX       string   `yaml:"jsx"`
	IndexFile string   `yaml:"indexFile"`
	Exclude   []string `yaml:"exclude"`
}

// LoadConfig reads a tsconfig.json (comments and trailing commas allowed)
// or a YAML config (.yaml/.yml). Relative directories resolve against the
// directory holding the config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	base := filepath.Dir(absPath)

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseTSConfig(data)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	cfg.Path = absPath
	cfg.resolve(base)
	return cfg, nil
}

// FindConfig returns the config file in dir, preferring tsconfig.json.
// It returns "" when neither exists.
func FindConfig(dir string) string {
	for _, name := range []string{TSConfigFileName, YAMLConfigName, "errhunter.yml"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// DefaultConfig compiles every source under dir next to itself.
func DefaultConfig(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	cfg.resolve(abs)
	return cfg, nil
}

func parseTSConfig(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing JSONC: %w", err)
	}

	var ts tsconfigFile
	if err := json.Unmarshal(std, &ts); err != nil {
		return nil, fmt.Errorf("decoding tsconfig: %w", err)
	}

	return &Config{
		RootDir: ts.CompilerOptions.RootDir,
		OutDir:  ts.CompilerOptions.OutDir,
		Target:  ts.CompilerOptions.Target,
		JSX:     ts.CompilerOptions.JSX,
		Exclude: ts.Exclude,
		raw:     string(std),
	}, nil
}

func parseYAML(data []byte) (*Config, error) {
	var y yamlFile
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return &Config{
		RootDir:   y.RootDir,
		OutDir:    y.OutDir,
		Target:    y.Target,
		JSX:       y.JSX,
		IndexFile: y.IndexFile,
		Exclude:   y.Exclude,
	}, nil
}

func (c *Config) resolve(base string) {
	c.RootDir = absFrom(base, c.RootDir)
	if c.OutDir == "" {
		c.OutDir = c.RootDir
	} else {
		c.OutDir = absFrom(base, c.OutDir)
	}
	if c.IndexFile != "" {
		c.IndexFile = absFrom(base, c.IndexFile)
	}
}

func absFrom(base, path string) string {
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
