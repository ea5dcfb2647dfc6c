package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cristalhq/aconfig"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "ASSETFLOW"

// DefaultFiles are looked up in the project root when no file is given.
var DefaultFiles = []string{"assetflow.toml", "assetflow.yaml", "assetflow.yml"}

// Config describes the stage recipes and runtime options of a build.
// All paths and patterns are relative to the project root.
type Config struct {
	MaxParallel int `default:"0" env:"MAX_PARALLEL" toml:"max_parallel" yaml:"max_parallel" usage:"Maximum tasks started concurrently (0 = unbounded)"`

	Styles      Styles      `env:"STYLES" toml:"styles" yaml:"styles"`
	Scripts     Scripts     `env:"SCRIPTS" toml:"scripts" yaml:"scripts"`
	Vendor      Vendor      `env:"VENDOR" toml:"vendor" yaml:"vendor"`
	Images      Images      `env:"IMAGES" toml:"images" yaml:"images"`
	Fonts       Copy        `env:"FONTS" toml:"fonts" yaml:"fonts"`
	Pages       Copy        `env:"PAGES" toml:"pages" yaml:"pages"`
	Watch       Watch       `env:"WATCH" toml:"watch" yaml:"watch"`
	Clean       Clean       `env:"CLEAN" toml:"clean" yaml:"clean"`
	Precompress Precompress `env:"PRECOMPRESS" toml:"precompress" yaml:"precompress"`
	Notify      Notify      `env:"NOTIFY" toml:"notify" yaml:"notify"`

	root string
	file string
}

// Styles configures the scss, compile and scss-vendors tasks.
type Styles struct {
	Sources      []string `env:"SOURCES" toml:"sources" yaml:"sources"`
	Assets       []string `env:"ASSETS" toml:"assets" yaml:"assets"`
	IncludePaths []string `env:"INCLUDE_PATHS" toml:"include_paths" yaml:"include_paths"`
	Targets      []string `env:"TARGETS" toml:"targets" yaml:"targets"`
	Intermediate string   `default:"src/stylesheets" env:"INTERMEDIATE" toml:"intermediate" yaml:"intermediate"`
	Bundle       string   `default:"main.css" env:"BUNDLE" toml:"bundle" yaml:"bundle"`
	Dest         string   `default:"dist/stylesheets" env:"DEST" toml:"dest" yaml:"dest"`
	Compiler     string   `default:"sass" env:"COMPILER" toml:"compiler" yaml:"compiler"`
}

// Scripts configures the javascript and per-file script tasks.
type Scripts struct {
	Sources    []string `env:"SOURCES" toml:"sources" yaml:"sources"`
	Exclude    []string `env:"EXCLUDE" toml:"exclude" yaml:"exclude"`
	Bundle     string   `default:"main.js" env:"BUNDLE" toml:"bundle" yaml:"bundle"`
	Dest       string   `default:"dist/js" env:"DEST" toml:"dest" yaml:"dest"`
	SourceRoot string   `default:"../../src/js" env:"SOURCE_ROOT" toml:"source_root" yaml:"source_root"`
	Sourcemaps string   `default:"sourcemaps" env:"SOURCEMAPS" toml:"sourcemaps" yaml:"sourcemaps"`
	// Target defaults to es2015: esbuild cannot lower const, let or class
	// to es5, so an es5 target rejects most modern sources.
	Target     string   `default:"es2015" env:"TARGET" toml:"target" yaml:"target"`

	Pages      Copy `env:"PAGES" toml:"pages" yaml:"pages"`
	Components Copy `env:"COMPONENTS" toml:"components" yaml:"components"`
	Interior   Copy `env:"INTERIOR" toml:"interior" yaml:"interior"`
}

// Vendor configures the js-vendors task. Files are concatenated in order.
type Vendor struct {
	Files  []string `env:"FILES" toml:"files" yaml:"files"`
	Bundle string   `default:"vendor.js" env:"BUNDLE" toml:"bundle" yaml:"bundle"`
	Dest   string   `default:"dist/js/vendor" env:"DEST" toml:"dest" yaml:"dest"`
	Minify bool     `default:"false" env:"MINIFY" toml:"minify" yaml:"minify"`
}

// Images configures the images task.
type Images struct {
	Sources     []string `env:"SOURCES" toml:"sources" yaml:"sources"`
	Dest        string   `default:"dist/img" env:"DEST" toml:"dest" yaml:"dest"`
	JPEGQuality int      `default:"80" env:"JPEG_QUALITY" toml:"jpeg_quality" yaml:"jpeg_quality"`
	Progress    bool     `default:"true" env:"PROGRESS" toml:"progress" yaml:"progress"`
}

// Copy is a glob-to-directory copy recipe.
type Copy struct {
	Sources []string `env:"SOURCES" toml:"sources" yaml:"sources"`
	Dest    string   `env:"DEST" toml:"dest" yaml:"dest"`
}

// Watch configures the watch task.
type Watch struct {
	Debounce time.Duration `default:"200ms" env:"DEBOUNCE" toml:"debounce" yaml:"debounce"`
	Rules    []WatchRule   `env:"RULES" toml:"rules" yaml:"rules"`
}

// WatchRule maps a path pattern to the tasks it triggers.
type WatchRule struct {
	Pattern string   `toml:"pattern" yaml:"pattern"`
	Tasks   []string `toml:"tasks" yaml:"tasks"`
}

// Clean lists the directories removed by the clean task.
type Clean struct {
	Dirs []string `env:"DIRS" toml:"dirs" yaml:"dirs"`
}

// Precompress configures brotli siblings for distribution bundles.
type Precompress struct {
	Enabled    bool     `default:"false" env:"ENABLED" toml:"enabled" yaml:"enabled"`
	Quality    int      `default:"11" env:"QUALITY" toml:"quality" yaml:"quality"`
	Extensions []string `env:"EXTENSIONS" toml:"extensions" yaml:"extensions"`
}

// Notify configures user notifications.
type Notify struct {
	Bell bool `default:"true" env:"BELL" toml:"bell" yaml:"bell"`
}

// Load builds the effective configuration for the project at root: struct
// defaults, then the config file (explicit or discovered), then ASSETFLOW_*
// environment variables. Command-line flags are applied by the caller.
func Load(root, file string) (*Config, error) {
	if root == "" {
		root = "."
	}

	path, err := resolveFile(root, file)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := load(cfg, aconfig.Config{SkipEnv: true}); err != nil {
		return nil, err
	}

	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := load(cfg, aconfig.Config{SkipDefaults: true, EnvPrefix: EnvPrefix}); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.root = root
	cfg.file = path
	return cfg, nil
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	cfg := &Config{}
	if err := load(cfg, aconfig.Config{SkipEnv: true}); err != nil {
		// struct tags are static; a failure here is a programming error
		panic(err)
	}
	cfg.applyDefaults()
	return cfg
}

func load(cfg *Config, acfg aconfig.Config) error {
	acfg.SkipFiles = true
	acfg.SkipFlags = true
	if err := aconfig.LoaderFor(cfg, acfg).Load(); err != nil {
		return eris.Wrapf(err, "failed to load configuration")
	}
	return nil
}

// Root returns the project root the configuration was loaded for.
func (c *Config) Root() string {
	if c.root == "" {
		return "."
	}
	return c.root
}

// WithRoot returns a copy of the configuration bound to another project root.
func (c *Config) WithRoot(root string) *Config {
	cp := *c
	cp.root = root
	return &cp
}

// File returns the configuration file that was read, if any.
func (c *Config) File() string {
	return c.file
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "failed to render configuration")
	}
	return out, nil
}

func resolveFile(root, file string) (string, error) {
	if file != "" {
		if !filepath.IsAbs(file) {
			file = filepath.Join(root, file)
		}
		if _, err := os.Stat(file); err != nil {
			return "", eris.Wrapf(err, "config file %s", file)
		}
		switch strings.ToLower(filepath.Ext(file)) {
		case ".toml", ".yaml", ".yml":
			return file, nil
		default:
			return "", eris.Errorf("unsupported config file format: %s (use .toml, .yaml or .yml)", file)
		}
	}

	for _, name := range DefaultFiles {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// decodeFile overlays a TOML or YAML file on cfg. Keys absent from the file
// keep their default values.
func decodeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return eris.Wrapf(err, "failed to parse %s", path)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return eris.Wrapf(err, "failed to parse %s", path)
		}
	}
	return nil
}
