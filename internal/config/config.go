package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sharesync/internal/model"
	"sharesync/internal/util"

	"github.com/spf13/viper"
)

type WatchConfig struct {
	Debounce     time.Duration `mapstructure:"debounce"`
	Direction    string        `mapstructure:"direction"`
	Strategy     string        `mapstructure:"strategy"`
	PullInterval time.Duration `mapstructure:"pull_interval"`
}

type Config struct {
	Workspace   string          `mapstructure:"workspace"`
	DBPath      string          `mapstructure:"db_path"`
	DaemonPort  int             `mapstructure:"daemon_port"`
	Debug       bool            `mapstructure:"debug"`
	GitTimeout  time.Duration   `mapstructure:"git_timeout"`
	MtimeWindow time.Duration   `mapstructure:"mtime_window"`
	IgnoreList  []string        `mapstructure:"ignore_list"`
	Watch       WatchConfig     `mapstructure:"watch"`
	Packages    []model.Package `mapstructure:"packages"`
}

var Default = Config{
	Workspace:  ".",
	DBPath:     "~/.sharesync/history.db",
	DaemonPort: 9411,
	GitTimeout: 60 * time.Second,
	IgnoreList: []string{".git", ".DS_Store", "*.tmp", "*.swp"},
	Watch: WatchConfig{
		Debounce:     500 * time.Millisecond,
		Direction:    "both",
		Strategy:     "source",
		PullInterval: 10 * time.Minute,
	},
}

func Load() (*Config, error) {
	viper.SetConfigName("sharesync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(util.ExpandHome("~/.config/sharesync"))

	viper.SetDefault("workspace", Default.Workspace)
	viper.SetDefault("db_path", Default.DBPath)
	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("git_timeout", Default.GitTimeout)
	viper.SetDefault("mtime_window", Default.MtimeWindow)
	viper.SetDefault("ignore_list", Default.IgnoreList)
	viper.SetDefault("watch.debounce", Default.Watch.Debounce)
	viper.SetDefault("watch.direction", Default.Watch.Direction)
	viper.SetDefault("watch.strategy", Default.Watch.Strategy)
	viper.SetDefault("watch.pull_interval", Default.Watch.PullInterval)

	viper.SetEnvPrefix("SHARESYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the engine cannot run safely: duplicate
// package names, enabled packages without a location, an interactive
// strategy under watch mode, and mappings whose subtrees overlap (parallel
// workers assume disjoint filesystem state).
func (c *Config) Validate() error {
	names := make(map[string]bool, len(c.Packages))
	for _, pkg := range c.Packages {
		if pkg.Name == "" {
			return fmt.Errorf("package with empty name")
		}
		if names[pkg.Name] {
			return fmt.Errorf("duplicate package name: %s", pkg.Name)
		}
		names[pkg.Name] = true

		if pkg.Enabled && pkg.Location == "" {
			return fmt.Errorf("package %s: enabled but no location configured", pkg.Name)
		}

		if err := validateMappings(pkg); err != nil {
			return err
		}
	}

	if _, err := model.ParseDirection(c.Watch.Direction); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	strategy, err := model.ParseStrategy(c.Watch.Strategy)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if strategy == model.StrategyPrompt {
		return fmt.Errorf("watch: prompt strategy is not allowed in watch mode")
	}

	return nil
}

func validateMappings(pkg model.Package) error {
	for i, a := range pkg.Mappings {
		if a.Project == "" || a.Shared == "" {
			return fmt.Errorf("package %s: mapping %d: project and shared paths required", pkg.Name, i)
		}

		for _, b := range pkg.Mappings[i+1:] {
			if subtreesOverlap(a.Project, b.Project) {
				return fmt.Errorf("package %s: project subtrees overlap: %s and %s",
					pkg.Name, a.Project, b.Project)
			}
			if subtreesOverlap(a.Shared, b.Shared) {
				return fmt.Errorf("package %s: shared subtrees overlap: %s and %s",
					pkg.Name, a.Shared, b.Shared)
			}
		}
	}

	return nil
}

func subtreesOverlap(a, b string) bool {
	a = filepath.ToSlash(filepath.Clean(a))
	b = filepath.ToSlash(filepath.Clean(b))

	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func (c *Config) Package(name string) (model.Package, bool) {
	for _, pkg := range c.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}

	return model.Package{}, false
}

func (c *Config) EnabledPackages() []model.Package {
	var enabled []model.Package
	for _, pkg := range c.Packages {
		if pkg.Enabled {
			enabled = append(enabled, pkg)
		}
	}

	return enabled
}

// PackageLocation resolves a package's shared-repo location against the
// workspace root when it is relative.
func (c *Config) PackageLocation(pkg model.Package) string {
	loc := util.ExpandHome(pkg.Location)
	if loc == "" || filepath.IsAbs(loc) {
		return loc
	}

	return filepath.Join(util.ExpandHome(c.Workspace), loc)
}

// ProjectDir resolves a mapping's project subtree against the workspace root.
func (c *Config) ProjectDir(m model.Mapping) string {
	p := util.ExpandHome(m.Project)
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(util.ExpandHome(c.Workspace), p)
}
