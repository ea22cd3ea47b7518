package config

import (
	"testing"

	"sharesync/internal/model"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := Default
	cfg.Packages = []model.Package{
		{
			Name:     "shared-python",
			Location: "___shared",
			Remote:   "origin",
			Enabled:  true,
			Mappings: []model.Mapping{
				{Project: "projects/a/lib", Shared: "shared-python"},
				{Project: "projects/b/lib", Shared: "shared-go"},
			},
		},
	}
	return &cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("duplicate package names rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages = append(cfg.Packages, model.Package{Name: "shared-python", Location: "x"})
		assert.ErrorContains(t, cfg.Validate(), "duplicate package name")
	})

	t.Run("enabled package needs a location", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages[0].Location = ""
		assert.ErrorContains(t, cfg.Validate(), "no location")
	})

	t.Run("disabled package may omit location", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages[0].Location = ""
		cfg.Packages[0].Enabled = false
		assert.NoError(t, cfg.Validate())
	})

	t.Run("overlapping project subtrees rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages[0].Mappings[1].Project = "projects/a/lib/sub"
		assert.ErrorContains(t, cfg.Validate(), "project subtrees overlap")
	})

	t.Run("overlapping shared subtrees rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages[0].Mappings[1].Shared = "shared-python"
		assert.ErrorContains(t, cfg.Validate(), "shared subtrees overlap")
	})

	t.Run("sibling prefixes are not overlaps", func(t *testing.T) {
		cfg := validConfig()
		cfg.Packages[0].Mappings[1].Project = "projects/a/library"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("prompt strategy rejected in watch mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Watch.Strategy = "prompt"
		assert.ErrorContains(t, cfg.Validate(), "watch")
	})

	t.Run("unknown watch direction rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Watch.Direction = "sideways"
		assert.Error(t, cfg.Validate())
	})
}

func TestSubtreesOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"a/b", "a/b", true},
		{"a/b", "a/b/c", true},
		{"a/b/c", "a/b", true},
		{"a/b", "a/bc", false},
		{"a/b", "c/d", false},
		{"a/b/", "a/b", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, subtreesOverlap(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestPackageLookup(t *testing.T) {
	cfg := validConfig()

	pkg, ok := cfg.Package("shared-python")
	assert.True(t, ok)
	assert.Equal(t, "___shared", pkg.Location)

	_, ok = cfg.Package("missing")
	assert.False(t, ok)

	cfg.Packages[0].Enabled = false
	assert.Empty(t, cfg.EnabledPackages())
}
