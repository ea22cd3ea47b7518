package model

type Mapping struct {
	Project string   `mapstructure:"project" json:"project"`
	Shared  string   `mapstructure:"shared" json:"shared"`
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`
}

func (m Mapping) Label() string {
	return m.Project + " <-> " + m.Shared
}

type Package struct {
	Name     string    `mapstructure:"name" json:"name"`
	Location string    `mapstructure:"location" json:"location"`
	Remote   string    `mapstructure:"remote" json:"remote"`
	Enabled  bool      `mapstructure:"enabled" json:"enabled"`
	Mappings []Mapping `mapstructure:"mappings" json:"mappings"`
}
