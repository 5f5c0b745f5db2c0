package entitytype

import (
	"fmt"
	"os"

	"factory-server/internal/terrain"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Resources    []Resource     `yaml:"resources"`
	Landings     []terrain.Type `yaml:"landings"`
	DepositTypes []DepositType  `yaml:"deposit_types"`
	EntityTypes  []Spec         `yaml:"entity_types"`
}

// Load reads a YAML catalog and returns a sealed registry.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg, err := c.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Build registers the catalog contents in dependency order and seals the
// result.
func (c Catalog) Build() (*Registry, error) {
	reg := NewRegistry()
	for _, res := range c.Resources {
		if err := reg.RegisterResource(res); err != nil {
			return nil, err
		}
	}
	for _, l := range c.Landings {
		if err := reg.RegisterLanding(l); err != nil {
			return nil, err
		}
	}
	for _, d := range c.DepositTypes {
		if err := reg.RegisterDeposit(d); err != nil {
			return nil, err
		}
	}
	for _, s := range c.EntityTypes {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}
