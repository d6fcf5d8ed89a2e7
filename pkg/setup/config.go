// Package setup builds a runnable SourceNetwork from a declarative YAML
// document: node graph, registration order, per-node owning rank, controls.
// Construction is all-or-nothing; no partially built network is returned.
package setup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the root of a network configuration. Collection order is
// registration order and therefore load-bearing: groups must follow their
// members, overflow sinks must precede the reinjectors routing into them, and
// reinjector distribution runs in exactly the reverse of document order.
type Document struct {
	Network     NetworkConfig      `yaml:"network"`
	Sources     []SourceConfig     `yaml:"sources" validate:"required,min=1,dive"`
	Groups      []GroupConfig      `yaml:"groups" validate:"omitempty,dive"`
	Reinjectors []ReinjectorConfig `yaml:"reinjectors" validate:"omitempty,dive"`
	Controls    []ControlConfig    `yaml:"controls" validate:"omitempty,dive"`
}

// NetworkConfig carries network-level settings.
type NetworkConfig struct {
	// ID names the network instance in logs. A UUID is generated when
	// empty.
	ID string `yaml:"id"`
}

// SourceConfig describes one source node.
type SourceConfig struct {
	Name string `yaml:"name" validate:"required"`
	Cell int    `yaml:"cell" validate:"min=0"`
	Rank int    `yaml:"rank" validate:"min=0"`

	// Rate is the configured signed flow rate: negative produces.
	Rate float64 `yaml:"rate"`
	// Enthalpy is the flowing enthalpy of produced fluid.
	Enthalpy float64 `yaml:"enthalpy" validate:"min=0"`
	// FixedEnthalpy pins the configured enthalpy: the driver's per-cell
	// enthalpy override is not bound to this source.
	FixedEnthalpy bool `yaml:"fixed_enthalpy"`
	// InjectionEnthalpy is the enthalpy of injected fluid.
	InjectionEnthalpy float64 `yaml:"injection_enthalpy" validate:"min=0"`
	// MaxInjectionRate bounds redistributed flow into this source.
	MaxInjectionRate float64 `yaml:"max_injection_rate" validate:"min=0"`

	Separator *SeparatorConfig `yaml:"separator"`
}

// SeparatorConfig describes a source's separator. The operating point is
// either a pressure, or a design steam quality at a reference enthalpy from
// which the pressure is solved.
type SeparatorConfig struct {
	Pressure float64 `yaml:"pressure" validate:"min=0"`

	// WaterFit and SteamFit are ascending polynomial coefficients of the
	// saturated liquid and vapour enthalpy versus pressure.
	WaterFit []float64 `yaml:"water_fit" validate:"required,min=1"`
	SteamFit []float64 `yaml:"steam_fit" validate:"required,min=1"`

	// DesignQuality, when set, specifies the separator by the steam
	// quality it should produce for flow at ReferenceEnthalpy. The
	// pressure is solved by Newton iteration from InitialPressure.
	DesignQuality     *float64 `yaml:"design_quality" validate:"omitempty,gte=0,lte=1"`
	ReferenceEnthalpy float64  `yaml:"reference_enthalpy" validate:"min=0"`
	InitialPressure   float64  `yaml:"initial_pressure" validate:"min=0"`
}

// GroupConfig describes one group node. Members name sources or groups that
// appear earlier in the document.
type GroupConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Rank    int      `yaml:"rank" validate:"min=0"`
	Members []string `yaml:"members" validate:"required,min=1,dive,required"`
}

// LineConfig describes one phase's redistribution line of a reinjector.
type LineConfig struct {
	// Targets name injection sources, in configuration order.
	Targets []string `yaml:"targets" validate:"omitempty,dive,required"`
	// Order is the priority permutation over Targets. Empty means
	// configuration order.
	Order []int `yaml:"order"`
	// OverflowTo names a reinjector appearing earlier in the document.
	OverflowTo string `yaml:"overflow_to"`
}

// ReinjectorConfig describes one reinjector node.
type ReinjectorConfig struct {
	Name   string     `yaml:"name" validate:"required"`
	Rank   int        `yaml:"rank" validate:"min=0"`
	Inputs []string   `yaml:"inputs" validate:"omitempty,dive,required"`
	Water  LineConfig `yaml:"water"`
	Steam  LineConfig `yaml:"steam"`
}

// ControlConfig describes one interval_update control driving a source
// parameter from a time table.
type ControlConfig struct {
	Name string `yaml:"name" validate:"required"`
	Node string `yaml:"node" validate:"required"`
	// Parameter is one of rate, enthalpy, injection_enthalpy,
	// max_injection_rate, separator_pressure.
	Parameter string `yaml:"parameter" validate:"required"`
	// Mode is one of step (default), endpoint, integrate.
	Mode  string        `yaml:"mode"`
	Table []PointConfig `yaml:"table" validate:"required,min=1,dive"`
}

// PointConfig is one breakpoint of a control's time table.
type PointConfig struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing network configuration: %w", err)
	}
	if err := ValidateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network configuration: %w", err)
	}
	return Parse(data)
}
