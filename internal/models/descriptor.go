// Package models holds the typed records parsed from the hoist.yml project
// descriptor. All downstream resolvers consume only these types; no raw YAML
// maps travel past the config loader.
package models

// Descriptor represents the parsed hoist.yml project descriptor.
type Descriptor struct {
	Apps    []AppConfig    `yaml:"apps,omitempty"`
	Samples []SampleConfig `yaml:"samples,omitempty"`
	Pack    *PackConfig    `yaml:"pack,omitempty"`
	Version *VersionConfig `yaml:"version,omitempty"`
}

// AppConfig is one entry under the apps key.
type AppConfig struct {
	Name       string            `yaml:"name"`
	WestBoards []string          `yaml:"west-boards,omitempty"`
	BuildTypes []BuildTypeConfig `yaml:"build-types,omitempty"`
}

// BuildTypeConfig is a named set of Kconfig fragment files layered on top of
// the common configuration.
type BuildTypeConfig struct {
	Type      string   `yaml:"type"`
	ConfFiles []string `yaml:"conf-files,omitempty"`
}

// SampleConfig is one entry under the samples key.
type SampleConfig struct {
	Name             string         `yaml:"name"`
	WestBoards       []string       `yaml:"west-boards,omitempty"`
	InheritBuildType *InheritConfig `yaml:"inherit-build-type,omitempty"`
}

// InheritConfig points a sample at an app's build type.
type InheritConfig struct {
	App       string `yaml:"app"`
	BuildType string `yaml:"build-type"`
}

// PackConfig is the pack section of the descriptor.
type PackConfig struct {
	Artifacts           []string             `yaml:"artifacts,omitempty"`
	BuildConfigurations []BuildConfiguration `yaml:"build_configurations,omitempty"`
	Extra               []string             `yaml:"extra,omitempty"`
}

// BuildConfiguration overrides packing behavior for a single named build
// configuration. Exactly one of Artifacts (appended to the common list) or
// OverwriteArtifacts (replaces the common list) must be set.
type BuildConfiguration struct {
	Name               string   `yaml:"name"`
	Artifacts          []string `yaml:"artifacts,omitempty"`
	OverwriteArtifacts []string `yaml:"overwrite_artifacts,omitempty"`
	NrfutilFlashPack   bool     `yaml:"nrfutil_flash_pack,omitempty"`
}

// VersionConfig lists the directories that receive generated VERSION files.
type VersionConfig struct {
	Paths []string `yaml:"paths"`
}

// App returns the app with the given name, or nil.
func (d *Descriptor) App(name string) *AppConfig {
	for i := range d.Apps {
		if d.Apps[i].Name == name {
			return &d.Apps[i]
		}
	}
	return nil
}

// Sample returns the sample with the given name, or nil.
func (d *Descriptor) Sample(name string) *SampleConfig {
	for i := range d.Samples {
		if d.Samples[i].Name == name {
			return &d.Samples[i]
		}
	}
	return nil
}

// BuildType returns the app's build type with the given name, or nil.
func (a *AppConfig) BuildType(name string) *BuildTypeConfig {
	for i := range a.BuildTypes {
		if a.BuildTypes[i].Type == name {
			return &a.BuildTypes[i]
		}
	}
	return nil
}
