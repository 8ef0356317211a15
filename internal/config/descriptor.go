// Package config loads and validates the hoist.yml project descriptor and the
// per-user settings file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/embeddedforge/hoist/internal/models"
)

// DescriptorName is the file name of the project descriptor.
const DescriptorName = "hoist.yml"

// ReleaseBuildType is a reserved build type name. Apps carry it implicitly;
// it means "no overlay, common configuration only" and never has to be
// declared in the descriptor.
const ReleaseBuildType = "release"

// LoadDescriptor loads and validates hoist.yml from the given path. A missing
// file is not an error: commands that do not need a descriptor still work
// without one, so (nil, nil) is returned.
func LoadDescriptor(path string) (*models.Descriptor, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", DescriptorName, err)
	}

	var d models.Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DescriptorName, err)
	}

	if err := validateDescriptor(&d); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", DescriptorName, err)
	}

	return &d, nil
}

func validateDescriptor(d *models.Descriptor) error {
	if err := checkDuplicateNames("apps", appNames(d.Apps)); err != nil {
		return err
	}

	for _, app := range d.Apps {
		var types []string
		for _, bt := range app.BuildTypes {
			types = append(types, bt.Type)
		}
		if err := checkDuplicateNames(fmt.Sprintf("apps.%s.build-types", app.Name), types); err != nil {
			return err
		}
	}

	var sampleNames []string
	for _, s := range d.Samples {
		sampleNames = append(sampleNames, s.Name)
	}
	if err := checkDuplicateNames("samples", sampleNames); err != nil {
		return err
	}

	for _, s := range d.Samples {
		if err := validateInherit(d, s); err != nil {
			return err
		}
	}

	if d.Pack != nil {
		if err := validatePack(d.Pack); err != nil {
			return err
		}
	}

	if d.Version != nil {
		if err := checkDuplicateNames("version.paths", d.Version.Paths); err != nil {
			return err
		}
	}

	return nil
}

func validateInherit(d *models.Descriptor, s models.SampleConfig) error {
	inherit := s.InheritBuildType
	if inherit == nil {
		return nil
	}

	if len(d.Apps) == 0 {
		return fmt.Errorf("sample %q inherits a build type, but there are no apps to inherit from", s.Name)
	}

	app := d.App(inherit.App)
	if app == nil {
		return fmt.Errorf("sample %q inherits from non-existing app %q", s.Name, inherit.App)
	}

	// Apps always have the release build type implicitly, so it never has to
	// be declared.
	if inherit.BuildType != ReleaseBuildType && app.BuildType(inherit.BuildType) == nil {
		return fmt.Errorf("sample %q inherits non-existing build type %q of app %q",
			s.Name, inherit.BuildType, inherit.App)
	}

	return nil
}

func validatePack(p *models.PackConfig) error {
	if err := checkDuplicateNames("pack.artifacts", p.Artifacts); err != nil {
		return err
	}

	var names []string
	for _, bc := range p.BuildConfigurations {
		names = append(names, bc.Name)
	}
	if err := checkDuplicateNames("pack.build_configurations", names); err != nil {
		return err
	}

	for _, bc := range p.BuildConfigurations {
		if bc.Artifacts != nil && bc.OverwriteArtifacts != nil {
			return fmt.Errorf(
				"pack.build_configurations.%s sets both artifacts and overwrite_artifacts, which is not allowed",
				bc.Name)
		}
		if bc.Artifacts == nil && bc.OverwriteArtifacts == nil {
			return fmt.Errorf(
				"pack.build_configurations.%s must set one of artifacts or overwrite_artifacts",
				bc.Name)
		}

		field := fmt.Sprintf("pack.build_configurations.%s.artifacts", bc.Name)
		if bc.OverwriteArtifacts != nil {
			field = fmt.Sprintf("pack.build_configurations.%s.overwrite_artifacts", bc.Name)
			if err := checkDuplicateNames(field, bc.OverwriteArtifacts); err != nil {
				return err
			}
			continue
		}

		if err := checkDuplicateNames(field, bc.Artifacts); err != nil {
			return err
		}
		// The effective list is common ++ declared, so entries must also be
		// unique across the two.
		if err := checkDuplicateNames(field, append(append([]string{}, p.Artifacts...), bc.Artifacts...)); err != nil {
			return err
		}
	}

	if err := checkDuplicateNames("pack.extra", p.Extra); err != nil {
		return err
	}

	return nil
}

func appNames(apps []models.AppConfig) []string {
	var names []string
	for _, a := range apps {
		names = append(names, a.Name)
	}
	return names
}

func checkDuplicateNames(field string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("duplicated entry %q under %s", n, field)
		}
		seen[n] = true
	}
	return nil
}
