// Package pack implements the packaging pipeline: it maps the descriptor's
// pack section onto the build units twister produced, renames and copies the
// resulting artifacts, rewrites nrfutil batch files to match the renamed
// names, and emits flashing scripts next to them.
package pack

import (
	"fmt"

	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/models"
)

// ProjectPlan is the effective packing configuration for one named build
// configuration.
type ProjectPlan struct {
	Name      string
	Artifacts []string
	// Batch marks the project for nrfutil flash packing. The rewriter fills
	// Batches for such projects.
	Batch   bool
	Batches []BatchFile
}

// Plan is the packaging plan built from the descriptor's pack section.
type Plan struct {
	// Common artifact patterns, applied to every build unit not listed under
	// Projects.
	Common []string
	// Projects in declaration order.
	Projects []ProjectPlan
	// Extras are project-independent files packed under the extra folder.
	Extras []string
}

// PlanFromDescriptor builds the packaging plan. The descriptor validation
// already guarantees each build configuration declares exactly one of
// artifacts or overwrite_artifacts; this only maps the two onto effective
// lists.
func PlanFromDescriptor(d *models.Descriptor) (*Plan, error) {
	if d == nil || d.Pack == nil {
		return nil, fmt.Errorf("the pack section is missing from %s, add it and try again",
			config.DescriptorName)
	}

	plan := &Plan{
		Common: d.Pack.Artifacts,
		Extras: d.Pack.Extra,
	}

	for _, bc := range d.Pack.BuildConfigurations {
		var artifacts []string
		switch {
		case bc.OverwriteArtifacts != nil:
			artifacts = append(artifacts, bc.OverwriteArtifacts...)
		case bc.Artifacts != nil:
			artifacts = append(append(artifacts, plan.Common...), bc.Artifacts...)
		default:
			return nil, fmt.Errorf(
				"build configuration %q declares neither artifacts nor overwrite_artifacts", bc.Name)
		}

		plan.Projects = append(plan.Projects, ProjectPlan{
			Name:      bc.Name,
			Artifacts: artifacts,
			Batch:     bc.NrfutilFlashPack,
		})
	}

	return plan, nil
}

// Project returns the plan entry for the named project, or nil when the
// project is not explicitly listed.
func (p *Plan) Project(name string) *ProjectPlan {
	for i := range p.Projects {
		if p.Projects[i].Name == name {
			return &p.Projects[i]
		}
	}
	return nil
}

// ArtifactsFor returns the effective artifact patterns for a project,
// falling back to the common list for unlisted projects.
func (p *Plan) ArtifactsFor(name string) []string {
	if pp := p.Project(name); pp != nil {
		return pp.Artifacts
	}
	return p.Common
}

// UsesBatch reports whether a project is packed with nrfutil flash packing.
// Unlisted projects never are.
func (p *Plan) UsesBatch(name string) bool {
	pp := p.Project(name)
	return pp != nil && pp.Batch
}
