package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// CheckConfigCompatibility checks whether a config file written for
// configVersion can be read by this build.
//
// Compatibility Rules:
//   - An empty version is treated as the current ConfigVersion
//   - Major versions must match exactly
//   - Minor and patch versions can differ
//
// Examples:
//   - Supported 1.0.0, config 1.0.0 -> OK (exact match)
//   - Supported 1.0.0, config 1.4.2 -> OK (minor differs)
//   - Supported 1.0.0, config 2.0.0 -> ERROR (major differs)
//   - Supported 1.0.0, config abc -> ERROR (not a version)
func CheckConfigCompatibility(supportedVersion, configVersion string) error {
	supportedVersion = strings.TrimPrefix(supportedVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" {
		return nil
	}

	supported, err := semver.NewVersion(supportedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid supported version '%s'", supportedVersion)
	}

	requested, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if supported.Major() != requested.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "major version mismatch: analyzer reads %d.x.x but config is %d.x.x",
			supported.Major(), requested.Major())
	}

	return nil
}
