package version

// Version is the current version of the analyzer.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/market-analyzer/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// ConfigVersion is the config file format this build writes and reads.
const ConfigVersion = "1.0.0"

// GetVersion returns the current version of the analyzer.
func GetVersion() string {
	return Version
}
