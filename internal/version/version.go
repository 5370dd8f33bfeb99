package version

// Build information. Populated at build-time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a human-readable version string.
func Info() string {
	return Version + " (commit " + GitCommit + ", built " + BuildDate + ")"
}
