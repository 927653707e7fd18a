package version

// Version is the current release of the event management system.
const Version = "1.2.0"

// BuildVersion returns the version string for display.
func BuildVersion() string {
	return "eventms version " + Version
}

// APIVersion returns just the version number for API responses.
func APIVersion() string {
	return Version
}
