package internal

var (
	commitVersion string = "v0.1.0" // May be updated using build flags
	commitDate    string = ""       // commitDate in Epoch seconds (may be filled in from build flags)
)

// GetVersion returns the version and, when set at build time, the commit date.
func GetVersion() string {
	if commitDate == "" {
		return commitVersion
	}
	return commitVersion + ", date: " + commitDate
}
