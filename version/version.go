package version

import "fmt"

const (
	appMajor uint = 1
	appMinor uint = 2
	appPatch uint = 0
)

// String returns the application version as a properly formed string.
func String() string {
	return fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
}
