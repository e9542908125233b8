// Package areas provides shared constants and validation for brain area labels
package areas

// Common area acronyms present in the consolidated datacube
const (
	VISp = "VISp"
	VISl = "VISl"
	AUDp = "AUDp"
	MOs  = "MOs"
	ACAd = "ACAd"
	CA1  = "CA1"
)

// ValidAreas contains all area labels the analysis accepts
var ValidAreas = []string{VISp, VISl, AUDp, MOs, ACAd, CA1}

// IsValid checks if the given area label is in the list of valid areas
func IsValid(area string) bool {
	for _, validArea := range ValidAreas {
		if area == validArea {
			return true
		}
	}
	return false
}

// ValidAreasString returns a comma-separated string of valid areas for error messages
func ValidAreasString() string {
	return "VISp, VISl, AUDp, MOs, ACAd, CA1"
}
