package pipeline

import "strings"

// ReconcileLabel merges the detection and classification views of a region.
// The refined classifier label is authoritative whenever present; the coarse
// detection label is only a fallback for classifier abstention.
func ReconcileLabel(coarse, refined string) string {
	if strings.TrimSpace(refined) != "" {
		return refined
	}
	return coarse
}
