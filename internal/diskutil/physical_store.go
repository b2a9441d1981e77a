package diskutil

import (
	"fmt"
	"regexp"
)

var (
	physicalStoreFieldTokenRegexp  = regexp.MustCompile(`\s*Physical Store disk[0-9]+(s[0-9]+)*`)
	physicalStoreValueDiskIDRegexp = regexp.MustCompile("disk[0-9]+(s[0-9]+)*")
)

// parsePhysicalStoreID searches a raw string for the string "Physical Store disk[0-9]+(s[0-9]+)*". The regular
// expression "disk[0-9]+(s[0-9]+)*" matches any disk ID without the "/dev/" prefix. Only the first store is
// returned, so fusion devices with more than one store resolve to their first member.
func parsePhysicalStoreID(raw string) (string, error) {
	physicalStore := physicalStoreFieldTokenRegexp.FindString(raw)
	diskID := physicalStoreValueDiskIDRegexp.FindString(physicalStore)
	if diskID == "" {
		return "", fmt.Errorf("physical store not found")
	}

	return diskID, nil
}
