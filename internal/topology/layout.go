package topology

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RawPartition is a partition table entry before mount state is known.
type RawPartition struct {
	Number uint32
	Size   uint64
	ID     string
}

// MountedVolume is a live mounted volume already confirmed to belong to the disk being resolved.
type MountedVolume struct {
	ID    string
	Label string
	Size  uint64
}

// OffsetID formats a starting byte offset as the upper-case hex identifier used to correlate Windows layout entries
// with volume extents.
func OffsetID(offset uint64) string {
	return fmt.Sprintf("%X", offset)
}

// ResolvePartitions left-joins the partition table with the mounted volumes of the same disk. When the table is
// empty the partitions are synthesized from the mounted volumes alone. The result is sorted by partition number.
func ResolvePartitions(raw []RawPartition, mounted []MountedVolume, log logrus.FieldLogger) []Partition {
	labels := make(map[string]string, len(mounted))
	for _, v := range mounted {
		if prev, ok := labels[v.ID]; ok {
			log.WithFields(logrus.Fields{
				"partition_id": v.ID,
				"kept":         v.Label,
				"dropped":      prev,
			}).Warn("Multiple mounted volumes claim the same partition")
		}
		labels[v.ID] = v.Label
	}

	parts := make([]Partition, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		// Unused slots have no length; MBR extended containers and EBR links have no number.
		if r.Size == 0 || r.Number == 0 {
			continue
		}
		if seen[r.ID] {
			log.WithField("partition_id", r.ID).Warn("Multiple partition table entries share an identifier")
		}
		seen[r.ID] = true

		parts = append(parts, Partition{
			Number:     r.Number,
			Size:       r.Size,
			MountLabel: labels[r.ID],
			ID:         r.ID,
		})
	}

	if len(parts) == 0 {
		return synthesizePartitions(mounted, labels)
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Number < parts[j].Number
	})

	return parts
}

// synthesizePartitions builds one record per distinct mounted volume, ordered by identifier and numbered from 1.
func synthesizePartitions(mounted []MountedVolume, labels map[string]string) []Partition {
	sizes := make(map[string]uint64, len(mounted))
	for _, v := range mounted {
		sizes[v.ID] = v.Size
	}

	ids := maps.Keys(labels)
	slices.SortFunc(ids, compareIDs)

	parts := make([]Partition, 0, len(ids))
	for i, id := range ids {
		parts = append(parts, Partition{
			Number:      uint32(i + 1),
			Size:        sizes[id],
			MountLabel:  labels[id],
			ID:          id,
			Synthesized: true,
		})
	}

	return parts
}

// compareIDs orders hex offsets numerically and everything else lexically.
func compareIDs(a, b string) int {
	av, aerr := strconv.ParseUint(a, 16, 64)
	bv, berr := strconv.ParseUint(b, 16, 64)
	if aerr == nil && berr == nil && isUpperHex(a) && isUpperHex(b) {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isUpperHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
