package topology

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/diskofflaner/diskofflaner/internal/util"
)

var (
	// mountedVolumeRegexp matches diskutil's "Volume <name> on <id> mounted" success lines.
	mountedVolumeRegexp = regexp.MustCompile(`^Volume .* on \S+ (un)?mounted\.?$`)

	systemDiskPhrases = []string{
		"system disk",
		"boot disk",
		"system or boot",
		"pagefile volume",
		"page file",
		"crashdump volume",
		"crash dump",
		"hibernation file",
	}
	inUsePhrases = []string{
		"in use",
		"target is busy",
		"device is busy",
		"devicebusy",
		"resource busy",
		"dissented",
		"could not be unmounted",
	}
	servicePhrases = []string{
		"virtual disk service error",
		"diskpart has encountered an error",
		"org.freedesktop.udisks2.error",
	}
)

// ClassifyOutput matches tool output against the known failure phrases and returns ErrSystemDiskProtected,
// ErrResourceInUse or ErrServiceError, in that order of precedence. It returns nil when nothing matched.
func ClassifyOutput(out string) error {
	text := strings.ToLower(out)
	switch {
	case containsAny(text, systemDiskPhrases):
		return ErrSystemDiskProtected
	case containsAny(text, inUsePhrases):
		return ErrResourceInUse
	case containsAny(text, servicePhrases):
		return ErrServiceError
	}
	return nil
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// checkCommand inspects a finished command. The output is classified even when the exit status is zero since
// diskpart reports most failures that way.
func checkCommand(op, target string, out util.CommandOutput, err error) error {
	text := out.Combined()
	kind := ClassifyOutput(toolMessages(text))
	if err == nil && kind == nil {
		return nil
	}
	return &CommandError{Op: op, Target: target, Kind: kind, Output: text, Err: err}
}

// toolMessages drops the lines of tool output that echo volume names, which are user controlled: diskpart's volume
// table, udisksctl's "Mounted <device> at <path>." and diskutil's "Volume <name> on <id> mounted".
func toolMessages(out string) string {
	var kept []string
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))

		if strings.HasPrefix(trimmed, "Volume ###") {
			inTable = true
			continue
		}
		if inTable {
			row := strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
			if strings.HasPrefix(row, "Volume ") || strings.HasPrefix(row, "---") {
				continue
			}
			inTable = false
		}

		if strings.HasPrefix(trimmed, "Mounted ") || mountedVolumeRegexp.MatchString(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

// diskStateScript builds the diskpart script bringing disk n online or offline.
func diskStateScript(n uint32, online bool) string {
	verb := "offline"
	if online {
		verb = "online"
	}
	return fmt.Sprintf("select disk %d\n%s disk\nexit\n", n, verb)
}

// assignScript builds the diskpart script assigning a letter, or any free letter when letter is 0, to a partition
// and printing the partition details so the assigned letter can be read back.
func assignScript(disk, partition uint32, letter byte) string {
	assign := "assign"
	if letter != 0 {
		assign = fmt.Sprintf("assign letter=%c", letter)
	}
	return fmt.Sprintf("select disk %d\nselect partition %d\n%s\ndetail partition\nexit\n", disk, partition, assign)
}

// removeScript builds the diskpart script removing a volume's drive letter.
func removeScript(letter byte) string {
	return fmt.Sprintf("select volume %c\nremove\nexit\n", letter)
}

// parseDiskNumber validates a Windows disk id.
func parseDiskNumber(id string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil {
		return 0, invalidArgument("disk id %q is not a disk number", id)
	}
	return uint32(n), nil
}

// parseDriveLetter accepts "E", "e:", or "E:\" and returns the upper-case letter.
func parseDriveLetter(label string) (byte, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(label), `\`), ":")
	if len(s) != 1 {
		return 0, invalidArgument("%q is not a drive letter", label)
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return 0, invalidArgument("%q is not a drive letter", label)
	}
	return c, nil
}

// ParseAssignedLetter reads the drive letter of the volume listed by diskpart's "detail partition". The letter is
// taken from the "Ltr" column of the volume table, falling back to the third field of the volume row.
func ParseAssignedLetter(out string) (string, bool) {
	col := -1
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.Contains(line, "Volume ###") {
			col = strings.Index(line, "Ltr")
			continue
		}

		row := strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
		if !strings.HasPrefix(row, "Volume ") {
			continue
		}
		fields := strings.Fields(row)
		if len(fields) < 2 {
			continue
		}
		if _, err := strconv.Atoi(fields[1]); err != nil {
			continue
		}

		if col >= 0 && col < len(line) {
			if letter, ok := letterAt(line, col); ok {
				return letter, true
			}
			// The column is known and blank: no letter assigned.
			return "", false
		}
		if len(fields) > 2 && isLetter(fields[2]) {
			return strings.ToUpper(fields[2]), true
		}
		return "", false
	}
	return "", false
}

func letterAt(line string, col int) (string, bool) {
	end := col + 3
	if end > len(line) {
		end = len(line)
	}
	cell := strings.TrimSpace(line[col:end])
	if isLetter(cell) {
		return strings.ToUpper(cell), true
	}
	return "", false
}

func isLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
