package model

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderPattern matches a unified-diff hunk header, e.g.
// "@@ -50,10 +51,13 @@ func foo() {".
var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+),(\d+) \+(\d+),(\d+) @@`)

// Hunk is one contiguous changed region of a unified diff. Start lines are
// inclusive; end lines are exclusive (start + count).
type Hunk struct {
	LeftStart  int
	LeftEnd    int
	RightStart int
	RightEnd   int
}

// HunkSet is the ordered list of hunks parsed from one file patch.
type HunkSet struct {
	hunks []Hunk
}

// ParseHunks scans a file patch and collects a hunk per header line. Lines
// that are not hunk headers, including hunk bodies and malformed headers,
// are ignored: patch text is best-effort input and never raises.
func ParseHunks(patch string) HunkSet {
	var hunks []Hunk
	for _, line := range strings.Split(patch, "\n") {
		if !strings.HasPrefix(line, "@@") {
			continue
		}
		m := hunkHeaderPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		leftStart, _ := strconv.Atoi(m[1])
		leftCount, _ := strconv.Atoi(m[2])
		rightStart, _ := strconv.Atoi(m[3])
		rightCount, _ := strconv.Atoi(m[4])
		hunks = append(hunks, Hunk{
			LeftStart:  leftStart,
			LeftEnd:    leftStart + leftCount,
			RightStart: rightStart,
			RightEnd:   rightStart + rightCount,
		})
	}
	return HunkSet{hunks: hunks}
}

// IsLineValid reports whether a review comment may target the given line on
// the given side. Side "LEFT" checks the old-file ranges; any other value,
// including "RIGHT" and empty, checks the new-file ranges. Both bounds are
// inclusive: GitHub accepts comments on the trailing context line equal to
// start + count, so the exclusive End is still a valid target.
func (hs HunkSet) IsLineValid(side string, line int) bool {
	for _, h := range hs.hunks {
		if side == "LEFT" {
			if line >= h.LeftStart && line <= h.LeftEnd {
				return true
			}
		} else {
			if line >= h.RightStart && line <= h.RightEnd {
				return true
			}
		}
	}
	return false
}

// Len returns the number of hunks in the set.
func (hs HunkSet) Len() int {
	return len(hs.hunks)
}
