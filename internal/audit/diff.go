package audit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/felixgeelhaar/sqlaudit/internal/errors"
)

// TextDiff produces a unified line-level diff between this audit's raw
// query and another standalone audit's, serialized with this audit's
// dialect. Diffing against anything that is not a standalone audit is
// an error.
func (a *StandaloneAudit) TextDiff(other Audit) (string, error) {
	o, ok := other.(*StandaloneAudit)
	if !ok {
		otherName := "<nil>"
		if other != nil {
			otherName = other.Name()
		}
		return "", errors.NewDiffTypeError(a.name, otherName)
	}

	oldSQL := a.query.SQL(a.dialect, false)
	newSQL := o.query.SQL(a.dialect, false)

	return unifiedDiff(a.name, o.name, oldSQL, newSQL), nil
}

// unifiedDiff renders a unified diff between two SQL texts, comparing
// whole lines.
func unifiedDiff(oldLabel, newLabel, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(withTrailingNewline(oldText), withTrailingNewline(newText))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var buf bytes.Buffer

	// Write diff header
	fmt.Fprintf(&buf, "--- a/%s\n", oldLabel)
	fmt.Fprintf(&buf, "+++ b/%s\n", newLabel)

	// Convert to unified diff format
	oldLine, newLine := 1, 1
	var hunkLines []string
	var hunkOldStart, hunkNewStart int
	var hunkOldCount, hunkNewCount int

	for _, diff := range diffs {
		for _, line := range splitLines(diff.Text) {
			if len(hunkLines) == 0 {
				hunkOldStart = oldLine
				hunkNewStart = newLine
			}

			switch diff.Type {
			case diffmatchpatch.DiffEqual:
				hunkLines = append(hunkLines, " "+line)
				hunkOldCount++
				hunkNewCount++
				oldLine++
				newLine++

			case diffmatchpatch.DiffDelete:
				hunkLines = append(hunkLines, "-"+line)
				hunkOldCount++
				oldLine++

			case diffmatchpatch.DiffInsert:
				hunkLines = append(hunkLines, "+"+line)
				hunkNewCount++
				newLine++
			}
		}
	}

	// Write hunk if there are changes
	if len(hunkLines) > 0 {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", hunkOldStart, hunkOldCount, hunkNewStart, hunkNewCount)
		for _, line := range hunkLines {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func withTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
