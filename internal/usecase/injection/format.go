package injection

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/recall/internal/domain/memory"
)

// Section headers of the injection block.
const (
	InstructionsHeader = "STANDING INSTRUCTIONS:"
	MemoriesHeader     = "USER CONTEXT (Key memories):"
)

// FormatInjection renders instructions and memories as an LLM-ready text block.
// Empty sections are omitted; with nothing to inject the result is "".
func FormatInjection(instructions []memory.StandingInstruction, memories []memory.Memory, now time.Time) string {
	var sections []string

	if len(instructions) > 0 {
		var b strings.Builder
		b.WriteString(InstructionsHeader)
		for i := range instructions {
			fmt.Fprintf(&b, "\n%d. %s", i+1, instructions[i].InstructionText)
		}
		sections = append(sections, b.String())
	}

	if len(memories) > 0 {
		var b strings.Builder
		b.WriteString(MemoriesHeader)
		for i := range memories {
			m := &memories[i]
			fmt.Fprintf(&b, "\n%d. %s (%s, %.0f%%, %s, %s)",
				i+1, m.Fact, m.Category, m.Confidence*100,
				FormatAge(m.CreatedAt, now), AbbreviateSource(m.SourceType))
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

// FormatAge renders elapsed time as "just now", "Nh", "Nd" or "Nw".
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Hour:
		return "just now"
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/(24*7)))
	}
}

// AbbreviateSource returns the short label used in the injection block.
func AbbreviateSource(s memory.SourceType) string {
	switch s {
	case memory.SourceManual:
		return "manual"
	case memory.SourceExtractedFromChat:
		return "extracted"
	case memory.SourceAutoSummary:
		return "summary"
	case memory.SourceStandingInstruction:
		return "instruction"
	default:
		return "unknown"
	}
}
