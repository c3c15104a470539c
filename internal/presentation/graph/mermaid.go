// Package graph renders dialog step tables as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/auticonnect/pkg/dialog"
)

// Overlay marks the progress of one session on the chart.
type Overlay struct {
	Answered []string
	Current  string
}

// OverlayFor builds the overlay of a session paused at step.
// Answered holds the keys of the session answers.
func OverlayFor(d *dialog.Dialog, step int, answered []string) *Overlay {
	o := &Overlay{Answered: answered}
	if s, err := d.Step(step); err == nil {
		o.Current = s.Name
	}
	return o
}

// Mermaid produces a flowchart of d. Shapes:
//   - the dialog entry: ((circle))
//   - text steps: [/parallelogram/]
//   - choice steps: {rhombus}
//   - the commit: [[subroutine]]
//
// Unconditional jumps are solid, branches dotted.
func Mermaid(d *dialog.Dialog, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := sanitizeID(string(d.Kind))
	commit := entry + "_commit"
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", entry, d.Kind)
	fmt.Fprintf(&sb, "    %s[[\"commit\"]]\n", commit)
	fmt.Fprintf(&sb, "    %s --> %s\n", entry, sanitizeID(d.Steps[0].Name))

	for i, s := range d.Steps {
		id := sanitizeID(s.Name)
		opener, closer := "[/", "/]"
		if s.Expect == dialog.InputChoice {
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(s.Name), closer)

		for j, b := range s.Branches {
			fmt.Fprintf(&sb, "    %s -. \"se %d\" .-> %s\n", id, j+1, sanitizeID(b.To))
		}
		switch {
		case s.Then != "":
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeID(s.Then))
		case s.End || i == len(d.Steps)-1:
			fmt.Fprintf(&sb, "    %s --> %s\n", id, commit)
		default:
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeID(d.Steps[i+1].Name))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on both themes.
		sb.WriteString("    classDef answered fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Answered {
			if _, ok := d.StepIndex(name); !ok {
				continue
			}
			id := sanitizeID(name)
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s answered;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.Current))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
