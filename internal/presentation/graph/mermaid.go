package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the dialog.
// Node shapes:
// - Start: ((Circle))
// - Runs commands: [[Subroutine]]
// - Offers options: [/Parallelogram/]
// - Default: [Rectangle]
// Jumps are plain arrows, options are labelled arrows and conditional options are dotted.
func GenerateMermaid(d *domain.Dialog, start string, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range d.Nodes() {
		safeID := sanitizeMermaidID(node.Title)

		opener, closer := "[", "]"
		switch {
		case node.Title == start:
			opener, closer = "((", "))"
		case has[domain.CommandLine](node):
			opener, closer = "[[", "]]"
		case has[domain.OptionLine](node):
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(node.Title), closer)

		for _, line := range node.Lines {
			switch l := line.(type) {
			case domain.JumpLine:
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(l.Target))
			case domain.OptionLine:
				for _, p := range l.Possibilities {
					to := sanitizeMermaidID(p.Target)
					if p.Condition != nil {
						label := escape(fmt.Sprintf("%s [%s]", p.Text, p.Condition))
						fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, label, to)
						continue
					}
					fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(p.Text), to)
				}
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, title := range overlay.VisitedNodes {
			if _, ok := d.Lookup(title); !ok {
				continue
			}
			safeID := sanitizeMermaidID(title)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func has[T domain.Line](n domain.Node) bool {
	for _, l := range n.Lines {
		if _, ok := l.(T); ok {
			return true
		}
	}
	return false
}

// escape keeps labels inside Mermaid's double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch r {
		case '.', '-', '/', '\\', ' ':
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
