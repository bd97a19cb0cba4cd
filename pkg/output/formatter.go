package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/soderlund/graphdesc/pkg/description"
	"github.com/soderlund/graphdesc/pkg/inspect"
)

// PrintReport prints a colorized summary of a built description.
func PrintReport(source string, desc *description.Description, reports []inspect.GroupReport) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("graphdesc - Description Report")
	bold.Println("==============================")
	if source != "" {
		fmt.Printf("Declaration: %s\n", source)
	}
	fmt.Printf("Nodes: %d\n", desc.Len())
	fmt.Printf("Edge groups: %d\n", len(desc.Groups()))
	fmt.Println()

	bold.Println("NODES:")
	for _, name := range desc.Nodes() {
		id, _ := desc.NodeID(name)
		cyan.Printf("  [%d] %s", id, name)
		if attrs := desc.Attrs(name); len(attrs) > 0 {
			keys := make([]string, 0, len(attrs))
			for key := range attrs {
				keys = append(keys, key)
			}
			fmt.Printf("  (attrs: %s)", strings.Join(keys, ", "))
		}
		fmt.Println()
	}
	fmt.Println()

	clean := true
	for _, report := range reports {
		bold.Printf("GROUP %q:\n", report.Group)
		fmt.Printf("  Edges: %d", report.EdgeCount)
		if report.DuplicateEdges > 0 {
			yellow.Printf("  (%d duplicate)", report.DuplicateEdges)
		}
		fmt.Println()

		if eg, ok := desc.EdgeGroup(report.Group); ok {
			for _, edge := range eg.Edges() {
				from, _ := desc.NodeName(edge.Source)
				to, _ := desc.NodeName(edge.Target)
				fmt.Printf("    %s -> %s\n", from, to)
			}
		}

		if len(report.SelfLoops) > 0 {
			yellow.Printf("  Self-loops: %s\n", strings.Join(report.SelfLoops, ", "))
		}
		for _, cycle := range report.Cycles {
			clean = false
			red.Printf("  Cycle: %s\n", strings.Join(cycle, " -> "))
		}
		fmt.Println()
	}

	if clean {
		green.Println("✓ No cycles detected in any edge group")
	} else {
		red.Println("Cycles detected - downstream consumers may reject this description")
	}
}
