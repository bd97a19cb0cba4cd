// Package inspect runs consumer-side analysis over a finished description:
// cycle detection, self-loop and duplicate-edge reporting for each edge
// group. The description itself never interprets its graphs; this package
// is the downstream logic that does.
package inspect

import (
	"github.com/soderlund/graphdesc/pkg/description"
	"github.com/soderlund/graphdesc/pkg/graph"
)

// GroupReport summarizes one edge group.
type GroupReport struct {
	Group          string     `json:"group"`
	EdgeCount      int        `json:"edge_count"`
	UniqueEdges    int        `json:"unique_edges"`
	DuplicateEdges int        `json:"duplicate_edges"`
	SelfLoops      []string   `json:"self_loops,omitempty"` // node names
	Cycles         [][]string `json:"cycles,omitempty"`     // node names per SCC
}

// Analyze produces a report per edge group, in declaration order.
func Analyze(desc *description.Description) []GroupReport {
	reports := make([]GroupReport, 0, len(desc.Groups()))
	for _, name := range desc.Groups() {
		eg, _ := desc.EdgeGroup(name)
		reports = append(reports, analyzeGroup(desc, eg))
	}
	return reports
}

func analyzeGroup(desc *description.Description, eg *graph.EdgeGroup) GroupReport {
	report := GroupReport{Group: eg.Name(), EdgeCount: eg.Len()}

	unique := make(map[graph.Edge]bool)
	loopSeen := make(map[int64]bool)
	for _, e := range eg.Edges() {
		if unique[e] {
			report.DuplicateEdges++
			continue
		}
		unique[e] = true
		if e.Source == e.Target && !loopSeen[e.Source] {
			loopSeen[e.Source] = true
			name, _ := desc.NodeName(e.Source)
			report.SelfLoops = append(report.SelfLoops, name)
		}
	}
	report.UniqueEdges = len(unique)

	for _, scc := range stronglyConnected(eg.Directed()) {
		cycle := make([]string, 0, len(scc))
		for _, id := range scc {
			name, _ := desc.NodeName(id)
			cycle = append(cycle, name)
		}
		report.Cycles = append(report.Cycles, cycle)
	}
	return report
}
