// Package linkage connects accounts that share identifying metadata and ranks
// them by centrality.
//
// The graph is rebuilt from scratch on every call. Betweenness is computed
// with Brandes' algorithm in O(V·E), which bounds practical populations to
// investigative scale (hundreds to low thousands of accounts).
package linkage

import (
	"slices"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

const (
	// ConnectionType labels persisted edges produced by this package.
	ConnectionType = "shared_metadata"

	weightDivisor = 10.0
)

// Risk groups assigned to nodes.
const (
	GroupHighRisk   = "high_risk"
	GroupMediumRisk = "medium_risk"
	GroupLowRisk    = "low_risk"
)

// Node is one account in the graph.
type Node struct {
	ID          string                `json:"id"`
	Label       string                `json:"label"`
	Group       string                `json:"group"`
	ThreatScore int                   `json:"threat_score"`
	Centrality  float64               `json:"centrality"`
	Betweenness float64               `json:"betweenness"`
	Account     domain.AccountSummary `json:"account"`
}

// Edge links two accounts. From precedes To in input order.
type Edge struct {
	From           string            `json:"from"`
	To             string            `json:"to"`
	Weight         float64           `json:"weight"`
	SharedMetadata []domain.Category `json:"shared_metadata"`
}

// Statistics summarizes a graph.
type Statistics struct {
	TotalNodes         int     `json:"total_nodes"`
	TotalEdges         int     `json:"total_edges"`
	AverageThreatScore float64 `json:"average_threat_score"`
	HighRiskNodes      int     `json:"high_risk_nodes"`
	NetworkDensity     float64 `json:"network_density"`
}

// Graph is the linkage view of an account population.
type Graph struct {
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}

// Builder builds linkage graphs over a fixed list of compared categories.
type Builder struct {
	categories []domain.Category
}

// New creates a Builder. A nil category list compares domain.LinkageCategories.
func New(categories []domain.Category) *Builder {
	if categories == nil {
		categories = domain.LinkageCategories
	}

	return &Builder{categories: categories}
}

// Build constructs the graph. Accounts with a repeated identifier keep their
// first occurrence. Nodes follow input order and edges follow the input order
// of their endpoints.
func (b *Builder) Build(accounts []domain.AccountSummary) Graph {
	accounts = uniqueAccounts(accounts)
	n := len(accounts)

	g := simple.NewUndirectedGraph()
	for i := range accounts {
		g.AddNode(simple.Node(int64(i)))
	}

	edges := []Edge{}

	for _, pair := range b.candidatePairs(accounts) {
		a, c := accounts[pair[0]], accounts[pair[1]]

		shared := SharedCategories(a.Metadata, c.Metadata, b.categories)
		if len(shared) == 0 {
			continue
		}

		g.SetEdge(simple.Edge{F: simple.Node(int64(pair[0])), T: simple.Node(int64(pair[1]))})
		edges = append(edges, Edge{
			From:           a.ID,
			To:             c.ID,
			Weight:         min(1.0, float64(len(shared))/weightDivisor),
			SharedMetadata: shared,
		})
	}

	between := network.Betweenness(g)
	nodes := make([]Node, n)
	stats := Statistics{TotalNodes: n, TotalEdges: len(edges), NetworkDensity: density(n, len(edges))}
	scoreSum := 0

	for i, acc := range accounts {
		nodes[i] = Node{
			ID:          acc.ID,
			Label:       label(acc),
			Group:       group(acc.ThreatScore),
			ThreatScore: acc.ThreatScore,
			Centrality:  degreeCentrality(g.From(int64(i)).Len(), n),
			Betweenness: normalizedBetweenness(between[int64(i)], n),
			Account:     acc,
		}

		scoreSum += acc.ThreatScore

		if acc.ThreatScore >= domain.HighRiskThreshold {
			stats.HighRiskNodes++
		}
	}

	if n > 0 {
		stats.AverageThreatScore = float64(scoreSum) / float64(n)
	}

	return Graph{Nodes: nodes, Edges: edges, Statistics: stats}
}

// candidatePairs returns index pairs (i < j) that share at least one value in
// a compared category, using a value index instead of full pairwise scanning.
func (b *Builder) candidatePairs(accounts []domain.AccountSummary) [][2]int {
	type valueKey struct {
		category domain.Category
		value    string
	}

	index := make(map[valueKey][]int)

	for i, acc := range accounts {
		for _, c := range b.categories {
			for _, v := range acc.Metadata.Get(c) {
				k := valueKey{category: c, value: v}
				if owners := index[k]; len(owners) > 0 && owners[len(owners)-1] == i {
					continue
				}

				index[k] = append(index[k], i)
			}
		}
	}

	seen := make(map[[2]int]struct{})

	for _, owners := range index {
		for x := 0; x < len(owners); x++ {
			for y := x + 1; y < len(owners); y++ {
				seen[[2]int{owners[x], owners[y]}] = struct{}{}
			}
		}
	}

	pairs := make([][2]int, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}

	slices.SortFunc(pairs, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}

		return a[1] - b[1]
	})

	return pairs
}

// SharedCategories lists, in categories order, every category where a and b
// hold at least one common value. The result does not depend on argument order.
func SharedCategories(a, b *domain.ExtractedMetadata, categories []domain.Category) []domain.Category {
	var shared []domain.Category

	for _, c := range categories {
		left := a.Get(c)
		if len(left) == 0 {
			continue
		}

		set := make(map[string]struct{}, len(left))
		for _, v := range left {
			set[v] = struct{}{}
		}

		for _, v := range b.Get(c) {
			if _, ok := set[v]; ok {
				shared = append(shared, c)

				break
			}
		}
	}

	return shared
}

// Connections converts graph edges to persistable connection records.
func Connections(g Graph) []domain.Connection {
	out := make([]domain.Connection, len(g.Edges))
	for i, e := range g.Edges {
		out[i] = domain.Connection{
			AccountA:       e.From,
			AccountB:       e.To,
			ConnectionType: ConnectionType,
			SharedMetadata: e.SharedMetadata,
			Strength:       e.Weight,
		}
	}

	return out
}

func uniqueAccounts(accounts []domain.AccountSummary) []domain.AccountSummary {
	seen := make(map[string]struct{}, len(accounts))
	out := make([]domain.AccountSummary, 0, len(accounts))

	for _, acc := range accounts {
		if _, ok := seen[acc.ID]; ok {
			continue
		}

		seen[acc.ID] = struct{}{}
		out = append(out, acc)
	}

	return out
}

func label(acc domain.AccountSummary) string {
	if acc.Username != "" {
		return acc.Username
	}

	return acc.ID
}

func group(score int) string {
	switch domain.RiskLevelFor(score) {
	case domain.RiskHigh:
		return GroupHighRisk
	case domain.RiskMedium:
		return GroupMediumRisk
	default:
		return GroupLowRisk
	}
}

func degreeCentrality(degree, n int) float64 {
	if n <= 1 {
		return float64(n)
	}

	return float64(degree) / float64(n-1)
}

// normalizedBetweenness scales the ordered-pair sum to [0, 1].
func normalizedBetweenness(raw float64, n int) float64 {
	if n <= 2 {
		return 0
	}

	return raw / float64((n-1)*(n-2))
}

func density(n, edges int) float64 {
	if n < 2 {
		return 0
	}

	return 2 * float64(edges) / float64(n*(n-1))
}
