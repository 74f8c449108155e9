package config

import (
	"fmt"

	"catanbench/game"
)

// SiteConfig is one build site of a board layout. Slot is "corner" or
// "path"; adjacency always crosses slot kinds.
type SiteConfig struct {
	ID       int    `yaml:"id"`
	Slot     string `yaml:"slot"`
	Adjacent []int  `yaml:"adjacent"`
}

// NodeConfig is one production node and the corners it pays out to.
type NodeConfig struct {
	ID         int    `yaml:"id"`
	Resource   string `yaml:"resource"`
	Activation int    `yaml:"activation"`
	Sites      []int  `yaml:"sites"`
}

// StartConfig is a free starting placement, assigned to seats in order.
type StartConfig struct {
	Settlement int `yaml:"settlement"`
	Road       int `yaml:"road"`
}

type BoardConfig struct {
	Robber int           `yaml:"robber"`
	Nodes  []NodeConfig  `yaml:"nodes"`
	Sites  []SiteConfig  `yaml:"sites"`
	Starts []StartConfig `yaml:"starts"`
}

func (b BoardConfig) build() ([]game.NodeSetup, []game.SiteSetup, []game.StartSetup, error) {
	sites := make([]game.SiteSetup, 0, len(b.Sites))
	for _, site := range b.Sites {
		var slot game.SlotKind
		switch site.Slot {
		case "corner":
			slot = game.CornerSlot
		case "path":
			slot = game.PathSlot
		default:
			return nil, nil, nil, fmt.Errorf("site %d: unknown slot kind %q", site.ID, site.Slot)
		}
		adjacent := make([]game.SiteID, len(site.Adjacent))
		for i, adj := range site.Adjacent {
			adjacent[i] = game.SiteID(adj)
		}
		sites = append(sites, game.SiteSetup{ID: game.SiteID(site.ID), Slot: slot, Adjacent: adjacent})
	}

	nodes := make([]game.NodeSetup, 0, len(b.Nodes))
	for _, node := range b.Nodes {
		resource, ok := game.ParseResource(node.Resource)
		if !ok {
			return nil, nil, nil, fmt.Errorf("node %d: unknown resource %q", node.ID, node.Resource)
		}
		siteIDs := make([]game.SiteID, len(node.Sites))
		for i, id := range node.Sites {
			siteIDs[i] = game.SiteID(id)
		}
		nodes = append(nodes, game.NodeSetup{
			ID:         game.NodeID(node.ID),
			Resource:   resource,
			Activation: node.Activation,
			Sites:      siteIDs,
		})
	}

	starts := make([]game.StartSetup, 0, len(b.Starts))
	for _, start := range b.Starts {
		starts = append(starts, game.StartSetup{
			Settlement: game.SiteID(start.Settlement),
			Road:       game.SiteID(start.Road),
		})
	}
	return nodes, sites, starts, nil
}

// DefaultBoard is a compact two-row layout: corners 0..5 on top, 6..11 on
// the bottom, paths along each row plus the rungs between them. It seats up
// to four players.
func DefaultBoard() BoardConfig {
	adjacent := map[int][]int{}
	var paths []int
	link := func(path, a, b int) {
		paths = append(paths, path)
		adjacent[path] = []int{a, b}
		adjacent[a] = append(adjacent[a], path)
		adjacent[b] = append(adjacent[b], path)
	}
	for i := 0; i < 5; i++ {
		link(100+i, i, i+1)     // top row
		link(105+i, 6+i, 7+i)   // bottom row
	}
	for i := 0; i < 6; i++ {
		link(110+i, i, 6+i) // rungs
	}

	var sites []SiteConfig
	for corner := 0; corner < 12; corner++ {
		sites = append(sites, SiteConfig{ID: corner, Slot: "corner", Adjacent: adjacent[corner]})
	}
	for _, path := range paths {
		sites = append(sites, SiteConfig{ID: path, Slot: "path", Adjacent: adjacent[path]})
	}

	return BoardConfig{
		Robber: 6,
		Nodes: []NodeConfig{
			{ID: 1, Resource: "wood", Activation: 6, Sites: []int{0, 1, 6}},
			{ID: 2, Resource: "brick", Activation: 8, Sites: []int{1, 2, 7}},
			{ID: 3, Resource: "wheat", Activation: 5, Sites: []int{2, 3, 8}},
			{ID: 4, Resource: "sheep", Activation: 9, Sites: []int{3, 4, 9}},
			{ID: 5, Resource: "ore", Activation: 10, Sites: []int{4, 5, 10}},
			{ID: 6, Resource: "wheat", Activation: 3, Sites: []int{5, 11}},
			{ID: 7, Resource: "brick", Activation: 11, Sites: []int{7, 8}},
			{ID: 8, Resource: "sheep", Activation: 4, Sites: []int{9, 10, 11}},
		},
		Sites: sites,
		Starts: []StartConfig{
			{Settlement: 0, Road: 100},
			{Settlement: 3, Road: 103},
			{Settlement: 8, Road: 107},
			{Settlement: 11, Road: 115},
		},
	}
}
