package game

import "golang.org/x/exp/slices"

// SiteID identifies a build site (a corner slot for settlements and cities,
// or a path slot for roads).
type SiteID int

// NodeID identifies a production node (hex).
type NodeID int

// SlotKind tells what kind of structure a site can host.
type SlotKind int

const (
	CornerSlot SlotKind = iota // settlements and cities
	PathSlot                   // roads
)

func (k SlotKind) String() string {
	if k == PathSlot {
		return "path"
	}
	return "corner"
}

// Structure is what currently stands on a site.
type Structure int

const (
	NoStructure Structure = iota
	Road
	Settlement
	City
)

var structureNames = map[Structure]string{
	NoStructure: "none",
	Road:        "road",
	Settlement:  "settlement",
	City:        "city",
}

func (s Structure) String() string { return structureNames[s] }

// BuildSite is one buildable location. Owner is NoPlayer until something is
// built; once set it never changes again. The only mutation after that is
// the Settlement to City upgrade by the same owner.
type BuildSite struct {
	ID       SiteID
	Slot     SlotKind
	Owner    PlayerID
	Built    Structure
	Adjacent []SiteID // corner sites list their paths, path sites their corners
}

// ProductionNode is a hex paying out its resource when the dice hit its
// activation number, to every adjacent corner building.
type ProductionNode struct {
	ID         NodeID
	Resource   ResourceType
	Activation int // 2..12, fixed at board creation
	Sites      []SiteID
}

// Board is the spatial model: the site graph and production nodes are
// immutable after setup; only site ownership and the robber location change.
type Board struct {
	Sites  map[SiteID]*BuildSite
	Nodes  map[NodeID]*ProductionNode
	Robber NodeID
}

func (b *Board) Site(id SiteID) (*BuildSite, bool) {
	s, ok := b.Sites[id]
	return s, ok
}

func (b *Board) Node(id NodeID) (*ProductionNode, bool) {
	n, ok := b.Nodes[id]
	return n, ok
}

// SiteIDs returns all site ids in ascending order for deterministic
// enumeration of legal actions.
func (b *Board) SiteIDs() []SiteID {
	ids := make([]SiteID, 0, len(b.Sites))
	for id := range b.Sites {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *Board) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(b.Nodes))
	for id := range b.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RoadConnected reports whether a path site touches the player's existing
// network: an owned corner building, or another owned road one corner away.
func (b *Board) RoadConnected(path *BuildSite, pid PlayerID) bool {
	for _, cornerID := range path.Adjacent {
		corner := b.Sites[cornerID]
		if corner == nil {
			continue
		}
		if corner.Owner == pid {
			return true
		}
		// An unowned corner still connects two of the player's roads.
		if corner.Owner == NoPlayer {
			for _, otherID := range corner.Adjacent {
				if otherID == path.ID {
					continue
				}
				if other := b.Sites[otherID]; other != nil && other.Owner == pid && other.Built == Road {
					return true
				}
			}
		}
	}
	return false
}

// SettlementConnected reports whether a corner site touches one of the
// player's roads.
func (b *Board) SettlementConnected(corner *BuildSite, pid PlayerID) bool {
	for _, pathID := range corner.Adjacent {
		if path := b.Sites[pathID]; path != nil && path.Owner == pid && path.Built == Road {
			return true
		}
	}
	return false
}

// AdjacentOwners lists the distinct owners of buildings on corners around a
// node, in ascending player order.
func (b *Board) AdjacentOwners(node *ProductionNode) []PlayerID {
	seen := map[PlayerID]struct{}{}
	for _, siteID := range node.Sites {
		site := b.Sites[siteID]
		if site == nil || site.Owner == NoPlayer || site.Slot != CornerSlot {
			continue
		}
		seen[site.Owner] = struct{}{}
	}
	owners := make([]PlayerID, 0, len(seen))
	for pid := range seen {
		owners = append(owners, pid)
	}
	slices.Sort(owners)
	return owners
}

func (b *Board) clone() *Board {
	c := &Board{
		Sites:  make(map[SiteID]*BuildSite, len(b.Sites)),
		Nodes:  make(map[NodeID]*ProductionNode, len(b.Nodes)),
		Robber: b.Robber,
	}
	for id, s := range b.Sites {
		cp := *s
		cp.Adjacent = slices.Clone(s.Adjacent)
		c.Sites[id] = &cp
	}
	for id, n := range b.Nodes {
		cp := *n
		cp.Sites = slices.Clone(n.Sites)
		c.Nodes[id] = &cp
	}
	return c
}
