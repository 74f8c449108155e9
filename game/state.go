package game

import (
	"fmt"
	"math/rand"

	"golang.org/x/exp/slices"
)

// Phase is the part of the turn protocol the state currently accepts
// actions for. The orchestrator drives transitions; the validator uses it to
// reject out-of-phase proposals.
type Phase int

const (
	PhaseAction  Phase = iota // regular build/trade/pass window
	PhaseDiscard              // after a 7, players over the hand limit discard
	PhaseRobber               // after discards, the roller relocates the robber
)

func (p Phase) String() string {
	switch p {
	case PhaseDiscard:
		return "discard"
	case PhaseRobber:
		return "robber"
	default:
		return "action"
	}
}

// HandLimit is the card count above which a rolled 7 forces discards.
const HandLimit = 7

// longestRoadMin is the minimum road count to hold the longest-road bonus.
const (
	longestRoadMin   = 5
	longestRoadBonus = 2
)

// Build costs, standard rules.
var (
	roadCost       = Hand{Brick: 1, Wood: 1}
	settlementCost = Hand{Brick: 1, Wood: 1, Wheat: 1, Sheep: 1}
	cityCost       = Hand{Ore: 3, Wheat: 2}
)

// Cost returns the resource cost of a buildable structure.
func Cost(s Structure) Hand {
	switch s {
	case Road:
		return roadCost
	case Settlement:
		return settlementCost
	case City:
		return cityCost
	default:
		return Hand{}
	}
}

// State is the single source of truth for one match: board, bank, players in
// fixed turn order, turn cursor and terminal flag. Exactly one logical turn
// owner mutates it at a time.
type State struct {
	Board   *Board
	Bank    *Bank
	Players []*PlayerState
	Current int // index into Players
	Turn    int
	Phase   Phase

	Terminal bool
	Winner   PlayerID // NoPlayer until won; stays NoPlayer on a draw

	TargetVP  int
	BankRatio int
}

// Player returns the player state for pid, or nil when pid is out of range.
func (s *State) Player(pid PlayerID) *PlayerState {
	if int(pid) < 0 || int(pid) >= len(s.Players) {
		return nil
	}
	return s.Players[pid]
}

// CurrentPlayer is the turn owner.
func (s *State) CurrentPlayer() *PlayerState {
	return s.Players[s.Current]
}

// Clone deep-copies the state. Providers get clones so that a misbehaving
// decision source can never touch the authoritative state.
func (s *State) Clone() *State {
	players := make([]*PlayerState, len(s.Players))
	for i, p := range s.Players {
		players[i] = p.clone()
	}
	return &State{
		Board:     s.Board.clone(),
		Bank:      s.Bank.clone(),
		Players:   players,
		Current:   s.Current,
		Turn:      s.Turn,
		Phase:     s.Phase,
		Terminal:  s.Terminal,
		Winner:    s.Winner,
		TargetVP:  s.TargetVP,
		BankRatio: s.BankRatio,
	}
}

// AdvanceTurn moves the cursor to the next player in fixed order and bumps
// the turn number.
func (s *State) AdvanceTurn() {
	s.Current = (s.Current + 1) % len(s.Players)
	s.Turn++
	s.Phase = PhaseAction
}

// VictoryPoints recomputes pid's score from built structures plus the
// longest-road bonus. Never cached, never directly mutated.
func (s *State) VictoryPoints(pid PlayerID) int {
	p := s.Player(pid)
	if p == nil {
		return 0
	}
	vp := 0
	for siteID := range p.Sites {
		switch s.Board.Sites[siteID].Built {
		case Settlement:
			vp++
		case City:
			vp += 2
		}
	}
	if s.longestRoadOwner() == pid {
		vp += longestRoadBonus
	}
	return vp
}

// RoadCount counts pid's built roads.
func (s *State) RoadCount(pid PlayerID) int {
	p := s.Player(pid)
	if p == nil {
		return 0
	}
	count := 0
	for siteID := range p.Sites {
		if s.Board.Sites[siteID].Built == Road {
			count++
		}
	}
	return count
}

// longestRoadOwner returns the unique player with at least longestRoadMin
// roads and strictly more than everyone else, or NoPlayer.
func (s *State) longestRoadOwner() PlayerID {
	best, bestCount, tied := NoPlayer, longestRoadMin-1, false
	for _, p := range s.Players {
		n := s.RoadCount(p.ID)
		switch {
		case n > bestCount:
			best, bestCount, tied = p.ID, n, false
		case n == bestCount && best != NoPlayer:
			tied = true
		}
	}
	if tied {
		return NoPlayer
	}
	return best
}

// CheckWinner flags the state terminal once any player reaches the target.
// Ties at the same check go to the earlier turn position, matching the
// fixed-order win check after each accepted build.
func (s *State) CheckWinner() {
	if s.Terminal {
		return
	}
	for _, p := range s.Players {
		if s.VictoryPoints(p.ID) >= s.TargetVP {
			s.Terminal = true
			s.Winner = p.ID
			return
		}
	}
}

// TotalInPlay sums bank supply and all hands for one resource. Constant for
// the lifetime of a match (the conservation law).
func (s *State) TotalInPlay(r ResourceType) int {
	total := s.Bank.Supply(r)
	for _, p := range s.Players {
		total += p.Hand.Count(r)
	}
	return total
}

// --- legal action enumeration -----------------------------------------------

// LegalActions enumerates the current player's legal proposals for the
// regular action phase, in deterministic order. It is handed to providers as
// a hint; the validator remains the authority.
func (s *State) LegalActions() []Action {
	pid := s.CurrentPlayer().ID
	p := s.CurrentPlayer()
	var actions []Action

	affordable := func(st Structure) bool {
		for r, n := range Cost(st) {
			if p.Hand.Count(r) < n {
				return false
			}
		}
		return true
	}

	for _, siteID := range s.Board.SiteIDs() {
		site := s.Board.Sites[siteID]
		switch {
		case site.Slot == PathSlot && site.Owner == NoPlayer:
			if affordable(Road) && s.Board.RoadConnected(site, pid) {
				actions = append(actions, Action{Type: BuildRoad, Site: siteID})
			}
		case site.Slot == CornerSlot && site.Owner == NoPlayer:
			if affordable(Settlement) && s.Board.SettlementConnected(site, pid) {
				actions = append(actions, Action{Type: BuildSettlement, Site: siteID})
			}
		case site.Slot == CornerSlot && site.Owner == pid && site.Built == Settlement:
			if affordable(City) {
				actions = append(actions, Action{Type: BuildCity, Site: siteID})
			}
		}
	}

	for _, give := range ResourceTypes() {
		if p.Hand.Count(give) < s.BankRatio {
			continue
		}
		for _, receive := range ResourceTypes() {
			if receive == give || s.Bank.Supply(receive) == 0 {
				continue
			}
			actions = append(actions, Action{
				Type: TradeWithBank, Give: give, GiveCount: s.BankRatio, Receive: receive,
			})
		}
	}

	for _, give := range ResourceTypes() {
		if p.Hand.Count(give) == 0 {
			continue
		}
		for _, other := range s.Players {
			if other.ID == pid {
				continue
			}
			actions = append(actions, Action{
				Type: TradeWithPlayer, Give: give, GiveCount: 1, To: other.ID,
			})
		}
	}

	actions = append(actions, Action{Type: PassTurn})
	return actions
}

// LegalDiscards enumerates single-resource discards that bring pid back to
// the hand limit in one action. Hands too mixed for a single-resource
// discard fall back to the orchestrator's deterministic policy.
func (s *State) LegalDiscards(pid PlayerID) []Action {
	p := s.Player(pid)
	if p == nil {
		return nil
	}
	required := p.TotalCards() - HandLimit
	if required <= 0 {
		return nil
	}
	var actions []Action
	for _, r := range ResourceTypes() {
		if p.Hand.Count(r) >= required {
			actions = append(actions, Action{Type: DiscardCards, Give: r, GiveCount: required})
		}
	}
	return actions
}

// LegalRobberMoves enumerates relocations: every node except the current
// one, with every stealable adjacent opponent (plus the no-steal variant).
func (s *State) LegalRobberMoves(pid PlayerID) []Action {
	var actions []Action
	for _, nodeID := range s.Board.NodeIDs() {
		if nodeID == s.Board.Robber {
			continue
		}
		node := s.Board.Nodes[nodeID]
		victims := []PlayerID{}
		for _, owner := range s.Board.AdjacentOwners(node) {
			if owner != pid && s.Player(owner).TotalCards() > 0 {
				victims = append(victims, owner)
			}
		}
		if len(victims) == 0 {
			actions = append(actions, Action{Type: MoveRobber, Node: nodeID, Victim: NoPlayer})
			continue
		}
		for _, v := range victims {
			actions = append(actions, Action{Type: MoveRobber, Node: nodeID, Victim: v})
		}
	}
	return actions
}

// --- applying validated actions ---------------------------------------------

// Apply mutates the state with an already-validated action and returns the
// resource movements it caused. Callers must validate first; Apply returns
// an error only on contract violations and never leaves a partial effect
// behind. rng drives the random steal on MoveRobber.
func (s *State) Apply(pid PlayerID, act Action, rng *rand.Rand) ([]ResourceDelta, error) {
	p := s.Player(pid)
	if p == nil {
		return nil, fmt.Errorf("apply: unknown player %d", pid)
	}

	switch act.Type {
	case BuildRoad:
		return s.applyBuild(p, act.Site, Road)
	case BuildSettlement:
		return s.applyBuild(p, act.Site, Settlement)
	case BuildCity:
		return s.applyBuild(p, act.Site, City)

	case TradeWithBank:
		if !p.Hand.Remove(act.Give, act.GiveCount) {
			return nil, fmt.Errorf("apply: player %d lacks %d %s", pid, act.GiveCount, act.Give)
		}
		s.Bank.deposit(act.Give, act.GiveCount)
		if !s.Bank.withdraw(act.Receive, 1) {
			// Validation guarantees supply; restore and fail loudly.
			s.Bank.withdraw(act.Give, act.GiveCount)
			p.Hand.Add(act.Give, act.GiveCount)
			return nil, fmt.Errorf("apply: bank out of %s", act.Receive)
		}
		p.Hand.Add(act.Receive, 1)
		p.BankTrades++
		return []ResourceDelta{
			{Player: pid, Resource: act.Give, Amount: -act.GiveCount},
			{Player: NoPlayer, Resource: act.Give, Amount: act.GiveCount},
			{Player: NoPlayer, Resource: act.Receive, Amount: -1},
			{Player: pid, Resource: act.Receive, Amount: 1},
		}, nil

	case TradeWithPlayer:
		to := s.Player(act.To)
		if to == nil {
			return nil, fmt.Errorf("apply: unknown trade partner %d", act.To)
		}
		if !p.Hand.Remove(act.Give, act.GiveCount) {
			return nil, fmt.Errorf("apply: player %d lacks %d %s", pid, act.GiveCount, act.Give)
		}
		to.Hand.Add(act.Give, act.GiveCount)
		p.PlayerTrades++
		return []ResourceDelta{
			{Player: pid, Resource: act.Give, Amount: -act.GiveCount},
			{Player: act.To, Resource: act.Give, Amount: act.GiveCount},
		}, nil

	case DiscardCards:
		if !p.Hand.Remove(act.Give, act.GiveCount) {
			return nil, fmt.Errorf("apply: player %d lacks %d %s to discard", pid, act.GiveCount, act.Give)
		}
		s.Bank.deposit(act.Give, act.GiveCount)
		return []ResourceDelta{
			{Player: pid, Resource: act.Give, Amount: -act.GiveCount},
			{Player: NoPlayer, Resource: act.Give, Amount: act.GiveCount},
		}, nil

	case MoveRobber:
		if _, ok := s.Board.Node(act.Node); !ok {
			return nil, fmt.Errorf("apply: unknown node %d", act.Node)
		}
		s.Board.Robber = act.Node
		if act.Victim == NoPlayer {
			return nil, nil
		}
		return s.steal(pid, act.Victim, rng)

	case PassTurn:
		return nil, nil

	default:
		return nil, fmt.Errorf("apply: unknown action type %d", act.Type)
	}
}

func (s *State) applyBuild(p *PlayerState, siteID SiteID, structure Structure) ([]ResourceDelta, error) {
	if _, ok := s.Board.Site(siteID); !ok {
		return nil, fmt.Errorf("apply: unknown site %d", siteID)
	}
	cost := Cost(structure)
	for r, n := range cost {
		if p.Hand.Count(r) < n {
			return nil, fmt.Errorf("apply: player %d cannot afford %s", p.ID, structure)
		}
	}
	var deltas []ResourceDelta
	for _, r := range ResourceTypes() {
		n := cost[r]
		if n == 0 {
			continue
		}
		p.Hand.Remove(r, n)
		s.Bank.deposit(r, n)
		deltas = append(deltas,
			ResourceDelta{Player: p.ID, Resource: r, Amount: -n},
			ResourceDelta{Player: NoPlayer, Resource: r, Amount: n},
		)
	}
	s.place(p.ID, siteID, structure)
	p.Builds++
	return deltas, nil
}

// place sets ownership and structure on a site. Shared by Apply and the free
// starting placements during setup.
func (s *State) place(pid PlayerID, siteID SiteID, structure Structure) {
	site := s.Board.Sites[siteID]
	site.Owner = pid
	site.Built = structure
	s.Player(pid).Sites[siteID] = struct{}{}
}

// steal moves one uniformly random card from victim to thief.
func (s *State) steal(thief, victim PlayerID, rng *rand.Rand) ([]ResourceDelta, error) {
	v := s.Player(victim)
	t := s.Player(thief)
	if v == nil || t == nil {
		return nil, fmt.Errorf("apply: unknown steal participant")
	}
	total := v.TotalCards()
	if total == 0 {
		return nil, nil
	}
	pick := rng.Intn(total)
	for _, r := range ResourceTypes() {
		n := v.Hand.Count(r)
		if pick < n {
			v.Hand.Remove(r, 1)
			t.Hand.Add(r, 1)
			return []ResourceDelta{
				{Player: victim, Resource: r, Amount: -1},
				{Player: thief, Resource: r, Amount: 1},
			}, nil
		}
		pick -= n
	}
	return nil, nil
}

// --- production --------------------------------------------------------------

// RollProduction pays out every node whose activation matches the roll and
// which does not host the robber: 1 per adjacent settlement, 2 per city.
// Payouts are aggregated per player per resource before any hand mutation;
// when the bank cannot cover the total owed for a resource, the short supply
// is split by largest-remainder allocation with ties going to earlier turn
// positions.
func (s *State) RollProduction(roll int) []ResourceDelta {
	// owed[resource][player]
	owed := map[ResourceType]map[PlayerID]int{}
	for _, nodeID := range s.Board.NodeIDs() {
		node := s.Board.Nodes[nodeID]
		if node.Activation != roll || nodeID == s.Board.Robber {
			continue
		}
		for _, siteID := range node.Sites {
			site := s.Board.Sites[siteID]
			if site.Owner == NoPlayer {
				continue
			}
			units := 0
			switch site.Built {
			case Settlement:
				units = 1
			case City:
				units = 2
			}
			if units == 0 {
				continue
			}
			if owed[node.Resource] == nil {
				owed[node.Resource] = map[PlayerID]int{}
			}
			owed[node.Resource][site.Owner] += units
		}
	}

	var deltas []ResourceDelta
	for _, r := range ResourceTypes() {
		byPlayer := owed[r]
		if len(byPlayer) == 0 {
			continue
		}
		total := 0
		for _, n := range byPlayer {
			total += n
		}
		payouts := s.allocate(byPlayer, total, s.Bank.Supply(r))
		for _, pid := range sortedPlayers(payouts) {
			pay := payouts[pid]
			if pay == 0 {
				continue
			}
			got := s.Bank.Produce(r, pay)
			s.Player(pid).Hand.Add(r, got)
			deltas = append(deltas,
				ResourceDelta{Player: NoPlayer, Resource: r, Amount: -got},
				ResourceDelta{Player: pid, Resource: r, Amount: got},
			)
		}
	}
	return deltas
}

// allocate splits supply among owed shares. Full payout when supply covers
// the total; otherwise largest-remainder with earlier turn positions winning
// remainder ties, so a short bank is distributed fairly and
// deterministically.
func (s *State) allocate(byPlayer map[PlayerID]int, total, supply int) map[PlayerID]int {
	out := make(map[PlayerID]int, len(byPlayer))
	if supply >= total {
		for pid, n := range byPlayer {
			out[pid] = n
		}
		return out
	}
	type share struct {
		pid       PlayerID
		remainder int
	}
	shares := make([]share, 0, len(byPlayer))
	allocated := 0
	for _, pid := range sortedPlayers(byPlayer) {
		n := byPlayer[pid]
		base := n * supply / total
		out[pid] = base
		allocated += base
		shares = append(shares, share{pid: pid, remainder: n*supply - base*total})
	}
	slices.SortStableFunc(shares, func(a, b share) int {
		if a.remainder != b.remainder {
			return b.remainder - a.remainder
		}
		return int(a.pid) - int(b.pid)
	})
	for i := 0; allocated < supply && i < len(shares); i++ {
		out[shares[i].pid]++
		allocated++
	}
	return out
}

// FallbackDiscards computes the deterministic highest-count-first discard
// sequence bringing pid down to the hand limit. Used when the provider
// declines or fails to pick its own discards.
func (s *State) FallbackDiscards(pid PlayerID) []Action {
	p := s.Player(pid)
	if p == nil {
		return nil
	}
	hand := p.Hand.Clone()
	var actions []Action
	for hand.Total() > HandLimit {
		r, ok := hand.Largest()
		if !ok {
			break
		}
		over := hand.Total() - HandLimit
		n := hand.Count(r)
		if n > over {
			n = over
		}
		hand.Remove(r, n)
		actions = append(actions, Action{Type: DiscardCards, Give: r, GiveCount: n})
	}
	return actions
}

// FallbackRobberMove picks the relocation targeting the node with the most
// adjacent opposing buildings, stealing from its first stealable owner.
func (s *State) FallbackRobberMove(pid PlayerID) Action {
	best := Action{Type: MoveRobber, Node: s.Board.Robber, Victim: NoPlayer}
	bestScore := -1
	for _, nodeID := range s.Board.NodeIDs() {
		if nodeID == s.Board.Robber {
			continue
		}
		node := s.Board.Nodes[nodeID]
		score := 0
		victim := NoPlayer
		for _, owner := range s.Board.AdjacentOwners(node) {
			if owner == pid {
				continue
			}
			score++
			if victim == NoPlayer && s.Player(owner).TotalCards() > 0 {
				victim = owner
			}
		}
		if score > bestScore {
			best = Action{Type: MoveRobber, Node: nodeID, Victim: victim}
			bestScore = score
		}
	}
	return best
}

func sortedPlayers[V any](m map[PlayerID]V) []PlayerID {
	out := make([]PlayerID, 0, len(m))
	for pid := range m {
		out = append(out, pid)
	}
	slices.Sort(out)
	return out
}
