package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"catanbench/game"
)

// Remote queries an external decision endpoint over HTTP: one POST per
// action opportunity carrying a compact state view and the legal-action
// hint, expecting a JSON action object back. The response goes through the
// same decoder as any other untrusted output, so a flaky endpoint degrades
// into recorded parse failures instead of breaking the match.
type Remote struct {
	name    string
	url     string
	client  *http.Client
	decoder *Decoder
}

func NewRemote(name, url string) *Remote {
	return &Remote{
		name:    name,
		url:     url,
		client:  &http.Client{},
		decoder: NewDecoder(),
	}
}

func (r *Remote) Name() string { return r.name }

// decisionRequest is the wire view handed to the endpoint. It mirrors what
// the engine knows but stays deliberately compact: per-player hands and
// points, the robber, bank supply and the numbered legal actions.
type decisionRequest struct {
	Turn          int              `json:"turn"`
	Phase         string           `json:"phase"`
	You           game.PlayerID    `json:"you"`
	VictoryTarget int              `json:"victory_target"`
	VictoryPoints []int            `json:"victory_points"`
	Resources     []map[string]int `json:"resources"`
	BankSupply    map[string]int   `json:"bank_supply"`
	RobberNode    game.NodeID      `json:"robber_node"`
	Legal         []legalAction    `json:"legal_actions"`
}

type legalAction struct {
	Index       int         `json:"index"`
	Action      game.Action `json:"action"`
	Description string      `json:"description"`
}

func buildRequest(view *game.State, pid game.PlayerID, legal []game.Action) decisionRequest {
	req := decisionRequest{
		Turn:          view.Turn,
		Phase:         view.Phase.String(),
		You:           pid,
		VictoryTarget: view.TargetVP,
		RobberNode:    view.Board.Robber,
		BankSupply:    map[string]int{},
	}
	for _, r := range game.ResourceTypes() {
		req.BankSupply[r.String()] = view.Bank.Supply(r)
	}
	for _, p := range view.Players {
		req.VictoryPoints = append(req.VictoryPoints, view.VictoryPoints(p.ID))
		hand := map[string]int{}
		for _, r := range game.ResourceTypes() {
			hand[r.String()] = p.Hand.Count(r)
		}
		req.Resources = append(req.Resources, hand)
	}
	for i, act := range legal {
		req.Legal = append(req.Legal, legalAction{Index: i, Action: act, Description: act.String()})
	}
	return req
}

func (r *Remote) Decide(ctx context.Context, view *game.State, legal []game.Action) (game.Action, error) {
	// The engine sets the view's cursor to the acting player, so during a
	// discard window "you" is the discarding player, not the turn owner.
	payload := buildRequest(view, view.CurrentPlayer().ID, legal)
	body, err := json.Marshal(payload)
	if err != nil {
		return game.Action{}, fmt.Errorf("encode decision request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return game.Action{}, fmt.Errorf("build decision request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return game.Action{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return game.Action{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return game.Action{}, parseErr(fmt.Sprintf("decision endpoint returned %d", resp.StatusCode))
	}

	act, decErr := r.decoder.Decode(raw)
	if decErr != nil {
		return game.Action{}, decErr
	}
	return act, nil
}
