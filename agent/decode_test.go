package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"catanbench/game"
)

func TestDecodePlainObject(t *testing.T) {
	act, err := NewDecoder().Decode([]byte(`{"type":"build_road","site":101}`))
	require.Nil(t, err)
	require.Equal(t, game.BuildRoad, act.Type)
	require.Equal(t, game.SiteID(101), act.Site)
	require.Equal(t, game.NoPlayer, act.Victim)
}

func TestDecodeFencedWithProse(t *testing.T) {
	raw := "I think trading with the bank is best here.\n```json\n" +
		`{"type":"trade_with_bank","give":"wood","give_count":4,"receive":"ore"}` +
		"\n```\nThis secures the city next turn."

	act, err := NewDecoder().Decode([]byte(raw))
	require.Nil(t, err)
	require.Equal(t, game.TradeWithBank, act.Type)
	require.Equal(t, game.Wood, act.Give)
	require.Equal(t, 4, act.GiveCount)
	require.Equal(t, game.Ore, act.Receive)
}

func TestDecodeRecoversNearMissNames(t *testing.T) {
	// One edit away from "build_settlement" and "wheat".
	act, err := NewDecoder().Decode([]byte(`{"type":"build_setlement","site":3}`))
	require.Nil(t, err)
	require.Equal(t, game.BuildSettlement, act.Type)

	act, err = NewDecoder().Decode([]byte(`{"type":"trade_with_bank","give":"waeat","give_count":4,"receive":"ore"}`))
	require.Nil(t, err)
	require.Equal(t, game.Wheat, act.Give)
}

func TestDecodeGarbageIsParseError(t *testing.T) {
	for _, raw := range []string{
		"I pass.",
		"",
		`{"site": 3}`,
		`{"type": 7}`,
		`{"type":"conquer_the_board"}`,
	} {
		_, err := NewDecoder().Decode([]byte(raw))
		require.NotNil(t, err, "raw %q", raw)
		require.Equal(t, DecodeParse, err.Kind, "raw %q", raw)
	}
}

func TestDecodeUnknownResourceIsReferenceError(t *testing.T) {
	_, err := NewDecoder().Decode([]byte(`{"type":"trade_with_bank","give":"uranium","give_count":4,"receive":"ore"}`))
	require.NotNil(t, err)
	require.Equal(t, DecodeReference, err.Kind)
}

func TestDecodeEchoedRobberHintKeepsVictim(t *testing.T) {
	hint, err := json.Marshal(game.Action{Type: game.MoveRobber, Node: 2, Victim: 0})
	require.NoError(t, err)

	act, derr := NewDecoder().Decode(hint)
	require.Nil(t, derr)
	require.Equal(t, game.NodeID(2), act.Node)
	require.Equal(t, game.PlayerID(0), act.Victim)
}

func TestDecodeMissingVariantFieldsIsParseError(t *testing.T) {
	for _, raw := range []string{
		`{"type":"build_road"}`,
		`{"type":"move_robber"}`,
		`{"type":"trade_with_bank","give":"wood","give_count":4}`,
		`{"type":"trade_with_player","give":"wood","give_count":1}`,
		`{"type":"discard_cards"}`,
	} {
		_, err := NewDecoder().Decode([]byte(raw))
		require.NotNil(t, err, "raw %q", raw)
		require.Equal(t, DecodeParse, err.Kind, "raw %q", raw)
	}
}

func TestDecodeVictimOnlyWhenPresent(t *testing.T) {
	act, err := NewDecoder().Decode([]byte(`{"type":"move_robber","node":2,"victim":1}`))
	require.Nil(t, err)
	require.Equal(t, game.PlayerID(1), act.Victim)

	act, err = NewDecoder().Decode([]byte(`{"type":"move_robber","node":2}`))
	require.Nil(t, err)
	require.Equal(t, game.NoPlayer, act.Victim)
}
