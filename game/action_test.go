package game

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestActionJSONUsesNames(t *testing.T) {
	act := Action{Type: TradeWithBank, Give: Wheat, GiveCount: 4, Receive: Ore}
	data, err := json.Marshal(act)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"type":"trade_with_bank"`, `"give":"wheat"`, `"receive":"ore"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("marshaled action %s missing %s", data, want)
		}
	}

	var back Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != act {
		t.Errorf("round trip changed the action: %+v != %+v", back, act)
	}
}

func TestActionJSONRobberKeepsZeroVictim(t *testing.T) {
	act := Action{Type: MoveRobber, Node: 2, Victim: 0}
	data, err := json.Marshal(act)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"victim":0`) {
		t.Errorf("marshaled robber move %s lost the explicit victim", data)
	}

	var back Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != act {
		t.Errorf("round trip changed the action: %+v != %+v", back, act)
	}
}

func TestActionJSONOmitsMeaninglessFields(t *testing.T) {
	data, err := json.Marshal(Action{Type: PassTurn})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"type":"pass_turn"}` {
		t.Errorf("pass marshaled as %s, want the bare type", got)
	}
}

func TestActionTypeUnmarshalRejectsUnknown(t *testing.T) {
	var typ ActionType
	if err := json.Unmarshal([]byte(`"summon_dragon"`), &typ); err == nil {
		t.Error("unknown action type decoded without error")
	}
}

func TestParseActionType(t *testing.T) {
	typ, ok := ParseActionType(" Build_Road ")
	if !ok || typ != BuildRoad {
		t.Errorf("ParseActionType = %v %v, want build_road", typ, ok)
	}
	if _, ok := ParseActionType("nope"); ok {
		t.Error("ParseActionType accepted garbage")
	}
}
