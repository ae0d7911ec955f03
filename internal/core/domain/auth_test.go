package domain

import (
	"encoding/json"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"r", ActionRead, false},
		{"rw", ActionRead | ActionWrite, false},
		{"wr", ActionRead | ActionWrite, false},
		{"rwc", ActionAll, false},
		{"c", ActionCreate, false},
		{"", ActionNone, true},
		{"rr", ActionNone, true},
		{"rx", ActionNone, true},
		{"RW", ActionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestActionHas(t *testing.T) {
	rw := ActionRead | ActionWrite
	if !rw.Has(ActionRead) || !rw.Has(ActionWrite) {
		t.Errorf("rw should contain r and w")
	}
	if rw.Has(ActionCreate) {
		t.Errorf("rw should not contain c")
	}
	if rw.Has(ActionNone) {
		t.Errorf("no action is never granted")
	}
	if ActionCreate.Has(ActionRead) {
		t.Errorf("c should not imply r")
	}
}

func TestActionString(t *testing.T) {
	if got := (ActionCreate | ActionRead).String(); got != "rc" {
		t.Errorf("String() = %q, want rc", got)
	}
	if got := ActionAll.String(); got != "rwc" {
		t.Errorf("String() = %q, want rwc", got)
	}
}

func TestActionJSON(t *testing.T) {
	p := Permission{Kind: KindZone, ObjectID: "z1", GroupID: "g1", Action: ActionRead | ActionWrite}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Permission
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Action != p.Action {
		t.Errorf("action = %v, want %v", back.Action, p.Action)
	}
}

func TestAPIKeyActor(t *testing.T) {
	k := &APIKey{IsAdministrator: false, Groups: []string{"g1", "g2"}, DefaultGroup: "g1"}
	a := k.Actor()
	if !a.InGroup("g2") || a.InGroup("g3") {
		t.Errorf("unexpected group membership: %+v", a)
	}
	a.Groups[0] = "changed"
	if k.Groups[0] != "g1" {
		t.Errorf("Actor() must not alias the key's group slice")
	}
}
