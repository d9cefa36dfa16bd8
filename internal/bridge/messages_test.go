package bridge

import (
	"encoding/json"
	"testing"
)

func TestEventDecode(t *testing.T) {
	raw := `{"type":"contextmenu","seq":7,"data":{"descriptor":{"element_id":12,"chain":[{"tag":"img"}],"is_image":true,"image_src":"https://cdn.example.com/a.png"},"x":120.5,"y":400}}`

	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if ev.Type != EventContextMenu || ev.Seq != 7 {
		t.Fatalf("envelope: got type=%q seq=%d", ev.Type, ev.Seq)
	}

	cm, err := ev.AsContextMenu()
	if err != nil {
		t.Fatalf("AsContextMenu: %v", err)
	}
	if cm.Descriptor.ElementID != 12 || !cm.Descriptor.IsImage {
		t.Errorf("descriptor: got %+v", cm.Descriptor)
	}
	if cm.X != 120.5 || cm.Y != 400 {
		t.Errorf("position: got (%v, %v)", cm.X, cm.Y)
	}
}

func TestEventDecode_TypeMismatch(t *testing.T) {
	ev := Event{Type: EventKey, Data: json.RawMessage(`{"key":"Escape"}`)}
	if _, err := ev.AsPointer(); err == nil {
		t.Fatal("AsPointer on a key event should fail")
	}
	k, err := ev.AsKey()
	if err != nil {
		t.Fatalf("AsKey: %v", err)
	}
	if k.Key != "Escape" {
		t.Errorf("key: got %q", k.Key)
	}
}

func TestEventDecode_ItemHover(t *testing.T) {
	ev := Event{Type: EventItemHover, Data: json.RawMessage(`{"index":2}`)}
	h, err := ev.AsItemHover()
	if err != nil {
		t.Fatalf("AsItemHover: %v", err)
	}
	if h.Index != 2 {
		t.Errorf("index: got %d, want 2", h.Index)
	}
	if _, err := ev.AsItemClick(); err == nil {
		t.Fatal("AsItemClick on a hover event should fail")
	}
}

func TestEventDecode_CustomOptionalFields(t *testing.T) {
	ev := Event{Type: EventCustom, Data: json.RawMessage(`{"name":"anyclick-refresh-element"}`)}
	c, err := ev.AsCustom()
	if err != nil {
		t.Fatalf("AsCustom: %v", err)
	}
	if c.Name != "anyclick-refresh-element" || c.Descriptor != nil {
		t.Errorf("custom: got %+v", c)
	}
}
