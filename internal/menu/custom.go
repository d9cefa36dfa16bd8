package menu

import (
	"encoding/json"
	"fmt"
)

// itemSpec is the JSON shape of one entry in a custom menu override.
// Entries with children become Nodes; everything else is a Leaf.
type itemSpec struct {
	Type     string     `json:"type"`
	Label    string     `json:"label"`
	Icon     string     `json:"icon,omitempty"`
	Comment  bool       `json:"comment,omitempty"`
	Children []itemSpec `json:"children,omitempty"`
}

// ParseItems decodes a custom menu override (a JSON array of items).
// Labels are required; leaves additionally need a type the agent can
// dispatch.
func ParseItems(raw string) ([]Item, error) {
	var specs []itemSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("menu: parse custom items: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("menu: custom menu is empty")
	}
	return buildItems(specs)
}

func buildItems(specs []itemSpec) ([]Item, error) {
	items := make([]Item, 0, len(specs))
	for _, s := range specs {
		if s.Label == "" {
			return nil, fmt.Errorf("menu: item without label")
		}
		if len(s.Children) > 0 {
			children, err := buildItems(s.Children)
			if err != nil {
				return nil, err
			}
			items = append(items, Node{Type: s.Type, Label: s.Label, Icon: s.Icon, Children: children})
			continue
		}
		if s.Type == "" {
			return nil, fmt.Errorf("menu: leaf %q without type", s.Label)
		}
		items = append(items, Leaf{Type: s.Type, Label: s.Label, Icon: s.Icon, Comment: s.Comment})
	}
	return items, nil
}
