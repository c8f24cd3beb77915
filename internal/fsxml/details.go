package fsxml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/models"
)

// renderDetails synthesizes condition/action markup from the flat detail
// rows of one rule. Rows are grouped by group number in first-seen order;
// within a group, enabled action/anti-action rows nest inside the group's
// condition element when one exists, and are emitted top-level otherwise.
// A group with several conditions nests the actions under the last one;
// the preceding conditions are emitted self-closed ahead of it.
//
// Pure function of its input: no store access, safe to test in isolation.
func renderDetails(details []models.DialplanDetail) (string, error) {
	type detailGroup struct {
		conditions []models.DialplanDetail
		actions    []models.DialplanDetail
	}

	var order []int
	groups := make(map[int]*detailGroup)
	for _, d := range details {
		if !d.Enabled {
			continue
		}
		g, ok := groups[d.Group]
		if !ok {
			g = &detailGroup{}
			groups[d.Group] = g
			order = append(order, d.Group)
		}
		switch d.Tag {
		case models.DetailTagCondition:
			g.conditions = append(g.conditions, d)
		case models.DetailTagAction, models.DetailTagAntiAction:
			g.actions = append(g.actions, d)
		}
	}

	var b strings.Builder
	for _, id := range order {
		g := groups[id]
		actions := make([]ActionNode, 0, len(g.actions))
		for _, a := range g.actions {
			actions = append(actions, ActionNode{
				XMLName:     xml.Name{Local: a.Tag},
				Application: a.Type,
				Data:        a.Data,
				Inline:      deref(a.Inline),
			})
		}

		if len(g.conditions) == 0 {
			for _, a := range actions {
				if err := appendFragment(&b, a); err != nil {
					return "", err
				}
			}
			continue
		}

		for i, c := range g.conditions {
			node := ConditionNode{
				XMLName:    xml.Name{Local: models.DetailTagCondition},
				Field:      c.Type,
				Expression: c.Data,
				Break:      deref(c.Break),
			}
			if i == len(g.conditions)-1 {
				node.Actions = actions
			}
			if err := appendFragment(&b, node); err != nil {
				return "", err
			}
		}
	}

	return b.String(), nil
}

func appendFragment(b *strings.Builder, v any) error {
	out, err := xml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal dialplan fragment: %w", err)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(string(out))
	return nil
}
