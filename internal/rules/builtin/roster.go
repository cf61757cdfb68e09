package builtin

import (
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// RosterKey identifies the employee roster schema.
const RosterKey = "roster"

func init() {
	registerRoster()
}

func registerRoster() {
	rules.Register(rules.Schema{
		Key:         RosterKey,
		Group:       "Users",
		Label:       "Employee roster",
		Description: "Bulk import of learners with their department and contact email.",
		Source:      "builtin",
		Rules: []validation.FieldRule{
			{Name: "name", Required: true, Type: validation.TypeString, Min: validation.Bound(2), Max: validation.Bound(50)},
			{Name: "department name", Required: true, Type: validation.TypeString, Min: validation.Bound(2), Max: validation.Bound(50)},
			{Name: "email", Type: validation.TypeEmail},
		},
	})
}
