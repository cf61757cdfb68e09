package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// columnView is the JSON form of a validation.FieldRule.
type columnView struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Type     string   `json:"type,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Enum     []string `json:"enum,omitempty"`
}

// schemaView is the JSON form of a rules.Schema.
type schemaView struct {
	Key         string       `json:"key"`
	Group       string       `json:"group"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	Source      string       `json:"source,omitempty"`
	Columns     []columnView `json:"columns"`
}

func newSchemaView(s rules.Schema) schemaView {
	v := schemaView{
		Key:         s.Key,
		Group:       s.Group,
		Label:       s.Label,
		Description: s.Description,
		Source:      s.Source,
		Columns:     make([]columnView, len(s.Rules)),
	}
	for i, rule := range s.Rules {
		v.Columns[i] = newColumnView(rule)
	}
	return v
}

func newColumnView(rule validation.FieldRule) columnView {
	c := columnView{
		Name:     rule.Name,
		Required: rule.Required,
		Type:     string(rule.Type),
		Min:      rule.Min,
		Max:      rule.Max,
		Enum:     rule.Enum,
	}
	if rule.Pattern != nil {
		c.Pattern = rule.Pattern.String()
	}
	return c
}

// handleListSchemas lists every registered schema.
// GET /api/schemas
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	all := s.service.Schemas()
	views := make([]schemaView, len(all))
	for i, sc := range all {
		views[i] = newSchemaView(sc)
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetSchema returns one schema.
// GET /api/schemas/{schema}
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.Schema(chi.URLParam(r, "schema"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newSchemaView(sc))
}
