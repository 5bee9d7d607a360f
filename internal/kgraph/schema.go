package kgraph

import "time"

// PropKind is the expected JSON-level kind of a property value.
type PropKind int

const (
	KindString PropKind = iota
	KindNumber
	KindBool
	KindTime
	KindList
)

func (k PropKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Schema declares the property contract for one node type. Required fields
// must be present with the declared kind; optional fields are checked only
// when present. Properties outside the schema are allowed.
type Schema struct {
	Required map[string]PropKind
	Optional map[string]PropKind
}

// SchemaRegistry maps node types to their property schemas. Types without a
// registered schema skip property validation entirely, keeping the node type
// set open.
type SchemaRegistry struct {
	schemas map[NodeType]Schema
}

// NewSchemaRegistry returns a registry preloaded with the built-in node
// type schemas.
func NewSchemaRegistry() *SchemaRegistry {
	r := &SchemaRegistry{schemas: make(map[NodeType]Schema)}

	r.Register(NodeCodeFile, Schema{
		Required: map[string]PropKind{
			"path":     KindString,
			"language": KindString,
		},
		Optional: map[string]PropKind{
			"content_hash":  KindString,
			"lines_of_code": KindNumber,
			"complexity":    KindNumber,
		},
	})
	r.Register(NodeDocumentationSection, Schema{
		Required: map[string]PropKind{
			"file_path":     KindString,
			"section_title": KindString,
		},
		Optional: map[string]PropKind{
			"category":          KindString,
			"content_hash":      KindString,
			"has_code_examples": KindBool,
			"last_updated":      KindTime,
		},
	})
	r.Register(NodeDriftEvent, Schema{
		Required: map[string]PropKind{
			"category":     KindString,
			"impact_level": KindString,
			"entity_name":  KindString,
		},
		Optional: map[string]PropKind{
			"details":   KindString,
			"file_path": KindString,
		},
	})
	r.Register(NodePriorityScore, Schema{
		Required: map[string]PropKind{
			"overall":        KindNumber,
			"recommendation": KindString,
		},
		Optional: map[string]PropKind{
			"suggested_action": KindString,
			"confidence":       KindNumber,
		},
	})
	return r
}

// Register adds or replaces the schema for a node type.
func (r *SchemaRegistry) Register(t NodeType, s Schema) {
	r.schemas[t] = s
}

// Validate checks a node's properties against the schema for its type, if
// one is registered. Returns a ValidationError naming the first offending
// field, or nil.
func (r *SchemaRegistry) Validate(n *Node) error {
	schema, ok := r.schemas[n.Type]
	if !ok {
		return nil
	}

	for field, kind := range schema.Required {
		value, present := n.Properties[field]
		if !present {
			return &ValidationError{EntityID: n.ID, Field: field, Reason: "is required"}
		}
		if !kindMatches(value, kind) {
			return &ValidationError{EntityID: n.ID, Field: field,
				Reason: "must be a " + kind.String()}
		}
	}
	for field, kind := range schema.Optional {
		value, present := n.Properties[field]
		if present && !kindMatches(value, kind) {
			return &ValidationError{EntityID: n.ID, Field: field,
				Reason: "must be a " + kind.String()}
		}
	}
	return nil
}

// kindMatches tolerates the types encoding/json produces on round-trip:
// numbers come back as float64, times may come back as RFC 3339 strings.
func kindMatches(v any, kind PropKind) bool {
	switch kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, t)
			return err == nil
		}
		return false
	case KindList:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	default:
		return false
	}
}
