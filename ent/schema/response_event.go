package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ResponseEvent records an answer revealed to the estimator during an
// adaptive run, with the student's ability after that round's update.
type ResponseEvent struct {
	ent.Schema
}

func (ResponseEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{
		EventMixin{},
	}
}

func (ResponseEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("run_id").
			NotEmpty().
			Comment("Evaluation run identifier"),
		field.Int("round").
			NonNegative(),
		field.String("student"),
		field.String("item"),
		field.Int("outcome").
			Range(0, 1),
		field.Float("theta").
			Comment("Ability after the round's update"),
	}
}

func (ResponseEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
		index.Fields("student"),
	}
}
