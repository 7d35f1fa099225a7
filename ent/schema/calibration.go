package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Calibration holds one fitted set of item difficulties and the baseline
// ability. Rows are never updated; a new fit is a new row.
type Calibration struct {
	ent.Schema
}

func (Calibration) Mixin() []ent.Mixin {
	return []ent.Mixin{
		EventMixin{},
	}
}

func (Calibration) Fields() []ent.Field {
	return []ent.Field{
		field.String("source").
			Default("").
			Comment("Where the training data came from"),
		field.Float("theta0").
			Comment("Baseline ability for students with no history"),
		field.JSON("items", []map[string]any{}).
			Comment("Item keys and difficulties in column order"),
		field.Int("iterations").
			Default(0).
			Comment("Solver sweeps, 0 for imported calibrations"),
		field.Bool("converged").
			Default(false),
		field.Float("log_likelihood").
			Default(0),
	}
}
