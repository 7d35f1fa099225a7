package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/abhisek/adaptiq/ent/schema"
)

// Table names.
const (
	tableCalibrations   = "calibrations"
	tableResponseEvents = "response_events"
	tableSnapshots      = "snapshots"
)

// Tables are the migration targets, derived from the ent schema types.
func Tables() ([]*entschema.Table, error) {
	defs := []struct {
		name string
		def  ent.Interface
	}{
		{tableCalibrations, schema.Calibration{}},
		{tableResponseEvents, schema.ResponseEvent{}},
		{tableSnapshots, schema.Snapshot{}},
	}
	tables := make([]*entschema.Table, 0, len(defs))
	for _, d := range defs {
		t, err := tableOf(d.name, d.def)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// tableOf lays out the columns and indexes of one schema type: an
// auto-increment id, then mixin fields, then the type's own fields.
func tableOf(name string, def ent.Interface) (*entschema.Table, error) {
	t := entschema.NewTable(name).
		AddPrimary(&entschema.Column{Name: "id", Type: field.TypeInt, Increment: true})

	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range def.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, def.Fields()...)
	indexes = append(indexes, def.Indexes()...)

	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
		}
		col := d.StorageKey
		if col == "" {
			col = d.Name
		}
		t.AddColumn(&entschema.Column{
			Name:     col,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional,
		})
	}
	for _, idx := range indexes {
		d := idx.Descriptor()
		key := d.StorageKey
		if key == "" {
			key = name + "_" + strings.Join(d.Fields, "_")
		}
		t.AddIndex(key, d.Unique, d.Fields)
	}
	return t, nil
}

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv dialect.Driver) error {
	tables, err := Tables()
	if err != nil {
		return err
	}
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
