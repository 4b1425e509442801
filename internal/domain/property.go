package domain

import (
	"time"

	"github.com/google/uuid"
)

// PropertyType enumerates the column types a database page supports.
type PropertyType string

const (
	PropertyText        PropertyType = "text"
	PropertyNumber      PropertyType = "number"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyDate        PropertyType = "date"
	PropertyPerson      PropertyType = "person"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertyURL         PropertyType = "url"
	PropertyEmail       PropertyType = "email"
	PropertyPhone       PropertyType = "phone"
	PropertyFormula     PropertyType = "formula"
	PropertyRelation    PropertyType = "relation"
	PropertyRollup      PropertyType = "rollup"
	PropertyFiles       PropertyType = "files"
)

var propertyTypes = map[PropertyType]struct{}{
	PropertyText: {}, PropertyNumber: {}, PropertySelect: {}, PropertyMultiSelect: {},
	PropertyDate: {}, PropertyPerson: {}, PropertyCheckbox: {}, PropertyURL: {},
	PropertyEmail: {}, PropertyPhone: {}, PropertyFormula: {}, PropertyRelation: {},
	PropertyRollup: {}, PropertyFiles: {},
}

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	_, ok := propertyTypes[t]
	return ok
}

// Derived reports whether values of this type are computed on read rather
// than stored.
func (t PropertyType) Derived() bool {
	return t == PropertyFormula || t == PropertyRollup
}

// SelectOption is one entry of a select/multi_select option list.
type SelectOption struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required,max=255"`
	Color string `json:"color,omitempty"`
}

// RollupAggregation kinds.
const (
	RollupCount   = "count"
	RollupSum     = "sum"
	RollupAverage = "average"
)

// PropertyConfig carries the type-specific configuration of a property.
// Only the section matching the property's type is populated.
type PropertyConfig struct {
	// select / multi_select
	Options []SelectOption `json:"options,omitempty"`
	// relation: the target database page
	RelationDatabaseID *uuid.UUID `json:"relation_database_id,omitempty"`
	// formula: expression over sibling properties, by name
	Expression string `json:"expression,omitempty"`
	// rollup: relation property to traverse, target property to aggregate,
	// and the aggregation kind
	RelationPropertyID *uuid.UUID `json:"relation_property_id,omitempty"`
	TargetPropertyID   *uuid.UUID `json:"target_property_id,omitempty"`
	Aggregation        string     `json:"aggregation,omitempty"`
}

// DatabaseProperty represents a typed column attached to a database page.
type DatabaseProperty struct {
	ID         uuid.UUID      `json:"id"`
	DatabaseID uuid.UUID      `json:"database_id"`
	Name       string         `json:"name"`
	Type       PropertyType   `json:"type"`
	Config     PropertyConfig `json:"config"`
	OrderKey   string         `json:"order_key"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PropertyCreate represents property definition data
type PropertyCreate struct {
	Name   string         `json:"name" validate:"required,max=255"`
	Type   PropertyType   `json:"type" validate:"required"`
	Config PropertyConfig `json:"config"`
}

// PropertyUpdate represents a partial property update
type PropertyUpdate struct {
	Name   *string         `json:"name,omitempty" validate:"omitempty,max=255"`
	Config *PropertyConfig `json:"config,omitempty"`
}

// RowValue holds one stored cell: the value of a property on a row page.
// Value shape is dictated by the property type: string for text/url/email/
// phone/select (option id) / date (RFC 3339), float64 for number, bool for
// checkbox, []string for multi_select option ids and files, uuid strings for
// person and relation targets. Derived types have no stored value.
type RowValue struct {
	RowID      uuid.UUID `json:"row_id"`
	PropertyID uuid.UUID `json:"property_id"`
	Value      any       `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RowValueSet represents a cell write request
type RowValueSet struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	Value      any       `json:"value"`
}

// DatabaseView is a database page together with its schema and rows, the
// read-side projection of the typed overlay.
type DatabaseView struct {
	Page       Page               `json:"page"`
	Properties []DatabaseProperty `json:"properties"`
	Rows       []DatabaseRow      `json:"rows"`
}

// DatabaseRow is one row page with its resolved values keyed by property id.
// Derived properties are computed at read time and appear alongside stored
// ones.
type DatabaseRow struct {
	Page   Page              `json:"page"`
	Values map[uuid.UUID]any `json:"values"`
}
