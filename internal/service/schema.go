package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/formula"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/orderkey"
)

// SchemaService handles the typed overlay of database pages: property
// definitions, row cell writes and derived value evaluation
type SchemaService struct {
	propRepo   domain.PropertyRepository
	valueRepo  domain.RowValueRepository
	pageRepo   domain.PageRepository
	memberRepo domain.MemberRepository
	events     domain.EventPublisher
}

// NewSchemaService creates a new schema service
func NewSchemaService(
	propRepo domain.PropertyRepository,
	valueRepo domain.RowValueRepository,
	pageRepo domain.PageRepository,
	memberRepo domain.MemberRepository,
	events domain.EventPublisher,
) *SchemaService {
	return &SchemaService{
		propRepo:   propRepo,
		valueRepo:  valueRepo,
		pageRepo:   pageRepo,
		memberRepo: memberRepo,
		events:     events,
	}
}

// DefineProperty adds a typed column to a database page
func (s *SchemaService) DefineProperty(ctx context.Context, userID, databaseID uuid.UUID, input domain.PropertyCreate) (*domain.DatabaseProperty, error) {
	db, err := s.writableDatabase(ctx, userID, databaseID)
	if err != nil {
		return nil, err
	}

	if !input.Type.Valid() {
		return nil, fmt.Errorf("unknown property type %q: %w", input.Type, domain.ErrInvalidState)
	}

	// Names may repeat; only the id is unique within a database. Formula
	// references resolve to the first column in schema order with that name.
	existing, err := s.propRepo.ListByDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	if err := s.validateConfig(ctx, db, input.Type, &input.Config, existing); err != nil {
		return nil, err
	}

	last, err := s.propRepo.LastKey(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last property key: %w", err)
	}
	key, err := orderkey.KeyBetween(last, "")
	if err != nil {
		return nil, fmt.Errorf("failed to compute order key: %w", err)
	}

	now := time.Now()
	prop := &domain.DatabaseProperty{
		ID:         uuid.New(),
		DatabaseID: databaseID,
		Name:       input.Name,
		Type:       input.Type,
		Config:     input.Config,
		OrderKey:   key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.propRepo.Create(ctx, prop); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.publish(ctx, db.WorkspaceID, prop.ID, domain.EntityProperty, domain.OpCreate, userID)

	return prop, nil
}

// ListProperties retrieves the schema of a database page in column order
func (s *SchemaService) ListProperties(ctx context.Context, userID, databaseID uuid.UUID) ([]domain.DatabaseProperty, error) {
	db, err := s.readableDatabase(ctx, userID, databaseID)
	if err != nil {
		return nil, err
	}
	props, err := s.propRepo.ListByDatabase(ctx, db.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

// UpdateProperty renames a property or replaces its configuration. The type
// is immutable; converting a column means creating a new property.
func (s *SchemaService) UpdateProperty(ctx context.Context, userID, propertyID uuid.UUID, input domain.PropertyUpdate) (*domain.DatabaseProperty, error) {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if prop == nil {
		return nil, domain.ErrNotFound
	}

	db, err := s.writableDatabase(ctx, userID, prop.DatabaseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.propRepo.ListByDatabase(ctx, prop.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	if input.Config != nil {
		if err := s.validateConfig(ctx, db, prop.Type, input.Config, existing); err != nil {
			return nil, err
		}
	}

	if err := s.propRepo.Update(ctx, propertyID, input.Name, input.Config); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	s.publish(ctx, db.WorkspaceID, propertyID, domain.EntityProperty, domain.OpUpdate, userID)

	return s.propRepo.GetByID(ctx, propertyID)
}

// DeleteProperty removes a property and its stored values. When other
// formula or rollup properties depend on it the delete is refused unless
// cascade is set, in which case the dependents go too.
func (s *SchemaService) DeleteProperty(ctx context.Context, userID, propertyID uuid.UUID, cascade bool) error {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if prop == nil {
		return domain.ErrNotFound
	}

	db, err := s.writableDatabase(ctx, userID, prop.DatabaseID)
	if err != nil {
		return err
	}

	dependents, err := s.dependentsOf(ctx, prop)
	if err != nil {
		return err
	}
	if len(dependents) > 0 && !cascade {
		return fmt.Errorf("property %q has %d dependent properties: %w", prop.Name, len(dependents), domain.ErrPropertyInUse)
	}

	deleted := map[uuid.UUID]bool{prop.ID: true}
	for len(dependents) > 0 {
		next := dependents[0]
		dependents = dependents[1:]
		if deleted[next.ID] {
			continue
		}
		// Dependents can have dependents of their own.
		transitive, err := s.dependentsOf(ctx, &next)
		if err != nil {
			return err
		}
		dependents = append(dependents, transitive...)
		if err := s.propRepo.Delete(ctx, next.ID); err != nil {
			return fmt.Errorf("failed to delete dependent property: %w", err)
		}
		deleted[next.ID] = true
		s.publish(ctx, db.WorkspaceID, next.ID, domain.EntityProperty, domain.OpDelete, userID)
	}

	if err := s.propRepo.Delete(ctx, propertyID); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	s.publish(ctx, db.WorkspaceID, propertyID, domain.EntityProperty, domain.OpDelete, userID)

	return nil
}

// dependentsOf lists properties whose evaluation breaks without prop:
// same-database formulas referencing it by name, and rollups anywhere
// traversing or aggregating it
func (s *SchemaService) dependentsOf(ctx context.Context, prop *domain.DatabaseProperty) ([]domain.DatabaseProperty, error) {
	var out []domain.DatabaseProperty

	siblings, err := s.propRepo.ListByDatabase(ctx, prop.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	byName := indexByName(siblings)
	for _, p := range siblings {
		if p.ID == prop.ID || p.Type != domain.PropertyFormula {
			continue
		}
		parsed, err := formula.Parse(p.Config.Expression)
		if err != nil {
			continue
		}
		for _, ref := range parsed.Refs() {
			// A duplicate-named column later in schema order is not what
			// the formula resolves to, so it is not a dependency.
			if resolved, ok := byName[ref]; ok && resolved.ID == prop.ID {
				out = append(out, p)
				break
			}
		}
	}

	rollups, err := s.propRepo.ListReferencing(ctx, prop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referencing properties: %w", err)
	}
	out = append(out, rollups...)

	return out, nil
}

// SetRowValue writes a typed cell value on a database row. A nil value
// clears the cell.
func (s *SchemaService) SetRowValue(ctx context.Context, userID, rowID uuid.UUID, input domain.RowValueSet) (*domain.RowValue, error) {
	row, err := s.pageRepo.GetByID(ctx, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get row: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	if row.IsDeleted {
		return nil, fmt.Errorf("row is in the trash: %w", domain.ErrInvalidState)
	}
	if row.ParentID == nil {
		return nil, fmt.Errorf("page is not a database row: %w", domain.ErrInvalidState)
	}
	parent, err := s.pageRepo.GetByID(ctx, *row.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if parent == nil || !parent.IsDatabase {
		return nil, fmt.Errorf("page is not a database row: %w", domain.ErrInvalidState)
	}

	if err := s.requireWriter(ctx, row.WorkspaceID, userID); err != nil {
		return nil, err
	}

	prop, err := s.propRepo.GetByID(ctx, input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if prop == nil {
		return nil, fmt.Errorf("property: %w", domain.ErrNotFound)
	}
	if prop.DatabaseID != parent.ID {
		return nil, fmt.Errorf("property belongs to another database: %w", domain.ErrInvalidState)
	}
	if prop.Type.Derived() {
		return nil, fmt.Errorf("%s values are computed, not stored: %w", prop.Type, domain.ErrInvalidState)
	}

	value := input.Value
	if value != nil {
		value, err = s.coerceValue(ctx, prop, value)
		if err != nil {
			return nil, err
		}
	}

	rowValue := &domain.RowValue{
		RowID:      rowID,
		PropertyID: prop.ID,
		Value:      value,
		UpdatedAt:  time.Now(),
	}
	if err := s.valueRepo.Upsert(ctx, rowValue); err != nil {
		return nil, fmt.Errorf("failed to store row value: %w", err)
	}

	s.publish(ctx, row.WorkspaceID, rowID, domain.EntityRowValue, domain.OpUpdate, userID)

	return rowValue, nil
}

// GetDatabase assembles a database page with its schema and rows, resolving
// stored values and computing formula and rollup columns per row
func (s *SchemaService) GetDatabase(ctx context.Context, userID, databaseID uuid.UUID) (*domain.DatabaseView, error) {
	db, err := s.readableDatabase(ctx, userID, databaseID)
	if err != nil {
		return nil, err
	}

	props, err := s.propRepo.ListByDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	rowPages, err := s.pageRepo.ListChildren(ctx, db.WorkspaceID, &db.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	rowIDs := make([]uuid.UUID, len(rowPages))
	for i, r := range rowPages {
		rowIDs[i] = r.ID
	}
	stored := make(map[uuid.UUID]map[uuid.UUID]any, len(rowPages))
	if len(rowIDs) > 0 {
		values, err := s.valueRepo.ListByRows(ctx, rowIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list row values: %w", err)
		}
		for _, v := range values {
			if stored[v.RowID] == nil {
				stored[v.RowID] = make(map[uuid.UUID]any)
			}
			stored[v.RowID][v.PropertyID] = v.Value
		}
	}

	// Parse each formula once, not per row.
	byName := indexByName(props)
	formulas := make(map[uuid.UUID]*formula.Parsed)
	for _, p := range props {
		if p.Type == domain.PropertyFormula {
			parsed, err := formula.Parse(p.Config.Expression)
			if err != nil {
				log.Warn().Err(err).Str("property", p.Name).Msg("Skipping unparsable formula")
				continue
			}
			formulas[p.ID] = parsed
		}
	}

	rows := make([]domain.DatabaseRow, 0, len(rowPages))
	for _, rp := range rowPages {
		cells := make(map[uuid.UUID]any, len(props))
		for propID, v := range stored[rp.ID] {
			cells[propID] = v
		}

		for _, p := range props {
			switch p.Type {
			case domain.PropertyFormula:
				parsed, ok := formulas[p.ID]
				if !ok {
					continue
				}
				env := func(name string) (any, bool) {
					ref, ok := byName[name]
					if !ok || ref.Type.Derived() {
						return nil, false
					}
					return cells[ref.ID], true
				}
				result, err := parsed.Eval(env)
				if err != nil {
					log.Warn().Err(err).Str("property", p.Name).Msg("Formula evaluation failed")
					continue
				}
				cells[p.ID] = result
			case domain.PropertyRollup:
				result, err := s.evalRollup(ctx, &p, cells)
				if err != nil {
					log.Warn().Err(err).Str("property", p.Name).Msg("Rollup evaluation failed")
					continue
				}
				cells[p.ID] = result
			}
		}

		rows = append(rows, domain.DatabaseRow{Page: rp, Values: cells})
	}

	return &domain.DatabaseView{Page: *db, Properties: props, Rows: rows}, nil
}

// evalRollup aggregates a target property over the rows linked through the
// rollup's relation column
func (s *SchemaService) evalRollup(ctx context.Context, prop *domain.DatabaseProperty, cells map[uuid.UUID]any) (any, error) {
	cfg := prop.Config
	if cfg.RelationPropertyID == nil {
		return nil, fmt.Errorf("rollup has no relation property")
	}

	related, ok := asStrings(cells[*cfg.RelationPropertyID])
	if !ok {
		// No links yet: count is zero, sum and average are empty.
		if cfg.Aggregation == domain.RollupCount {
			return float64(0), nil
		}
		return nil, nil
	}

	if cfg.Aggregation == domain.RollupCount {
		return float64(len(related)), nil
	}
	if cfg.TargetPropertyID == nil {
		return nil, fmt.Errorf("rollup has no target property")
	}

	var sum float64
	var n int
	for _, idStr := range related {
		relID, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		v, err := s.valueRepo.Get(ctx, relID, *cfg.TargetPropertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get related value: %w", err)
		}
		if v == nil || v.Value == nil {
			continue
		}
		num, ok := asNumber(v.Value)
		if !ok {
			continue
		}
		sum += num
		n++
	}

	switch cfg.Aggregation {
	case domain.RollupSum:
		return sum, nil
	case domain.RollupAverage:
		if n == 0 {
			return nil, nil
		}
		return sum / float64(n), nil
	default:
		return nil, fmt.Errorf("unknown aggregation %q", cfg.Aggregation)
	}
}

// validateConfig checks the type-specific configuration section against the
// database it will live in
func (s *SchemaService) validateConfig(ctx context.Context, db *domain.Page, propType domain.PropertyType, cfg *domain.PropertyConfig, siblings []domain.DatabaseProperty) error {
	switch propType {
	case domain.PropertySelect, domain.PropertyMultiSelect:
		if len(cfg.Options) == 0 {
			return fmt.Errorf("%s requires an option list: %w", propType, domain.ErrInvalidState)
		}
		seen := make(map[string]bool, len(cfg.Options))
		for _, opt := range cfg.Options {
			if opt.ID == "" || opt.Name == "" {
				return fmt.Errorf("options need an id and a name: %w", domain.ErrInvalidState)
			}
			if seen[opt.ID] {
				return fmt.Errorf("duplicate option id %q: %w", opt.ID, domain.ErrInvalidState)
			}
			seen[opt.ID] = true
		}

	case domain.PropertyRelation:
		if cfg.RelationDatabaseID == nil {
			return fmt.Errorf("relation requires a target database: %w", domain.ErrInvalidState)
		}
		target, err := s.pageRepo.GetByID(ctx, *cfg.RelationDatabaseID)
		if err != nil {
			return fmt.Errorf("failed to get relation target: %w", err)
		}
		if target == nil || !target.IsDatabase {
			return fmt.Errorf("relation target is not a database: %w", domain.ErrInvalidState)
		}
		if target.WorkspaceID != db.WorkspaceID {
			return fmt.Errorf("relation target belongs to another workspace: %w", domain.ErrCrossTenant)
		}

	case domain.PropertyFormula:
		if cfg.Expression == "" {
			return fmt.Errorf("formula requires an expression: %w", domain.ErrInvalidState)
		}
		parsed, err := formula.Parse(cfg.Expression)
		if err != nil {
			return fmt.Errorf("formula %q: %w", cfg.Expression, domain.ErrInvalidState)
		}
		byName := indexByName(siblings)
		for _, ref := range parsed.Refs() {
			refProp, ok := byName[ref]
			if !ok {
				return fmt.Errorf("formula references unknown property %q: %w", ref, domain.ErrInvalidState)
			}
			if refProp.Type.Derived() {
				return fmt.Errorf("formula may not reference derived property %q: %w", ref, domain.ErrInvalidState)
			}
		}

	case domain.PropertyRollup:
		if cfg.RelationPropertyID == nil {
			return fmt.Errorf("rollup requires a relation property: %w", domain.ErrInvalidState)
		}
		var relation *domain.DatabaseProperty
		for i := range siblings {
			if siblings[i].ID == *cfg.RelationPropertyID {
				relation = &siblings[i]
				break
			}
		}
		if relation == nil || relation.Type != domain.PropertyRelation {
			return fmt.Errorf("rollup relation property must be a relation in the same database: %w", domain.ErrInvalidState)
		}
		switch cfg.Aggregation {
		case domain.RollupCount:
		case domain.RollupSum, domain.RollupAverage:
			if cfg.TargetPropertyID == nil {
				return fmt.Errorf("%s rollup requires a target property: %w", cfg.Aggregation, domain.ErrInvalidState)
			}
			target, err := s.propRepo.GetByID(ctx, *cfg.TargetPropertyID)
			if err != nil {
				return fmt.Errorf("failed to get rollup target: %w", err)
			}
			if target == nil {
				return fmt.Errorf("rollup target property: %w", domain.ErrNotFound)
			}
			if relation.Config.RelationDatabaseID == nil || target.DatabaseID != *relation.Config.RelationDatabaseID {
				return fmt.Errorf("rollup target must live in the related database: %w", domain.ErrInvalidState)
			}
			if target.Type != domain.PropertyNumber {
				return fmt.Errorf("%s rollup requires a number target: %w", cfg.Aggregation, domain.ErrTypeMismatch)
			}
		default:
			return fmt.Errorf("unknown aggregation %q: %w", cfg.Aggregation, domain.ErrInvalidState)
		}
	}

	return nil
}

// coerceValue checks a raw cell value against the property type and returns
// its canonical form
func (s *SchemaService) coerceValue(ctx context.Context, prop *domain.DatabaseProperty, raw any) (any, error) {
	switch prop.Type {
	case domain.PropertyText, domain.PropertyURL, domain.PropertyEmail, domain.PropertyPhone:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a string: %w", prop.Type, domain.ErrTypeMismatch)
		}
		return str, nil

	case domain.PropertyNumber:
		num, ok := asNumber(raw)
		if !ok {
			return nil, fmt.Errorf("number expects a numeric value: %w", domain.ErrTypeMismatch)
		}
		return num, nil

	case domain.PropertyCheckbox:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("checkbox expects a boolean: %w", domain.ErrTypeMismatch)
		}
		return b, nil

	case domain.PropertyDate:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("date expects an RFC 3339 string: %w", domain.ErrTypeMismatch)
		}
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			if _, err := time.Parse("2006-01-02", str); err != nil {
				return nil, fmt.Errorf("date %q: %w", str, domain.ErrTypeMismatch)
			}
		}
		return str, nil

	case domain.PropertySelect:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("select expects an option id: %w", domain.ErrTypeMismatch)
		}
		if !hasOption(prop.Config.Options, str) {
			return nil, fmt.Errorf("unknown option %q: %w", str, domain.ErrTypeMismatch)
		}
		return str, nil

	case domain.PropertyMultiSelect:
		ids, ok := asStrings(raw)
		if !ok {
			return nil, fmt.Errorf("multi_select expects a list of option ids: %w", domain.ErrTypeMismatch)
		}
		for _, id := range ids {
			if !hasOption(prop.Config.Options, id) {
				return nil, fmt.Errorf("unknown option %q: %w", id, domain.ErrTypeMismatch)
			}
		}
		return ids, nil

	case domain.PropertyPerson:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("person expects a user id: %w", domain.ErrTypeMismatch)
		}
		if _, err := uuid.Parse(str); err != nil {
			return nil, fmt.Errorf("person id %q: %w", str, domain.ErrTypeMismatch)
		}
		return str, nil

	case domain.PropertyFiles:
		files, ok := asStrings(raw)
		if !ok {
			return nil, fmt.Errorf("files expects a list of urls: %w", domain.ErrTypeMismatch)
		}
		return files, nil

	case domain.PropertyRelation:
		ids, ok := asStrings(raw)
		if !ok {
			return nil, fmt.Errorf("relation expects a list of row ids: %w", domain.ErrTypeMismatch)
		}
		for _, idStr := range ids {
			relID, err := uuid.Parse(idStr)
			if err != nil {
				return nil, fmt.Errorf("relation id %q: %w", idStr, domain.ErrTypeMismatch)
			}
			relRow, err := s.pageRepo.GetByID(ctx, relID)
			if err != nil {
				return nil, fmt.Errorf("failed to get related row: %w", err)
			}
			if relRow == nil || relRow.ParentID == nil ||
				prop.Config.RelationDatabaseID == nil || *relRow.ParentID != *prop.Config.RelationDatabaseID {
				return nil, fmt.Errorf("relation id %q is not a row of the target database: %w", idStr, domain.ErrTypeMismatch)
			}
		}
		return ids, nil
	}

	return nil, fmt.Errorf("unhandled property type %q: %w", prop.Type, domain.ErrTypeMismatch)
}

// readableDatabase loads a live database page readable by the caller
func (s *SchemaService) readableDatabase(ctx context.Context, userID, databaseID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
	}
	if !page.IsDatabase {
		return nil, fmt.Errorf("page is not a database: %w", domain.ErrInvalidState)
	}

	isMember, err := s.memberRepo.IsMember(ctx, page.WorkspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrForbidden
	}

	return page, nil
}

// writableDatabase loads a live database page writable by the caller
func (s *SchemaService) writableDatabase(ctx context.Context, userID, databaseID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
	}
	if !page.IsDatabase {
		return nil, fmt.Errorf("page is not a database: %w", domain.ErrInvalidState)
	}
	if page.IsDeleted {
		return nil, fmt.Errorf("database is in the trash: %w", domain.ErrInvalidState)
	}
	if err := s.requireWriter(ctx, page.WorkspaceID, userID); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *SchemaService) requireWriter(ctx context.Context, workspaceID, userID uuid.UUID) error {
	member, err := s.memberRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return domain.ErrForbidden
	}
	if !member.CanWrite() {
		return fmt.Errorf("role %q is read-only: %w", member.Role, domain.ErrForbidden)
	}
	return nil
}

func (s *SchemaService) publish(ctx context.Context, workspaceID, entityID uuid.UUID, entity, op string, actor uuid.UUID) {
	if s.events == nil {
		return
	}
	event := &domain.MutationEvent{
		WorkspaceID: workspaceID,
		EntityType:  entity,
		EntityID:    entityID,
		Operation:   op,
		ActorID:     actor,
		OccurredAt:  time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("entity_id", entityID.String()).
			Str("operation", op).
			Msg("Failed to publish mutation event")
	}
}

// indexByName resolves property names to columns. Names are not unique;
// the first column in schema order wins and formula references mean that one.
func indexByName(props []domain.DatabaseProperty) map[string]domain.DatabaseProperty {
	byName := make(map[string]domain.DatabaseProperty, len(props))
	for _, p := range props {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = p
		}
	}
	return byName
}

func hasOption(options []domain.SelectOption, id string) bool {
	for _, opt := range options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// asStrings accepts both []string and the []any shape JSON decoding yields
func asStrings(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
