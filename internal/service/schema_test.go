package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSchemaService_DefineProperty(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()
	databaseID := uuid.New()
	db := &domain.Page{ID: databaseID, WorkspaceID: workspaceID, IsDatabase: true}

	newSvc := func() (*SchemaService, *MockPropertyRepository, *MockPageRepository, *MockMemberRepository) {
		mockProps := new(MockPropertyRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, pageRepo: mockPages, memberRepo: mockMembers}
		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("GetMember", ctx, workspaceID, userID).Return(writerMember(workspaceID, userID), nil)
		return svc, mockProps, mockPages, mockMembers
	}

	t.Run("text column appended to schema", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{}, nil)
		mockProps.On("LastKey", ctx, databaseID).Return("a0", nil)
		mockProps.On("Create", ctx, mock.AnythingOfType("*domain.DatabaseProperty")).Return(nil)

		prop, err := svc.DefineProperty(ctx, userID, databaseID, domain.PropertyCreate{Name: "Status note", Type: domain.PropertyText})
		assert.NoError(t, err)
		assert.Equal(t, "a1", prop.OrderKey)
		assert.Equal(t, databaseID, prop.DatabaseID)
		mockProps.AssertExpectations(t)
	})

	t.Run("repeated name accepted", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		existing := []domain.DatabaseProperty{{ID: uuid.New(), DatabaseID: databaseID, Name: "Status", Type: domain.PropertyText, OrderKey: "a0"}}
		mockProps.On("ListByDatabase", ctx, databaseID).Return(existing, nil)
		mockProps.On("LastKey", ctx, databaseID).Return("a0", nil)
		mockProps.On("Create", ctx, mock.AnythingOfType("*domain.DatabaseProperty")).Return(nil)

		prop, err := svc.DefineProperty(ctx, userID, databaseID, domain.PropertyCreate{Name: "Status", Type: domain.PropertySelect,
			Config: domain.PropertyConfig{Options: []domain.SelectOption{{ID: "opt-1", Name: "Todo"}}}})
		assert.NoError(t, err)
		assert.Equal(t, "Status", prop.Name)
		assert.Equal(t, "a1", prop.OrderKey)
		mockProps.AssertExpectations(t)
	})

	t.Run("select with duplicate option ids", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{}, nil)

		input := domain.PropertyCreate{
			Name: "Stage",
			Type: domain.PropertySelect,
			Config: domain.PropertyConfig{Options: []domain.SelectOption{
				{ID: "opt-1", Name: "Todo"},
				{ID: "opt-1", Name: "Done"},
			}},
		}
		_, err := svc.DefineProperty(ctx, userID, databaseID, input)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("formula referencing unknown property", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{}, nil)

		input := domain.PropertyCreate{
			Name:   "Total",
			Type:   domain.PropertyFormula,
			Config: domain.PropertyConfig{Expression: `prop("Price") * 2`},
		}
		_, err := svc.DefineProperty(ctx, userID, databaseID, input)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("formula over number columns", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		existing := []domain.DatabaseProperty{
			{ID: uuid.New(), DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber, OrderKey: "a0"},
			{ID: uuid.New(), DatabaseID: databaseID, Name: "Qty", Type: domain.PropertyNumber, OrderKey: "a1"},
		}
		mockProps.On("ListByDatabase", ctx, databaseID).Return(existing, nil)
		mockProps.On("LastKey", ctx, databaseID).Return("a1", nil)
		mockProps.On("Create", ctx, mock.AnythingOfType("*domain.DatabaseProperty")).Return(nil)

		input := domain.PropertyCreate{
			Name:   "Total",
			Type:   domain.PropertyFormula,
			Config: domain.PropertyConfig{Expression: `prop("Price") * prop("Qty")`},
		}
		prop, err := svc.DefineProperty(ctx, userID, databaseID, input)
		assert.NoError(t, err)
		assert.Equal(t, "a2", prop.OrderKey)
	})

	t.Run("sum rollup needs a number target", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		targetDB := uuid.New()
		relationID := uuid.New()
		targetID := uuid.New()
		existing := []domain.DatabaseProperty{
			{ID: relationID, DatabaseID: databaseID, Name: "Tasks", Type: domain.PropertyRelation,
				Config: domain.PropertyConfig{RelationDatabaseID: &targetDB}},
		}
		target := &domain.DatabaseProperty{ID: targetID, DatabaseID: targetDB, Name: "Name", Type: domain.PropertyText}
		mockProps.On("ListByDatabase", ctx, databaseID).Return(existing, nil)
		mockProps.On("GetByID", ctx, targetID).Return(target, nil)

		input := domain.PropertyCreate{
			Name: "Effort",
			Type: domain.PropertyRollup,
			Config: domain.PropertyConfig{
				RelationPropertyID: &relationID,
				TargetPropertyID:   &targetID,
				Aggregation:        domain.RollupSum,
			},
		}
		_, err := svc.DefineProperty(ctx, userID, databaseID, input)
		assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	})

	t.Run("count rollup without target", func(t *testing.T) {
		svc, mockProps, _, _ := newSvc()
		targetDB := uuid.New()
		relationID := uuid.New()
		existing := []domain.DatabaseProperty{
			{ID: relationID, DatabaseID: databaseID, Name: "Tasks", Type: domain.PropertyRelation,
				Config: domain.PropertyConfig{RelationDatabaseID: &targetDB}},
		}
		mockProps.On("ListByDatabase", ctx, databaseID).Return(existing, nil)
		mockProps.On("LastKey", ctx, databaseID).Return("a0", nil)
		mockProps.On("Create", ctx, mock.AnythingOfType("*domain.DatabaseProperty")).Return(nil)

		input := domain.PropertyCreate{
			Name:   "Task count",
			Type:   domain.PropertyRollup,
			Config: domain.PropertyConfig{RelationPropertyID: &relationID, Aggregation: domain.RollupCount},
		}
		_, err := svc.DefineProperty(ctx, userID, databaseID, input)
		assert.NoError(t, err)
	})

	t.Run("plain page is not a database", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, pageRepo: mockPages, memberRepo: mockMembers}

		plainID := uuid.New()
		plain := &domain.Page{ID: plainID, WorkspaceID: workspaceID}
		mockPages.On("GetByID", ctx, plainID).Return(plain, nil)

		_, err := svc.DefineProperty(ctx, userID, plainID, domain.PropertyCreate{Name: "X", Type: domain.PropertyText})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestSchemaService_DeleteProperty(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()
	databaseID := uuid.New()
	db := &domain.Page{ID: databaseID, WorkspaceID: workspaceID, IsDatabase: true}

	propID := uuid.New()
	prop := &domain.DatabaseProperty{ID: propID, DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber}
	dependent := domain.DatabaseProperty{
		ID: uuid.New(), DatabaseID: databaseID, Name: "Total", Type: domain.PropertyFormula,
		Config: domain.PropertyConfig{Expression: `prop("Price") * 2`},
	}

	t.Run("refused while referenced", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, pageRepo: mockPages, memberRepo: mockMembers}

		mockProps.On("GetByID", ctx, propID).Return(prop, nil)
		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("GetMember", ctx, workspaceID, userID).Return(writerMember(workspaceID, userID), nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{*prop, dependent}, nil)
		mockProps.On("ListReferencing", ctx, propID).Return([]domain.DatabaseProperty{}, nil)

		err := svc.DeleteProperty(ctx, userID, propID, false)
		assert.ErrorIs(t, err, domain.ErrPropertyInUse)
	})

	t.Run("cascade removes dependents too", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, pageRepo: mockPages, memberRepo: mockMembers}

		mockProps.On("GetByID", ctx, propID).Return(prop, nil)
		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("GetMember", ctx, workspaceID, userID).Return(writerMember(workspaceID, userID), nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{*prop, dependent}, nil)
		mockProps.On("ListReferencing", ctx, mock.AnythingOfType("uuid.UUID")).Return([]domain.DatabaseProperty{}, nil)
		mockProps.On("Delete", ctx, dependent.ID).Return(nil).Once()
		mockProps.On("Delete", ctx, propID).Return(nil).Once()

		err := svc.DeleteProperty(ctx, userID, propID, true)
		assert.NoError(t, err)
		mockProps.AssertExpectations(t)
	})

	t.Run("shadowed duplicate name deletes freely", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, pageRepo: mockPages, memberRepo: mockMembers}

		// Second "Price" column; the formula resolves the first one, so
		// this one has no dependents.
		shadowID := uuid.New()
		shadow := &domain.DatabaseProperty{ID: shadowID, DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber, OrderKey: "a2"}

		mockProps.On("GetByID", ctx, shadowID).Return(shadow, nil)
		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("GetMember", ctx, workspaceID, userID).Return(writerMember(workspaceID, userID), nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return([]domain.DatabaseProperty{*prop, dependent, *shadow}, nil)
		mockProps.On("ListReferencing", ctx, shadowID).Return([]domain.DatabaseProperty{}, nil)
		mockProps.On("Delete", ctx, shadowID).Return(nil).Once()

		err := svc.DeleteProperty(ctx, userID, shadowID, false)
		assert.NoError(t, err)
		mockProps.AssertExpectations(t)
	})
}

func TestSchemaService_SetRowValue(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()
	databaseID := uuid.New()
	rowID := uuid.New()

	db := &domain.Page{ID: databaseID, WorkspaceID: workspaceID, IsDatabase: true}
	row := &domain.Page{ID: rowID, WorkspaceID: workspaceID, ParentID: &databaseID}

	newSvc := func() (*SchemaService, *MockPropertyRepository, *MockRowValueRepository) {
		mockProps := new(MockPropertyRepository)
		mockValues := new(MockRowValueRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, valueRepo: mockValues, pageRepo: mockPages, memberRepo: mockMembers}
		mockPages.On("GetByID", ctx, rowID).Return(row, nil)
		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("GetMember", ctx, workspaceID, userID).Return(writerMember(workspaceID, userID), nil)
		return svc, mockProps, mockValues
	}

	t.Run("number accepts ints and floats", func(t *testing.T) {
		svc, mockProps, mockValues := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{ID: propID, DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)
		mockValues.On("Upsert", ctx, mock.AnythingOfType("*domain.RowValue")).Return(nil)

		value, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: 42})
		assert.NoError(t, err)
		assert.Equal(t, float64(42), value.Value)
	})

	t.Run("string into number column", func(t *testing.T) {
		svc, mockProps, _ := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{ID: propID, DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)

		_, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: "lots"})
		assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	})

	t.Run("unknown select option", func(t *testing.T) {
		svc, mockProps, _ := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{
			ID: propID, DatabaseID: databaseID, Name: "Stage", Type: domain.PropertySelect,
			Config: domain.PropertyConfig{Options: []domain.SelectOption{{ID: "opt-1", Name: "Todo"}}},
		}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)

		_, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: "opt-9"})
		assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	})

	t.Run("multi_select accepts decoded json lists", func(t *testing.T) {
		svc, mockProps, mockValues := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{
			ID: propID, DatabaseID: databaseID, Name: "Tags", Type: domain.PropertyMultiSelect,
			Config: domain.PropertyConfig{Options: []domain.SelectOption{{ID: "opt-1", Name: "A"}, {ID: "opt-2", Name: "B"}}},
		}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)
		mockValues.On("Upsert", ctx, mock.AnythingOfType("*domain.RowValue")).Return(nil)

		value, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: []any{"opt-1", "opt-2"}})
		assert.NoError(t, err)
		assert.Equal(t, []string{"opt-1", "opt-2"}, value.Value)
	})

	t.Run("formula column rejects writes", func(t *testing.T) {
		svc, mockProps, _ := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{
			ID: propID, DatabaseID: databaseID, Name: "Total", Type: domain.PropertyFormula,
			Config: domain.PropertyConfig{Expression: `1 + 1`},
		}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)

		_, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: float64(3)})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("property of another database", func(t *testing.T) {
		svc, mockProps, _ := newSvc()
		propID := uuid.New()
		prop := &domain.DatabaseProperty{ID: propID, DatabaseID: uuid.New(), Name: "Price", Type: domain.PropertyNumber}
		mockProps.On("GetByID", ctx, propID).Return(prop, nil)

		_, err := svc.SetRowValue(ctx, userID, rowID, domain.RowValueSet{PropertyID: propID, Value: float64(1)})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestSchemaService_GetDatabase(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()
	databaseID := uuid.New()
	db := &domain.Page{ID: databaseID, WorkspaceID: workspaceID, IsDatabase: true}

	priceID := uuid.New()
	qtyID := uuid.New()
	totalID := uuid.New()
	props := []domain.DatabaseProperty{
		{ID: priceID, DatabaseID: databaseID, Name: "Price", Type: domain.PropertyNumber, OrderKey: "a0"},
		{ID: qtyID, DatabaseID: databaseID, Name: "Qty", Type: domain.PropertyNumber, OrderKey: "a1"},
		{ID: totalID, DatabaseID: databaseID, Name: "Total", Type: domain.PropertyFormula, OrderKey: "a2",
			Config: domain.PropertyConfig{Expression: `prop("Price") * prop("Qty")`}},
	}

	rowID := uuid.New()
	rows := []domain.Page{{ID: rowID, WorkspaceID: workspaceID, ParentID: &databaseID, Title: "Widget", OrderKey: "a0"}}
	values := []domain.RowValue{
		{RowID: rowID, PropertyID: priceID, Value: float64(3)},
		{RowID: rowID, PropertyID: qtyID, Value: float64(4)},
	}

	t.Run("formula columns computed per row", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockValues := new(MockRowValueRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, valueRepo: mockValues, pageRepo: mockPages, memberRepo: mockMembers}

		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return(props, nil)
		mockPages.On("ListChildren", ctx, workspaceID, &databaseID, false).Return(rows, nil)
		mockValues.On("ListByRows", ctx, []uuid.UUID{rowID}).Return(values, nil)

		view, err := svc.GetDatabase(ctx, userID, databaseID)
		assert.NoError(t, err)
		assert.Len(t, view.Rows, 1)
		assert.Equal(t, float64(3), view.Rows[0].Values[priceID])
		assert.Equal(t, float64(12), view.Rows[0].Values[totalID])
	})

	t.Run("count rollup over relation links", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockValues := new(MockRowValueRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, valueRepo: mockValues, pageRepo: mockPages, memberRepo: mockMembers}

		targetDB := uuid.New()
		relationID := uuid.New()
		countID := uuid.New()
		rollupProps := []domain.DatabaseProperty{
			{ID: relationID, DatabaseID: databaseID, Name: "Tasks", Type: domain.PropertyRelation, OrderKey: "a0",
				Config: domain.PropertyConfig{RelationDatabaseID: &targetDB}},
			{ID: countID, DatabaseID: databaseID, Name: "Task count", Type: domain.PropertyRollup, OrderKey: "a1",
				Config: domain.PropertyConfig{RelationPropertyID: &relationID, Aggregation: domain.RollupCount}},
		}
		linked := []domain.RowValue{
			{RowID: rowID, PropertyID: relationID, Value: []any{uuid.New().String(), uuid.New().String()}},
		}

		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return(rollupProps, nil)
		mockPages.On("ListChildren", ctx, workspaceID, &databaseID, false).Return(rows, nil)
		mockValues.On("ListByRows", ctx, []uuid.UUID{rowID}).Return(linked, nil)

		view, err := svc.GetDatabase(ctx, userID, databaseID)
		assert.NoError(t, err)
		assert.Equal(t, float64(2), view.Rows[0].Values[countID])
	})

	t.Run("repeated name resolves to the first column", func(t *testing.T) {
		mockProps := new(MockPropertyRepository)
		mockValues := new(MockRowValueRepository)
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &SchemaService{propRepo: mockProps, valueRepo: mockValues, pageRepo: mockPages, memberRepo: mockMembers}

		firstID := uuid.New()
		secondID := uuid.New()
		doubledID := uuid.New()
		dupProps := []domain.DatabaseProperty{
			{ID: firstID, DatabaseID: databaseID, Name: "Amount", Type: domain.PropertyNumber, OrderKey: "a0"},
			{ID: secondID, DatabaseID: databaseID, Name: "Amount", Type: domain.PropertyNumber, OrderKey: "a1"},
			{ID: doubledID, DatabaseID: databaseID, Name: "Doubled", Type: domain.PropertyFormula, OrderKey: "a2",
				Config: domain.PropertyConfig{Expression: `prop("Amount") * 2`}},
		}
		dupValues := []domain.RowValue{
			{RowID: rowID, PropertyID: firstID, Value: float64(5)},
			{RowID: rowID, PropertyID: secondID, Value: float64(100)},
		}

		mockPages.On("GetByID", ctx, databaseID).Return(db, nil)
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockProps.On("ListByDatabase", ctx, databaseID).Return(dupProps, nil)
		mockPages.On("ListChildren", ctx, workspaceID, &databaseID, false).Return(rows, nil)
		mockValues.On("ListByRows", ctx, []uuid.UUID{rowID}).Return(dupValues, nil)

		view, err := svc.GetDatabase(ctx, userID, databaseID)
		assert.NoError(t, err)
		assert.Equal(t, float64(10), view.Rows[0].Values[doubledID])
	})
}
