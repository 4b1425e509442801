package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockPageRepository mocks the PageRepository interface
type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) Create(ctx context.Context, page *domain.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}

func (m *MockPageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func (m *MockPageRepository) UpdateMeta(ctx context.Context, id uuid.UUID, update *domain.PageUpdate, editorID uuid.UUID) error {
	args := m.Called(ctx, id, update, editorID)
	return args.Error(0)
}

func (m *MockPageRepository) ListChildren(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, includeDeleted bool) ([]domain.Page, error) {
	args := m.Called(ctx, workspaceID, parentID, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *MockPageRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Page, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *MockPageRepository) ListTrash(ctx context.Context, workspaceID uuid.UUID) ([]domain.Page, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *MockPageRepository) LastSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error) {
	args := m.Called(ctx, workspaceID, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockPageRepository) FirstSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error) {
	args := m.Called(ctx, workspaceID, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockPageRepository) NextSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error) {
	args := m.Called(ctx, workspaceID, parentID, afterKey)
	return args.String(0), args.Error(1)
}

func (m *MockPageRepository) IsAncestor(ctx context.Context, pageID, candidate uuid.UUID) (bool, error) {
	args := m.Called(ctx, pageID, candidate)
	return args.Bool(0), args.Error(1)
}

func (m *MockPageRepository) Depth(ctx context.Context, pageID uuid.UUID) (int, error) {
	args := m.Called(ctx, pageID)
	return args.Int(0), args.Error(1)
}

func (m *MockPageRepository) Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, workspaceID uuid.UUID, orderKey string) error {
	args := m.Called(ctx, id, parentID, workspaceID, orderKey)
	return args.Error(0)
}

func (m *MockPageRepository) SoftDeleteTree(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockPageRepository) RestoreTree(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPageRepository) ReapTree(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPageRepository) InsertSubtreeUnit(ctx context.Context, page *domain.Page, blocks []domain.Block, props []domain.DatabaseProperty) error {
	args := m.Called(ctx, page, blocks, props)
	return args.Error(0)
}

// MockBlockRepository mocks the BlockRepository interface
type MockBlockRepository struct {
	mock.Mock
}

func (m *MockBlockRepository) Create(ctx context.Context, block *domain.Block) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *MockBlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Block, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Block), args.Error(1)
}

func (m *MockBlockRepository) Update(ctx context.Context, id uuid.UUID, update *domain.BlockUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBlockRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]domain.Block, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Block), args.Error(1)
}

func (m *MockBlockRepository) LastSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error) {
	args := m.Called(ctx, pageID, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockBlockRepository) FirstSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error) {
	args := m.Called(ctx, pageID, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockBlockRepository) NextSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error) {
	args := m.Called(ctx, pageID, parentID, afterKey)
	return args.String(0), args.Error(1)
}

func (m *MockBlockRepository) Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, pageID uuid.UUID, orderKey string) error {
	args := m.Called(ctx, id, parentID, pageID, orderKey)
	return args.Error(0)
}

// MockMemberRepository mocks the MemberRepository interface
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkspaceMember), args.Error(1)
}

func (m *MockMemberRepository) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Bool(0), args.Error(1)
}

// MockPropertyRepository mocks the PropertyRepository interface
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, prop *domain.DatabaseProperty) error {
	args := m.Called(ctx, prop)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DatabaseProperty, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatabaseProperty), args.Error(1)
}

func (m *MockPropertyRepository) ListByDatabase(ctx context.Context, databaseID uuid.UUID) ([]domain.DatabaseProperty, error) {
	args := m.Called(ctx, databaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DatabaseProperty), args.Error(1)
}

func (m *MockPropertyRepository) ListReferencing(ctx context.Context, propertyID uuid.UUID) ([]domain.DatabaseProperty, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DatabaseProperty), args.Error(1)
}

func (m *MockPropertyRepository) LastKey(ctx context.Context, databaseID uuid.UUID) (string, error) {
	args := m.Called(ctx, databaseID)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, id uuid.UUID, name *string, config *domain.PropertyConfig) error {
	args := m.Called(ctx, id, name, config)
	return args.Error(0)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRowValueRepository mocks the RowValueRepository interface
type MockRowValueRepository struct {
	mock.Mock
}

func (m *MockRowValueRepository) Upsert(ctx context.Context, value *domain.RowValue) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockRowValueRepository) Get(ctx context.Context, rowID, propertyID uuid.UUID) (*domain.RowValue, error) {
	args := m.Called(ctx, rowID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RowValue), args.Error(1)
}

func (m *MockRowValueRepository) ListByRow(ctx context.Context, rowID uuid.UUID) ([]domain.RowValue, error) {
	args := m.Called(ctx, rowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RowValue), args.Error(1)
}

func (m *MockRowValueRepository) ListByRows(ctx context.Context, rowIDs []uuid.UUID) ([]domain.RowValue, error) {
	args := m.Called(ctx, rowIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RowValue), args.Error(1)
}

// MockEventPublisher mocks the EventPublisher interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.MutationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockTreeCache mocks the TreeCache interface
type MockTreeCache struct {
	mock.Mock
}

func (m *MockTreeCache) Get(ctx context.Context, workspaceID uuid.UUID) ([]*domain.PageTreeNode, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PageTreeNode), args.Error(1)
}

func (m *MockTreeCache) Set(ctx context.Context, workspaceID uuid.UUID, tree []*domain.PageTreeNode) error {
	args := m.Called(ctx, workspaceID, tree)
	return args.Error(0)
}

func (m *MockTreeCache) Invalidate(ctx context.Context, workspaceID uuid.UUID) error {
	args := m.Called(ctx, workspaceID)
	return args.Error(0)
}
