package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestProjectionService_GetWorkspaceTree(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()

	t.Run("forest nested in sibling order", func(t *testing.T) {
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &ProjectionService{pageRepo: mockPages, memberRepo: mockMembers}

		rootA := domain.Page{ID: uuid.New(), WorkspaceID: workspaceID, Title: "A", OrderKey: "a0"}
		rootB := domain.Page{ID: uuid.New(), WorkspaceID: workspaceID, Title: "B", OrderKey: "a1"}
		childA1 := domain.Page{ID: uuid.New(), WorkspaceID: workspaceID, ParentID: &rootA.ID, Title: "A1", OrderKey: "a0"}
		childA2 := domain.Page{ID: uuid.New(), WorkspaceID: workspaceID, ParentID: &rootA.ID, Title: "A2", OrderKey: "a1"}

		// flat listing arrives globally sorted by order key
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockPages.On("ListByWorkspace", ctx, workspaceID).
			Return([]domain.Page{rootA, childA1, rootB, childA2}, nil)

		tree, err := svc.GetWorkspaceTree(ctx, userID, workspaceID)
		assert.NoError(t, err)
		assert.Len(t, tree, 2)
		assert.Equal(t, "A", tree[0].Page.Title)
		assert.Equal(t, "B", tree[1].Page.Title)
		assert.Len(t, tree[0].Children, 2)
		assert.Equal(t, "A1", tree[0].Children[0].Page.Title)
		assert.Equal(t, "A2", tree[0].Children[1].Page.Title)
	})

	t.Run("non-member denied", func(t *testing.T) {
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		svc := &ProjectionService{pageRepo: mockPages, memberRepo: mockMembers}

		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(false, nil)

		_, err := svc.GetWorkspaceTree(ctx, userID, workspaceID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		mockPages := new(MockPageRepository)
		mockMembers := new(MockMemberRepository)
		mockCache := new(MockTreeCache)
		svc := &ProjectionService{pageRepo: mockPages, memberRepo: mockMembers, treeCache: mockCache}

		cached := []*domain.PageTreeNode{{Page: domain.Page{ID: uuid.New(), Title: "Cached"}}}
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockCache.On("Get", ctx, workspaceID).Return(cached, nil)

		tree, err := svc.GetWorkspaceTree(ctx, userID, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, cached, tree)
		mockPages.AssertNotCalled(t, "ListByWorkspace", ctx, workspaceID)
	})
}

func TestProjectionService_GetPageView(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()
	pageID := uuid.New()

	t.Run("blocks nested in sibling order", func(t *testing.T) {
		mockPages := new(MockPageRepository)
		mockBlocks := new(MockBlockRepository)
		mockMembers := new(MockMemberRepository)
		svc := &ProjectionService{pageRepo: mockPages, blockRepo: mockBlocks, memberRepo: mockMembers}

		page := &domain.Page{ID: pageID, WorkspaceID: workspaceID, Title: "Doc"}
		toggle := domain.Block{ID: uuid.New(), PageID: pageID, Type: domain.BlockToggle, OrderKey: "a0"}
		inner := domain.Block{ID: uuid.New(), PageID: pageID, ParentID: &toggle.ID, Type: domain.BlockParagraph, OrderKey: "a0"}
		tail := domain.Block{ID: uuid.New(), PageID: pageID, Type: domain.BlockDivider, OrderKey: "a1"}

		mockPages.On("GetByID", ctx, pageID).Return(page, nil)
		mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		mockBlocks.On("ListByPage", ctx, pageID).Return([]domain.Block{toggle, inner, tail}, nil)

		view, err := svc.GetPageView(ctx, userID, pageID)
		assert.NoError(t, err)
		assert.Len(t, view.Blocks, 2)
		assert.Equal(t, toggle.ID, view.Blocks[0].Block.ID)
		assert.Len(t, view.Blocks[0].Children, 1)
		assert.Equal(t, inner.ID, view.Blocks[0].Children[0].Block.ID)
		assert.Equal(t, tail.ID, view.Blocks[1].Block.ID)
	})

	t.Run("missing page", func(t *testing.T) {
		mockPages := new(MockPageRepository)
		svc := &ProjectionService{pageRepo: mockPages}

		mockPages.On("GetByID", ctx, pageID).Return(nil, nil)

		_, err := svc.GetPageView(ctx, userID, pageID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProjectionService_GetTrash(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()

	mockPages := new(MockPageRepository)
	mockMembers := new(MockMemberRepository)
	svc := &ProjectionService{pageRepo: mockPages, memberRepo: mockMembers}

	trashed := []domain.Page{{ID: uuid.New(), WorkspaceID: workspaceID, IsDeleted: true}}
	mockMembers.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
	mockPages.On("ListTrash", ctx, workspaceID).Return(trashed, nil)

	pages, err := svc.GetTrash(ctx, userID, workspaceID)
	assert.NoError(t, err)
	assert.Equal(t, trashed, pages)
}
