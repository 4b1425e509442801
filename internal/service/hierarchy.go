package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/orderkey"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/repository/postgres"
)

// HierarchyService handles structural page operations: create, move,
// trash/restore, duplicate and permanent removal. Moves are retried once when
// the store reports a serialization conflict with a concurrent structural
// change.
type HierarchyService struct {
	pageRepo   domain.PageRepository
	blockRepo  domain.BlockRepository
	propRepo   domain.PropertyRepository
	valueRepo  domain.RowValueRepository
	memberRepo domain.MemberRepository
	events     domain.EventPublisher
	treeCache  domain.TreeCache
	maxDepth   int
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(
	pageRepo domain.PageRepository,
	blockRepo domain.BlockRepository,
	propRepo domain.PropertyRepository,
	valueRepo domain.RowValueRepository,
	memberRepo domain.MemberRepository,
	events domain.EventPublisher,
	treeCache domain.TreeCache,
	maxDepth int,
) *HierarchyService {
	return &HierarchyService{
		pageRepo:   pageRepo,
		blockRepo:  blockRepo,
		propRepo:   propRepo,
		valueRepo:  valueRepo,
		memberRepo: memberRepo,
		events:     events,
		treeCache:  treeCache,
		maxDepth:   maxDepth,
	}
}

// CreatePage creates a page at the end of its sibling group
func (s *HierarchyService) CreatePage(ctx context.Context, userID, workspaceID uuid.UUID, input domain.PageCreate) (*domain.Page, error) {
	if err := s.requireWriter(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.pageRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent page: %w", domain.ErrNotFound)
		}
		if parent.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("parent belongs to another workspace: %w", domain.ErrCrossTenant)
		}
		if parent.IsDeleted {
			return nil, fmt.Errorf("parent is in the trash: %w", domain.ErrInvalidState)
		}
		if err := s.checkDepth(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	last, err := s.pageRepo.LastSiblingKey(ctx, workspaceID, input.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sibling key: %w", err)
	}
	key, err := orderkey.KeyBetween(last, "")
	if err != nil {
		return nil, fmt.Errorf("failed to compute order key: %w", err)
	}

	now := time.Now()
	page := &domain.Page{
		ID:           uuid.New(),
		WorkspaceID:  workspaceID,
		ParentID:     input.ParentID,
		Title:        input.Title,
		Icon:         input.Icon,
		IsDatabase:   input.IsDatabase,
		IsTemplate:   input.IsTemplate,
		OrderKey:     key,
		CreatedByID:  userID,
		LastEditedBy: userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: workspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    page.ID,
		Operation:   domain.OpCreate,
		ParentID:    page.ParentID,
		OrderKey:    page.OrderKey,
		ActorID:     userID,
		OccurredAt:  now,
	})
	s.invalidateTree(ctx, workspaceID)

	return page, nil
}

// GetPage retrieves a single page with access check. Trashed pages stay
// addressable here; listings are what exclude them.
func (s *HierarchyService) GetPage(ctx context.Context, userID, pageID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
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

// UpdatePage applies a partial metadata update
func (s *HierarchyService) UpdatePage(ctx context.Context, userID, pageID uuid.UUID, input domain.PageUpdate) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.requireWriter(ctx, page.WorkspaceID, userID); err != nil {
		return nil, err
	}
	if page.IsDeleted {
		return nil, fmt.Errorf("page is in the trash: %w", domain.ErrInvalidState)
	}

	if err := s.pageRepo.UpdateMeta(ctx, pageID, &input, userID); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: page.WorkspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    pageID,
		Operation:   domain.OpUpdate,
		ParentID:    page.ParentID,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	})
	s.invalidateTree(ctx, page.WorkspaceID)

	return s.pageRepo.GetByID(ctx, pageID)
}

// MovePage re-parents or reorders a page. The destination defaults to the
// page's current parent and workspace; a cross-workspace move re-validates
// membership in the destination and carries the whole subtree over.
func (s *HierarchyService) MovePage(ctx context.Context, userID, pageID uuid.UUID, input domain.PageMove) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
	}
	if page.IsDeleted {
		return nil, fmt.Errorf("page is in the trash: %w", domain.ErrInvalidState)
	}
	if err := s.requireWriter(ctx, page.WorkspaceID, userID); err != nil {
		return nil, err
	}

	destWorkspace := page.WorkspaceID
	if input.NewWorkspaceID != nil && *input.NewWorkspaceID != page.WorkspaceID {
		destWorkspace = *input.NewWorkspaceID
		if err := s.requireWriter(ctx, destWorkspace, userID); err != nil {
			return nil, err
		}
	}

	destParent := page.ParentID
	switch {
	case input.ToRoot:
		destParent = nil
	case input.NewParentID != nil:
		destParent = input.NewParentID
	case destWorkspace != page.WorkspaceID:
		// A workspace change with no explicit parent lands at the
		// destination root; the old parent lives in the old workspace.
		destParent = nil
	}

	if destParent != nil {
		if *destParent == pageID {
			return nil, fmt.Errorf("page cannot be its own parent: %w", domain.ErrCycleDetected)
		}
		parent, err := s.pageRepo.GetByID(ctx, *destParent)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("destination parent: %w", domain.ErrNotFound)
		}
		if parent.WorkspaceID != destWorkspace {
			return nil, fmt.Errorf("destination parent belongs to another workspace: %w", domain.ErrCrossTenant)
		}
		if parent.IsDeleted {
			return nil, fmt.Errorf("destination parent is in the trash: %w", domain.ErrInvalidState)
		}
		above, err := s.pageRepo.IsAncestor(ctx, *destParent, pageID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ancestry: %w", err)
		}
		if above {
			return nil, fmt.Errorf("destination is inside the moved subtree: %w", domain.ErrCycleDetected)
		}
		if err := s.checkDepth(ctx, *destParent); err != nil {
			return nil, err
		}
	}

	key, err := s.pageOrderKey(ctx, pageID, destWorkspace, destParent, input)
	if err != nil {
		return nil, err
	}

	err = s.pageRepo.Move(ctx, pageID, destParent, destWorkspace, key)
	if postgres.IsRetryable(err) && input.OrderKey == nil {
		// A concurrent structural change invalidated the computed key;
		// recompute against fresh siblings and retry once.
		key, err = s.pageOrderKey(ctx, pageID, destWorkspace, destParent, input)
		if err != nil {
			return nil, err
		}
		err = s.pageRepo.Move(ctx, pageID, destParent, destWorkspace, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to move page: %w", err)
	}

	event := domain.MutationEvent{
		WorkspaceID: destWorkspace,
		EntityType:  domain.EntityPage,
		EntityID:    pageID,
		Operation:   domain.OpMove,
		ParentID:    destParent,
		OrderKey:    key,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	}
	s.publish(ctx, &event)
	if destWorkspace != page.WorkspaceID {
		// Source-workspace subscribers need to see the page leave too.
		departure := event
		departure.WorkspaceID = page.WorkspaceID
		s.publish(ctx, &departure)
		s.invalidateTree(ctx, destWorkspace)
	}
	s.invalidateTree(ctx, page.WorkspaceID)

	return s.pageRepo.GetByID(ctx, pageID)
}

// SoftDeletePage moves a page and its whole subtree to the trash
func (s *HierarchyService) SoftDeletePage(ctx context.Context, userID, pageID uuid.UUID) error {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return domain.ErrNotFound
	}
	if err := s.requireWriter(ctx, page.WorkspaceID, userID); err != nil {
		return err
	}
	if page.IsDeleted {
		return fmt.Errorf("page is already in the trash: %w", domain.ErrInvalidState)
	}

	if err := s.pageRepo.SoftDeleteTree(ctx, pageID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: page.WorkspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    pageID,
		Operation:   domain.OpDelete,
		ParentID:    page.ParentID,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	})
	s.invalidateTree(ctx, page.WorkspaceID)

	return nil
}

// RestorePage brings a trashed page back, together with the descendants
// trashed by the same delete and any trashed ancestors above it
func (s *HierarchyService) RestorePage(ctx context.Context, userID, pageID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.requireWriter(ctx, page.WorkspaceID, userID); err != nil {
		return nil, err
	}

	if err := s.pageRepo.RestoreTree(ctx, pageID); err != nil {
		return nil, fmt.Errorf("failed to restore page: %w", err)
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: page.WorkspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    pageID,
		Operation:   domain.OpRestore,
		ParentID:    page.ParentID,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	})
	s.invalidateTree(ctx, page.WorkspaceID)

	return s.pageRepo.GetByID(ctx, pageID)
}

// ReapPage permanently removes a trashed page and everything beneath it.
// Admin or owner role is required; there is no undo.
func (s *HierarchyService) ReapPage(ctx context.Context, userID, pageID uuid.UUID) error {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return domain.ErrNotFound
	}

	member, err := s.memberRepo.GetMember(ctx, page.WorkspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || !member.CanAdminister() {
		return domain.ErrForbidden
	}
	if !page.IsDeleted {
		return fmt.Errorf("only trashed pages can be permanently removed: %w", domain.ErrInvalidState)
	}

	if err := s.pageRepo.ReapTree(ctx, pageID); err != nil {
		return fmt.Errorf("failed to remove page: %w", err)
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: page.WorkspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    pageID,
		Operation:   domain.OpDelete,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	})

	return nil
}

// DuplicatePage deep-copies a page with its blocks, schema, row values and
// descendant pages. The copy lands right after the original in its sibling
// group; every copied page with its own blocks is inserted atomically, so a
// failure mid-copy leaves whole pages rather than torn ones.
func (s *HierarchyService) DuplicatePage(ctx context.Context, userID, pageID uuid.UUID) (*domain.Page, error) {
	src, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if src == nil {
		return nil, domain.ErrNotFound
	}
	if src.IsDeleted {
		return nil, fmt.Errorf("page is in the trash: %w", domain.ErrInvalidState)
	}
	if err := s.requireWriter(ctx, src.WorkspaceID, userID); err != nil {
		return nil, err
	}

	next, err := s.pageRepo.NextSiblingKey(ctx, src.WorkspaceID, src.ParentID, src.OrderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get next sibling key: %w", err)
	}
	key, err := orderkey.KeyBetween(src.OrderKey, next)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order key: %w", err)
	}

	title := src.Title + " (copy)"
	newID, err := s.copySubtree(ctx, src, src.ParentID, key, &title, nil, userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &domain.MutationEvent{
		WorkspaceID: src.WorkspaceID,
		EntityType:  domain.EntityPage,
		EntityID:    newID,
		Operation:   domain.OpDuplicate,
		ParentID:    src.ParentID,
		OrderKey:    key,
		ActorID:     userID,
		OccurredAt:  time.Now(),
	})
	s.invalidateTree(ctx, src.WorkspaceID)

	return s.pageRepo.GetByID(ctx, newID)
}

// copySubtree copies one page with its blocks and schema, then recurses into
// live child pages. parentPropMap maps the source database's property ids to
// their copies when src is a row of a database being duplicated.
func (s *HierarchyService) copySubtree(
	ctx context.Context,
	src *domain.Page,
	parentID *uuid.UUID,
	key string,
	title *string,
	parentPropMap map[uuid.UUID]uuid.UUID,
	actor uuid.UUID,
) (uuid.UUID, error) {
	now := time.Now()
	page := &domain.Page{
		ID:           uuid.New(),
		WorkspaceID:  src.WorkspaceID,
		ParentID:     parentID,
		Title:        src.Title,
		Icon:         src.Icon,
		Cover:        src.Cover,
		IsDatabase:   src.IsDatabase,
		IsTemplate:   src.IsTemplate,
		OrderKey:     key,
		CreatedByID:  actor,
		LastEditedBy: actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if title != nil {
		page.Title = *title
	}

	blocks, err := s.blockRepo.ListByPage(ctx, src.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	newBlocks := copyBlocks(blocks, page.ID, now)

	var props []domain.DatabaseProperty
	var propMap map[uuid.UUID]uuid.UUID
	if src.IsDatabase {
		srcProps, err := s.propRepo.ListByDatabase(ctx, src.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to list properties: %w", err)
		}
		props, propMap = copyProperties(srcProps, page.ID, now)
	}

	if err := s.pageRepo.InsertSubtreeUnit(ctx, page, newBlocks, props); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert page copy: %w", err)
	}

	if parentPropMap != nil {
		values, err := s.valueRepo.ListByRow(ctx, src.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to list row values: %w", err)
		}
		for _, v := range values {
			newPropID, ok := parentPropMap[v.PropertyID]
			if !ok {
				continue
			}
			copied := &domain.RowValue{
				RowID:      page.ID,
				PropertyID: newPropID,
				Value:      v.Value,
				UpdatedAt:  now,
			}
			if err := s.valueRepo.Upsert(ctx, copied); err != nil {
				return uuid.Nil, fmt.Errorf("failed to copy row value: %w", err)
			}
		}
	}

	children, err := s.pageRepo.ListChildren(ctx, src.WorkspaceID, &src.ID, false)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list children: %w", err)
	}
	for i := range children {
		child := children[i]
		// Sibling keys transfer verbatim: the copy's child group starts
		// empty, so the source ordering is already collision-free.
		if _, err := s.copySubtree(ctx, &child, &page.ID, child.OrderKey, nil, propMap, actor); err != nil {
			return uuid.Nil, err
		}
	}

	return page.ID, nil
}

// copyBlocks clones a flat block list onto a new page, reknitting the
// parent/child links between the fresh ids
func copyBlocks(blocks []domain.Block, pageID uuid.UUID, now time.Time) []domain.Block {
	idMap := make(map[uuid.UUID]uuid.UUID, len(blocks))
	for _, b := range blocks {
		idMap[b.ID] = uuid.New()
	}

	out := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		copied := b
		copied.ID = idMap[b.ID]
		copied.PageID = pageID
		if b.ParentID != nil {
			if newParent, ok := idMap[*b.ParentID]; ok {
				copied.ParentID = &newParent
			}
		}
		copied.CreatedAt = now
		copied.UpdatedAt = now
		out = append(out, copied)
	}
	return out
}

// copyProperties clones a database schema onto a new database page. Rollup
// configs pointing at a sibling relation property follow it to its copy;
// references into other databases stay as they are.
func copyProperties(props []domain.DatabaseProperty, databaseID uuid.UUID, now time.Time) ([]domain.DatabaseProperty, map[uuid.UUID]uuid.UUID) {
	idMap := make(map[uuid.UUID]uuid.UUID, len(props))
	for _, p := range props {
		idMap[p.ID] = uuid.New()
	}

	out := make([]domain.DatabaseProperty, 0, len(props))
	for _, p := range props {
		copied := p
		copied.ID = idMap[p.ID]
		copied.DatabaseID = databaseID
		if p.Config.RelationPropertyID != nil {
			if newRef, ok := idMap[*p.Config.RelationPropertyID]; ok {
				copied.Config.RelationPropertyID = &newRef
			}
		}
		copied.CreatedAt = now
		copied.UpdatedAt = now
		out = append(out, copied)
	}
	return out, idMap
}

// pageOrderKey resolves the order key for a move: explicit key, after a
// destination sibling, or appended at the end of the destination group
func (s *HierarchyService) pageOrderKey(ctx context.Context, pageID uuid.UUID, workspaceID uuid.UUID, parentID *uuid.UUID, input domain.PageMove) (string, error) {
	if input.OrderKey != nil {
		if err := orderkey.Validate(*input.OrderKey); err != nil {
			return "", fmt.Errorf("order key %q: %w", *input.OrderKey, domain.ErrInvalidState)
		}
		return *input.OrderKey, nil
	}

	if input.AfterID != nil {
		after, err := s.pageRepo.GetByID(ctx, *input.AfterID)
		if err != nil {
			return "", fmt.Errorf("failed to get after target: %w", err)
		}
		if after == nil {
			return "", fmt.Errorf("after target: %w", domain.ErrNotFound)
		}
		if after.WorkspaceID != workspaceID || !sameParent(after.ParentID, parentID) || after.IsDeleted {
			return "", fmt.Errorf("after target is not a destination sibling: %w", domain.ErrInvalidState)
		}
		if after.ID == pageID {
			return after.OrderKey, nil
		}
		next, err := s.pageRepo.NextSiblingKey(ctx, workspaceID, parentID, after.OrderKey)
		if err != nil {
			return "", fmt.Errorf("failed to get next sibling key: %w", err)
		}
		key, err := orderkey.KeyBetween(after.OrderKey, next)
		if err != nil {
			return "", fmt.Errorf("failed to compute order key: %w", err)
		}
		return key, nil
	}

	last, err := s.pageRepo.LastSiblingKey(ctx, workspaceID, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to get last sibling key: %w", err)
	}
	key, err := orderkey.KeyBetween(last, "")
	if err != nil {
		return "", fmt.Errorf("failed to compute order key: %w", err)
	}
	return key, nil
}

func (s *HierarchyService) checkDepth(ctx context.Context, parentID uuid.UUID) error {
	if s.maxDepth <= 0 {
		return nil
	}
	depth, err := s.pageRepo.Depth(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to measure depth: %w", err)
	}
	if depth+1 >= s.maxDepth {
		return fmt.Errorf("page nesting exceeds %d levels: %w", s.maxDepth, domain.ErrInvalidState)
	}
	return nil
}

func (s *HierarchyService) requireWriter(ctx context.Context, workspaceID, userID uuid.UUID) error {
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

func (s *HierarchyService) publish(ctx context.Context, event *domain.MutationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("entity_id", event.EntityID.String()).
			Str("operation", event.Operation).
			Msg("Failed to publish mutation event")
	}
}

func (s *HierarchyService) invalidateTree(ctx context.Context, workspaceID uuid.UUID) {
	if s.treeCache == nil {
		return
	}
	if err := s.treeCache.Invalidate(ctx, workspaceID); err != nil {
		log.Warn().Err(err).
			Str("workspace_id", workspaceID.String()).
			Msg("Failed to invalidate tree cache")
	}
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
