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

// BlockService handles content block operations within pages
type BlockService struct {
	blockRepo  domain.BlockRepository
	pageRepo   domain.PageRepository
	memberRepo domain.MemberRepository
	events     domain.EventPublisher
}

// NewBlockService creates a new block service
func NewBlockService(
	blockRepo domain.BlockRepository,
	pageRepo domain.PageRepository,
	memberRepo domain.MemberRepository,
	events domain.EventPublisher,
) *BlockService {
	return &BlockService{
		blockRepo:  blockRepo,
		pageRepo:   pageRepo,
		memberRepo: memberRepo,
		events:     events,
	}
}

// CreateBlock creates a block at the end of its sibling group unless an
// explicit order key is given
func (s *BlockService) CreateBlock(ctx context.Context, userID, pageID uuid.UUID, input domain.BlockCreate) (*domain.Block, error) {
	page, err := s.writablePage(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}

	if !input.Type.Valid() {
		return nil, fmt.Errorf("unknown block type %q: %w", input.Type, domain.ErrInvalidState)
	}

	if input.ParentID != nil {
		parent, err := s.blockRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent block: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent block: %w", domain.ErrNotFound)
		}
		if parent.PageID != pageID {
			return nil, fmt.Errorf("parent block belongs to another page: %w", domain.ErrCrossTenant)
		}
	}

	var key string
	if input.OrderKey != nil {
		if err := orderkey.Validate(*input.OrderKey); err != nil {
			return nil, fmt.Errorf("order key %q: %w", *input.OrderKey, domain.ErrInvalidState)
		}
		key = *input.OrderKey
	} else {
		last, err := s.blockRepo.LastSiblingKey(ctx, pageID, input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get last sibling key: %w", err)
		}
		key, err = orderkey.KeyBetween(last, "")
		if err != nil {
			return nil, fmt.Errorf("failed to compute order key: %w", err)
		}
	}

	now := time.Now()
	block := &domain.Block{
		ID:          uuid.New(),
		PageID:      pageID,
		ParentID:    input.ParentID,
		Type:        input.Type,
		Content:     input.Content,
		OrderKey:    key,
		CreatedByID: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.blockRepo.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to create block: %w", err)
	}

	s.publish(ctx, page.WorkspaceID, block.ID, domain.OpCreate, block.ParentID, key, userID)

	return block, nil
}

// GetBlock retrieves a single block with access check
func (s *BlockService) GetBlock(ctx context.Context, userID, blockID uuid.UUID) (*domain.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	if block == nil {
		return nil, domain.ErrNotFound
	}

	page, err := s.pageRepo.GetByID(ctx, block.PageID)
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

	return block, nil
}

// UpdateBlock applies a partial content update
func (s *BlockService) UpdateBlock(ctx context.Context, userID, blockID uuid.UUID, input domain.BlockUpdate) (*domain.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	if block == nil {
		return nil, domain.ErrNotFound
	}

	page, err := s.writablePage(ctx, userID, block.PageID)
	if err != nil {
		return nil, err
	}

	if input.Type != nil && !input.Type.Valid() {
		return nil, fmt.Errorf("unknown block type %q: %w", *input.Type, domain.ErrInvalidState)
	}

	if err := s.blockRepo.Update(ctx, blockID, &input); err != nil {
		return nil, fmt.Errorf("failed to update block: %w", err)
	}

	s.publish(ctx, page.WorkspaceID, blockID, domain.OpUpdate, block.ParentID, "", userID)

	return s.blockRepo.GetByID(ctx, blockID)
}

// MoveBlock re-parents or reorders a block, optionally into another page.
// A cross-page move carries the block's descendants along.
func (s *BlockService) MoveBlock(ctx context.Context, userID, blockID uuid.UUID, input domain.BlockMove) (*domain.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	if block == nil {
		return nil, domain.ErrNotFound
	}

	page, err := s.writablePage(ctx, userID, block.PageID)
	if err != nil {
		return nil, err
	}

	destPageID := block.PageID
	if input.NewPageID != nil && *input.NewPageID != block.PageID {
		destPageID = *input.NewPageID
		destPage, err := s.writablePage(ctx, userID, destPageID)
		if err != nil {
			return nil, err
		}
		if destPage.WorkspaceID != page.WorkspaceID {
			return nil, fmt.Errorf("destination page belongs to another workspace: %w", domain.ErrCrossTenant)
		}
	}

	destParent := block.ParentID
	switch {
	case input.ToRoot:
		destParent = nil
	case input.NewParentID != nil:
		destParent = input.NewParentID
	case destPageID != block.PageID:
		// The old parent lives in the old page.
		destParent = nil
	}

	if destParent != nil {
		if *destParent == blockID {
			return nil, fmt.Errorf("block cannot be its own parent: %w", domain.ErrCycleDetected)
		}
		parent, err := s.blockRepo.GetByID(ctx, *destParent)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent block: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("destination parent block: %w", domain.ErrNotFound)
		}
		if parent.PageID != destPageID {
			return nil, fmt.Errorf("destination parent belongs to another page: %w", domain.ErrCrossTenant)
		}
	}

	key, err := s.blockOrderKey(ctx, blockID, destPageID, destParent, input)
	if err != nil {
		return nil, err
	}

	err = s.blockRepo.Move(ctx, blockID, destParent, destPageID, key)
	if postgres.IsRetryable(err) && input.OrderKey == nil {
		key, err = s.blockOrderKey(ctx, blockID, destPageID, destParent, input)
		if err != nil {
			return nil, err
		}
		err = s.blockRepo.Move(ctx, blockID, destParent, destPageID, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to move block: %w", err)
	}

	s.publish(ctx, page.WorkspaceID, blockID, domain.OpMove, destParent, key, userID)

	return s.blockRepo.GetByID(ctx, blockID)
}

// DeleteBlock removes a block and, through the store's cascade, its
// descendants. Blocks have no trash of their own.
func (s *BlockService) DeleteBlock(ctx context.Context, userID, blockID uuid.UUID) error {
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		return fmt.Errorf("failed to get block: %w", err)
	}
	if block == nil {
		return domain.ErrNotFound
	}

	page, err := s.writablePage(ctx, userID, block.PageID)
	if err != nil {
		return err
	}

	if err := s.blockRepo.Delete(ctx, blockID); err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}

	s.publish(ctx, page.WorkspaceID, blockID, domain.OpDelete, block.ParentID, "", userID)

	return nil
}

// blockOrderKey resolves the order key for a block move
func (s *BlockService) blockOrderKey(ctx context.Context, blockID, pageID uuid.UUID, parentID *uuid.UUID, input domain.BlockMove) (string, error) {
	if input.OrderKey != nil {
		if err := orderkey.Validate(*input.OrderKey); err != nil {
			return "", fmt.Errorf("order key %q: %w", *input.OrderKey, domain.ErrInvalidState)
		}
		return *input.OrderKey, nil
	}

	if input.AfterID != nil {
		after, err := s.blockRepo.GetByID(ctx, *input.AfterID)
		if err != nil {
			return "", fmt.Errorf("failed to get after target: %w", err)
		}
		if after == nil {
			return "", fmt.Errorf("after target: %w", domain.ErrNotFound)
		}
		if after.PageID != pageID || !sameParent(after.ParentID, parentID) {
			return "", fmt.Errorf("after target is not a destination sibling: %w", domain.ErrInvalidState)
		}
		if after.ID == blockID {
			return after.OrderKey, nil
		}
		next, err := s.blockRepo.NextSiblingKey(ctx, pageID, parentID, after.OrderKey)
		if err != nil {
			return "", fmt.Errorf("failed to get next sibling key: %w", err)
		}
		key, err := orderkey.KeyBetween(after.OrderKey, next)
		if err != nil {
			return "", fmt.Errorf("failed to compute order key: %w", err)
		}
		return key, nil
	}

	last, err := s.blockRepo.LastSiblingKey(ctx, pageID, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to get last sibling key: %w", err)
	}
	key, err := orderkey.KeyBetween(last, "")
	if err != nil {
		return "", fmt.Errorf("failed to compute order key: %w", err)
	}
	return key, nil
}

// writablePage loads a live page and checks the caller holds a writing role
// in its workspace
func (s *BlockService) writablePage(ctx context.Context, userID, pageID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, fmt.Errorf("page: %w", domain.ErrNotFound)
	}
	if page.IsDeleted {
		return nil, fmt.Errorf("page is in the trash: %w", domain.ErrInvalidState)
	}

	member, err := s.memberRepo.GetMember(ctx, page.WorkspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}
	if !member.CanWrite() {
		return nil, fmt.Errorf("role %q is read-only: %w", member.Role, domain.ErrForbidden)
	}

	return page, nil
}

func (s *BlockService) publish(ctx context.Context, workspaceID, blockID uuid.UUID, op string, parentID *uuid.UUID, key string, actor uuid.UUID) {
	if s.events == nil {
		return
	}
	event := &domain.MutationEvent{
		WorkspaceID: workspaceID,
		EntityType:  domain.EntityBlock,
		EntityID:    blockID,
		Operation:   op,
		ParentID:    parentID,
		OrderKey:    key,
		ActorID:     actor,
		OccurredAt:  time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("entity_id", blockID.String()).
			Str("operation", op).
			Msg("Failed to publish mutation event")
	}
}
