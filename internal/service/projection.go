package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

// ProjectionService serves the read side: assembled page trees, page views
// with nested blocks, and the workspace trash
type ProjectionService struct {
	pageRepo   domain.PageRepository
	blockRepo  domain.BlockRepository
	memberRepo domain.MemberRepository
	treeCache  domain.TreeCache
}

// NewProjectionService creates a new projection service
func NewProjectionService(
	pageRepo domain.PageRepository,
	blockRepo domain.BlockRepository,
	memberRepo domain.MemberRepository,
	treeCache domain.TreeCache,
) *ProjectionService {
	return &ProjectionService{
		pageRepo:   pageRepo,
		blockRepo:  blockRepo,
		memberRepo: memberRepo,
		treeCache:  treeCache,
	}
}

// GetWorkspaceTree assembles the live page forest of a workspace, ordered
// by sibling keys at every level. The assembled tree is cached until the
// next structural mutation.
func (s *ProjectionService) GetWorkspaceTree(ctx context.Context, userID, workspaceID uuid.UUID) ([]*domain.PageTreeNode, error) {
	isMember, err := s.memberRepo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrForbidden
	}

	if s.treeCache != nil {
		tree, err := s.treeCache.Get(ctx, workspaceID)
		if err != nil {
			log.Warn().Err(err).Msg("Tree cache read failed")
		} else if tree != nil {
			return tree, nil
		}
	}

	pages, err := s.pageRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	tree := buildPageForest(pages)

	if s.treeCache != nil {
		if err := s.treeCache.Set(ctx, workspaceID, tree); err != nil {
			log.Warn().Err(err).Msg("Tree cache write failed")
		}
	}

	return tree, nil
}

// GetPageView retrieves a page with its nested block tree. Trashed pages
// stay addressable so the trash can be previewed before a restore.
func (s *ProjectionService) GetPageView(ctx context.Context, userID, pageID uuid.UUID) (*domain.PageView, error) {
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

	blocks, err := s.blockRepo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	return &domain.PageView{Page: *page, Blocks: buildBlockForest(blocks)}, nil
}

// ListChildren retrieves the live direct children of a page in sibling order
func (s *ProjectionService) ListChildren(ctx context.Context, userID, pageID uuid.UUID) ([]domain.Page, error) {
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

	return s.pageRepo.ListChildren(ctx, page.WorkspaceID, &pageID, false)
}

// GetTrash lists the trashed pages of a workspace, most recently deleted
// first
func (s *ProjectionService) GetTrash(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Page, error) {
	isMember, err := s.memberRepo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrForbidden
	}

	return s.pageRepo.ListTrash(ctx, workspaceID)
}

// buildPageForest knits a flat page list, already sorted by order key, into
// parent-ordered trees. Pages whose parent is missing from the list (a live
// child under a trashed ancestor) surface as roots rather than vanish.
func buildPageForest(pages []domain.Page) []*domain.PageTreeNode {
	nodes := make(map[uuid.UUID]*domain.PageTreeNode, len(pages))
	for i := range pages {
		nodes[pages[i].ID] = &domain.PageTreeNode{Page: pages[i]}
	}

	var roots []*domain.PageTreeNode
	for i := range pages {
		node := nodes[pages[i].ID]
		if pages[i].ParentID != nil {
			if parent, ok := nodes[*pages[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}

// buildBlockForest knits a flat block list, already sorted by order key,
// into nested trees
func buildBlockForest(blocks []domain.Block) []*domain.BlockTreeNode {
	nodes := make(map[uuid.UUID]*domain.BlockTreeNode, len(blocks))
	for i := range blocks {
		nodes[blocks[i].ID] = &domain.BlockTreeNode{Block: blocks[i]}
	}

	var roots []*domain.BlockTreeNode
	for i := range blocks {
		node := nodes[blocks[i].ID]
		if blocks[i].ParentID != nil {
			if parent, ok := nodes[*blocks[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}
