package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/storage"
)

type toolService struct {
	store   repository.Store
	blobs   storage.BlobStore
	uploads storage.Config
}

func NewToolService(store repository.Store, blobs storage.BlobStore, uploads storage.Config) ToolService {
	return &toolService{store: store, blobs: blobs, uploads: uploads}
}

func validateTool(t *domain.Tool) error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return domain.Validationf("tool name is required")
	case t.RepoCost <= 0:
		return domain.Validationf("replacement cost must be greater than zero")
	case t.RentPrice <= 0:
		return domain.Validationf("rent price must be greater than zero")
	case t.LateFineDaily <= 0:
		return domain.Validationf("daily late fine must be greater than zero")
	}
	return nil
}

func categoryByName(ctx context.Context, repos repository.Repositories, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("category is required")
	}
	c, err := repos.Categories.GetByName(ctx, name)
	if !errors.Is(err, domain.ErrNotFound) {
		return c, err
	}
	c = &domain.Category{Name: name}
	if err := repos.Categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// storeImage saves an upload and returns its reference, or "" when there is none.
func (s *toolService) storeImage(ctx context.Context, image *Upload) (string, error) {
	if image == nil {
		return "", nil
	}
	if err := s.uploads.CheckUpload(image.ContentType, image.Size); err != nil {
		return "", domain.Validationf("invalid image: %v", err)
	}
	ref, err := s.blobs.Store(ctx, image.Data, image.Name)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return ref, nil
}

func (s *toolService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		logger.Warn("Failed to delete tool image", "ref", ref, "error", err)
	}
}

func (s *toolService) Create(ctx context.Context, actorID int32, tool *domain.Tool, category string, image *Upload) (*domain.Tool, error) {
	logger.EnterMethod("toolService.Create", "actorID", actorID, "name", tool.Name)

	if _, err := requireAdmin(ctx, s.store.Repos(), actorID); err != nil {
		return nil, err
	}
	if err := validateTool(tool); err != nil {
		return nil, err
	}
	ref, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}
	tool.ImageRef = ref

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		c, err := categoryByName(ctx, repos, category)
		if err != nil {
			return err
		}
		tool.Category = c
		if err := repos.Tools.Create(ctx, tool); err != nil {
			return fmt.Errorf("failed to create tool: %w", err)
		}

		// Every tool starts with an empty record in every registered state.
		states, err := repos.States.List(ctx)
		if err != nil {
			return err
		}
		for _, st := range states {
			if err := repos.Inventory.Create(ctx, &domain.InventoryRecord{ToolID: tool.ID, StateID: st.ID}); err != nil {
				return fmt.Errorf("failed to create inventory record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, ref)
		logger.ExitMethodWithError("toolService.Create", err, "name", tool.Name)
		return nil, err
	}

	logger.ExitMethod("toolService.Create", "toolID", tool.ID)
	return tool, nil
}

func (s *toolService) Update(ctx context.Context, actorID, toolID int32, changes ToolChanges, image *Upload) (*domain.Tool, error) {
	logger.EnterMethod("toolService.Update", "actorID", actorID, "toolID", toolID)

	if _, err := requireAdmin(ctx, s.store.Repos(), actorID); err != nil {
		return nil, err
	}
	ref, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	var tool *domain.Tool
	var oldRef string
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		tool, err = repos.Tools.GetByID(ctx, toolID)
		if err != nil {
			return err
		}
		if changes.Name != nil && strings.TrimSpace(*changes.Name) != "" {
			tool.Name = strings.TrimSpace(*changes.Name)
		}
		if changes.Category != nil && strings.TrimSpace(*changes.Category) != "" {
			c, err := categoryByName(ctx, repos, *changes.Category)
			if err != nil {
				return err
			}
			tool.Category = c
		}
		if changes.RepoCost != nil && *changes.RepoCost > 0 {
			tool.RepoCost = *changes.RepoCost
		}
		if changes.RentPrice != nil && *changes.RentPrice > 0 {
			tool.RentPrice = *changes.RentPrice
		}
		if changes.LateFineDaily != nil && *changes.LateFineDaily > 0 {
			tool.LateFineDaily = *changes.LateFineDaily
		}
		if ref != "" {
			oldRef, tool.ImageRef = tool.ImageRef, ref
		}
		return repos.Tools.Update(ctx, tool)
	})
	if err != nil {
		s.discardImage(ctx, ref)
		logger.ExitMethodWithError("toolService.Update", err, "toolID", toolID)
		return nil, err
	}
	s.discardImage(ctx, oldRef)

	logger.ExitMethod("toolService.Update", "toolID", toolID)
	return tool, nil
}

// Delete hides the tool from the catalog. Its inventory and kardex history stay.
func (s *toolService) Delete(ctx context.Context, actorID, toolID int32) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := requireAdmin(ctx, repos, actorID); err != nil {
			return err
		}
		if _, err := repos.Tools.GetByID(ctx, toolID); err != nil {
			return err
		}
		n, err := repos.LineItems.CountUnreturnedByTool(ctx, toolID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d line items", domain.ErrToolInUse, n)
		}
		logger.Info("Deleting tool", "toolID", toolID, "actorID", actorID)
		return repos.Tools.Delete(ctx, toolID)
	})
}

func (s *toolService) Get(ctx context.Context, toolID int32) (*domain.Tool, error) {
	return s.store.Repos().Tools.GetByID(ctx, toolID)
}

func (s *toolService) List(ctx context.Context) ([]domain.Tool, error) {
	return s.store.Repos().Tools.List(ctx)
}

func (s *toolService) OpenImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.NotFoundf("image %s not found", ref)
	}
	return rc, err
}
