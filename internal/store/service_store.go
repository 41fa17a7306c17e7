package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neokids-server/internal/models"

	"gorm.io/gorm"
)

// ServiceRepository is the service catalog consumed by the HTTP layer.
type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	List(ctx context.Context) ([]models.Service, error)
	FindByID(ctx context.Context, id string) (*models.Service, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id string) error
}

// ServiceStore persists catalog services with gorm.
type ServiceStore struct {
	db *gorm.DB
}

// NewServiceStore creates a new ServiceStore.
func NewServiceStore(db *gorm.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

func validateService(service *models.Service) error {
	switch {
	case service == nil || strings.TrimSpace(service.Name) == "":
		return fmt.Errorf("%w: service name is required", ErrInvalidInput)
	case !service.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, service.Category)
	case service.BasePrice < 0 || service.OperationalCost < 0:
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidInput)
	}
	return nil
}

func (s *ServiceStore) Create(ctx context.Context, service *models.Service) error {
	if err := validateService(service); err != nil {
		return err
	}
	if err := conn(ctx, s.db).Create(service).Error; err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (s *ServiceStore) List(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	if err := conn(ctx, s.db).Order("category asc, name asc").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *ServiceStore) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := conn(ctx, s.db).First(&service, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find service %s: %w", id, err)
	}
	return &service, nil
}

// FindByIDs resolves ids in the order given. A repeated id yields the same
// service twice. Any unknown id fails the whole lookup with ErrNotFound.
func (s *ServiceStore) FindByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return []models.Service{}, nil
	}

	var found []models.Service
	if err := conn(ctx, s.db).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("find services: %w", err)
	}
	byID := make(map[string]models.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}

	ordered := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: service %s", ErrNotFound, id)
		}
		ordered = append(ordered, svc)
	}
	return ordered, nil
}

func (s *ServiceStore) Update(ctx context.Context, service *models.Service) error {
	if service == nil || service.ID == "" {
		return fmt.Errorf("%w: service id is required", ErrInvalidInput)
	}
	if err := validateService(service); err != nil {
		return err
	}
	if err := conn(ctx, s.db).Save(service).Error; err != nil {
		return fmt.Errorf("update service %s: %w", service.ID, err)
	}
	return nil
}

// Delete removes a catalog service unless a sample that is not yet
// Finalizado was ordered from it.
func (s *ServiceStore) Delete(ctx context.Context, id string) error {
	return WithTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Service{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("count service %s: %w", id, err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		var active int64
		if err := tx.Model(&models.Sample{}).
			Where("service_id = ? AND status <> ?", id, models.StatusFinalized).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active samples of service %s: %w", id, err)
		}
		if active > 0 {
			return fmt.Errorf("%w: %d open sample(s)", ErrInUse, active)
		}

		if err := tx.Delete(&models.Service{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete service %s: %w", id, err)
		}
		return nil
	})
}
