package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neokids-server/internal/models"

	"gorm.io/gorm"
)

// PatientRepository is the patient registry consumed by the HTTP layer.
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	FindByID(ctx context.Context, id string) (*models.Patient, error)
	Search(ctx context.Context, query string) ([]models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id string) error
}

// PatientStore persists patients with gorm.
type PatientStore struct {
	db *gorm.DB
}

// NewPatientStore creates a new PatientStore.
func NewPatientStore(db *gorm.DB) *PatientStore {
	return &PatientStore{db: db}
}

func (s *PatientStore) Create(ctx context.Context, patient *models.Patient) error {
	if patient == nil || strings.TrimSpace(patient.Name) == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}
	if err := conn(ctx, s.db).Create(patient).Error; err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (s *PatientStore) FindByID(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := conn(ctx, s.db).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find patient %s: %w", id, err)
	}
	return &patient, nil
}

// Search matches name, CPF, guardian name and phone, ignoring case.
func (s *PatientStore) Search(ctx context.Context, query string) ([]models.Patient, error) {
	q := conn(ctx, s.db).Model(&models.Patient{})
	if query = strings.TrimSpace(query); query != "" {
		like := containsPattern(query)
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(cpf) LIKE ? ESCAPE '!' OR LOWER(responsible_name) LIKE ? ESCAPE '!' OR LOWER(phone) LIKE ? ESCAPE '!')",
			like, like, like, like)
	}

	patients := []models.Patient{}
	if err := q.Order("name asc").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return patients, nil
}

func (s *PatientStore) Update(ctx context.Context, patient *models.Patient) error {
	if patient == nil || patient.ID == "" {
		return fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(patient.Name) == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}
	if err := conn(ctx, s.db).Save(patient).Error; err != nil {
		return fmt.Errorf("update patient %s: %w", patient.ID, err)
	}
	return nil
}

// Delete removes a patient unless an appointment that is not yet Finalizado
// references them.
func (s *PatientStore) Delete(ctx context.Context, id string) error {
	return WithTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Patient{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("count patient %s: %w", id, err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		var active int64
		if err := tx.Model(&models.Appointment{}).
			Where("patient_id = ? AND status <> ?", id, models.StatusFinalized).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active appointments of patient %s: %w", id, err)
		}
		if active > 0 {
			return fmt.Errorf("%w: %d open appointment(s)", ErrInUse, active)
		}

		if err := tx.Delete(&models.Patient{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete patient %s: %w", id, err)
		}
		return nil
	})
}
