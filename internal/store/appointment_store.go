package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neokids-server/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppointmentRepository is the appointment store consumed by the HTTP layer.
type AppointmentRepository interface {
	Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error)
	AdvanceStatus(ctx context.Context, id string, requested models.AppointmentStatus) (*models.Appointment, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context) ([]models.Appointment, error)
	Summaries(ctx context.Context) ([]models.Appointment, error)
	Search(ctx context.Context, query string, status models.AppointmentStatus) ([]models.Appointment, error)
	Samples(ctx context.Context, appointmentID string) ([]models.Sample, error)
	Delete(ctx context.Context, id string) error
}

// CreateAppointmentInput carries everything needed to open an appointment.
// Services must already be snapshots; the store never looks prices up.
type CreateAppointmentInput struct {
	PatientID     string
	PatientName   string
	Services      []models.ServiceSnapshot
	InsuranceType string
	CreatedBy     string
}

// AppointmentStore persists appointments and their samples with gorm.
type AppointmentStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAppointmentStore creates a new AppointmentStore.
func NewAppointmentStore(db *gorm.DB) *AppointmentStore {
	return &AppointmentStore{db: db, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *AppointmentStore) WithClock(now func() time.Time) *AppointmentStore {
	s.now = now
	return s
}

// Create writes the appointment and one sample per service snapshot in a
// single transaction.
func (s *AppointmentStore) Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	if len(in.Services) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.PatientName) == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	appointment := models.Appointment{
		ID:            uuid.New().String(),
		PatientID:     in.PatientID,
		PatientName:   in.PatientName,
		Services:      append([]models.ServiceSnapshot(nil), in.Services...),
		InsuranceType: in.InsuranceType,
		Status:        models.StatusAwaitingCollection,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
	}

	samples := make([]models.Sample, len(in.Services))
	appointment.SampleIDs = make([]string, len(in.Services))
	for i, svc := range in.Services {
		appointment.TotalAmount += svc.BasePrice
		samples[i] = models.Sample{
			ID:            uuid.New().String(),
			AppointmentID: appointment.ID,
			ServiceID:     svc.ID,
			Position:      i,
			Status:        models.StatusAwaitingCollection,
			CreatedAt:     now,
		}
		appointment.SampleIDs[i] = samples[i].ID
	}

	err := WithTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&appointment).Error; err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		if err := tx.Create(&samples).Error; err != nil {
			return fmt.Errorf("create samples for appointment %s: %w", appointment.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	appointment.Samples = samples
	return &appointment, nil
}

// AdvanceStatus moves the appointment one step along the status chain and
// fans the new status out to every sample. requested must be the immediate
// successor of the current status. The write is a compare-and-swap on the
// appointment revision, so a concurrent advance fails with ErrConflict.
func (s *AppointmentStore) AdvanceStatus(ctx context.Context, id string, requested models.AppointmentStatus) (*models.Appointment, error) {
	var updated *models.Appointment
	err := WithTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var current models.Appointment
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("find appointment %s: %w", id, err)
		}

		if !requested.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, requested)
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: appointment is already %s", ErrInvalidTransition, current.Status)
		}
		if !current.Status.CanAdvanceTo(requested) {
			next, _ := current.Status.Next()
			return fmt.Errorf("%w: %s can only advance to %s, not %s", ErrInvalidTransition, current.Status, next, requested)
		}

		now := s.now().UTC()
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND revision = ?", id, current.Revision).
			Updates(map[string]interface{}{
				"status":     requested,
				"revision":   current.Revision + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("update appointment %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := tx.Model(&models.Sample{}).
			Where("appointment_id = ?", id).
			Updates(map[string]interface{}{
				"status":     requested,
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("update samples of appointment %s: %w", id, err)
		}

		reloaded, err := s.find(tx, id)
		if err != nil {
			return err
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FindByID returns the appointment with its sample ids.
func (s *AppointmentStore) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	return s.find(conn(ctx, s.db), id)
}

func (s *AppointmentStore) find(db *gorm.DB, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := db.Preload("Samples").First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find appointment %s: %w", id, err)
	}
	return &appointment, nil
}

// List returns every appointment, newest first.
func (s *AppointmentStore) List(ctx context.Context) ([]models.Appointment, error) {
	return s.Search(ctx, "", "")
}

// Summaries returns every appointment with only the columns the dashboard
// aggregates. Samples and service snapshots are not loaded.
func (s *AppointmentStore) Summaries(ctx context.Context) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	if err := conn(ctx, s.db).
		Select("id", "total_amount", "status", "created_at").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("list appointment summaries: %w", err)
	}
	return appointments, nil
}

// Search matches query case-insensitively against the patient name, the
// appointment id and every sample id. An empty query matches everything.
// A non-empty status restricts the result to that status.
func (s *AppointmentStore) Search(ctx context.Context, query string, status models.AppointmentStatus) ([]models.Appointment, error) {
	db := conn(ctx, s.db)
	q := db.Model(&models.Appointment{}).Preload("Samples")

	if query = strings.TrimSpace(query); query != "" {
		like := containsPattern(query)
		sampleMatches := db.Model(&models.Sample{}).Select("appointment_id").Where("LOWER(id) LIKE ? ESCAPE '!'", like)
		q = q.Where("(LOWER(patient_name) LIKE ? ESCAPE '!' OR LOWER(id) LIKE ? ESCAPE '!' OR id IN (?))", like, like, sampleMatches)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	appointments := []models.Appointment{}
	if err := q.Order("created_at desc").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}
	return appointments, nil
}

// Samples returns the samples of an appointment in service order.
func (s *AppointmentStore) Samples(ctx context.Context, appointmentID string) ([]models.Sample, error) {
	db := conn(ctx, s.db)

	var exists int64
	if err := db.Model(&models.Appointment{}).Where("id = ?", appointmentID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("count appointment %s: %w", appointmentID, err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	samples := []models.Sample{}
	if err := db.Where("appointment_id = ?", appointmentID).Order("position asc").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("list samples of appointment %s: %w", appointmentID, err)
	}
	return samples, nil
}

// Delete removes the appointment together with its samples.
func (s *AppointmentStore) Delete(ctx context.Context, id string) error {
	return WithTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", id).Delete(&models.Sample{}).Error; err != nil {
			return fmt.Errorf("delete samples of appointment %s: %w", id, err)
		}
		res := tx.Delete(&models.Appointment{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete appointment %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
