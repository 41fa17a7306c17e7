package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"neokids-server/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func snapshots(prices ...float64) []models.ServiceSnapshot {
	out := make([]models.ServiceSnapshot, len(prices))
	for i, p := range prices {
		out[i] = models.ServiceSnapshot{
			ID:        "svc-" + string(rune('a'+i)),
			Name:      "Exame",
			Category:  models.CategoryClinicalAnalysis,
			BasePrice: p,
		}
	}
	return out
}

func newAppointmentStore(db *gorm.DB) *AppointmentStore {
	return NewAppointmentStore(db).WithClock(func() time.Time { return fixedNow })
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestAppointmentStore_Create(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{
		PatientID:     "patient-1",
		PatientName:   "Ana Clara Silva",
		Services:      snapshots(45, 25, 120),
		InsuranceType: "particular",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, models.StatusAwaitingCollection, appt.Status)
	assert.Equal(t, 190.0, appt.TotalAmount)
	assert.Len(t, appt.SampleIDs, 3)
	assert.Equal(t, fixedNow, appt.CreatedAt)
	assert.Nil(t, appt.UpdatedAt)

	seen := map[string]bool{}
	for _, id := range appt.SampleIDs {
		assert.False(t, seen[id], "sample ids must be unique")
		seen[id] = true
	}

	stored, err := s.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.SampleIDs, stored.SampleIDs, "sample order follows service order")
	assert.Equal(t, 190.0, stored.TotalAmount)
	require.Len(t, stored.Services, 3)
	assert.Equal(t, 120.0, stored.Services[2].BasePrice)

	samples, err := s.Samples(ctx, appt.ID)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	for i, sample := range samples {
		assert.Equal(t, appt.SampleIDs[i], sample.ID)
		assert.Equal(t, snapshots(45, 25, 120)[i].ID, sample.ServiceID)
		assert.Equal(t, models.StatusAwaitingCollection, sample.Status)
	}
}

func TestAppointmentStore_Create_EmptyServices(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)

	_, err := s.Create(context.Background(), CreateAppointmentInput{PatientName: "Ana", Services: nil})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, countRows(t, db, &models.Appointment{}))
}

func TestAppointmentStore_Create_RollsBackWhenSamplesFail(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_samples", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "samples" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10, 20)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Zero(t, countRows(t, db, &models.Appointment{}), "appointment must not outlive failed samples")
	assert.Zero(t, countRows(t, db, &models.Sample{}))
}

func TestAppointmentStore_AdvanceStatus(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10, 20)})
	require.NoError(t, err)

	updated, err := s.AdvanceStatus(ctx, appt.ID, models.StatusUnderAnalysis)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderAnalysis, updated.Status)
	assert.Equal(t, 1, updated.Revision)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.Equal(fixedNow))
	assert.Equal(t, appt.SampleIDs, updated.SampleIDs)

	samples, err := s.Samples(ctx, appt.ID)
	require.NoError(t, err)
	for _, sample := range samples {
		assert.Equal(t, models.StatusUnderAnalysis, sample.Status)
	}
}

func TestAppointmentStore_AdvanceStatus_FullChain(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10)})
	require.NoError(t, err)

	for _, next := range models.StatusChain[1:] {
		_, err := s.AdvanceStatus(ctx, appt.ID, next)
		require.NoError(t, err, "advance to %s", next)
	}

	_, err = s.AdvanceStatus(ctx, appt.ID, models.StatusFinalized)
	assert.ErrorIs(t, err, ErrInvalidTransition, "Finalizado is terminal")

	_, err = s.AdvanceStatus(ctx, appt.ID, models.StatusAwaitingCollection)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAppointmentStore_AdvanceStatus_Rejections(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10, 20)})
	require.NoError(t, err)

	_, err = s.AdvanceStatus(ctx, appt.ID, models.StatusAwaitingReport)
	assert.ErrorIs(t, err, ErrInvalidTransition, "skipping a step")

	_, err = s.AdvanceStatus(ctx, appt.ID, models.StatusAwaitingCollection)
	assert.ErrorIs(t, err, ErrInvalidTransition, "repeating the current status")

	_, err = s.AdvanceStatus(ctx, appt.ID, models.AppointmentStatus("Cancelado"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := s.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingCollection, stored.Status)
	assert.Zero(t, stored.Revision)
}

func TestAppointmentStore_AdvanceStatus_NotFound(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10)})
	require.NoError(t, err)

	_, err = s.AdvanceStatus(ctx, "missing", models.StatusUnderAnalysis)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := s.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingCollection, stored.Status)
	assert.Nil(t, stored.UpdatedAt)
}

func TestAppointmentStore_AdvanceStatus_ConcurrentWriterLoses(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10)})
	require.NoError(t, err)

	// Another operator commits a change between our read and our write.
	err = db.Callback().Update().Before("gorm:update").Register("test:race", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "appointments" {
			tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE appointments SET revision = revision + 1 WHERE id = ?", appt.ID)
		}
	})
	require.NoError(t, err)

	_, err = s.AdvanceStatus(ctx, appt.ID, models.StatusUnderAnalysis)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, db.Callback().Update().Remove("test:race"))
	stored, err := s.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingCollection, stored.Status)
	for _, sample := range stored.Samples {
		assert.Equal(t, models.StatusAwaitingCollection, sample.Status)
	}
}

func TestAppointmentStore_Search(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	ana, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana Clara Silva", Services: snapshots(45)})
	require.NoError(t, err)
	pedro, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Pedro Henrique", Services: snapshots(25, 30)})
	require.NoError(t, err)

	all, err := s.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := s.Search(ctx, "ana", "")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, ana.ID, byName[0].ID)

	bySample, err := s.Search(ctx, strings.ToUpper(pedro.SampleIDs[1][:8]), "")
	require.NoError(t, err)
	require.Len(t, bySample, 1)
	assert.Equal(t, pedro.ID, bySample[0].ID)

	byID, err := s.Search(ctx, ana.ID, "")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, ana.ID, byID[0].ID)

	_, err = s.AdvanceStatus(ctx, pedro.ID, models.StatusUnderAnalysis)
	require.NoError(t, err)
	inAnalysis, err := s.Search(ctx, "", models.StatusUnderAnalysis)
	require.NoError(t, err)
	require.Len(t, inAnalysis, 1)
	assert.Equal(t, pedro.ID, inAnalysis[0].ID)

	none, err := s.Search(ctx, "zzz", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppointmentStore_Search_WildcardsAreLiteral(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana Clara", Services: snapshots(45)})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateAppointmentInput{PatientName: "Pedro", Services: snapshots(25)})
	require.NoError(t, err)

	for _, q := range []string{"%", "_", "!", "a%c", "an_"} {
		found, err := s.Search(ctx, q, "")
		require.NoError(t, err)
		assert.Empty(t, found, "query %q", q)
	}

	odd, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Lia 100% Silva_Souza!", Services: snapshots(10)})
	require.NoError(t, err)
	for _, q := range []string{"%", "_", "!", "100% s", "silva_"} {
		found, err := s.Search(ctx, q, "")
		require.NoError(t, err)
		require.Len(t, found, 1, "query %q", q)
		assert.Equal(t, odd.ID, found[0].ID)
	}
}

func TestAppointmentStore_Summaries(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(45, 25)})
	require.NoError(t, err)

	got, err := s.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, appt.ID, got[0].ID)
	assert.Equal(t, 70.0, got[0].TotalAmount)
	assert.Equal(t, models.StatusAwaitingCollection, got[0].Status)
	assert.True(t, got[0].CreatedAt.Equal(fixedNow))
	assert.Empty(t, got[0].Samples)
	assert.Empty(t, got[0].Services)
}

func TestAppointmentStore_Delete(t *testing.T) {
	db := newTestDB(t)
	s := newAppointmentStore(db)
	ctx := context.Background()

	appt, err := s.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: snapshots(10, 20)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, appt.ID))
	assert.Zero(t, countRows(t, db, &models.Appointment{}))
	assert.Zero(t, countRows(t, db, &models.Sample{}))

	assert.ErrorIs(t, s.Delete(ctx, appt.ID), ErrNotFound)

	_, err = s.Samples(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatientStore_SearchAndDeletePolicy(t *testing.T) {
	db := newTestDB(t)
	patients := NewPatientStore(db)
	appointments := newAppointmentStore(db)
	ctx := context.Background()

	ana := &models.Patient{Name: "Ana Clara Silva", CPF: "12345678901", ResponsibleName: "Maria Silva Santos", Phone: "11987654321"}
	require.NoError(t, patients.Create(ctx, ana))
	require.NoError(t, patients.Create(ctx, &models.Patient{Name: "Pedro Henrique", CPF: "55566677788"}))
	assert.ErrorIs(t, patients.Create(ctx, &models.Patient{}), ErrInvalidInput)

	found, err := patients.Search(ctx, "MARIA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ana.ID, found[0].ID)

	found, err = patients.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = patients.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, found)

	appt, err := appointments.Create(ctx, CreateAppointmentInput{PatientID: ana.ID, PatientName: ana.Name, Services: snapshots(10)})
	require.NoError(t, err)

	assert.ErrorIs(t, patients.Delete(ctx, ana.ID), ErrInUse)

	for _, next := range models.StatusChain[1:] {
		_, err := appointments.AdvanceStatus(ctx, appt.ID, next)
		require.NoError(t, err)
	}
	require.NoError(t, patients.Delete(ctx, ana.ID))

	_, err = patients.FindByID(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, patients.Delete(ctx, ana.ID), ErrNotFound)
}

func TestServiceStore_FindByIDsAndDeletePolicy(t *testing.T) {
	db := newTestDB(t)
	services := NewServiceStore(db)
	appointments := newAppointmentStore(db)
	ctx := context.Background()

	hemo := &models.Service{Name: "Hemograma Completo", Category: models.CategoryClinicalAnalysis, BasePrice: 45, OperationalCost: 12}
	rx := &models.Service{Name: "Radiografia de Tórax", Category: models.CategoryImaging, BasePrice: 120, OperationalCost: 35}
	require.NoError(t, services.Create(ctx, hemo))
	require.NoError(t, services.Create(ctx, rx))
	assert.ErrorIs(t, services.Create(ctx, &models.Service{Name: "X", Category: "Cirurgias"}), ErrInvalidInput)

	ordered, err := services.FindByIDs(ctx, []string{rx.ID, hemo.ID, rx.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{rx.ID, hemo.ID, rx.ID}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})

	_, err = services.FindByIDs(ctx, []string{hemo.ID, "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = appointments.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: []models.ServiceSnapshot{hemo.Snapshot()}})
	require.NoError(t, err)

	assert.ErrorIs(t, services.Delete(ctx, hemo.ID), ErrInUse)
	require.NoError(t, services.Delete(ctx, rx.ID))
	assert.ErrorIs(t, services.Delete(ctx, rx.ID), ErrNotFound)
}

func TestServiceStore_UpdateDoesNotTouchAppointments(t *testing.T) {
	db := newTestDB(t)
	services := NewServiceStore(db)
	appointments := newAppointmentStore(db)
	ctx := context.Background()

	hemo := &models.Service{Name: "Hemograma Completo", Category: models.CategoryClinicalAnalysis, BasePrice: 45}
	require.NoError(t, services.Create(ctx, hemo))

	appt, err := appointments.Create(ctx, CreateAppointmentInput{PatientName: "Ana", Services: []models.ServiceSnapshot{hemo.Snapshot()}})
	require.NoError(t, err)

	hemo.BasePrice = 60
	require.NoError(t, services.Update(ctx, hemo))

	stored, err := appointments.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.0, stored.TotalAmount)
	assert.Equal(t, 45.0, stored.Services[0].BasePrice)
}

func TestUserStore(t *testing.T) {
	db := newTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	u := &models.User{Email: " Admin@Neokids.com ", Name: "Administrador", Role: models.RoleAdmin}
	require.NoError(t, u.SetPassword("admin123"))
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, "admin@neokids.com", u.Email)

	dup := &models.User{Email: "admin@neokids.com", Password: "x"}
	assert.ErrorIs(t, users.Create(ctx, dup), ErrConflict)

	found, err := users.FindByEmail(ctx, "ADMIN@neokids.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTx_JoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	patients := NewPatientStore(db)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx *gorm.DB) error {
		if err := patients.Create(ctx, &models.Patient{Name: "Ana"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Zero(t, countRows(t, db, &models.Patient{}), "inner write rolled back with the outer transaction")
}
