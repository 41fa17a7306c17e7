package seed

import (
	"context"
	"testing"

	"neokids-server/internal/models"
	"neokids-server/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func TestSeeder_Run(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 3, Services: 5, Patients: 1}, res)

	admin, err := store.NewUserStore(db).FindByEmail(ctx, "admin@neokids.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword("admin123"))

	services, err := store.NewServiceStore(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 5)

	patients, err := store.NewPatientStore(db).Search(ctx, "ana clara")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Alergia a penicilina", patients[0].SpecialAlert)
	assert.True(t, patients[0].ConsentLGPD)
}

func TestSeeder_RunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	_, err := s.Run(ctx)
	require.NoError(t, err)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	var users, services, patients int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Service{}).Count(&services).Error)
	require.NoError(t, db.Model(&models.Patient{}).Count(&patients).Error)
	assert.EqualValues(t, 3, users)
	assert.EqualValues(t, 5, services)
	assert.EqualValues(t, 1, patients)
}
