package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-import-service/internal/models"
)

func TestImportJobGetByIDNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewImportJobRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_imports"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	job, err := repo.GetByID(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestImportJobGetByIDFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewImportJobRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "data_file_name", "data_file_path", "state", "product_ids", "created_at", "updated_at"}).
		AddRow(id, "import.csv", "/tmp/import.csv", "completed", []byte(`["a1"]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_imports"`)).
		WillReturnRows(rows)

	job, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.ImportStateCompleted, job.State)
	assert.Equal(t, models.StringArray{"a1"}, job.ProductIDs)
}

func TestImportJobList(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewImportJobRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "data_file_name", "state", "created_at", "updated_at"}).
		AddRow(uuid.New(), "b.csv", "created", now, now).
		AddRow(uuid.New(), "a.csv", "completed", now.Add(-time.Hour), now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_imports"`)).
		WillReturnRows(rows)

	jobs, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "b.csv", jobs[0].DataFileName)
}

func TestImportJobDestroyRejectsMalformedProductID(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewImportJobRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "data_file_name", "state", "product_ids", "created_at", "updated_at"}).
		AddRow(id, "import.csv", "completed", []byte(`["not-a-uuid"]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_imports"`)).
		WillReturnRows(rows)

	result, err := repo.Destroy(id)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestImportJobDestroyMissingJob(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewImportJobRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_imports"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := repo.Destroy(uuid.New())
	assert.Error(t, err)
	assert.Nil(t, result)
}
