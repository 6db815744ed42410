package repository

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"product-import-service/internal/models"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestProductByAttributeRejectsUnknownField(t *testing.T) {
	gormDB, _ := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	_, err := repo.ProductByAttribute("description", "x")
	assert.Error(t, err)
}

func TestProductByAttributeNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	product, err := repo.ProductByAttribute("permalink", "missing")
	require.NoError(t, err)
	assert.Nil(t, product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionTypeByNameMatchesCaseInsensitively(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "name", "presentation"}).
		AddRow(id, "tshirt-size", "Size")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "option_types"`)).
		WillReturnRows(rows)

	optionType, err := repo.OptionTypeByName("SIZE")
	require.NoError(t, err)
	require.NotNil(t, optionType)
	assert.Equal(t, "tshirt-size", optionType.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkOptionTypeSkipsExistingLink(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	product := &models.Product{ID: uuid.New()}
	optionType := &models.OptionType{ID: uuid.New()}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "product_option_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, repo.LinkOptionType(product, optionType))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkOptionTypeInsertsMissingLink(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	product := &models.Product{ID: uuid.New()}
	optionType := &models.OptionType{ID: uuid.New()}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "product_option_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO product_option_types`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LinkOptionType(product, optionType))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRootTaxonNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "taxons"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	root, err := repo.RootTaxon(&models.Taxonomy{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestImageCount(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "images"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.ImageCount(models.ViewableTypeProduct, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestVariantBySKUNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCatalogRepository(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "variants"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	variant, err := repo.VariantBySKU("missing")
	require.NoError(t, err)
	assert.Nil(t, variant)
}
