package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// ImportJobRepository persists import job records and handles the destroy
// cascade over the products a job created.
type ImportJobRepository struct {
	db *gorm.DB
}

var _ importer.Jobs = (*ImportJobRepository)(nil)

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Save upserts by primary key: new jobs are assigned an id and inserted,
// existing jobs are fully updated.
func (r *ImportJobRepository) Save(job *models.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.ProductIDs == nil {
		job.ProductIDs = models.StringArray{}
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(job).Error
}

func (r *ImportJobRepository) GetByID(id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) List() ([]models.ImportJob, error) {
	var jobs []models.ImportJob
	if err := r.db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Destroy hard-deletes the job and cascades over every product the run
// created: variants, images, product properties, and the join rows. Products
// the run did not create are never touched.
func (r *ImportJobRepository) Destroy(id uuid.UUID) (*models.CascadeDeleteResult, error) {
	job, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, gorm.ErrRecordNotFound
	}

	productIDs := make([]uuid.UUID, 0, len(job.ProductIDs))
	for _, raw := range job.ProductIDs {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("job %s has malformed product id %q: %w", id, raw, err)
		}
		productIDs = append(productIDs, pid)
	}

	result := &models.CascadeDeleteResult{}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if len(productIDs) > 0 {
			var variantIDs []uuid.UUID
			if err := tx.Unscoped().Model(&models.Variant{}).
				Where("product_id IN ?", productIDs).
				Pluck("id", &variantIDs).Error; err != nil {
				return err
			}

			if len(variantIDs) > 0 {
				del := tx.Where("viewable_type = ? AND viewable_id IN ?", models.ViewableTypeVariant, variantIDs).
					Delete(&models.Image{})
				if del.Error != nil {
					return del.Error
				}
				result.ImagesDeleted += int(del.RowsAffected)

				if err := tx.Exec("DELETE FROM option_values_variants WHERE variant_id IN ?", variantIDs).Error; err != nil {
					return err
				}
			}

			del := tx.Where("viewable_type = ? AND viewable_id IN ?", models.ViewableTypeProduct, productIDs).
				Delete(&models.Image{})
			if del.Error != nil {
				return del.Error
			}
			result.ImagesDeleted += int(del.RowsAffected)

			del = tx.Where("product_id IN ?", productIDs).Delete(&models.ProductProperty{})
			if del.Error != nil {
				return del.Error
			}
			result.PropertiesDeleted = int(del.RowsAffected)

			if err := tx.Exec("DELETE FROM product_option_types WHERE product_id IN ?", productIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM products_taxons WHERE product_id IN ?", productIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM products_stores WHERE product_id IN ?", productIDs).Error; err != nil {
				return err
			}

			del = tx.Unscoped().Where("product_id IN ?", productIDs).Delete(&models.Variant{})
			if del.Error != nil {
				return del.Error
			}
			result.VariantsDeleted = int(del.RowsAffected)

			del = tx.Unscoped().Where("id IN ?", productIDs).Delete(&models.Product{})
			if del.Error != nil {
				return del.Error
			}
			result.ProductsDeleted = int(del.RowsAffected)
		}

		return tx.Delete(&models.ImportJob{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	return result, nil
}
