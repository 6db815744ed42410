package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// Cache TTL constants
const (
	VariantCacheTTL = 5 * time.Minute
	ProductCacheTTL = 5 * time.Minute
)

// comparatorColumns whitelists the columns ProductByAttribute may query.
var comparatorColumns = map[string]string{
	"permalink": "permalink",
	"sku":       "sku",
	"name":      "name",
}

// CatalogRepository is the GORM-backed catalog. Inside a transaction the
// clone runs without the cache so uncommitted rows never leak into redis.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

var _ importer.Catalog = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	repo := &CatalogRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: VariantCacheTTL,
			KeyPrefix:  "catalog:import:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// WithTransaction runs fn against a transactional clone of the repository.
func (r *CatalogRepository) WithTransaction(fn func(tx importer.Catalog) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&CatalogRepository{db: tx})
	})
}

func (r *CatalogRepository) invalidateLookupCaches(ctx context.Context) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, "variant:sku:*")
	_ = r.cache.DeletePattern(ctx, "product:attr:*")
}

// Products

// cachedProduct and cachedVariant wrap lookups so negative results cache
// cleanly; every catalog write invalidates the lookup patterns.
type cachedProduct struct {
	Found   bool            `json:"found"`
	Product *models.Product `json:"product,omitempty"`
}

type cachedVariant struct {
	Found   bool            `json:"found"`
	Variant *models.Variant `json:"variant,omitempty"`
}

func (r *CatalogRepository) ProductByAttribute(field, value string) (*models.Product, error) {
	column, ok := comparatorColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported comparator field %q", field)
	}

	load := func() (*models.Product, error) {
		var product models.Product
		err := r.db.Unscoped().
			Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Where(column+" = ?", value).
			First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &product, nil
	}

	if r.cache == nil {
		return load()
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("product:attr:%s:%s", column, value)
	var result cachedProduct
	err := r.cache.GetOrSetJSON(ctx, cacheKey, &result, ProductCacheTTL, func() (any, error) {
		product, err := load()
		if err != nil {
			return nil, err
		}
		return &cachedProduct{Found: product != nil, Product: product}, nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, nil
	}
	return result.Product, nil
}

func (r *CatalogRepository) AllProducts() ([]*models.Product, error) {
	var products []*models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *CatalogRepository) CreateProduct(product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	err := r.db.Omit("Variants", "OptionTypes", "Taxons", "Images", "Properties", "Stores").
		Create(product).Error
	if err == nil {
		r.invalidateLookupCaches(context.Background())
	}
	return err
}

func (r *CatalogRepository) SaveProduct(product *models.Product) error {
	err := r.db.Omit("Variants", "OptionTypes", "Taxons", "Images", "Properties", "Stores").
		Save(product).Error
	if err == nil {
		r.invalidateLookupCaches(context.Background())
	}
	return err
}

// RestoreProduct clears soft-delete markers on the product and every variant
// it owns, so re-imported rows resurrect the whole family.
func (r *CatalogRepository) RestoreProduct(product *models.Product) error {
	if err := r.db.Unscoped().Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("deleted_at", nil).Error; err != nil {
		return err
	}
	if err := r.db.Unscoped().Model(&models.Variant{}).
		Where("product_id = ?", product.ID).
		Update("deleted_at", nil).Error; err != nil {
		return err
	}
	product.DeletedAt = nil
	for _, v := range product.Variants {
		v.DeletedAt = nil
	}
	r.invalidateLookupCaches(context.Background())
	return nil
}

func (r *CatalogRepository) DeleteProducts(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.Where("product_id IN ?", ids).Delete(&models.Variant{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("id IN ?", ids).Delete(&models.Product{}).Error; err != nil {
		return err
	}
	r.invalidateLookupCaches(context.Background())
	return nil
}

// Variants

func (r *CatalogRepository) VariantBySKU(sku string) (*models.Variant, error) {
	load := func() (*models.Variant, error) {
		var variant models.Variant
		err := r.db.Unscoped().
			Preload("OptionValues").
			Where("sku = ?", sku).
			First(&variant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &variant, nil
	}

	if r.cache == nil {
		return load()
	}

	ctx := context.Background()
	var result cachedVariant
	err := r.cache.GetOrSetJSON(ctx, "variant:sku:"+sku, &result, VariantCacheTTL, func() (any, error) {
		variant, err := load()
		if err != nil {
			return nil, err
		}
		return &cachedVariant{Found: variant != nil, Variant: variant}, nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, nil
	}
	return result.Variant, nil
}

func (r *CatalogRepository) CreateVariant(variant *models.Variant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	if err := r.db.Omit("OptionValues", "Images").Create(variant).Error; err != nil {
		return err
	}
	if err := r.replaceOptionValues(variant); err != nil {
		return err
	}
	r.invalidateLookupCaches(context.Background())
	return nil
}

func (r *CatalogRepository) SaveVariant(variant *models.Variant) error {
	if err := r.db.Omit("OptionValues", "Images").Save(variant).Error; err != nil {
		return err
	}
	if err := r.replaceOptionValues(variant); err != nil {
		return err
	}
	r.invalidateLookupCaches(context.Background())
	return nil
}

func (r *CatalogRepository) replaceOptionValues(variant *models.Variant) error {
	return r.db.Model(variant).Association("OptionValues").Replace(variant.OptionValues)
}

// Option types and values

func (r *CatalogRepository) OptionTypeByName(name string) (*models.OptionType, error) {
	lowered := strings.ToLower(name)
	var optionType models.OptionType
	err := r.db.Where("lower(presentation) = ? OR lower(name) = ?", lowered, lowered).
		First(&optionType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &optionType, nil
}

func (r *CatalogRepository) LinkOptionType(product *models.Product, optionType *models.OptionType) error {
	var count int64
	err := r.db.Table("product_option_types").
		Where("product_id = ? AND option_type_id = ?", product.ID, optionType.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Exec(
		"INSERT INTO product_option_types (product_id, option_type_id) VALUES (?, ?)",
		product.ID, optionType.ID,
	).Error
}

func (r *CatalogRepository) OptionValueByName(optionType *models.OptionType, value string) (*models.OptionValue, error) {
	var optionValue models.OptionValue
	err := r.db.Where("option_type_id = ? AND (presentation = ? OR name = ?)", optionType.ID, value, value).
		First(&optionValue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &optionValue, nil
}

func (r *CatalogRepository) CreateOptionValue(value *models.OptionValue) error {
	if value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	return r.db.Create(value).Error
}

// Taxonomies and taxons

func (r *CatalogRepository) TaxonomyByName(name string) (*models.Taxonomy, error) {
	var taxonomy models.Taxonomy
	err := r.db.Where("lower(name) = ?", strings.ToLower(name)).First(&taxonomy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &taxonomy, nil
}

// CreateTaxonomy creates the taxonomy together with its root taxon.
func (r *CatalogRepository) CreateTaxonomy(name string) (*models.Taxonomy, error) {
	taxonomy := &models.Taxonomy{ID: uuid.New(), Name: name}
	if err := r.db.Create(taxonomy).Error; err != nil {
		return nil, err
	}
	root := &models.Taxon{
		ID:         uuid.New(),
		TaxonomyID: taxonomy.ID,
		Name:       name,
	}
	if err := r.db.Create(root).Error; err != nil {
		return nil, err
	}
	taxonomy.Root = root
	return taxonomy, nil
}

func (r *CatalogRepository) RootTaxon(taxonomy *models.Taxonomy) (*models.Taxon, error) {
	var root models.Taxon
	err := r.db.Where("taxonomy_id = ? AND parent_id IS NULL", taxonomy.ID).First(&root).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &root, nil
}

func (r *CatalogRepository) TaxonChild(parent *models.Taxon, name string) (*models.Taxon, error) {
	var taxon models.Taxon
	err := r.db.Where("parent_id = ? AND name = ?", parent.ID, name).First(&taxon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &taxon, nil
}

func (r *CatalogRepository) CreateTaxon(taxon *models.Taxon) error {
	if taxon.ID == uuid.Nil {
		taxon.ID = uuid.New()
	}
	return r.db.Create(taxon).Error
}

func (r *CatalogRepository) LinkTaxon(product *models.Product, taxon *models.Taxon) error {
	var count int64
	err := r.db.Table("products_taxons").
		Where("product_id = ? AND taxon_id = ?", product.ID, taxon.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Exec(
		"INSERT INTO products_taxons (product_id, taxon_id) VALUES (?, ?)",
		product.ID, taxon.ID,
	).Error
}

// Images

func (r *CatalogRepository) ImageCount(viewableType string, viewableID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).
		Where("viewable_type = ? AND viewable_id = ?", viewableType, viewableID).
		Count(&count).Error
	return count, err
}

func (r *CatalogRepository) CreateImage(image *models.Image) error {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	return r.db.Create(image).Error
}

// Properties

func (r *CatalogRepository) PropertyByName(name string) (*models.Property, error) {
	var property models.Property
	err := r.db.Where("name = ?", name).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *CatalogRepository) CreateProductProperty(productProperty *models.ProductProperty) error {
	if productProperty.ID == uuid.Nil {
		productProperty.ID = uuid.New()
	}
	return r.db.Create(productProperty).Error
}

// Stores

func (r *CatalogRepository) StoreByIDOrCode(value string) (*models.Store, error) {
	var store models.Store
	var err error
	if id, parseErr := uuid.Parse(value); parseErr == nil {
		err = r.db.Where("id = ?", id).First(&store).Error
	} else {
		err = r.db.Where("code = ?", value).First(&store).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *CatalogRepository) LinkStore(product *models.Product, store *models.Store) error {
	var count int64
	err := r.db.Table("products_stores").
		Where("product_id = ? AND store_id = ?", product.ID, store.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Exec(
		"INSERT INTO products_stores (product_id, store_id) VALUES (?, ?)",
		product.ID, store.ID,
	).Error
}
