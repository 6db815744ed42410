package importer

import (
	"context"

	"github.com/google/uuid"
	"product-import-service/internal/models"
)

// Catalog is the persistence boundary the import pipeline runs against.
// Lookup methods return (nil, nil) when nothing matches; a non-nil error
// always means a storage failure. Mutating methods are expected to surface
// uniqueness-constraint violations as errors.
type Catalog interface {
	// ProductByAttribute looks up a product by a whitelisted column
	// (permalink, sku, name), including soft-deleted rows so a re-import
	// can resurrect them.
	ProductByAttribute(field, value string) (*models.Product, error)

	// AllProducts returns every live product, used for the pre-import
	// snapshot and for full-replace mode.
	AllProducts() ([]*models.Product, error)

	CreateProduct(product *models.Product) error
	SaveProduct(product *models.Product) error

	// RestoreProduct clears the soft-delete marker on a product and all of
	// its variants.
	RestoreProduct(product *models.Product) error

	// DeleteProducts soft-deletes the given products and their variants.
	DeleteProducts(ids []uuid.UUID) error

	// VariantBySKU searches the whole catalog, not one product, with
	// option values preloaded.
	VariantBySKU(sku string) (*models.Variant, error)

	// CreateVariant persists a new variant along with its in-memory
	// OptionValues links; SaveVariant updates an existing one, replacing
	// the option-value links with the in-memory set.
	CreateVariant(variant *models.Variant) error
	SaveVariant(variant *models.Variant) error

	// OptionTypeByName matches case-insensitively on name or presentation.
	OptionTypeByName(name string) (*models.OptionType, error)

	// LinkOptionType associates an option type with a product; linking an
	// already-linked pair is a no-op.
	LinkOptionType(product *models.Product, optionType *models.OptionType) error

	// OptionValueByName matches on name or presentation within one type.
	OptionValueByName(optionType *models.OptionType, value string) (*models.OptionValue, error)
	CreateOptionValue(value *models.OptionValue) error

	// TaxonomyByName matches case-insensitively.
	TaxonomyByName(name string) (*models.Taxonomy, error)

	// CreateTaxonomy creates a taxonomy together with its root taxon.
	CreateTaxonomy(name string) (*models.Taxonomy, error)

	// RootTaxon returns the parentless taxon of a taxonomy.
	RootTaxon(taxonomy *models.Taxonomy) (*models.Taxon, error)

	// TaxonChild finds a taxon by name directly under the given parent.
	TaxonChild(parent *models.Taxon, name string) (*models.Taxon, error)
	CreateTaxon(taxon *models.Taxon) error

	// LinkTaxon associates a product with a taxon; idempotent.
	LinkTaxon(product *models.Product, taxon *models.Taxon) error

	// ImageCount returns how many images the viewable entity already owns.
	ImageCount(viewableType string, viewableID uuid.UUID) (int64, error)
	CreateImage(image *models.Image) error

	// PropertyByName is a case-sensitive exact match.
	PropertyByName(name string) (*models.Property, error)
	CreateProductProperty(productProperty *models.ProductProperty) error

	// StoreByIDOrCode resolves a store by uuid or by its unique code.
	StoreByIDOrCode(value string) (*models.Store, error)
	LinkStore(product *models.Product, store *models.Store) error

	// WithTransaction runs fn against a transactional view of the catalog;
	// an error from fn rolls everything back.
	WithTransaction(fn func(tx Catalog) error) error
}

// Jobs persists import job records. Job state is saved outside any catalog
// transaction so a failed job record survives the rollback.
type Jobs interface {
	Save(job *models.ImportJob) error
	GetByID(id uuid.UUID) (*models.ImportJob, error)
	List() ([]models.ImportJob, error)
	Destroy(id uuid.UUID) (*models.CascadeDeleteResult, error)
}

// AuditTrail receives import lifecycle notifications. Implementations must
// never fail the run; publishing is fire-and-forget.
type AuditTrail interface {
	ImportStarted(ctx context.Context, job *models.ImportJob)
	ImportCompleted(ctx context.Context, job *models.ImportJob, summary string)
	ImportFailed(ctx context.Context, job *models.ImportJob, reason string)
	ProductImported(ctx context.Context, job *models.ImportJob, product *models.Product)
}
