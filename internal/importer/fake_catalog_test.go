package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-import-service/internal/models"
)

// fakeCatalog is an in-memory Catalog with snapshot/rollback transaction
// semantics, enough to drive the import pipeline without a database.
type fakeCatalog struct {
	products     []*models.Product
	variants     []*models.Variant
	optionTypes  []*models.OptionType
	optionValues []*models.OptionValue
	taxonomies   []*models.Taxonomy
	taxons       []*models.Taxon
	images       []*models.Image
	properties   []*models.Property
	productProps []*models.ProductProperty
	stores       []*models.Store

	productOptionTypes map[string]bool
	productTaxons      map[string]bool
	productStores      map[string]bool

	// failCreateProduct fails CreateProduct once the catalog holds this
	// many products already, to exercise rollback.
	failCreateProductAfter int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		productOptionTypes:     map[string]bool{},
		productTaxons:          map[string]bool{},
		productStores:          map[string]bool{},
		failCreateProductAfter: -1,
	}
}

type fakeSnapshot struct {
	products     []*models.Product
	variants     []*models.Variant
	optionTypes  []*models.OptionType
	optionValues []*models.OptionValue
	taxonomies   []*models.Taxonomy
	taxons       []*models.Taxon
	images       []*models.Image
	properties   []*models.Property
	productProps []*models.ProductProperty
	stores       []*models.Store

	productOptionTypes map[string]bool
	productTaxons      map[string]bool
	productStores      map[string]bool
}

func copyLinks(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (f *fakeCatalog) snapshot() fakeSnapshot {
	return fakeSnapshot{
		products:           append([]*models.Product(nil), f.products...),
		variants:           append([]*models.Variant(nil), f.variants...),
		optionTypes:        append([]*models.OptionType(nil), f.optionTypes...),
		optionValues:       append([]*models.OptionValue(nil), f.optionValues...),
		taxonomies:         append([]*models.Taxonomy(nil), f.taxonomies...),
		taxons:             append([]*models.Taxon(nil), f.taxons...),
		images:             append([]*models.Image(nil), f.images...),
		properties:         append([]*models.Property(nil), f.properties...),
		productProps:       append([]*models.ProductProperty(nil), f.productProps...),
		stores:             append([]*models.Store(nil), f.stores...),
		productOptionTypes: copyLinks(f.productOptionTypes),
		productTaxons:      copyLinks(f.productTaxons),
		productStores:      copyLinks(f.productStores),
	}
}

func (f *fakeCatalog) restore(s fakeSnapshot) {
	f.products = s.products
	f.variants = s.variants
	f.optionTypes = s.optionTypes
	f.optionValues = s.optionValues
	f.taxonomies = s.taxonomies
	f.taxons = s.taxons
	f.images = s.images
	f.properties = s.properties
	f.productProps = s.productProps
	f.stores = s.stores
	f.productOptionTypes = s.productOptionTypes
	f.productTaxons = s.productTaxons
	f.productStores = s.productStores
}

func (f *fakeCatalog) WithTransaction(fn func(tx Catalog) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeCatalog) ProductByAttribute(field, value string) (*models.Product, error) {
	for _, p := range f.products {
		var candidate string
		switch field {
		case "permalink":
			candidate = p.Permalink
		case "sku":
			candidate = p.SKU
		case "name":
			candidate = p.Name
		default:
			return nil, fmt.Errorf("unsupported comparator field %q", field)
		}
		if candidate == value {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) AllProducts() ([]*models.Product, error) {
	var live []*models.Product
	for _, p := range f.products {
		if p.DeletedAt == nil {
			live = append(live, p)
		}
	}
	return live, nil
}

func (f *fakeCatalog) CreateProduct(product *models.Product) error {
	if f.failCreateProductAfter >= 0 && len(f.products) >= f.failCreateProductAfter {
		return fmt.Errorf("simulated insert failure for %q", product.Name)
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products = append(f.products, product)
	return nil
}

func (f *fakeCatalog) SaveProduct(product *models.Product) error { return nil }

func (f *fakeCatalog) RestoreProduct(product *models.Product) error {
	product.DeletedAt = nil
	for _, v := range f.variants {
		if v.ProductID == product.ID {
			v.DeletedAt = nil
		}
	}
	return nil
}

func (f *fakeCatalog) DeleteProducts(ids []uuid.UUID) error {
	deleted := gorm.DeletedAt{Time: time.Now(), Valid: true}
	for _, id := range ids {
		for _, p := range f.products {
			if p.ID == id {
				p.DeletedAt = &deleted
			}
		}
		for _, v := range f.variants {
			if v.ProductID == id {
				v.DeletedAt = &deleted
			}
		}
	}
	return nil
}

func (f *fakeCatalog) VariantBySKU(sku string) (*models.Variant, error) {
	for _, v := range f.variants {
		if v.SKU == sku {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateVariant(variant *models.Variant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	f.variants = append(f.variants, variant)
	return nil
}

func (f *fakeCatalog) SaveVariant(variant *models.Variant) error { return nil }

func (f *fakeCatalog) OptionTypeByName(name string) (*models.OptionType, error) {
	for _, ot := range f.optionTypes {
		if strings.EqualFold(ot.Name, name) || strings.EqualFold(ot.Presentation, name) {
			return ot, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) LinkOptionType(product *models.Product, optionType *models.OptionType) error {
	f.productOptionTypes[product.ID.String()+"|"+optionType.ID.String()] = true
	return nil
}

func (f *fakeCatalog) OptionValueByName(optionType *models.OptionType, value string) (*models.OptionValue, error) {
	for _, ov := range f.optionValues {
		if ov.OptionTypeID == optionType.ID && (ov.Name == value || ov.Presentation == value) {
			return ov, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateOptionValue(value *models.OptionValue) error {
	if value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	f.optionValues = append(f.optionValues, value)
	return nil
}

func (f *fakeCatalog) TaxonomyByName(name string) (*models.Taxonomy, error) {
	for _, tx := range f.taxonomies {
		if strings.EqualFold(tx.Name, name) {
			return tx, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateTaxonomy(name string) (*models.Taxonomy, error) {
	taxonomy := &models.Taxonomy{ID: uuid.New(), Name: name}
	root := &models.Taxon{ID: uuid.New(), TaxonomyID: taxonomy.ID, Name: name}
	taxonomy.Root = root
	f.taxonomies = append(f.taxonomies, taxonomy)
	f.taxons = append(f.taxons, root)
	return taxonomy, nil
}

func (f *fakeCatalog) RootTaxon(taxonomy *models.Taxonomy) (*models.Taxon, error) {
	for _, t := range f.taxons {
		if t.TaxonomyID == taxonomy.ID && t.ParentID == nil {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) TaxonChild(parent *models.Taxon, name string) (*models.Taxon, error) {
	for _, t := range f.taxons {
		if t.ParentID != nil && *t.ParentID == parent.ID && t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateTaxon(taxon *models.Taxon) error {
	if taxon.ID == uuid.Nil {
		taxon.ID = uuid.New()
	}
	f.taxons = append(f.taxons, taxon)
	return nil
}

func (f *fakeCatalog) LinkTaxon(product *models.Product, taxon *models.Taxon) error {
	f.productTaxons[product.ID.String()+"|"+taxon.ID.String()] = true
	return nil
}

func (f *fakeCatalog) ImageCount(viewableType string, viewableID uuid.UUID) (int64, error) {
	var count int64
	for _, img := range f.images {
		if img.ViewableType == viewableType && img.ViewableID == viewableID {
			count++
		}
	}
	return count, nil
}

func (f *fakeCatalog) CreateImage(image *models.Image) error {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	f.images = append(f.images, image)
	return nil
}

func (f *fakeCatalog) PropertyByName(name string) (*models.Property, error) {
	for _, p := range f.properties {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateProductProperty(productProperty *models.ProductProperty) error {
	if productProperty.ID == uuid.Nil {
		productProperty.ID = uuid.New()
	}
	f.productProps = append(f.productProps, productProperty)
	return nil
}

func (f *fakeCatalog) StoreByIDOrCode(value string) (*models.Store, error) {
	for _, s := range f.stores {
		if s.Code == value || s.ID.String() == value {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) LinkStore(product *models.Product, store *models.Store) error {
	f.productStores[product.ID.String()+"|"+store.ID.String()] = true
	return nil
}

var _ Catalog = (*fakeCatalog)(nil)

// fakeJobs keeps job records in memory.
type fakeJobs struct {
	saved []*models.ImportJob
}

func (f *fakeJobs) Save(job *models.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	f.saved = append(f.saved, job)
	return nil
}

func (f *fakeJobs) GetByID(id uuid.UUID) (*models.ImportJob, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ID == id {
			return f.saved[i], nil
		}
	}
	return nil, nil
}

func (f *fakeJobs) List() ([]models.ImportJob, error) {
	jobs := make([]models.ImportJob, 0, len(f.saved))
	for _, j := range f.saved {
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

func (f *fakeJobs) Destroy(id uuid.UUID) (*models.CascadeDeleteResult, error) {
	return &models.CascadeDeleteResult{Success: true}, nil
}

var _ Jobs = (*fakeJobs)(nil)

// recordingAudit captures lifecycle notifications.
type recordingAudit struct {
	started   int
	completed int
	failed    int
	products  []string
}

func (a *recordingAudit) ImportStarted(ctx context.Context, job *models.ImportJob) { a.started++ }
func (a *recordingAudit) ImportCompleted(ctx context.Context, job *models.ImportJob, summary string) {
	a.completed++
}
func (a *recordingAudit) ImportFailed(ctx context.Context, job *models.ImportJob, reason string) {
	a.failed++
}
func (a *recordingAudit) ProductImported(ctx context.Context, job *models.ImportJob, product *models.Product) {
	a.products = append(a.products, product.Name)
}

var _ AuditTrail = (*recordingAudit)(nil)
