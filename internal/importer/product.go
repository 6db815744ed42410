package importer

import (
	"strconv"
	"time"

	"product-import-service/internal/models"
)

// createProductUsing builds a brand-new product from a row's attribute bag.
// Validation failure raises ProductError, which aborts the run under the
// transaction policy. A name already present before the import started means
// the row is a duplicate: logged and skipped, not an error.
func (r *run) createProductUsing(row map[string]string) error {
	product := &models.Product{}

	// Products carry the master price; a bare "price" column fills it when
	// no master_price column exists.
	if v := firstNonEmpty(row["master_price"], row["price"]); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			product.MasterPrice = &f
		} else {
			r.warn("could not parse master price", "value", v, err)
		}
	}

	var leftover []string
	for field, value := range row {
		if field == "price" || field == "master_price" {
			continue
		}
		if !r.assignProductField(product, field, value) {
			leftover = append(leftover, field)
		}
	}

	if product.Permalink == "" {
		product.Permalink = models.GeneratePermalink(product.Name)
	}

	if messages := product.Validate(); len(messages) > 0 {
		return &models.ProductError{Row: row, Messages: messages}
	}

	if _, seen := r.names[product.Name]; seen {
		r.log.WithField("name", product.Name).Info("skipping duplicate of pre-import product")
		r.stats.RowsSkipped++
		return nil
	}

	if err := r.catalog.CreateProduct(product); err != nil {
		return &models.ProductError{Row: row, Messages: []string{err.Error()}}
	}

	// The product row's sku lives on a master variant, so a catalog-wide
	// sku lookup on a re-import finds this row and updates in place.
	master := &models.Variant{
		ProductID: product.ID,
		SKU:       product.SKU,
		IsMaster:  true,
		Price:     product.MasterPrice,
		CostPrice: product.CostPrice,
		Weight:    product.Weight,
		Height:    product.Height,
		Width:     product.Width,
		Depth:     product.Depth,
	}
	if err := r.catalog.CreateVariant(master); err != nil {
		return &models.ProductError{Row: row, Messages: []string{err.Error()}}
	}
	product.Variants = append(product.Variants, master)

	r.job.ProductIDs = append(r.job.ProductIDs, product.ID.String())
	r.stats.ProductsCreated++

	// Leftover fields that name an existing catalog Property become
	// product properties; anything else is silently dropped.
	for _, field := range leftover {
		property, err := r.catalog.PropertyByName(field)
		if err != nil {
			r.warn("property lookup failed", "property", field, err)
			continue
		}
		if property == nil {
			continue
		}
		pp := &models.ProductProperty{
			ProductID:  product.ID,
			PropertyID: property.ID,
			Value:      row[field],
		}
		if err := r.catalog.CreateProductProperty(pp); err != nil {
			r.warn("could not save product property", "property", field, err)
		}
	}

	r.decorateProduct(product, row)

	if r.audit != nil {
		r.audit.ProductImported(r.ctx, r.job, product)
	}
	return nil
}

// assignProductField sets a direct product attribute when the field names
// one, reporting whether it matched. The allow-list is explicit; there is no
// reflection here.
func (r *run) assignProductField(product *models.Product, field, value string) bool {
	switch field {
	case "sku":
		product.SKU = value
	case "name":
		product.Name = value
	case "permalink":
		product.Permalink = value
	case "description":
		if value != "" {
			product.Description = &value
		}
	case "cost_price":
		r.assignFloat(&product.CostPrice, field, value)
	case "weight":
		r.assignFloat(&product.Weight, field, value)
	case "height":
		r.assignFloat(&product.Height, field, value)
	case "width":
		r.assignFloat(&product.Width, field, value)
	case "depth":
		r.assignFloat(&product.Depth, field, value)
	case "available_on":
		if value == "" {
			return true
		}
		if t, err := time.Parse(dateLayout, value); err == nil {
			product.AvailableOn = &t
		} else if t, err := time.Parse(time.RFC3339, value); err == nil {
			product.AvailableOn = &t
		} else {
			r.warn("could not parse available_on", "value", value, err)
		}
	default:
		return false
	}
	return true
}

func (r *run) assignFloat(dst **float64, field, value string) {
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.warn("could not parse number", field, value, err)
		return
	}
	*dst = &f
}

// decorateProduct runs the row's taxonomy fields, image fields and optional
// store association against a freshly created product. Everything here is a
// soft failure at worst.
func (r *run) decorateProduct(product *models.Product, row map[string]string) {
	for _, field := range r.settings.TaxonomyFields {
		if hierarchy, ok := row[field]; ok {
			r.associateTaxon(field, hierarchy, product)
		}
	}
	for _, field := range r.settings.ImageFields {
		if location, ok := row[field]; ok {
			r.attachImage(models.ViewableTypeProduct, product.ID, location)
		}
	}
	if r.settings.MultiDomainImporting {
		r.associateStore(product, row)
	}
}

// associateStore links the product to the store named by the configured
// store field. A missing store is a warning, never fatal.
func (r *run) associateStore(product *models.Product, row map[string]string) {
	value := row[r.settings.StoreField]
	if value == "" {
		return
	}
	store, err := r.catalog.StoreByIDOrCode(value)
	if err != nil || store == nil {
		r.warn("could not find store to associate with product", "store", value, err)
		return
	}
	if err := r.catalog.LinkStore(product, store); err != nil {
		r.warn("could not associate store with product", "store", value, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
