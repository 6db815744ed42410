package importer

import (
	"github.com/google/uuid"
	"product-import-service/internal/models"
)

// variantOutcome reports what a variant row did to the catalog.
type variantOutcome int

const (
	variantSkipped variantOutcome = iota
	variantCreated
	variantUpdated
)

// createVariantFor adds a row to an existing product as a variant. A sku
// owned by a *different* product raises SkuError. Validation failure is
// reported through the outcome, not an error: the row is skipped and the run
// continues, unlike the product path.
func (r *run) createVariantFor(product *models.Product, row map[string]string) (variantOutcome, error) {
	sku := row["sku"]

	variant, err := r.catalog.VariantBySKU(sku)
	if err != nil {
		return variantSkipped, err
	}
	if variant != nil && variant.ProductID != product.ID {
		return variantSkipped, &models.SkuError{
			SKU:           sku,
			OwningProduct: variant.ProductID.String(),
			TargetProduct: product.ID.String(),
		}
	}

	isNew := variant == nil
	if isNew {
		variant = &models.Variant{ProductID: product.ID}
		// An explicit row id makes re-runs idempotent, but only for new
		// variants; an existing variant never changes identity.
		if raw := row["id"]; raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				variant.ID = id
			}
		}
	}

	// Products speak master_price, variants speak price.
	bag := make(map[string]string, len(row))
	for field, value := range row {
		bag[field] = value
	}
	if mp, ok := bag["master_price"]; ok {
		bag["price"] = mp
		delete(bag, "master_price")
	}

	for field, value := range bag {
		if field == "id" {
			continue
		}
		// A field can be both a direct attribute and an option axis;
		// both branches run for every field.
		r.assignVariantField(variant, field, value)
		r.resolveOption(product, variant, field, value)
	}

	if messages := variant.Validate(); len(messages) > 0 {
		r.log.WithField("sku", sku).WithField("messages", messages).Warn("variant failed validation, row skipped")
		return variantSkipped, nil
	}

	if isNew {
		err = r.catalog.CreateVariant(variant)
	} else {
		err = r.catalog.SaveVariant(variant)
	}
	if err != nil {
		return variantSkipped, err
	}

	for _, field := range r.settings.TaxonomyFields {
		if hierarchy, ok := bag[field]; ok {
			r.associateTaxon(field, hierarchy, product)
		}
	}
	for _, field := range r.settings.ImageFields {
		if location, ok := bag[field]; ok {
			r.attachImage(models.ViewableTypeVariant, variant.ID, location)
		}
	}
	if isNew {
		return variantCreated, nil
	}
	return variantUpdated, nil
}

// assignVariantField sets a direct variant attribute when the field names
// one. Unknown fields are left for option resolution.
func (r *run) assignVariantField(variant *models.Variant, field, value string) {
	switch field {
	case "sku":
		variant.SKU = value
	case "price":
		r.assignFloat(&variant.Price, field, value)
	case "cost_price":
		r.assignFloat(&variant.CostPrice, field, value)
	case "weight":
		r.assignFloat(&variant.Weight, field, value)
	case "height":
		r.assignFloat(&variant.Height, field, value)
	case "width":
		r.assignFloat(&variant.Width, field, value)
	case "depth":
		r.assignFloat(&variant.Depth, field, value)
	}
}

// resolveOption maps one field/value pair onto the option structure: the
// field must name an existing option type (case-insensitively, by name or
// presentation); the value is found or created under that type and linked to
// the variant, all idempotently.
func (r *run) resolveOption(product *models.Product, variant *models.Variant, field, value string) {
	if value == "" {
		return
	}

	optionType, err := r.catalog.OptionTypeByName(field)
	if err != nil {
		r.warn("option type lookup failed", "field", field, err)
		return
	}
	if optionType == nil {
		return
	}

	if err := r.catalog.LinkOptionType(product, optionType); err != nil {
		r.warn("could not link option type to product", "field", field, err)
		return
	}

	optionValue, err := r.catalog.OptionValueByName(optionType, value)
	if err != nil {
		r.warn("option value lookup failed", "field", field, err)
		return
	}
	if optionValue == nil {
		optionValue = &models.OptionValue{
			OptionTypeID: optionType.ID,
			Name:         value,
			Presentation: value,
		}
		if err := r.catalog.CreateOptionValue(optionValue); err != nil {
			r.warn("could not create option value", "value", value, err)
			return
		}
	}

	for _, existing := range variant.OptionValues {
		if existing.ID == optionValue.ID {
			return
		}
	}
	variant.OptionValues = append(variant.OptionValues, optionValue)
}
