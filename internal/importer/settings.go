package importer

import (
	"encoding/json"

	"product-import-service/internal/models"
)

// Settings controls one import run. The zero value is not useful; start from
// DefaultSettings and override per run.
type Settings struct {
	// ColumnMappings is the static field -> column-index table used when the
	// file's first row is not authoritative.
	ColumnMappings map[string]int `json:"columnMappings"`

	// FirstRowIsHeadings derives the column mapping from the file's first
	// row instead of ColumnMappings.
	FirstRowIsHeadings bool `json:"firstRowIsHeadings"`

	// RowsToSkip is the count of leading rows skipped unconditionally,
	// in addition to serving the header when FirstRowIsHeadings is set.
	RowsToSkip int `json:"rowsToSkip"`

	CreateMissingTaxonomies bool     `json:"createMissingTaxonomies"`
	TaxonomyFields          []string `json:"taxonomyFields"`
	ImageFields             []string `json:"imageFields"`

	// ProductImagePath is the local root for relative image filenames.
	ProductImagePath string `json:"productImagePath"`

	// DestroyOriginalProducts enables full-replace mode: every product that
	// existed before the run is deleted after all rows import.
	DestroyOriginalProducts bool `json:"destroyOriginalProducts"`

	CreateVariants         bool   `json:"createVariants"`
	VariantComparatorField string `json:"variantComparatorField"`

	MultiDomainImporting bool   `json:"multiDomainImporting"`
	StoreField           string `json:"storeField"`

	// LogTo names a file that receives the run's own log stream, appended
	// across runs. Empty means the service logger only.
	LogTo string `json:"logTo"`

	// Transaction wraps the whole row loop in one atomic transaction.
	Transaction bool `json:"transaction"`
}

// Snapshot serializes the effective settings for persistence on the job
// record.
func (s Settings) Snapshot() (models.JSON, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out models.JSON
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultSettings returns the standard import configuration.
func DefaultSettings() Settings {
	return Settings{
		ColumnMappings: map[string]int{
			"sku":          0,
			"name":         1,
			"master_price": 2,
			"cost_price":   3,
			"weight":       4,
			"height":       5,
			"width":        6,
			"depth":        7,
			"image_main":   8,
			"image_2":      9,
			"image_3":      10,
			"image_4":      11,
			"description":  12,
			"category":     13,
		},
		FirstRowIsHeadings:      true,
		RowsToSkip:              1,
		CreateMissingTaxonomies: true,
		TaxonomyFields:          []string{"category", "brand"},
		ImageFields:             []string{"image_main", "image_2", "image_3", "image_4"},
		ProductImagePath:        "/tmp/product_images/",
		DestroyOriginalProducts: false,
		CreateVariants:          true,
		VariantComparatorField:  "permalink",
		MultiDomainImporting:    false,
		StoreField:              "store_code",
		LogTo:                   "",
		Transaction:             true,
	}
}
