package models

// CascadeDeleteResult reports what destroying an import job actually removed.
// Only entities created by that job are ever touched.
type CascadeDeleteResult struct {
	Success           bool           `json:"success"`
	ProductsDeleted   int            `json:"productsDeleted"`
	VariantsDeleted   int            `json:"variantsDeleted"`
	ImagesDeleted     int            `json:"imagesDeleted"`
	PropertiesDeleted int            `json:"propertiesDeleted"`
	Errors            []CascadeError `json:"errors,omitempty"`
}

// CascadeError represents a failure during cascade delete
type CascadeError struct {
	EntityType string `json:"entityType"` // "product", "variant", "image", "product_property"
	EntityID   string `json:"entityId"`
	Message    string `json:"message"`
}
