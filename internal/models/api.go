package models

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, date
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for product import,
// in the default column order.
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Unique product SKU", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "master_price", Description: "Master price", Required: true, Type: "number", Example: "29.99"},
		{Name: "cost_price", Description: "Cost price", Required: false, Type: "number", Example: "12.50"},
		{Name: "weight", Description: "Weight (kg)", Required: false, Type: "number", Example: "0.3"},
		{Name: "height", Description: "Height (cm)", Required: false, Type: "number", Example: ""},
		{Name: "width", Description: "Width (cm)", Required: false, Type: "number", Example: ""},
		{Name: "depth", Description: "Depth (cm)", Required: false, Type: "number", Example: ""},
		{Name: "image_main", Description: "Main image URL or filename", Required: false, Type: "string", Example: "https://example.com/shirt.jpg"},
		{Name: "image_2", Description: "Additional image", Required: false, Type: "string", Example: ""},
		{Name: "image_3", Description: "Additional image", Required: false, Type: "string", Example: ""},
		{Name: "image_4", Description: "Additional image", Required: false, Type: "string", Example: ""},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "category", Description: "Category hierarchy, e.g. Clothing > Shirts", Required: false, Type: "string", Example: "Clothing > Shirts"},
		{Name: "available_on", Description: "Availability date (defaults to yesterday)", Required: false, Type: "date", Example: "2026-01-01"},
	}
}

// ProductImportTemplate returns the template definition for product imports
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type ImportJobResponse struct {
	Success bool       `json:"success"`
	Data    *ImportJob `json:"data"`
	Message *string    `json:"message,omitempty"`
}

type ImportJobListResponse struct {
	Success bool        `json:"success"`
	Data    []ImportJob `json:"data"`
}
