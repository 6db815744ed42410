package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray type for PostgreSQL JSONB (array of strings)
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = make(StringArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, a)
}

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Product represents a catalog product. The master price lives on the
// product; per-variant prices live on Variant.
type Product struct {
	ID          uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU         string             `json:"sku" gorm:"not null;uniqueIndex"`
	Name        string             `json:"name" gorm:"not null"`
	Permalink   string             `json:"permalink" gorm:"uniqueIndex"`
	Description *string            `json:"description,omitempty"`
	MasterPrice *float64           `json:"masterPrice,omitempty"`
	CostPrice   *float64           `json:"costPrice,omitempty"`
	Weight      *float64           `json:"weight,omitempty"`
	Height      *float64           `json:"height,omitempty"`
	Width       *float64           `json:"width,omitempty"`
	Depth       *float64           `json:"depth,omitempty"`
	AvailableOn *time.Time         `json:"availableOn,omitempty"`
	Variants    []*Variant         `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	OptionTypes []*OptionType      `json:"optionTypes,omitempty" gorm:"many2many:product_option_types"`
	Taxons      []*Taxon           `json:"taxons,omitempty" gorm:"many2many:products_taxons"`
	Images      []*Image           `json:"images,omitempty" gorm:"polymorphic:Viewable;polymorphicValue:Product"`
	Properties  []*ProductProperty `json:"properties,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Stores      []*Store           `json:"stores,omitempty" gorm:"many2many:products_stores"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt    `json:"deletedAt,omitempty" gorm:"index"`
}

// Validate checks required fields and sku format before persistence.
func (p *Product) Validate() []string {
	var messages []string
	if strings.TrimSpace(p.Name) == "" {
		messages = append(messages, "name can't be blank")
	}
	if strings.TrimSpace(p.SKU) == "" {
		messages = append(messages, "sku can't be blank")
	} else if !skuPattern.MatchString(p.SKU) {
		messages = append(messages, fmt.Sprintf("sku %q is invalid", p.SKU))
	}
	if p.MasterPrice == nil {
		messages = append(messages, "master_price can't be blank")
	}
	return messages
}

// Variant belongs to exactly one product. SKU is unique across the whole
// catalog, not just within its product.
type Variant struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID    uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	SKU          string          `json:"sku" gorm:"not null;uniqueIndex"`
	Price        *float64        `json:"price,omitempty"`
	CostPrice    *float64        `json:"costPrice,omitempty"`
	Weight       *float64        `json:"weight,omitempty"`
	Height       *float64        `json:"height,omitempty"`
	Width        *float64        `json:"width,omitempty"`
	Depth        *float64        `json:"depth,omitempty"`
	IsMaster     bool            `json:"isMaster" gorm:"not null;default:false"`
	OptionValues []*OptionValue  `json:"optionValues,omitempty" gorm:"many2many:option_values_variants"`
	Images       []*Image        `json:"images,omitempty" gorm:"polymorphic:Viewable;polymorphicValue:Variant"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Validate checks required fields before persistence.
func (v *Variant) Validate() []string {
	var messages []string
	if strings.TrimSpace(v.SKU) == "" {
		messages = append(messages, "sku can't be blank")
	} else if !skuPattern.MatchString(v.SKU) {
		messages = append(messages, fmt.Sprintf("sku %q is invalid", v.SKU))
	}
	if v.Price == nil {
		messages = append(messages, "price can't be blank")
	}
	return messages
}

// OptionType is a named variation axis, e.g. "size".
type OptionType struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"not null;uniqueIndex"`
	Presentation string         `json:"presentation" gorm:"not null"`
	OptionValues []*OptionValue `json:"optionValues,omitempty" gorm:"foreignKey:OptionTypeID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// OptionValue belongs to exactly one OptionType; (name, option_type_id) is unique.
type OptionValue struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OptionTypeID uuid.UUID `json:"optionTypeId" gorm:"type:uuid;not null;index;uniqueIndex:idx_option_values_name_type"`
	Name         string    `json:"name" gorm:"not null;uniqueIndex:idx_option_values_name_type"`
	Presentation string    `json:"presentation" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Taxonomy is a named classification tree root, e.g. "Category".
type Taxonomy struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	Root      *Taxon    `json:"root,omitempty" gorm:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Taxon is one node of a taxonomy tree. The root has a nil ParentID;
// (name, parent_id, taxonomy_id) is unique along any path.
type Taxon struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaxonomyID uuid.UUID  `json:"taxonomyId" gorm:"type:uuid;not null;index;uniqueIndex:idx_taxons_name_parent"`
	ParentID   *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;uniqueIndex:idx_taxons_name_parent"`
	Name       string     `json:"name" gorm:"not null;uniqueIndex:idx_taxons_name_parent"`
	Position   int        `json:"position" gorm:"not null;default:0"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Viewable types an image can belong to.
const (
	ViewableTypeProduct = "Product"
	ViewableTypeVariant = "Variant"
)

// Image owns its attachment bytes and points back at exactly one viewable
// entity (a product or a variant). Position is zero-based append order
// scoped to the viewable.
type Image struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ViewableType string    `json:"viewableType" gorm:"not null;index:idx_images_viewable"`
	ViewableID   uuid.UUID `json:"viewableId" gorm:"type:uuid;not null;index:idx_images_viewable"`
	Filename     string    `json:"filename" gorm:"not null"`
	ContentType  string    `json:"contentType"`
	Data         []byte    `json:"-" gorm:"type:bytea"`
	Position     int       `json:"position" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Property is a catalog-wide attribute definition; ProductProperty binds it
// to a product with a value.
type Property struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string    `json:"name" gorm:"not null;uniqueIndex"`
	Presentation string    `json:"presentation" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ProductProperty struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	PropertyID uuid.UUID `json:"propertyId" gorm:"type:uuid;not null;index"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store represents a sales channel a product may be associated with when
// multi-store importing is enabled.
type Store struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Code      string    `json:"code" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GeneratePermalink builds a URL-safe slug from a product name.
func GeneratePermalink(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the Variant model
func (Variant) TableName() string {
	return "variants"
}

// TableName returns the table name for the OptionType model
func (OptionType) TableName() string {
	return "option_types"
}

// TableName returns the table name for the OptionValue model
func (OptionValue) TableName() string {
	return "option_values"
}

// TableName returns the table name for the Taxonomy model
func (Taxonomy) TableName() string {
	return "taxonomies"
}

// TableName returns the table name for the Taxon model
func (Taxon) TableName() string {
	return "taxons"
}

// TableName returns the table name for the Image model
func (Image) TableName() string {
	return "images"
}

// TableName returns the table name for the Property model
func (Property) TableName() string {
	return "properties"
}

// TableName returns the table name for the ProductProperty model
func (ProductProperty) TableName() string {
	return "product_properties"
}

// TableName returns the table name for the Store model
func (Store) TableName() string {
	return "stores"
}
