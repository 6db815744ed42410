package models

import (
	"fmt"
	"strings"
)

// ProductError means a new product built from a row failed validation. It is
// fatal to the row and, under a transactional run, to the whole run.
type ProductError struct {
	Row      map[string]string
	Messages []string
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product from row %v is invalid: %s", e.Row, strings.Join(e.Messages, ", "))
}

// SkuError means a row's variant sku already belongs to a different product.
// A sku must never be shared across products.
type SkuError struct {
	SKU           string
	OwningProduct string
	TargetProduct string
}

func (e *SkuError) Error() string {
	return fmt.Sprintf("sku %q is already owned by product %q, not %q", e.SKU, e.OwningProduct, e.TargetProduct)
}

// ImportError wraps any failure once it crosses the job boundary. It is the
// only error type a caller of Run ever sees.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("import failed: %s", e.Message)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
