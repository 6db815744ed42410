package importer

import (
	"strings"

	"product-import-service/internal/models"
)

// associateTaxon walks a hierarchy string like
// "Clothing > Shirts & Accessories > Belts" against the named taxonomy.
// Branches split on "&" are resolved independently; within a branch, ">"
// separates levels from the root down. The product associates only with the
// leaf taxon of each branch.
func (r *run) associateTaxon(taxonomyName, hierarchy string, product *models.Product) {
	taxonomyName = strings.TrimSpace(taxonomyName)
	hierarchy = strings.TrimSpace(hierarchy)
	if taxonomyName == "" || hierarchy == "" {
		return
	}

	taxonomy, err := r.catalog.TaxonomyByName(taxonomyName)
	if err != nil {
		r.warn("taxonomy lookup failed", "taxonomy", taxonomyName, err)
		return
	}
	if taxonomy == nil {
		if !r.settings.CreateMissingTaxonomies {
			return
		}
		taxonomy, err = r.catalog.CreateTaxonomy(capitalize(taxonomyName))
		if err != nil {
			r.warn("could not create taxonomy", "taxonomy", taxonomyName, err)
			return
		}
	}

	root, err := r.catalog.RootTaxon(taxonomy)
	if err != nil || root == nil {
		r.warn("taxonomy has no root taxon", "taxonomy", taxonomy.Name, err)
		return
	}

	for _, branch := range strings.Split(hierarchy, "&") {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}
		leaf := r.descendBranch(taxonomy, root, branch)
		if leaf == nil {
			continue
		}
		if err := r.catalog.LinkTaxon(product, leaf); err != nil {
			r.warn("could not associate taxon", "taxon", leaf.Name, err)
		}
	}
}

// descendBranch find-or-creates each taxon of one ">"-separated path,
// returning the final, most specific node.
func (r *run) descendBranch(taxonomy *models.Taxonomy, root *models.Taxon, branch string) *models.Taxon {
	current := root
	for _, name := range strings.Split(branch, ">") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		child, err := r.catalog.TaxonChild(current, name)
		if err != nil {
			r.warn("taxon lookup failed", "taxon", name, err)
			return nil
		}
		if child == nil {
			parentID := current.ID
			child = &models.Taxon{
				TaxonomyID: taxonomy.ID,
				ParentID:   &parentID,
				Name:       name,
			}
			if err := r.catalog.CreateTaxon(child); err != nil {
				r.warn("could not create taxon", "taxon", name, err)
				return nil
			}
		}
		current = child
	}
	if current == root {
		return nil
	}
	return current
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
