// Package content holds the content-module catalog and the dynamic priority
// scorer that reorders modules per visitor context.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cuepoint/internal/logging"
)

// Content categories. Every module belongs to exactly one.
const (
	CategoryProducts   = "products"
	CategoryStores     = "stores"
	CategoryTraining   = "training"
	CategoryFranchise  = "franchise"
	CategoryPromotions = "promotions"
	CategoryContact    = "contact"
)

// Module is a static content descriptor supplied by the site layer. The
// engine never owns modules; it only reorders them.
type Module struct {
	ID           string            `yaml:"id" json:"id"`
	Category     string            `yaml:"category" json:"category"`
	BasePriority float64           `yaml:"base_priority" json:"basePriority"`
	Title        string            `yaml:"title" json:"title"`
	Payload      map[string]string `yaml:"payload,omitempty" json:"payload,omitempty"`
}

type catalogFile struct {
	Modules []Module `yaml:"modules"`
}

// DefaultCatalog returns the compiled-in module set for the site.
func DefaultCatalog() []Module {
	return []Module{
		{ID: "hero-banner", Category: CategoryPromotions, BasePriority: 0.9, Title: "Season opening sale"},
		{ID: "product-showcase", Category: CategoryProducts, BasePriority: 0.8, Title: "Featured cues and tables"},
		{ID: "store-locator", Category: CategoryStores, BasePriority: 0.7, Title: "Find a store"},
		{ID: "training-programs", Category: CategoryTraining, BasePriority: 0.6, Title: "Coaching and training programs"},
		{ID: "franchise-pitch", Category: CategoryFranchise, BasePriority: 0.4, Title: "Open your own club"},
		{ID: "promo-carousel", Category: CategoryPromotions, BasePriority: 0.5, Title: "Current promotions"},
		{ID: "accessories-grid", Category: CategoryProducts, BasePriority: 0.5, Title: "Chalk, cases and accessories"},
		{ID: "contact-cta", Category: CategoryContact, BasePriority: 0.3, Title: "Talk to us"},
	}
}

// LoadCatalog reads a module catalog from a YAML file. An empty path or a
// missing file yields the compiled-in default catalog.
func LoadCatalog(path string) ([]Module, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Content("catalog file %s missing, using defaults", path)
			return DefaultCatalog(), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(cf.Modules) == 0 {
		return nil, fmt.Errorf("catalog %s defines no modules", path)
	}

	for i, m := range cf.Modules {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog module %d has no id", i)
		}
		if m.Category == "" {
			return nil, fmt.Errorf("catalog module %q has no category", m.ID)
		}
	}

	logging.Content("loaded %d modules from %s", len(cf.Modules), path)
	return cf.Modules, nil
}
