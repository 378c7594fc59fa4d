package cms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Entries []seedEntry `yaml:"entries"`
}

type seedEntry struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Value    string `yaml:"value"`
	Label    string `yaml:"label"`
	Category string `yaml:"category"`
}

// DefaultSeeds returns the compiled-in site copy.
func DefaultSeeds() []Entry {
	return []Entry{
		{Key: "home.hero.title", Type: TypeText, Value: "Play Like a Champion", Label: "Homepage hero title", Category: "home"},
		{Key: "home.hero.subtitle", Type: TypeText, Value: "Professional billiards equipment, coaching and club franchising", Label: "Homepage hero subtitle", Category: "home"},
		{Key: "home.hero.image", Type: TypeImage, Value: "/assets/hero-table.jpg", Label: "Homepage hero image", Category: "home"},
		{Key: "stores.intro.title", Type: TypeText, Value: "Visit a Showroom", Label: "Stores page title", Category: "stores"},
		{Key: "stores.intro.body", Type: TypeRichText, Value: "<p>Try every cue on a full-size table before you buy.</p>", Label: "Stores page intro", Category: "stores"},
		{Key: "training.intro.title", Type: TypeText, Value: "Train With Certified Coaches", Label: "Training page title", Category: "training"},
		{Key: "training.intro.video", Type: TypeVideo, Value: "/assets/training-teaser.mp4", Label: "Training teaser video", Category: "training"},
		{Key: "products.catalog.title", Type: TypeText, Value: "Cues, Tables & Accessories", Label: "Products page title", Category: "products"},
		{Key: "franchise.pitch.title", Type: TypeText, Value: "Open Your Own Club", Label: "Franchise page title", Category: "franchise"},
		{Key: "franchise.pitch.body", Type: TypeRichText, Value: "<p>Join a growing network of billiards clubs.</p>", Label: "Franchise pitch", Category: "franchise"},
		{Key: "contact.form.title", Type: TypeText, Value: "Book a Visit", Label: "Contact form title", Category: "contact"},
	}
}

// LoadSeeds reads seed entries from a YAML file. An empty path yields the
// compiled-in defaults; a missing file does too.
func LoadSeeds(path string) ([]Entry, error) {
	if path == "" {
		return DefaultSeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSeeds(), nil
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(sf.Entries) == 0 {
		return nil, fmt.Errorf("seed file %s defines no entries", path)
	}

	entries := make([]Entry, 0, len(sf.Entries))
	for i, se := range sf.Entries {
		if se.Key == "" {
			return nil, fmt.Errorf("seed entry %d has no key", i)
		}
		entries = append(entries, Entry{
			Key:      se.Key,
			Type:     se.Type,
			Value:    se.Value,
			Label:    se.Label,
			Category: se.Category,
		})
	}
	return entries, nil
}
