// Package catalog builds, encodes, compares and exports the offline
// year -> make -> models snapshot of the selection data.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog maps a model year (as a string key) to make to model names.
type Catalog map[string]map[string][]string

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog format %q (expected json or yaml)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Set stores the models of one make in one year.
func (c Catalog) Set(year int, mk string, models []string) {
	key := strconv.Itoa(year)
	if c[key] == nil {
		c[key] = make(map[string][]string)
	}
	if mk != "" {
		c[key][mk] = models
	}
}

// Years returns the catalog years, newest first. Non-numeric keys are skipped.
func (c Catalog) Years() []int {
	years := make([]int, 0, len(c))
	for k := range c {
		if y, err := strconv.Atoi(k); err == nil {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

// Makes returns the makes recorded for year, sorted.
func (c Catalog) Makes(year int) []string {
	byMake := c[strconv.Itoa(year)]
	makes := make([]string, 0, len(byMake))
	for mk := range byMake {
		makes = append(makes, mk)
	}
	slices.Sort(makes)
	return makes
}

// Models returns the models recorded for year and make.
func (c Catalog) Models(year int, mk string) []string {
	return c[strconv.Itoa(year)][mk]
}

// Stats summarizes a catalog.
type Stats struct {
	Years  int `json:"years"`
	Makes  int `json:"makes"`
	Models int `json:"models"`
}

// Stats counts years, year/make pairs and model entries.
func (c Catalog) Stats() Stats {
	var s Stats
	s.Years = len(c)
	for _, byMake := range c {
		s.Makes += len(byMake)
		for _, models := range byMake {
			s.Models += len(models)
		}
	}
	return s
}

// Encode writes the catalog. JSON is indented by two spaces.
func (c Catalog) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]map[string][]string(c)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]map[string][]string(c)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported catalog format %q", f)
	}
}

// Decode reads a catalog in the given format.
func Decode(r io.Reader, f Format) (Catalog, error) {
	c := Catalog{}
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", f)
	}
	for k := range c {
		if _, err := strconv.Atoi(k); err != nil {
			return nil, fmt.Errorf("catalog key %q is not a year", k)
		}
	}
	return c, nil
}
