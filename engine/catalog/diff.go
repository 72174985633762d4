package catalog

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffResult holds a unified diff between two catalogs.
type DiffResult struct {
	Unified        string
	HasDifferences bool
}

// Diff renders both catalogs as sorted-key JSON and computes a unified diff.
func Diff(oldCat, newCat Catalog, oldLabel, newLabel string) (*DiffResult, error) {
	oldDoc, err := canonical(oldCat)
	if err != nil {
		return nil, err
	}
	newDoc, err := canonical(newCat)
	if err != nil {
		return nil, err
	}
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldDoc),
		B:        difflib.SplitLines(newDoc),
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}
	return &DiffResult{Unified: unified, HasDifferences: unified != ""}, nil
}

func canonical(c Catalog) (string, error) {
	if c == nil {
		c = Catalog{}
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, FormatJSON); err != nil {
		return "", err
	}
	return buf.String(), nil
}
