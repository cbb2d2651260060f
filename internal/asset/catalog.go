// Package asset provides the asset catalog the action engine validates
// amounts against, plus precision-aware decimal parsing.
package asset

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Info describes one asset the anchor supports.
type Info struct {
	Code   string `yaml:"code"`
	Issuer string `yaml:"issuer,omitempty"`
	// Schema is "stellar" for on-network assets or "iso4217" for fiat.
	Schema string `yaml:"schema"`
	// SignificantDecimals is the precision all amount arithmetic for this
	// asset is carried out in.
	SignificantDecimals int32 `yaml:"significant_decimals"`
}

// ID returns the fully qualified asset identifier, e.g.
// "stellar:USDC:GA5Z..." or "iso4217:USD".
func (i Info) ID() string {
	if i.Issuer != "" {
		return i.Schema + ":" + i.Code + ":" + i.Issuer
	}
	return i.Schema + ":" + i.Code
}

// Catalog resolves asset codes to asset metadata.
type Catalog interface {
	// GetAsset returns the asset with the given code, or nil if unknown.
	GetAsset(code string) *Info
}

// StaticCatalog is an in-memory Catalog, read-only after construction.
type StaticCatalog struct {
	assets map[string]Info
}

func NewCatalog(infos []Info) *StaticCatalog {
	assets := make(map[string]Info, len(infos))
	for _, info := range infos {
		assets[info.Code] = info
	}
	return &StaticCatalog{assets: assets}
}

// LoadCatalog reads a YAML asset file of the form:
//
//	assets:
//	  - code: USDC
//	    schema: stellar
//	    issuer: GA5Z...
//	    significant_decimals: 7
func LoadCatalog(path string) (*StaticCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset file: %w", err)
	}

	var doc struct {
		Assets []Info `yaml:"assets"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse asset file: %w", err)
	}
	if len(doc.Assets) == 0 {
		return nil, fmt.Errorf("asset file %s defines no assets", path)
	}
	for _, a := range doc.Assets {
		if a.Code == "" || a.Schema == "" {
			return nil, fmt.Errorf("asset file %s: code and schema are required", path)
		}
	}
	return NewCatalog(doc.Assets), nil
}

func (c *StaticCatalog) GetAsset(code string) *Info {
	info, ok := c.assets[code]
	if !ok {
		return nil
	}
	return &info
}

// Code extracts the asset code from a fully qualified asset identifier.
// "stellar:USDC:GA5Z..." and "iso4217:USD" both resolve to their code
// segment; a bare code is returned unchanged.
func Code(assetID string) string {
	parts := strings.Split(assetID, ":")
	if len(parts) < 2 {
		return assetID
	}
	return parts[1]
}

// Decimal parses value in the asset's declared precision.
func Decimal(value string, info *Info) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d.Round(info.SignificantDecimals), nil
}
