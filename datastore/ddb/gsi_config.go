/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// GSIConfig holds the configuration for GSI key mappings
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName is the partition key attribute of the GSI, also the
	// index map entry holding its template (e.g., "GSI1PK")
	PartitionKeyName string
	// SortKeyName is the sort key attribute of the GSI (e.g., "GSI1SK")
	SortKeyName string
}

// DefaultGSIConfigs holds the default GSI configurations
var DefaultGSIConfigs = []GSIConfig{
	{
		IndexName:        "GSI1",
		PartitionKeyName: "GSI1PK",
		SortKeyName:      "GSI1SK",
	},
}

// GetGSIConfig returns the GSI configuration for a given index name
func GetGSIConfig(indexName string) (GSIConfig, bool) {
	for _, cfg := range DefaultGSIConfigs {
		if cfg.IndexName == indexName {
			return cfg, true
		}
	}
	return GSIConfig{}, false
}

// routeToIndex picks the first GSI whose partition key template can be fully
// expanded from scalar equalities of filter, and returns the expanded key.
func routeToIndex(indexMap map[string]string, filter storagemodels.Filter) (GSIConfig, string, bool) {
	values := scalarValues(filter)
	if len(values) == 0 {
		return GSIConfig{}, "", false
	}
	for _, cfg := range DefaultGSIConfigs {
		template, ok := indexMap[cfg.PartitionKeyName]
		if !ok || !hasMacros(template) {
			continue
		}
		expanded, complete, err := expandMacros(map[string]string{cfg.PartitionKeyName: template}, values)
		if err == nil && complete {
			return cfg, expanded[cfg.PartitionKeyName], true
		}
	}
	return GSIConfig{}, "", false
}

// scalarValues keeps the top-level string, number and bool equalities of
// filter. The public "id" key is mapped onto the internal identifier.
func scalarValues(filter storagemodels.Filter) map[string]any {
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
		default:
			continue
		}
		if k == document.PublicIDField {
			k = document.IDField
		}
		out[k] = v
	}
	return out
}
