// internal/routing/config.go
package routing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"support-engine/internal/common/errors"
)

// routingDocumentSchema validates the shape of routing_config.json before
// the table is built from it.
const routingDocumentSchema = `{
	"type": "object",
	"required": ["intent_routing"],
	"properties": {
		"confidence_threshold": {
			"type": "number",
			"minimum": 0,
			"maximum": 1
		},
		"intent_routing": {
			"type": "object",
			"minProperties": 1,
			"patternProperties": {
				"^BUCKET_[ABC]$": {
					"type": "object",
					"required": ["intents"],
					"properties": {
						"description": {"type": "string"},
						"cost": {"type": "string"},
						"intents": {
							"type": "array",
							"items": {"type": "string"}
						}
					}
				}
			},
			"additionalProperties": false
		}
	}
}`

// defaultConfidenceThreshold applies when the document omits one and no
// override is configured.
const defaultConfidenceThreshold = 0.5

// routingDocument mirrors the JSON layout of routing_config.json.
type routingDocument struct {
	ConfidenceThreshold *float64                  `json:"confidence_threshold"`
	IntentRouting       map[string]bucketDocument `json:"intent_routing"`
}

type bucketDocument struct {
	Description string   `json:"description"`
	Cost        string   `json:"cost"`
	Intents     []string `json:"intents"`
}

// Entry is the routing information attached to a single intent.
type Entry struct {
	Bucket      Bucket
	Description string
	Cost        CostTier
}

// BucketInfo describes one bucket of the routing table.
type BucketInfo struct {
	Description string
	Cost        CostTier
	Intents     []string
}

// Table is the immutable intent-to-bucket mapping built from the routing
// configuration document. It is safe for concurrent readers.
type Table struct {
	confidenceThreshold float64
	buckets             map[Bucket]BucketInfo
	intents             map[string]Entry
}

// LoadTable reads, validates and indexes a routing configuration document.
// An override threshold, when non-nil, takes precedence over the document
// value.
func LoadTable(path string, thresholdOverride *float64) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewRoutingConfigMissingError(path)
		}
		return nil, fmt.Errorf("failed to read routing config: %w", err)
	}

	if err := validateRoutingDocument(raw); err != nil {
		return nil, err
	}

	var doc routingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewRoutingConfigInvalidError(err.Error())
	}

	return buildTable(doc, thresholdOverride)
}

func validateRoutingDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(routingDocumentSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errors.NewRoutingConfigInvalidError(err.Error())
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.NewRoutingConfigInvalidError(strings.Join(msgs, "; "))
	}
	return nil
}

func buildTable(doc routingDocument, thresholdOverride *float64) (*Table, error) {
	t := &Table{
		confidenceThreshold: defaultConfidenceThreshold,
		buckets:             make(map[Bucket]BucketInfo, len(doc.IntentRouting)),
		intents:             make(map[string]Entry),
	}
	if doc.ConfidenceThreshold != nil {
		t.confidenceThreshold = *doc.ConfidenceThreshold
	}
	if thresholdOverride != nil {
		t.confidenceThreshold = *thresholdOverride
	}

	for name, info := range doc.IntentRouting {
		bucket := Bucket(name)
		if !bucket.IsValid() {
			return nil, errors.NewRoutingConfigInvalidError(fmt.Sprintf("unknown bucket %q", name))
		}
		cost, err := parseCostTier(info.Cost, bucket)
		if err != nil {
			return nil, err
		}

		t.buckets[bucket] = BucketInfo{
			Description: info.Description,
			Cost:        cost,
			Intents:     append([]string(nil), info.Intents...),
		}
		for _, intent := range info.Intents {
			if existing, dup := t.intents[intent]; dup && existing.Bucket != bucket {
				return nil, errors.NewRoutingConfigInvalidError(
					fmt.Sprintf("intent %q mapped to both %s and %s", intent, existing.Bucket, bucket))
			}
			t.intents[intent] = Entry{
				Bucket:      bucket,
				Description: info.Description,
				Cost:        cost,
			}
		}
	}

	return t, nil
}

// parseCostTier normalizes the document's cost label. Documents in the
// wild carry mixed casing ("Zero", "low", "High"); unset falls back to
// the bucket's canonical tier.
func parseCostTier(s string, bucket Bucket) (CostTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero":
		return CostZero, nil
	case "low":
		return CostLow, nil
	case "high":
		return CostHigh, nil
	case "":
		switch bucket {
		case BucketA:
			return CostZero, nil
		case BucketB:
			return CostLow, nil
		default:
			return CostHigh, nil
		}
	default:
		return "", errors.NewRoutingConfigInvalidError(fmt.Sprintf("unknown cost tier %q", s))
	}
}

// ConfidenceThreshold returns the active confidence threshold.
func (t *Table) ConfidenceThreshold() float64 {
	return t.confidenceThreshold
}

// Lookup returns the routing entry for an intent.
func (t *Table) Lookup(intent string) (Entry, bool) {
	entry, ok := t.intents[intent]
	return entry, ok
}

// Buckets returns the configured bucket descriptors.
func (t *Table) Buckets() map[Bucket]BucketInfo {
	return t.buckets
}

// BucketStats summarizes one bucket for Stats.
type BucketStats struct {
	Count       int      `json:"count"`
	Percentage  float64  `json:"percentage"`
	Cost        CostTier `json:"cost"`
	Description string   `json:"description"`
}

// Stats describes the loaded routing table.
type Stats struct {
	TotalIntents        int                    `json:"total_intents"`
	ConfidenceThreshold float64                `json:"confidence_threshold"`
	BucketDistribution  map[string]BucketStats `json:"bucket_distribution"`
}

// Stats returns aggregate information about the routing table, keyed by
// bucket name in stable order for callers that iterate.
func (t *Table) Stats() Stats {
	total := len(t.intents)
	dist := make(map[string]BucketStats, len(t.buckets))

	names := make([]string, 0, len(t.buckets))
	for b := range t.buckets {
		names = append(names, string(b))
	}
	sort.Strings(names)

	for _, name := range names {
		info := t.buckets[Bucket(name)]
		pct := 0.0
		if total > 0 {
			pct = float64(len(info.Intents)) / float64(total) * 100
		}
		dist[name] = BucketStats{
			Count:       len(info.Intents),
			Percentage:  pct,
			Cost:        info.Cost,
			Description: info.Description,
		}
	}

	return Stats{
		TotalIntents:        total,
		ConfidenceThreshold: t.confidenceThreshold,
		BucketDistribution:  dist,
	}
}
