// Package domain contains the metric result types served by the
// aggregation engine.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
)

// TopMerchant is the merchant with the highest total successful volume.
// MerchantID is nil when the store holds no successful events.
type TopMerchant struct {
	MerchantID  *string `json:"merchant_id"`
	TotalVolume float64 `json:"total_volume"`
}

// MonthBucket is the distinct-merchant count for one UTC calendar month.
type MonthBucket struct {
	Month           string `json:"month"`
	ActiveMerchants int64  `json:"active_merchants"`
}

// MonthlyActiveMerchants is an ordered month-to-count mapping, chronological.
// It serializes as a single JSON object keyed by "YYYY-MM" so the wire shape
// stays a mapping while the order is preserved.
type MonthlyActiveMerchants []MonthBucket

func (m MonthlyActiveMerchants) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bucket := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bucket.Month)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", bucket.ActiveMerchants)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *MonthlyActiveMerchants) UnmarshalJSON(data []byte) error {
	buckets, err := decodeOrderedCounts(data)
	if err != nil {
		return err
	}
	out := make(MonthlyActiveMerchants, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthBucket{Month: b.key, ActiveMerchants: b.count})
	}
	*m = out
	return nil
}

// ProductCount is the distinct-merchant count for one product.
type ProductCount struct {
	Product   activitydomain.Product `json:"product"`
	Merchants int64                  `json:"merchants"`
}

// ProductAdoption is an ordered product-to-count mapping, highest first. It
// serializes as a single JSON object like MonthlyActiveMerchants.
type ProductAdoption []ProductCount

func (p ProductAdoption) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(entry.Product))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Merchants)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *ProductAdoption) UnmarshalJSON(data []byte) error {
	entries, err := decodeOrderedCounts(data)
	if err != nil {
		return err
	}
	out := make(ProductAdoption, 0, len(entries))
	for _, e := range entries {
		out = append(out, ProductCount{Product: activitydomain.Product(e.key), Merchants: e.count})
	}
	*p = out
	return nil
}

type orderedCount struct {
	key   string
	count int64
}

// decodeOrderedCounts reads a flat JSON object of integer values, keeping key
// order as it appears in the document.
func decodeOrderedCounts(data []byte) ([]orderedCount, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var out []orderedCount
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected numeric value for %q, got %v", key, valTok)
		}
		count, err := num.Int64()
		if err != nil {
			return nil, err
		}
		out = append(out, orderedCount{key: key, count: count})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// KYCFunnel counts distinct merchants at each verification stage. All three
// keys are always present.
type KYCFunnel struct {
	DocumentsSubmitted     int64 `json:"documents_submitted"`
	VerificationsCompleted int64 `json:"verifications_completed"`
	TierUpgrades           int64 `json:"tier_upgrades"`
}

// FailureRate is the failure percentage for one product, 1 fraction digit.
type FailureRate struct {
	Product     activitydomain.Product `json:"product"`
	FailureRate float64                `json:"failure_rate"`
}
