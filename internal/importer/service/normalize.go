package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/moniepoint/analytics/internal/importer/domain"
)

// expectedColumns is the exact header contract for activity files. Column
// order in the file is irrelevant; the set must match.
var expectedColumns = []string{
	"event_id",
	"merchant_id",
	"product",
	"status",
	"channel",
	"region",
	"merchant_tier",
	"amount",
	"event_timestamp",
	"kyc_event_type",
}

// timestampLayouts are tried in order when parsing event timestamps. Naive
// timestamps are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeRow turns one raw row into a typed event or a row-level error.
// It never panics and never aborts the run; defaulting rules absorb what
// they can, and only structurally unusable rows are rejected.
func normalizeRow(row map[string]string, line int) (*activitydomain.ActivityEvent, *domain.RowError) {
	eventID := strings.TrimSpace(row["event_id"])
	if eventID == "" {
		return nil, &domain.RowError{Line: line, Reason: "missing event_id"}
	}

	merchantID := strings.TrimSpace(row["merchant_id"])
	if merchantID == "" {
		return nil, &domain.RowError{Line: line, Reason: "missing merchant_id"}
	}

	product, err := activitydomain.ParseProduct(row["product"])
	if err != nil {
		return nil, &domain.RowError{Line: line, Reason: err.Error()}
	}

	status, err := activitydomain.ParseStatus(row["status"])
	if err != nil {
		return nil, &domain.RowError{Line: line, Reason: err.Error()}
	}

	tier, err := activitydomain.ParseMerchantTier(row["merchant_tier"])
	if err != nil {
		return nil, &domain.RowError{Line: line, Reason: err.Error()}
	}

	kycEventType, err := activitydomain.ParseKYCEventType(row["kyc_event_type"])
	if err != nil {
		return nil, &domain.RowError{Line: line, Reason: err.Error()}
	}

	region := strings.TrimSpace(row["region"])
	if region == "" {
		region = "UNKNOWN"
	}

	return &activitydomain.ActivityEvent{
		EventID:        eventID,
		MerchantID:     merchantID,
		Product:        product,
		Status:         status,
		Channel:        activitydomain.ParseChannel(row["channel"]),
		Region:         region,
		MerchantTier:   tier,
		Amount:         parseAmount(row["amount"]),
		EventTimestamp: parseTimestamp(row["event_timestamp"]),
		KYCEventType:   kycEventType,
	}, nil
}

// parseAmount reads a non-negative monetary value. Empty, unparsable or
// negative input falls back to 0.00 instead of rejecting the row.
func parseAmount(raw string) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return activitydomain.RoundAmount(amount)
}

// parseTimestamp reads an event timestamp as UTC. Empty or unparsable input
// is stored as null.
func parseTimestamp(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

// validateHeader checks that the file header carries exactly the expected
// column set, in any order.
func validateHeader(header []string) error {
	seen := make(map[string]int, len(header))
	for _, col := range header {
		seen[strings.TrimSpace(strings.ToLower(col))]++
	}

	var missing, duplicated []string
	for _, col := range expectedColumns {
		switch {
		case seen[col] == 0:
			missing = append(missing, col)
		case seen[col] > 1:
			duplicated = append(duplicated, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	if len(duplicated) > 0 {
		return fmt.Errorf("duplicated columns in header: %s", strings.Join(duplicated, ", "))
	}
	if len(header) != len(expectedColumns) {
		return fmt.Errorf("unexpected columns in header: got %d, want %d", len(header), len(expectedColumns))
	}
	return nil
}
