package service

import (
	"testing"
	"time"

	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() map[string]string {
	return map[string]string{
		"event_id":        "evt-1",
		"merchant_id":     "M001",
		"product":         "POS",
		"status":          "SUCCESS",
		"channel":         "APP",
		"region":          "LAGOS",
		"merchant_tier":   "VERIFIED",
		"amount":          "1500.50",
		"event_timestamp": "2024-03-01T10:00:00Z",
		"kyc_event_type":  "",
	}
}

func TestNormalizeRow_Valid(t *testing.T) {
	event, rowErr := normalizeRow(validRow(), 2)
	require.Nil(t, rowErr)

	assert.Equal(t, "evt-1", event.EventID)
	assert.Equal(t, "M001", event.MerchantID)
	assert.Equal(t, activitydomain.ProductPOS, event.Product)
	assert.Equal(t, activitydomain.StatusSuccess, event.Status)
	assert.Equal(t, activitydomain.ChannelApp, event.Channel)
	assert.Equal(t, "LAGOS", event.Region)
	assert.Equal(t, activitydomain.TierVerified, event.MerchantTier)
	assert.Equal(t, 1500.50, event.Amount)
	require.NotNil(t, event.EventTimestamp)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *event.EventTimestamp)
	assert.Nil(t, event.KYCEventType)
}

func TestNormalizeRow_Defaulting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		check  func(*testing.T, *activitydomain.ActivityEvent)
	}{
		{
			name:   "empty channel falls back to UNKNOWN",
			mutate: func(r map[string]string) { r["channel"] = "" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, activitydomain.ChannelUnknown, e.Channel)
			},
		},
		{
			name:   "unrecognized channel falls back to UNKNOWN",
			mutate: func(r map[string]string) { r["channel"] = "CARRIER_PIGEON" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, activitydomain.ChannelUnknown, e.Channel)
			},
		},
		{
			name:   "empty region falls back to UNKNOWN",
			mutate: func(r map[string]string) { r["region"] = "  " },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, "UNKNOWN", e.Region)
			},
		},
		{
			name:   "empty tier defaults to STARTER",
			mutate: func(r map[string]string) { r["merchant_tier"] = "" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, activitydomain.TierStarter, e.MerchantTier)
			},
		},
		{
			name:   "empty amount defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "unparsable amount defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "twelve" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "negative amount defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "-45.10" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "NaN amount defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "NaN" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "infinite amount defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "+Inf" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "spelled-out infinity defaults to zero",
			mutate: func(r map[string]string) { r["amount"] = "Infinity" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Zero(t, e.Amount)
			},
		},
		{
			name:   "amount is rounded to two decimals",
			mutate: func(r map[string]string) { r["amount"] = "10.456" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, 10.46, e.Amount)
			},
		},
		{
			name:   "unparsable timestamp stored as null",
			mutate: func(r map[string]string) { r["event_timestamp"] = "not-a-date" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Nil(t, e.EventTimestamp)
			},
		},
		{
			name:   "empty timestamp stored as null",
			mutate: func(r map[string]string) { r["event_timestamp"] = "" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Nil(t, e.EventTimestamp)
			},
		},
		{
			name:   "naive timestamp interpreted as UTC",
			mutate: func(r map[string]string) { r["event_timestamp"] = "2024-03-01 10:00:00" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				require.NotNil(t, e.EventTimestamp)
				assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *e.EventTimestamp)
			},
		},
		{
			name:   "kyc event type set when present",
			mutate: func(r map[string]string) { r["kyc_event_type"] = "tier_upgrade" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				require.NotNil(t, e.KYCEventType)
				assert.Equal(t, activitydomain.KYCTierUpgrade, *e.KYCEventType)
			},
		},
		{
			name:   "lowercase enums are accepted",
			mutate: func(r map[string]string) { r["product"] = "savings"; r["status"] = "pending" },
			check: func(t *testing.T, e *activitydomain.ActivityEvent) {
				assert.Equal(t, activitydomain.ProductSavings, e.Product)
				assert.Equal(t, activitydomain.StatusPending, e.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			event, rowErr := normalizeRow(row, 2)
			require.Nil(t, rowErr)
			tt.check(t, event)
		})
	}
}

func TestNormalizeRow_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing event_id", func(r map[string]string) { r["event_id"] = " " }},
		{"missing merchant_id", func(r map[string]string) { r["merchant_id"] = "" }},
		{"unknown product", func(r map[string]string) { r["product"] = "LOANS" }},
		{"missing product", func(r map[string]string) { r["product"] = "" }},
		{"unknown status", func(r map[string]string) { r["status"] = "DONE" }},
		{"unknown merchant tier", func(r map[string]string) { r["merchant_tier"] = "GOLD" }},
		{"unknown kyc event type", func(r map[string]string) { r["kyc_event_type"] = "SELFIE_UPLOADED" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			event, rowErr := normalizeRow(row, 7)
			assert.Nil(t, event)
			require.NotNil(t, rowErr)
			assert.Equal(t, 7, rowErr.Line)
			assert.NotEmpty(t, rowErr.Reason)
		})
	}
}

func TestValidateHeader(t *testing.T) {
	t.Run("exact set in any order passes", func(t *testing.T) {
		header := []string{
			"kyc_event_type", "event_timestamp", "amount", "merchant_tier", "region",
			"channel", "status", "product", "merchant_id", "event_id",
		}
		assert.NoError(t, validateHeader(header))
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		header := append([]string{}, expectedColumns...)
		header[0] = " Event_ID "
		assert.NoError(t, validateHeader(header))
	})

	t.Run("missing column fails", func(t *testing.T) {
		err := validateHeader(expectedColumns[:len(expectedColumns)-1])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kyc_event_type")
	})

	t.Run("extra column fails", func(t *testing.T) {
		header := append(append([]string{}, expectedColumns...), "loyalty_points")
		assert.Error(t, validateHeader(header))
	})

	t.Run("duplicated column fails", func(t *testing.T) {
		header := append(append([]string{}, expectedColumns...), "event_id")
		err := validateHeader(header)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicated")
		assert.Contains(t, err.Error(), "event_id")
	})
}
