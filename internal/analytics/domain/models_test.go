package domain

import (
	"encoding/json"
	"testing"

	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyActiveMerchantsJSON(t *testing.T) {
	value := MonthlyActiveMerchants{
		{Month: "2024-01", ActiveMerchants: 8234},
		{Month: "2024-02", ActiveMerchants: 8456},
	}

	payload, err := json.Marshal(value)
	require.NoError(t, err)
	assert.Equal(t, `{"2024-01":8234,"2024-02":8456}`, string(payload))

	var decoded MonthlyActiveMerchants
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, value, decoded)
}

func TestMonthlyActiveMerchantsJSON_Empty(t *testing.T) {
	payload, err := json.Marshal(MonthlyActiveMerchants{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(payload))
}

func TestProductAdoptionJSON(t *testing.T) {
	value := ProductAdoption{
		{Product: activitydomain.ProductPOS, Merchants: 15234},
		{Product: activitydomain.ProductAirtime, Merchants: 12456},
	}

	payload, err := json.Marshal(value)
	require.NoError(t, err)
	assert.Equal(t, `{"POS":15234,"AIRTIME":12456}`, string(payload))

	var decoded ProductAdoption
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, value, decoded)
}

func TestTopMerchantJSON_NullMerchant(t *testing.T) {
	payload, err := json.Marshal(&TopMerchant{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"merchant_id":null,"total_volume":0}`, string(payload))
}
