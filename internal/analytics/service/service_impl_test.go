package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/moniepoint/analytics/internal/analytics/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:analytics_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&activitydomain.ActivityEvent{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	return NewService(Params{DB: db, Log: zap.NewNop()})
}

var eventSeq atomic.Int64

type eventOpt func(*activitydomain.ActivityEvent)

func withStatus(s activitydomain.Status) eventOpt {
	return func(e *activitydomain.ActivityEvent) { e.Status = s }
}

func withAmount(v float64) eventOpt {
	return func(e *activitydomain.ActivityEvent) { e.Amount = v }
}

func withTimestamp(ts time.Time) eventOpt {
	return func(e *activitydomain.ActivityEvent) { utc := ts.UTC(); e.EventTimestamp = &utc }
}

func withKYCStage(stage activitydomain.KYCEventType) eventOpt {
	return func(e *activitydomain.ActivityEvent) { e.KYCEventType = &stage }
}

func seedEvent(t *testing.T, db *gorm.DB, merchantID string, product activitydomain.Product, opts ...eventOpt) {
	t.Helper()

	event := &activitydomain.ActivityEvent{
		EventID:      fmt.Sprintf("evt-%d", eventSeq.Add(1)),
		MerchantID:   merchantID,
		Product:      product,
		Status:       activitydomain.StatusSuccess,
		Channel:      activitydomain.ChannelApp,
		Region:       "LAGOS",
		MerchantTier: activitydomain.TierVerified,
	}
	for _, opt := range opts {
		opt(event)
	}
	require.NoError(t, db.Create(event).Error)
}

func TestTopMerchant(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M1", activitydomain.ProductPOS, withAmount(100.00))
	seedEvent(t, db, "M1", activitydomain.ProductAirtime, withAmount(50.00))
	seedEvent(t, db, "M2", activitydomain.ProductPOS, withAmount(120.00))
	seedEvent(t, db, "M2", activitydomain.ProductPOS, withAmount(500.00), withStatus(activitydomain.StatusFailed))

	result, err := svc.TopMerchant(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.MerchantID)
	assert.Equal(t, "M1", *result.MerchantID)
	assert.Equal(t, 150.00, result.TotalVolume)
}

func TestTopMerchant_TieResolvesToSmallestID(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M9", activitydomain.ProductPOS, withAmount(150.00))
	seedEvent(t, db, "M1", activitydomain.ProductPOS, withAmount(150.00))

	result, err := svc.TopMerchant(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.MerchantID)
	assert.Equal(t, "M1", *result.MerchantID)
}

func TestTopMerchant_EmptyStore(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	result, err := svc.TopMerchant(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.MerchantID)
	assert.Zero(t, result.TotalVolume)
}

func TestMonthlyActiveMerchants(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)

	// two successes in the same month count once
	seedEvent(t, db, "M1", activitydomain.ProductPOS, withTimestamp(jan))
	seedEvent(t, db, "M1", activitydomain.ProductBills, withTimestamp(jan.Add(48*time.Hour)))
	seedEvent(t, db, "M2", activitydomain.ProductPOS, withTimestamp(jan))
	seedEvent(t, db, "M1", activitydomain.ProductPOS, withTimestamp(feb))
	// excluded: failed status, missing timestamp
	seedEvent(t, db, "M3", activitydomain.ProductPOS, withTimestamp(jan), withStatus(activitydomain.StatusFailed))
	seedEvent(t, db, "M4", activitydomain.ProductPOS)

	result, err := svc.MonthlyActiveMerchants(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, domain.MonthBucket{Month: "2024-01", ActiveMerchants: 2}, result[0])
	assert.Equal(t, domain.MonthBucket{Month: "2024-02", ActiveMerchants: 1}, result[1])
}

func TestProductAdoption(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// all statuses count toward adoption
	seedEvent(t, db, "M1", activitydomain.ProductBills)
	seedEvent(t, db, "M2", activitydomain.ProductBills, withStatus(activitydomain.StatusFailed))
	seedEvent(t, db, "M3", activitydomain.ProductBills, withStatus(activitydomain.StatusPending))
	seedEvent(t, db, "M1", activitydomain.ProductPOS)
	seedEvent(t, db, "M1", activitydomain.ProductPOS)

	result, err := svc.ProductAdoption(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, domain.ProductCount{Product: activitydomain.ProductBills, Merchants: 3}, result[0])
	assert.Equal(t, domain.ProductCount{Product: activitydomain.ProductPOS, Merchants: 1}, result[1])
}

func TestProductAdoption_TieBreaksByProductOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M1", activitydomain.ProductSavings)
	seedEvent(t, db, "M1", activitydomain.ProductAirtime)

	result, err := svc.ProductAdoption(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, activitydomain.ProductAirtime, result[0].Product)
	assert.Equal(t, activitydomain.ProductSavings, result[1].Product)
}

func TestKYCFunnel(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M1", activitydomain.ProductKYC, withKYCStage(activitydomain.KYCDocumentSubmitted))
	seedEvent(t, db, "M1", activitydomain.ProductKYC, withKYCStage(activitydomain.KYCDocumentSubmitted))
	seedEvent(t, db, "M2", activitydomain.ProductKYC, withKYCStage(activitydomain.KYCDocumentSubmitted))
	seedEvent(t, db, "M1", activitydomain.ProductKYC, withKYCStage(activitydomain.KYCVerificationCompleted))
	// pending stages never count
	seedEvent(t, db, "M3", activitydomain.ProductKYC,
		withKYCStage(activitydomain.KYCDocumentSubmitted), withStatus(activitydomain.StatusPending))

	result, err := svc.KYCFunnel(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, result.DocumentsSubmitted)
	assert.EqualValues(t, 1, result.VerificationsCompleted)
	assert.EqualValues(t, 0, result.TierUpgrades)
}

func TestKYCFunnel_EmptyStoreKeepsAllKeys(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	result, err := svc.KYCFunnel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.KYCFunnel{}, result)
}

func TestFailureRates(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// BILLS: 3 SUCCESS, 1 FAILED, 5 PENDING -> 25.0
	for i := 0; i < 3; i++ {
		seedEvent(t, db, "M1", activitydomain.ProductBills)
	}
	seedEvent(t, db, "M1", activitydomain.ProductBills, withStatus(activitydomain.StatusFailed))
	for i := 0; i < 5; i++ {
		seedEvent(t, db, "M1", activitydomain.ProductBills, withStatus(activitydomain.StatusPending))
	}
	// AIRTIME: 1 SUCCESS, 2 FAILED -> 66.7
	seedEvent(t, db, "M1", activitydomain.ProductAirtime)
	seedEvent(t, db, "M1", activitydomain.ProductAirtime, withStatus(activitydomain.StatusFailed))
	seedEvent(t, db, "M2", activitydomain.ProductAirtime, withStatus(activitydomain.StatusFailed))
	// SAVINGS has only PENDING events and must be absent
	seedEvent(t, db, "M1", activitydomain.ProductSavings, withStatus(activitydomain.StatusPending))

	result, err := svc.FailureRates(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, domain.FailureRate{Product: activitydomain.ProductAirtime, FailureRate: 66.7}, result[0])
	assert.Equal(t, domain.FailureRate{Product: activitydomain.ProductBills, FailureRate: 25.0}, result[1])
}

func TestFailureRates_TieBreaksByProductOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M1", activitydomain.ProductMoniebook, withStatus(activitydomain.StatusFailed))
	seedEvent(t, db, "M1", activitydomain.ProductCardPayment, withStatus(activitydomain.StatusFailed))

	result, err := svc.FailureRates(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, activitydomain.ProductCardPayment, result[0].Product)
	assert.Equal(t, activitydomain.ProductMoniebook, result[1].Product)
}

func TestMetricsAreRepeatable(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedEvent(t, db, "M1", activitydomain.ProductPOS, withAmount(10.00))
	seedEvent(t, db, "M2", activitydomain.ProductBills, withStatus(activitydomain.StatusFailed))

	first, err := svc.ProductAdoption(context.Background())
	require.NoError(t, err)
	second, err := svc.ProductAdoption(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
