package service

import (
	"context"
	"math"
	"sort"

	activitydomain "github.com/moniepoint/analytics/internal/activity/domain"
	"github.com/moniepoint/analytics/internal/analytics/domain"
	"github.com/moniepoint/analytics/internal/cache"
	obsmetrics "github.com/moniepoint/analytics/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
	Cache   cache.MetricCache   `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *obsmetrics.Metrics
	cache   cache.MetricCache
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("analytics.service"),
		metrics: p.Metrics,
		cache:   p.Cache,
	}
}

type topMerchantRow struct {
	MerchantID  string  `gorm:"column:merchant_id"`
	TotalVolume float64 `gorm:"column:total_volume"`
}

// TopMerchant returns the merchant with the highest total successful volume.
// Ties on volume resolve to the lexicographically smallest merchant_id.
func (s *Service) TopMerchant(ctx context.Context) (*domain.TopMerchant, error) {
	s.metrics.RecordMetricQuery(ctx, domain.MetricTopMerchant)

	var cached domain.TopMerchant
	if s.cacheGet(ctx, domain.MetricTopMerchant, &cached) {
		return &cached, nil
	}

	var rows []topMerchantRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT merchant_id, SUM(amount) AS total_volume
		 FROM merchant_activity
		 WHERE status = ?
		 GROUP BY merchant_id
		 ORDER BY total_volume DESC, merchant_id ASC
		 LIMIT 1`,
		activitydomain.StatusSuccess,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := &domain.TopMerchant{}
	if len(rows) > 0 {
		result.MerchantID = &rows[0].MerchantID
		result.TotalVolume = round2(rows[0].TotalVolume)
	}

	s.cacheSet(ctx, domain.MetricTopMerchant, result)
	return result, nil
}

type monthCountRow struct {
	Month           string `gorm:"column:month"`
	ActiveMerchants int64  `gorm:"column:active_merchants"`
}

// MonthlyActiveMerchants counts distinct merchants with at least one
// successful timestamped event per UTC calendar month.
func (s *Service) MonthlyActiveMerchants(ctx context.Context) (domain.MonthlyActiveMerchants, error) {
	s.metrics.RecordMetricQuery(ctx, domain.MetricMonthlyActiveMerchants)

	var cached domain.MonthlyActiveMerchants
	if s.cacheGet(ctx, domain.MetricMonthlyActiveMerchants, &cached) {
		return cached, nil
	}

	var rows []monthCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT `+s.monthExpr()+` AS month, COUNT(DISTINCT merchant_id) AS active_merchants
		 FROM merchant_activity
		 WHERE status = ? AND event_timestamp IS NOT NULL
		 GROUP BY month
		 ORDER BY month ASC`,
		activitydomain.StatusSuccess,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(domain.MonthlyActiveMerchants, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.MonthBucket{
			Month:           row.Month,
			ActiveMerchants: row.ActiveMerchants,
		})
	}

	s.cacheSet(ctx, domain.MetricMonthlyActiveMerchants, result)
	return result, nil
}

type productCountRow struct {
	Product   activitydomain.Product `gorm:"column:product"`
	Merchants int64                  `gorm:"column:merchants"`
}

// ProductAdoption counts distinct merchants per product across all statuses,
// sorted by count descending. Ties resolve by the fixed product order.
func (s *Service) ProductAdoption(ctx context.Context) (domain.ProductAdoption, error) {
	s.metrics.RecordMetricQuery(ctx, domain.MetricProductAdoption)

	var cached domain.ProductAdoption
	if s.cacheGet(ctx, domain.MetricProductAdoption, &cached) {
		return cached, nil
	}

	var rows []productCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT product, COUNT(DISTINCT merchant_id) AS merchants
		 FROM merchant_activity
		 GROUP BY product`,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Merchants != rows[j].Merchants {
			return rows[i].Merchants > rows[j].Merchants
		}
		return activitydomain.ProductRank(rows[i].Product) < activitydomain.ProductRank(rows[j].Product)
	})

	result := make(domain.ProductAdoption, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.ProductCount{Product: row.Product, Merchants: row.Merchants})
	}

	s.cacheSet(ctx, domain.MetricProductAdoption, result)
	return result, nil
}

type kycStageRow struct {
	Stage     activitydomain.KYCEventType `gorm:"column:kyc_event_type"`
	Merchants int64                       `gorm:"column:merchants"`
}

// KYCFunnel counts distinct merchants per verification stage over successful
// KYC events. Stages with no events report zero.
func (s *Service) KYCFunnel(ctx context.Context) (*domain.KYCFunnel, error) {
	s.metrics.RecordMetricQuery(ctx, domain.MetricKYCFunnel)

	var cached domain.KYCFunnel
	if s.cacheGet(ctx, domain.MetricKYCFunnel, &cached) {
		return &cached, nil
	}

	var rows []kycStageRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT kyc_event_type, COUNT(DISTINCT merchant_id) AS merchants
		 FROM merchant_activity
		 WHERE product = ? AND status = ? AND kyc_event_type IS NOT NULL
		 GROUP BY kyc_event_type`,
		activitydomain.ProductKYC,
		activitydomain.StatusSuccess,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := &domain.KYCFunnel{}
	for _, row := range rows {
		switch row.Stage {
		case activitydomain.KYCDocumentSubmitted:
			result.DocumentsSubmitted = row.Merchants
		case activitydomain.KYCVerificationCompleted:
			result.VerificationsCompleted = row.Merchants
		case activitydomain.KYCTierUpgrade:
			result.TierUpgrades = row.Merchants
		}
	}

	s.cacheSet(ctx, domain.MetricKYCFunnel, result)
	return result, nil
}

type failureStatRow struct {
	Product activitydomain.Product `gorm:"column:product"`
	Total   int64                  `gorm:"column:total"`
	Failed  int64                  `gorm:"column:failed"`
}

// FailureRates computes FAILED / (SUCCESS + FAILED) per product, ignoring
// PENDING entirely. Products without settled events are omitted. Results are
// sorted by rate descending; ties resolve by the fixed product order.
func (s *Service) FailureRates(ctx context.Context) ([]domain.FailureRate, error) {
	s.metrics.RecordMetricQuery(ctx, domain.MetricFailureRates)

	var cached []domain.FailureRate
	if s.cacheGet(ctx, domain.MetricFailureRates, &cached) {
		return cached, nil
	}

	var rows []failureStatRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT product,
		        COUNT(*) AS total,
		        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed
		 FROM merchant_activity
		 WHERE status IN ?
		 GROUP BY product`,
		activitydomain.StatusFailed,
		[]activitydomain.Status{activitydomain.StatusSuccess, activitydomain.StatusFailed},
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]domain.FailureRate, 0, len(rows))
	for _, row := range rows {
		if row.Total == 0 {
			continue
		}
		rate := float64(row.Failed) / float64(row.Total) * 100
		result = append(result, domain.FailureRate{
			Product:     row.Product,
			FailureRate: round1(rate),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].FailureRate != result[j].FailureRate {
			return result[i].FailureRate > result[j].FailureRate
		}
		return activitydomain.ProductRank(result[i].Product) < activitydomain.ProductRank(result[j].Product)
	})

	s.cacheSet(ctx, domain.MetricFailureRates, result)
	return result, nil
}

// monthExpr formats event_timestamp as "YYYY-MM" for the active dialect.
// Timestamps are stored in UTC, so no zone conversion happens here.
func (s *Service) monthExpr() string {
	switch s.db.Dialector.Name() {
	case "postgres":
		return "to_char(event_timestamp, 'YYYY-MM')"
	case "mysql":
		return "DATE_FORMAT(event_timestamp, '%Y-%m')"
	default:
		return "strftime('%Y-%m', event_timestamp)"
	}
}

func (s *Service) cacheGet(ctx context.Context, metric string, dest any) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Get(ctx, metric, dest)
}

func (s *Service) cacheSet(ctx context.Context, metric string, value any) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, metric, value)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
