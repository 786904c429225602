package domain

import "context"

// Metric names used for caching and instrumentation.
const (
	MetricTopMerchant            = "top_merchant"
	MetricMonthlyActiveMerchants = "monthly_active_merchants"
	MetricProductAdoption        = "product_adoption"
	MetricKYCFunnel              = "kyc_funnel"
	MetricFailureRates           = "failure_rates"
)

// Service answers the five fixed analytical questions. Every operation is a
// pure read over the current store snapshot.
type Service interface {
	TopMerchant(ctx context.Context) (*TopMerchant, error)
	MonthlyActiveMerchants(ctx context.Context) (MonthlyActiveMerchants, error)
	ProductAdoption(ctx context.Context) (ProductAdoption, error)
	KYCFunnel(ctx context.Context) (*KYCFunnel, error)
	FailureRates(ctx context.Context) ([]FailureRate, error)
}
