// Package domain contains the canonical merchant activity event model.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Product is the closed set of product categories.
type Product string

const (
	ProductPOS         Product = "POS"
	ProductAirtime     Product = "AIRTIME"
	ProductBills       Product = "BILLS"
	ProductCardPayment Product = "CARD_PAYMENT"
	ProductSavings     Product = "SAVINGS"
	ProductMoniebook   Product = "MONIEBOOK"
	ProductKYC         Product = "KYC"
)

// Products lists every product in its fixed order. The order is part of the
// aggregation contract: it breaks count ties deterministically.
var Products = []Product{
	ProductPOS,
	ProductAirtime,
	ProductBills,
	ProductCardPayment,
	ProductSavings,
	ProductMoniebook,
	ProductKYC,
}

// ProductRank returns the position of p in the fixed product order, or
// len(Products) when p is not a known product.
func ProductRank(p Product) int {
	for i, known := range Products {
		if known == p {
			return i
		}
	}
	return len(Products)
}

// ParseProduct normalizes and validates a raw product value.
func ParseProduct(raw string) (Product, error) {
	value := Product(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case ProductPOS, ProductAirtime, ProductBills, ProductCardPayment,
		ProductSavings, ProductMoniebook, ProductKYC:
		return value, nil
	default:
		return "", fmt.Errorf("unknown product %q", raw)
	}
}

// Status is the closed set of event outcomes.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// ParseStatus normalizes and validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	value := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case StatusSuccess, StatusFailed, StatusPending:
		return value, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// Channel is the set of origination channels. ChannelUnknown is a sentinel
// for rows that carry no channel, not part of the documented set.
type Channel string

const (
	ChannelPOS     Channel = "POS"
	ChannelApp     Channel = "APP"
	ChannelUSSD    Channel = "USSD"
	ChannelWeb     Channel = "WEB"
	ChannelOffline Channel = "OFFLINE"
	ChannelUnknown Channel = "UNKNOWN"
)

// ParseChannel normalizes a raw channel value. Empty or unrecognized input
// falls back to ChannelUnknown; channel is advisory, never a reason to drop
// a row.
func ParseChannel(raw string) Channel {
	value := Channel(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case ChannelPOS, ChannelApp, ChannelUSSD, ChannelWeb, ChannelOffline:
		return value
	default:
		return ChannelUnknown
	}
}

// MerchantTier is the closed set of KYC tiers.
type MerchantTier string

const (
	TierStarter  MerchantTier = "STARTER"
	TierVerified MerchantTier = "VERIFIED"
	TierPremium  MerchantTier = "PREMIUM"
)

// ParseMerchantTier normalizes a raw tier value. Empty input defaults to
// STARTER; a non-empty value outside the closed set is rejected.
func ParseMerchantTier(raw string) (MerchantTier, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TierStarter, nil
	}
	value := MerchantTier(strings.ToUpper(trimmed))
	switch value {
	case TierStarter, TierVerified, TierPremium:
		return value, nil
	default:
		return "", fmt.Errorf("unknown merchant tier %q", raw)
	}
}

// KYCEventType is the closed set of KYC funnel stages.
type KYCEventType string

const (
	KYCDocumentSubmitted     KYCEventType = "DOCUMENT_SUBMITTED"
	KYCVerificationCompleted KYCEventType = "VERIFICATION_COMPLETED"
	KYCTierUpgrade           KYCEventType = "TIER_UPGRADE"
)

// ParseKYCEventType normalizes a raw KYC event type. Empty input yields nil;
// a non-empty value outside the closed set is rejected.
func ParseKYCEventType(raw string) (*KYCEventType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value := KYCEventType(strings.ToUpper(trimmed))
	switch value {
	case KYCDocumentSubmitted, KYCVerificationCompleted, KYCTierUpgrade:
		return &value, nil
	default:
		return nil, fmt.Errorf("unknown kyc event type %q", raw)
	}
}

// RoundAmount rounds a monetary value to 2 fraction digits.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// ActivityEvent is one immutable record of a merchant interacting with a
// product. The store is append-only: rows are written once by the importer
// and never updated.
type ActivityEvent struct {
	EventID        string        `gorm:"primaryKey;type:text;column:event_id" json:"event_id"`
	MerchantID     string        `gorm:"type:text;not null;column:merchant_id;index;index:idx_merchant_activity_merchant_status,priority:1" json:"merchant_id"`
	Product        Product       `gorm:"type:text;not null;column:product;index;index:idx_merchant_activity_product_status,priority:1" json:"product"`
	Status         Status        `gorm:"type:text;not null;column:status;index;index:idx_merchant_activity_merchant_status,priority:2;index:idx_merchant_activity_product_status,priority:2" json:"status"`
	Channel        Channel       `gorm:"type:text;not null;column:channel" json:"channel"`
	Region         string        `gorm:"type:text;not null;column:region" json:"region"`
	MerchantTier   MerchantTier  `gorm:"type:text;not null;column:merchant_tier" json:"merchant_tier"`
	Amount         float64       `gorm:"type:numeric(15,2);not null;column:amount" json:"amount"`
	EventTimestamp *time.Time    `gorm:"column:event_timestamp;index" json:"event_timestamp"`
	KYCEventType   *KYCEventType `gorm:"type:text;column:kyc_event_type" json:"kyc_event_type"`
}

// TableName keeps the table name from the analytics schema.
func (ActivityEvent) TableName() string { return "merchant_activity" }
