package collateral

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("collateral account not found")
	ErrUnknownAssetTag = errors.New("unknown asset type tag")
)

type AssetType string

const (
	AssetCryptocurrency AssetType = "Cryptocurrency"
	AssetRealEstate     AssetType = "RealEstate"
	AssetSecurities     AssetType = "Securities"
	AssetCommodities    AssetType = "Commodities"
)

// AssetTypes lists every asset type in display order.
var AssetTypes = []AssetType{AssetCryptocurrency, AssetRealEstate, AssetSecurities, AssetCommodities}

func (a AssetType) Valid() bool {
	switch a {
	case AssetCryptocurrency, AssetRealEstate, AssetSecurities, AssetCommodities:
		return true
	}
	return false
}

func (a AssetType) Label() string {
	if a == AssetRealEstate {
		return "Real Estate"
	}
	return string(a)
}

// Status is Locked while the account secures an outstanding loan.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusLocked    Status = "Locked"
)

func (s Status) Valid() bool { return s == StatusAvailable || s == StatusLocked }

// Account is a deposited asset that can be pledged against one loan at a time.
// LockDate is set iff Status is Locked.
type Account struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	CollateralID string          `gorm:"size:32;uniqueIndex:ux_collateral_collateral_id" json:"id"`
	Owner        string          `gorm:"size:255;index:idx_collateral_owner" json:"owner"`
	AssetType    AssetType       `gorm:"type:enum('Cryptocurrency','RealEstate','Securities','Commodities')" json:"assetType"`
	Value        decimal.Decimal `gorm:"type:decimal(20,2)" json:"value"`
	Status       Status          `gorm:"type:enum('Available','Locked');default:'Available'" json:"status"`
	LockDate     *time.Time      `gorm:"type:date" json:"lockDate,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"-"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Account) TableName() string { return "collateral_accounts" }

func (a Account) IsLocked() bool { return a.Status == StatusLocked }
