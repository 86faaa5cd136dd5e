package types

import (
	"github.com/shopspring/decimal"
)

// TariffKind selects how a tariff is charged.
type TariffKind string

const (
	// TariffKindGeneral charges all usage at a single rate.
	TariffKindGeneral TariffKind = "general"
	// TariffKindTOU charges peak, shoulder and off-peak usage separately.
	TariffKindTOU TariffKind = "tou"
	// TariffKindDemand charges all usage at a single rate plus a monthly
	// demand charge on the average peak demand.
	TariffKindDemand TariffKind = "demand"
)

// Tariff is a resolved rate table entry for one tariff, retailer and
// financial year. Supply charges are in c/day, usage charges in c/kWh and
// demand charges in c/kW/month, all excluding GST.
type Tariff struct {
	Name          string     `json:"name"`
	Retailer      string     `json:"retailer"`
	FinancialYear string     `json:"fy"`
	Kind          TariffKind `json:"kind"`

	SupplyCharge  float64 `json:"supplyCharge"`
	UsageAll      float64 `json:"usageAll"`
	UsagePeak     float64 `json:"usagePeak"`
	UsageShoulder float64 `json:"usageShoulder"`
	UsageOffPeak  float64 `json:"usageOffPeak"`

	DemandPeak        float64 `json:"demandPeak"`
	DemandOffPeak     float64 `json:"demandOffPeak"`
	// DemandShoulder and DemandShoulderMin are carried from the published rate
	// sheets for reference only. No bill reads them.
	DemandShoulder    float64 `json:"demandShoulder"`
	DemandShoulderMin float64 `json:"demandShoulderMin"`

	// Periods names the ToU period set the Rules were resolved from.
	Periods string   `json:"periods"`
	Rules   TOURules `json:"rules"`
}

// TariffInfo provides metadata about the rates available for a tariff.
type TariffInfo struct {
	Name           string     `json:"name"`
	Kind           TariffKind `json:"kind"`
	Retailers      []string   `json:"retailers"`
	FinancialYears []string   `json:"financialYears"`
}

// Charge is a quantity multiplied by a unit rate with GST added. Units and
// UnitRate are zero for totals.
type Charge struct {
	Units       float64         `json:"units"`
	UnitRate    float64         `json:"unitRate"`
	CostExclGST decimal.Decimal `json:"costExclGST"`
	GST         decimal.Decimal `json:"gst"`
	CostInclGST decimal.Decimal `json:"costInclGST"`
}

// Bill is the cost breakdown for one billing period. Only the charges that
// apply to the tariff kind are set.
type Bill struct {
	Tariff        string     `json:"tariff"`
	Retailer      string     `json:"retailer"`
	FinancialYear string     `json:"fy"`
	Kind          TariffKind `json:"kind"`
	Days          int        `json:"days"`

	Supply   Charge  `json:"supply"`
	All      *Charge `json:"all,omitempty"`
	Peak     *Charge `json:"peak,omitempty"`
	Shoulder *Charge `json:"shoulder,omitempty"`
	OffPeak  *Charge `json:"offpeak,omitempty"`
	Demand   *Charge `json:"demand,omitempty"`
	Total    Charge  `json:"total"`
}
