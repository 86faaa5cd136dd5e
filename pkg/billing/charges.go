// Package billing prices usage against a tariff.
//
// All amounts are in cents and carried as decimals so totals add up exactly
// to the line items they are built from.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// GSTRate is the Goods and Services Tax added to every charge.
const GSTRate = 0.1

var gst = decimal.NewFromFloat(GSTRate)

// CalculateCharge multiplies units by a unit rate and adds GST.
func CalculateCharge(units, unitRate float64) types.Charge {
	cost := decimal.NewFromFloat(units).Mul(decimal.NewFromFloat(unitRate))
	return withGST(types.Charge{
		Units:       units,
		UnitRate:    unitRate,
		CostExclGST: cost,
	})
}

// Total sums the cost excluding GST of charges and adds GST to the sum.
func Total(charges ...types.Charge) types.Charge {
	cost := decimal.Zero
	for _, c := range charges {
		cost = cost.Add(c.CostExclGST)
	}
	return withGST(types.Charge{CostExclGST: cost})
}

func withGST(c types.Charge) types.Charge {
	c.GST = c.CostExclGST.Mul(gst)
	c.CostInclGST = c.CostExclGST.Add(c.GST)
	return c
}

func newBill(t types.Tariff, days int) *types.Bill {
	return &types.Bill{
		Tariff:        t.Name,
		Retailer:      t.Retailer,
		FinancialYear: t.FinancialYear,
		Kind:          t.Kind,
		Days:          days,
		Supply:        CalculateCharge(float64(days), t.SupplyCharge),
	}
}

// GeneralCharges bills all usage at a single rate.
func GeneralCharges(t types.Tariff, days int, usage float64) *types.Bill {
	bill := newBill(t, days)
	all := CalculateCharge(usage, t.UsageAll)
	bill.All = &all
	bill.Total = Total(bill.Supply, all)
	return bill
}

// TOUCharges bills peak, shoulder and off-peak usage at their own rates.
func TOUCharges(t types.Tariff, days int, peak, shoulder, offpeak float64) *types.Bill {
	bill := newBill(t, days)
	p := CalculateCharge(peak, t.UsagePeak)
	s := CalculateCharge(shoulder, t.UsageShoulder)
	o := CalculateCharge(offpeak, t.UsageOffPeak)
	bill.Peak, bill.Shoulder, bill.OffPeak = &p, &s, &o
	bill.Total = Total(bill.Supply, p, s, o)
	return bill
}

// TOUDemandCharges bills all usage at a single rate plus the chargeable demand
// in kW at the peak or off-peak season demand rate.
func TOUDemandCharges(t types.Tariff, days int, usage, demand float64, peakSeason bool) *types.Bill {
	bill := newBill(t, days)
	all := CalculateCharge(usage, t.UsageAll)
	rate := t.DemandOffPeak
	if peakSeason {
		rate = t.DemandPeak
	}
	d := CalculateCharge(demand, rate)
	bill.All, bill.Demand = &all, &d
	bill.Total = Total(bill.Supply, all, d)
	return bill
}

// MonthlyBill prices a month of usage according to the tariff kind. The
// demand tariff uses its peak season rate in months covered by the peak
// window.
func MonthlyBill(t types.Tariff, month types.MonthKey, usage types.MonthUsage) (*types.Bill, error) {
	switch t.Kind {
	case types.TariffKindGeneral:
		return GeneralCharges(t, usage.Days, usage.Total), nil
	case types.TariffKindTOU:
		return TOUCharges(t, usage.Days, usage.Peak, usage.Shoulder, usage.OffPeak), nil
	case types.TariffKindDemand:
		return TOUDemandCharges(t, usage.Days, usage.Total, usage.Demand, t.Rules.IsPeakSeason(month.Month)), nil
	default:
		return nil, fmt.Errorf("%w: unknown tariff kind %q", types.ErrInvalidConfiguration, t.Kind)
	}
}
