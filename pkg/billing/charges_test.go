package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldtariffs/qldtariffs/pkg/tariff"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

func lookup(t *testing.T, name, retailer string) types.Tariff {
	t.Helper()
	table, err := tariff.Default()
	require.NoError(t, err)
	rates, err := table.Lookup(name, retailer, "2016")
	require.NoError(t, err)
	return rates
}

func TestCalculateCharge(t *testing.T) {
	c := CalculateCharge(31, 60.514)
	assert.Equal(t, 31.0, c.Units)
	assert.Equal(t, 60.514, c.UnitRate)
	assert.True(t, decimal.RequireFromString("1875.934").Equal(c.CostExclGST), c.CostExclGST.String())
	assert.True(t, decimal.RequireFromString("187.5934").Equal(c.GST), c.GST.String())
	assert.True(t, decimal.RequireFromString("2063.5274").Equal(c.CostInclGST), c.CostInclGST.String())

	zero := CalculateCharge(0, 24.61)
	assert.True(t, zero.CostInclGST.IsZero())
}

func TestTotal(t *testing.T) {
	a := CalculateCharge(1, 10)
	b := CalculateCharge(2, 5.5)
	total := Total(a, b)
	assert.Zero(t, total.Units)
	assert.Zero(t, total.UnitRate)
	assert.True(t, decimal.NewFromInt(21).Equal(total.CostExclGST))
	assert.True(t, a.CostInclGST.Add(b.CostInclGST).Equal(total.CostInclGST))
	assert.True(t, Total().CostInclGST.IsZero())
}

func TestGeneralCharges(t *testing.T) {
	bill := GeneralCharges(lookup(t, "T11", "Ergon"), 22, 142.5)
	require.NotNil(t, bill.All)
	assert.Nil(t, bill.Peak)
	assert.Nil(t, bill.Demand)
	assert.Equal(t, 22, bill.Days)
	assert.InDelta(t, 2167.64, bill.Supply.CostInclGST.InexactFloat64(), 0.01)
	assert.InDelta(t, 3857.62, bill.All.CostInclGST.InexactFloat64(), 0.01)
	assert.InDelta(t, 6025.26, bill.Total.CostInclGST.InexactFloat64(), 0.01)
}

func TestTOUCharges(t *testing.T) {
	bill := TOUCharges(lookup(t, "T12", "Ergon"), 31, 75.49, 0, 109.5)
	require.NotNil(t, bill.Peak)
	require.NotNil(t, bill.Shoulder)
	require.NotNil(t, bill.OffPeak)
	assert.Nil(t, bill.All)
	assert.InDelta(t, 3454.53, bill.Supply.CostInclGST.InexactFloat64(), 0.01)
	assert.InDelta(t, 4638.97, bill.Peak.CostInclGST.InexactFloat64(), 0.01)
	assert.True(t, bill.Shoulder.CostInclGST.IsZero())
	assert.InDelta(t, 2392.02, bill.OffPeak.CostInclGST.InexactFloat64(), 0.01)
	assert.InDelta(t, 10485.53, bill.Total.CostInclGST.InexactFloat64(), 0.01)

	sum := bill.Supply.CostInclGST.Add(bill.Peak.CostInclGST).Add(bill.Shoulder.CostInclGST).Add(bill.OffPeak.CostInclGST)
	assert.True(t, sum.Equal(bill.Total.CostInclGST))
}

func TestTOUDemandCharges(t *testing.T) {
	rates := lookup(t, "T14", "Ergon")

	t.Run("peak season", func(t *testing.T) {
		bill := TOUDemandCharges(rates, 31, 183.92, 0.7, true)
		require.NotNil(t, bill.All)
		require.NotNil(t, bill.Demand)
		assert.Equal(t, 6179.0, bill.Demand.UnitRate)
		assert.InDelta(t, 2063.53, bill.Supply.CostInclGST.InexactFloat64(), 0.01)
		assert.InDelta(t, 183.92*14.984*1.1, bill.All.CostInclGST.InexactFloat64(), 0.01)
		assert.InDelta(t, 4757.83, bill.Demand.CostInclGST.InexactFloat64(), 0.01)
		assert.InDelta(t, (1875.934+183.92*14.984+4325.3)*1.1, bill.Total.CostInclGST.InexactFloat64(), 0.01)
	})

	t.Run("off season", func(t *testing.T) {
		bill := TOUDemandCharges(rates, 30, 100, 0.7, false)
		assert.Equal(t, 1125.8, bill.Demand.UnitRate)
		assert.InDelta(t, 0.7*1125.8*1.1, bill.Demand.CostInclGST.InexactFloat64(), 0.01)
	})

	t.Run("shoulder demand rates are informational", func(t *testing.T) {
		withShoulder := rates
		withShoulder.DemandShoulder = 999
		withShoulder.DemandShoulderMin = 50

		want := TOUDemandCharges(rates, 31, 183.92, 0.7, true)
		got := TOUDemandCharges(withShoulder, 31, 183.92, 0.7, true)
		assert.True(t, want.Total.CostInclGST.Equal(got.Total.CostInclGST))
		assert.True(t, want.Demand.CostInclGST.Equal(got.Demand.CostInclGST))
	})
}

func TestMonthlyBill(t *testing.T) {
	usage := types.MonthUsage{Days: 31, Peak: 10, Shoulder: 20, OffPeak: 30, Total: 60, Demand: 2}
	dec := types.MonthKey{Year: 2016, Month: time.December}
	apr := types.MonthKey{Year: 2017, Month: time.April}

	t.Run("general", func(t *testing.T) {
		bill, err := MonthlyBill(lookup(t, "T11", "AGL"), dec, usage)
		require.NoError(t, err)
		require.NotNil(t, bill.All)
		assert.Equal(t, 60.0, bill.All.Units)
		assert.Equal(t, "AGL", bill.Retailer)
		assert.Equal(t, types.TariffKindGeneral, bill.Kind)
	})

	t.Run("tou", func(t *testing.T) {
		bill, err := MonthlyBill(lookup(t, "T12", "Origin"), dec, usage)
		require.NoError(t, err)
		assert.Equal(t, 10.0, bill.Peak.Units)
		assert.Equal(t, 20.0, bill.Shoulder.Units)
		assert.Equal(t, 30.0, bill.OffPeak.Units)
		assert.Equal(t, 31.0, bill.Supply.Units)
	})

	t.Run("demand season", func(t *testing.T) {
		rates := lookup(t, "T14", "Ergon")

		bill, err := MonthlyBill(rates, dec, usage)
		require.NoError(t, err)
		assert.Equal(t, rates.DemandPeak, bill.Demand.UnitRate)
		assert.Equal(t, 2.0, bill.Demand.Units)

		bill, err = MonthlyBill(rates, apr, usage)
		require.NoError(t, err)
		assert.Equal(t, rates.DemandOffPeak, bill.Demand.UnitRate)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := MonthlyBill(types.Tariff{Kind: "flat"}, dec, usage)
		assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
	})
}
