// Package tariff loads the rate tables used to bill usage.
//
// A rate table is a YAML document with named sets of time-of-use periods and
// a tree of tariff -> retailer -> financial year rates. Lookups are case
// insensitive and return a fully resolved types.Tariff.
package tariff

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// ErrUnknownTariff is returned when a tariff, retailer or financial year is
// not in the table.
var ErrUnknownTariff = errors.New("unknown tariff")

// defaultDemandShoulderMin is the minimum chargeable shoulder demand in kW when
// a rate entry does not set one.
const defaultDemandShoulderMin = 3.0

//go:embed rates.yaml
var defaultRates []byte

type rateFile struct {
	DefaultPeriods string                    `yaml:"default_periods"`
	Periods        map[string]types.TOURules `yaml:"periods"`
	Tariffs        map[string]tariffEntry    `yaml:"tariffs"`
}

type tariffEntry struct {
	Kind      types.TariffKind                `yaml:"kind"`
	Retailers map[string]map[string]rateEntry `yaml:"retailers"`
}

type rateEntry struct {
	Periods string `yaml:"periods"`

	Supply   float64  `yaml:"supply"`
	Usage    *float64 `yaml:"usage"`
	Peak     *float64 `yaml:"peak_usage"`
	Shoulder *float64 `yaml:"shoulder_usage"`
	OffPeak  *float64 `yaml:"offpeak_usage"`

	DemandPeak        float64  `yaml:"demand_peak"`
	DemandOffPeak     float64  `yaml:"demand_offpeak"`
	DemandShoulder    float64  `yaml:"demand_shoulder"`
	DemandShoulderMin *float64 `yaml:"demand_shoulder_min"`
}

// usageRate returns rate, falling back to the generic usage rate.
func (e rateEntry) usageRate(rate *float64) float64 {
	if rate != nil {
		return *rate
	}
	if e.Usage != nil {
		return *e.Usage
	}
	return 0
}

type tableEntry struct {
	name      string
	kind      types.TariffKind
	retailers map[string]string
	rates     map[string]map[string]types.Tariff
}

// Table is an immutable set of resolved tariffs.
type Table struct {
	tariffs map[string]*tableEntry
}

// Default returns the table bundled with the package.
func Default() (*Table, error) {
	return parse(defaultRates)
}

// Load reads a rate table from r.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading rates: %w", err)
	}
	return parse(data)
}

// LoadFile reads a rate table from the file at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rates file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parse(data []byte) (*Table, error) {
	var rf rateFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}

	for name, rules := range rf.Periods {
		if err := rules.Validate(); err != nil {
			return nil, fmt.Errorf("periods %s: %w", name, err)
		}
	}

	t := &Table{tariffs: make(map[string]*tableEntry, len(rf.Tariffs))}
	for name, te := range rf.Tariffs {
		switch te.Kind {
		case types.TariffKindGeneral, types.TariffKindTOU, types.TariffKindDemand:
		default:
			return nil, fmt.Errorf("tariff %s: %w: unknown kind %q", name, types.ErrInvalidConfiguration, te.Kind)
		}

		entry := &tableEntry{
			name:      name,
			kind:      te.Kind,
			retailers: make(map[string]string, len(te.Retailers)),
			rates:     make(map[string]map[string]types.Tariff, len(te.Retailers)),
		}
		for retailer, years := range te.Retailers {
			key := strings.ToLower(retailer)
			entry.retailers[key] = retailer
			entry.rates[key] = make(map[string]types.Tariff, len(years))
			for fy, re := range years {
				resolved, err := resolve(rf, name, te.Kind, retailer, fy, re)
				if err != nil {
					return nil, err
				}
				entry.rates[key][fy] = resolved
			}
		}
		t.tariffs[strings.ToLower(name)] = entry
	}
	return t, nil
}

func resolve(rf rateFile, name string, kind types.TariffKind, retailer, fy string, re rateEntry) (types.Tariff, error) {
	periods := re.Periods
	if periods == "" {
		periods = rf.DefaultPeriods
	}
	rules, ok := rf.Periods[periods]
	if !ok {
		return types.Tariff{}, fmt.Errorf("tariff %s/%s/%s: %w: unknown periods %q", name, retailer, fy, types.ErrInvalidConfiguration, periods)
	}
	if re.Supply < 0 {
		return types.Tariff{}, fmt.Errorf("tariff %s/%s/%s: %w: negative supply charge", name, retailer, fy, types.ErrInvalidConfiguration)
	}

	shoulderMin := defaultDemandShoulderMin
	if re.DemandShoulderMin != nil {
		shoulderMin = *re.DemandShoulderMin
	}

	return types.Tariff{
		Name:              name,
		Retailer:          retailer,
		FinancialYear:     fy,
		Kind:              kind,
		SupplyCharge:      re.Supply,
		UsageAll:          re.usageRate(nil),
		UsagePeak:         re.usageRate(re.Peak),
		UsageShoulder:     re.usageRate(re.Shoulder),
		UsageOffPeak:      re.usageRate(re.OffPeak),
		DemandPeak:        re.DemandPeak,
		DemandOffPeak:     re.DemandOffPeak,
		DemandShoulder:    re.DemandShoulder,
		DemandShoulderMin: shoulderMin,
		Periods:           periods,
		Rules:             rules,
	}, nil
}

// Lookup returns the rates for a tariff from a retailer in the financial year
// starting in fy. Names are matched case insensitively.
func (t *Table) Lookup(tariff, retailer, fy string) (types.Tariff, error) {
	entry, ok := t.tariffs[strings.ToLower(tariff)]
	if !ok {
		return types.Tariff{}, fmt.Errorf("%w: %s", ErrUnknownTariff, tariff)
	}
	years, ok := entry.rates[strings.ToLower(retailer)]
	if !ok {
		return types.Tariff{}, fmt.Errorf("%w: %s has no rates from %s", ErrUnknownTariff, entry.name, retailer)
	}
	rates, ok := years[fy]
	if !ok {
		return types.Tariff{}, fmt.Errorf("%w: %s from %s has no rates for FY%s", ErrUnknownTariff, entry.name, entry.retailers[strings.ToLower(retailer)], fy)
	}
	return rates, nil
}

// Latest returns the rates for the most recent financial year the table has
// for a tariff from a retailer.
func (t *Table) Latest(tariff, retailer string) (types.Tariff, error) {
	entry, ok := t.tariffs[strings.ToLower(tariff)]
	if !ok {
		return types.Tariff{}, fmt.Errorf("%w: %s", ErrUnknownTariff, tariff)
	}
	years, ok := entry.rates[strings.ToLower(retailer)]
	if !ok || len(years) == 0 {
		return types.Tariff{}, fmt.Errorf("%w: %s has no rates from %s", ErrUnknownTariff, entry.name, retailer)
	}
	var latest string
	for fy := range years {
		if fy > latest {
			latest = fy
		}
	}
	return years[latest], nil
}

// List returns every tariff in the table ordered by name.
func (t *Table) List() []types.TariffInfo {
	infos := make([]types.TariffInfo, 0, len(t.tariffs))
	for _, entry := range t.tariffs {
		info := types.TariffInfo{
			Name: entry.name,
			Kind: entry.kind,
		}
		years := make(map[string]struct{})
		for key, retailer := range entry.retailers {
			info.Retailers = append(info.Retailers, retailer)
			for fy := range entry.rates[key] {
				years[fy] = struct{}{}
			}
		}
		for fy := range years {
			info.FinancialYears = append(info.FinancialYears, fy)
		}
		slices.Sort(info.Retailers)
		slices.Sort(info.FinancialYears)
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b types.TariffInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

// FinancialYearStarting returns the year the Australian financial year
// containing t started in. Financial years run from July to June.
func FinancialYearStarting(t time.Time) int {
	if t.Month() >= time.July {
		return t.Year()
	}
	return t.Year() - 1
}

// FinancialYear returns the financial year key for t as used by Lookup.
func FinancialYear(t time.Time) string {
	return fmt.Sprintf("%d", FinancialYearStarting(t))
}
