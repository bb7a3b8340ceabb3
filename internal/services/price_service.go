package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/upstream"
	"github.com/jonboulle/clockwork"
)

// The query window covers exactly the most recent ten calendar years
// through the current month.
const priceWindowYears = 10

// ErrNoPriceData is returned when the provider answers but no usable house
// price rows survive filtering. Distinct from transport failures.
var ErrNoPriceData = errors.New("no house price index data found")

// ErrInvalidAreaCode is returned for an empty or blank area code.
var ErrInvalidAreaCode = errors.New("invalid area code")

// priceChannel maps one property-type channel to its SPARQL binding keys.
// Every row carries up to five parallel channels, extracted independently.
var priceChannels = []struct {
	Type      models.PropertyType
	PriceKey  string
	ChangeKey string
}{
	{models.PropertyAverage, "averagePrice", "percentageAnnualChange"},
	{models.PropertyDetached, "averagePriceDetached", "percentageAnnualChangeDetached"},
	{models.PropertySemiDetached, "averagePriceSemiDetached", "percentageAnnualChangeSemiDetached"},
	{models.PropertyTerraced, "averagePriceTerraced", "percentageAnnualChangeTerraced"},
	{models.PropertyFlatMaisonette, "averagePriceFlatMaisonette", "percentageAnnualChangeFlatMaisonette"},
}

// PriceService defines the house price index aggregation operations.
type PriceService interface {
	// GetPriceHistory builds the ten-year monthly price series for an area
	// code (usually an outcode or district name) and derives the summary
	// figures. Returns ErrNoPriceData when the window holds no usable rows.
	GetPriceHistory(ctx context.Context, areaCode string) (*models.PriceSummary, error)
}

type priceService struct {
	hpi   upstream.HPIQuerier
	clock clockwork.Clock
	log   *logger.Logger
}

// NewPriceService creates a new instance of PriceService.
func NewPriceService(hpi upstream.HPIQuerier, clock clockwork.Clock, log *logger.Logger) PriceService {
	return &priceService{
		hpi:   hpi,
		clock: clock,
		log:   log,
	}
}

// GetPriceHistory queries the house price index and reduces the rows into a
// PriceSummary.
func (s *priceService) GetPriceHistory(ctx context.Context, areaCode string) (*models.PriceSummary, error) {
	area := strings.TrimSpace(areaCode)
	if area == "" {
		return nil, fmt.Errorf("%w: area code must not be empty", ErrInvalidAreaCode)
	}

	to := s.clock.Now()
	from := to.AddDate(-priceWindowYears, 0, 0)

	s.log.Info("Querying house price index", map[string]interface{}{
		"area": area,
		"from": from.Format("2006-01"),
		"to":   to.Format("2006-01"),
	})

	bindings, err := s.hpi.MonthlyIndices(ctx, area, from, to)
	if err != nil {
		s.log.Error("House price index query failed", err, map[string]interface{}{
			"area": area,
		})
		return nil, fmt.Errorf("failed to query house price index: %w", err)
	}
	if len(bindings) == 0 {
		s.log.Debug("House price index returned no rows", map[string]interface{}{
			"area": area,
		})
		return nil, ErrNoPriceData
	}

	regionName := regionDisplayName(bindings[0])

	var series []models.PriceSeriesEntry
	for _, row := range bindings {
		date, ok := parseRefMonth(row["refMonth"].Value)
		if !ok {
			continue
		}

		for _, channel := range priceChannels {
			price, ok := bindingFloat(row, channel.PriceKey)
			// Zero is the provider's sentinel for "no data", not a price.
			if !ok || price <= 0 {
				continue
			}

			entry := models.PriceSeriesEntry{
				Date:         date,
				PropertyType: channel.Type,
				AveragePrice: int(math.Round(price)),
			}
			if change, ok := bindingFloat(row, channel.ChangeKey); ok {
				rounded := math.Round(change*100) / 100
				entry.PercentageAnnualChange = &rounded
			}
			series = appendEntry(series, entry)
		}
	}

	if len(series) == 0 {
		return nil, ErrNoPriceData
	}

	summary := &models.PriceSummary{
		Series:        series,
		PropertyTypes: models.PropertyTypes,
		RegionName:    regionName,
	}
	summarizeAverages(summary)

	s.log.Info("House price history built", map[string]interface{}{
		"area":    area,
		"region":  regionName,
		"entries": len(series),
	})

	return summary, nil
}

// appendEntry applies the series deduplication rule: the candidate is
// dropped only when an existing entry for the same (date, property type)
// carries a DIFFERENT rounded price. Identical duplicates pass through.
func appendEntry(series []models.PriceSeriesEntry, entry models.PriceSeriesEntry) []models.PriceSeriesEntry {
	for _, existing := range series {
		if existing.Date.Equal(entry.Date) &&
			existing.PropertyType == entry.PropertyType &&
			existing.AveragePrice != entry.AveragePrice {
			return series
		}
	}
	return append(series, entry)
}

// summarizeAverages derives the current average price and year-over-year
// change from the Average channel. The comparison entry is the Average
// entry nearest by absolute difference to exactly 365 days before the most
// recent one; the change is undefined when that entry's price is zero.
func summarizeAverages(summary *models.PriceSummary) {
	var averages []models.PriceSeriesEntry
	for _, entry := range summary.Series {
		if entry.PropertyType == models.PropertyAverage {
			averages = append(averages, entry)
		}
	}
	if len(averages) == 0 {
		return
	}

	latest := averages[0]
	for _, entry := range averages[1:] {
		if entry.Date.After(latest.Date) {
			latest = entry
		}
	}
	current := latest.AveragePrice
	summary.CurrentAveragePrice = &current

	target := latest.Date.AddDate(0, 0, -365)
	closest := averages[0]
	for _, entry := range averages[1:] {
		if absDuration(entry.Date.Sub(target)) < absDuration(closest.Date.Sub(target)) {
			closest = entry
		}
	}

	if closest.AveragePrice > 0 {
		change := (float64(current) - float64(closest.AveragePrice)) / float64(closest.AveragePrice) * 100
		summary.YearlyChangePercent = &change
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// regionDisplayName derives the human-readable region name from the first
// row's region URI: the path segment after "region/", hyphens to spaces,
// title-cased. Falls back to "England" when the URI has no region segment.
func regionDisplayName(row upstream.SPARQLBinding) string {
	uri := row["refRegion"].Value
	if _, after, found := strings.Cut(uri, "region/"); found {
		return models.Humanize(after)
	}
	return "England"
}

// parseRefMonth normalizes the provider's month value ("2006-01", sometimes
// already day-resolved) to the first of the month in UTC.
func parseRefMonth(value string) (time.Time, bool) {
	if t, err := time.Parse("2006-01", value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// bindingFloat extracts a numeric binding value, reporting whether the
// variable was bound and parseable.
func bindingFloat(row upstream.SPARQLBinding, key string) (float64, bool) {
	cell, ok := row[key]
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(cell.Value, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
