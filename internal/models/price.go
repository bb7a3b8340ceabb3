package models

import "time"

// PropertyType identifies a house price index channel.
type PropertyType string

// Property type channels published by the UK House Price Index.
const (
	PropertyAverage        PropertyType = "Average"
	PropertyDetached       PropertyType = "Detached"
	PropertySemiDetached   PropertyType = "Semi-detached"
	PropertyTerraced       PropertyType = "Terraced"
	PropertyFlatMaisonette PropertyType = "Flat/Maisonette"
)

// PropertyTypes lists every channel in display order.
var PropertyTypes = []PropertyType{
	PropertyAverage,
	PropertyDetached,
	PropertySemiDetached,
	PropertyTerraced,
	PropertyFlatMaisonette,
}

// PriceSeriesEntry is one monthly observation for one property type.
// Date is normalized to the first of the month; AveragePrice is whole pounds.
type PriceSeriesEntry struct {
	Date                   time.Time    `json:"date"`
	PropertyType           PropertyType `json:"property_type"`
	AveragePrice           int          `json:"average_price"`
	PercentageAnnualChange *float64     `json:"percentage_annual_change,omitempty"`
}

// PriceSummary is the aggregated house price view for one area.
type PriceSummary struct {
	CurrentAveragePrice *int               `json:"current_average_price"`
	YearlyChangePercent *float64           `json:"yearly_change_percentage"`
	Series              []PriceSeriesEntry `json:"price_data"`
	PropertyTypes       []PropertyType     `json:"property_types"`
	RegionName          string             `json:"region_name"`
}
