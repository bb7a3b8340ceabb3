package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/fetch"
)

// HPIQuerier is the house price index provider contract consumed by the
// price service.
type HPIQuerier interface {
	// MonthlyIndices returns the raw SPARQL bindings for the area's monthly
	// house price index rows within the inclusive [from, to] month window.
	MonthlyIndices(ctx context.Context, areaCode string, from, to time.Time) ([]SPARQLBinding, error)
}

// SPARQLValue is one cell of a SPARQL JSON result binding.
type SPARQLValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SPARQLBinding is one result row, keyed by projected variable name.
type SPARQLBinding map[string]SPARQLValue

// LandRegistryClient implements HPIQuerier against the HM Land Registry
// SPARQL endpoint.
type LandRegistryClient struct {
	endpoint string
	fetcher  *fetch.Client
}

// NewLandRegistryClient creates a Land Registry SPARQL client.
func NewLandRegistryClient(endpoint string, fetcher *fetch.Client) *LandRegistryClient {
	return &LandRegistryClient{
		endpoint: endpoint,
		fetcher:  fetcher,
	}
}

const monthlyIndicesQuery = `PREFIX xsd:  <http://www.w3.org/2001/XMLSchema#>
PREFIX ukhpi: <http://landregistry.data.gov.uk/def/ukhpi/>
PREFIX rdf:  <http://www.w3.org/1999/02/22-rdf-syntax-ns#>

SELECT ?refRegion ?refMonth
       ?averagePrice ?percentageAnnualChange
       ?averagePriceDetached ?percentageAnnualChangeDetached
       ?averagePriceSemiDetached ?percentageAnnualChangeSemiDetached
       ?averagePriceTerraced ?percentageAnnualChangeTerraced
       ?averagePriceFlatMaisonette ?percentageAnnualChangeFlatMaisonette
WHERE {
  ?id rdf:type ukhpi:MonthlyIndicesByRegion .
  ?id ukhpi:refMonth ?refMonth

  FILTER (?refMonth <= "%s"^^xsd:gYearMonth)
  FILTER (?refMonth >= "%s"^^xsd:gYearMonth)

  ?id ukhpi:refRegion ?refRegion

  FILTER(%s)

  OPTIONAL { ?id ukhpi:averagePrice ?averagePrice }
  OPTIONAL { ?id ukhpi:percentageAnnualChange ?percentageAnnualChange }

  OPTIONAL { ?id ukhpi:averagePriceDetached ?averagePriceDetached }
  OPTIONAL { ?id ukhpi:percentageAnnualChangeDetached ?percentageAnnualChangeDetached }

  OPTIONAL { ?id ukhpi:averagePriceSemiDetached ?averagePriceSemiDetached }
  OPTIONAL { ?id ukhpi:percentageAnnualChangeSemiDetached ?percentageAnnualChangeSemiDetached }

  OPTIONAL { ?id ukhpi:averagePriceTerraced ?averagePriceTerraced }
  OPTIONAL { ?id ukhpi:percentageAnnualChangeTerraced ?percentageAnnualChangeTerraced }

  OPTIONAL { ?id ukhpi:averagePriceFlatMaisonette ?averagePriceFlatMaisonette }
  OPTIONAL { ?id ukhpi:percentageAnnualChangeFlatMaisonette ?percentageAnnualChangeFlatMaisonette }
}
ORDER BY ASC(?refMonth)`

// RegionVariants returns the normalized spellings tried against the
// provider's free-text region identifiers. The substring match is
// deliberately loose because the identifiers are inconsistent.
func RegionVariants(areaCode string) []string {
	return []string{
		areaCode,
		strings.ReplaceAll(areaCode, "-", " "),
		strings.ReplaceAll(areaCode, " ", "-"),
		strings.ToLower(areaCode),
	}
}

// regionFilter builds the case-insensitive substring match across every
// region spelling variant.
func regionFilter(areaCode string) string {
	variants := RegionVariants(areaCode)
	clauses := make([]string, 0, len(variants))
	for _, variant := range variants {
		clauses = append(clauses,
			fmt.Sprintf(`CONTAINS(LCASE(str(?refRegion)), LCASE("%s"))`, escapeSPARQLString(variant)))
	}
	return strings.Join(clauses, "\n         || ")
}

// escapeSPARQLString escapes quote and backslash characters in a SPARQL
// string literal.
func escapeSPARQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// MonthlyIndices executes the monthly indices query for the area and window.
// A response without a results/bindings envelope is a shape error; an empty
// binding list is returned as-is for the service to classify.
func (c *LandRegistryClient) MonthlyIndices(ctx context.Context, areaCode string, from, to time.Time) ([]SPARQLBinding, error) {
	query := fmt.Sprintf(monthlyIndicesQuery,
		to.Format("2006-01"),
		from.Format("2006-01"),
		regionFilter(areaCode),
	)

	params := url.Values{"query": {query}}
	headers := map[string]string{"Accept": "application/sparql-results+json"}

	var envelope struct {
		Results *struct {
			Bindings []SPARQLBinding `json:"bindings"`
		} `json:"results"`
	}
	if err := c.fetcher.GetJSON(ctx, c.endpoint, params, headers, &envelope); err != nil {
		return nil, err
	}
	if envelope.Results == nil {
		return nil, &fetch.ShapeError{Reason: `missing "results.bindings" key`}
	}

	return envelope.Results.Bindings, nil
}
