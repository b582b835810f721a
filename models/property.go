package models

// RecordColumns is the fixed column order of the property database file.
var RecordColumns = []string{
	"id",
	"locality",
	"postal_code",
	"street",
	"number",
	"box",
	"property_type",
	"property_subtype",
	"price",
	"construction_year",
	"bedrooms",
	"bathrooms",
	"living_area",
	"land_surface",
	"facades",
	"building_condition",
	"kitchen_type",
	"has_garden",
	"has_terrace",
	"has_swimming_pool",
	"epc_score",
	"sale_category",
}

// PropertyRecord holds the attributes extracted from one listing page.
// Any field may be null; a page that could not be parsed yields a record
// with every field null.
type PropertyRecord struct {
	ID                Value
	Locality          Value
	PostalCode        Value
	Street            Value
	Number            Value
	Box               Value
	PropertyType      Value
	PropertySubtype   Value
	Price             Value
	ConstructionYear  Value
	Bedrooms          Value
	Bathrooms         Value
	LivingArea        Value
	LandSurface       Value
	Facades           Value
	BuildingCondition Value
	KitchenType       Value
	HasGarden         Value
	HasTerrace        Value
	HasSwimmingPool   Value
	EPCScore          Value
	SaleCategory      Value
}

// Row returns the record's cells in RecordColumns order.
func (r PropertyRecord) Row() []Value {
	return []Value{
		r.ID,
		r.Locality,
		r.PostalCode,
		r.Street,
		r.Number,
		r.Box,
		r.PropertyType,
		r.PropertySubtype,
		r.Price,
		r.ConstructionYear,
		r.Bedrooms,
		r.Bathrooms,
		r.LivingArea,
		r.LandSurface,
		r.Facades,
		r.BuildingCondition,
		r.KitchenType,
		r.HasGarden,
		r.HasTerrace,
		r.HasSwimmingPool,
		r.EPCScore,
		r.SaleCategory,
	}
}

// IsEmpty reports whether every field is null.
func (r PropertyRecord) IsEmpty() bool {
	return RowIsEmpty(r.Row())
}

// InsightReport summarises a cleaned property table.
type InsightReport struct {
	TotalProperties int
	PricedCount     int
	AveragePrice    float64
	MedianPrice     float64
	MinPrice        float64
	MaxPrice        float64
	MostExpensive   map[string]string
	ByPropertyType  map[string]int
	BySaleCategory  map[string]int
	TopPostalCodes  []PostalCount
}

// PostalCount is the number of listings in one postal code.
type PostalCount struct {
	PostalCode string
	Count      int
}
