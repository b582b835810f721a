package immoweb

import "immoweb-scraper/models"

// DetailExtractor turns a listing page into a PropertyRecord.
type DetailExtractor struct {
	classifier *SaleClassifier
}

// NewDetailExtractor creates an extractor that labels records with classifier.
func NewDetailExtractor(classifier *SaleClassifier) *DetailExtractor {
	return &DetailExtractor{classifier: classifier}
}

// Extract reads the listing payload of p. Missing fields are null. A page
// without a readable payload, or whose payload has no id, property type or
// location, yields a record with every field null.
func (e *DetailExtractor) Extract(p *Page) models.PropertyRecord {
	var rec models.PropertyRecord

	c, err := p.payload()
	if err != nil || !c.identified() {
		return rec
	}

	rec.ID = models.TextPtr(c.ID.ptr())

	if prop := c.Property; prop != nil {
		rec.PropertyType = models.TextPtr(prop.Type.ptr())
		rec.PropertySubtype = models.TextPtr(prop.Subtype.ptr())
		rec.Bedrooms = models.Float(prop.BedroomCount.ptr())
		rec.Bathrooms = models.Float(prop.BathroomCount.ptr())
		rec.LivingArea = models.Float(prop.NetHabitableSurface.ptr())
		rec.HasGarden = models.Bool(prop.HasGarden)
		rec.HasTerrace = models.Bool(prop.HasTerrace)
		rec.HasSwimmingPool = models.Bool(prop.HasSwimmingPool)

		if loc := prop.Location; loc != nil {
			rec.Locality = models.TextPtr(loc.Locality.ptr())
			rec.PostalCode = models.TextPtr(loc.PostalCode.ptr())
			rec.Street = models.TextPtr(loc.Street.ptr())
			rec.Number = models.TextPtr(loc.Number.ptr())
			rec.Box = models.TextPtr(loc.Box.ptr())
		}
		if b := prop.Building; b != nil {
			rec.ConstructionYear = models.Float(b.ConstructionYear.ptr())
			rec.BuildingCondition = models.TextPtr(b.Condition.ptr())
			rec.Facades = models.Float(b.FacadeCount.ptr())
		}
		if prop.Land != nil {
			rec.LandSurface = models.Float(prop.Land.Surface.ptr())
		}
		if prop.Kitchen != nil {
			rec.KitchenType = models.TextPtr(prop.Kitchen.Type.ptr())
		}
	}

	if tx := c.Transaction; tx != nil {
		if tx.Sale != nil {
			rec.Price = models.Float(tx.Sale.Price.ptr())
		}
		if tx.Certificates != nil {
			rec.EPCScore = models.TextPtr(tx.Certificates.EPCScore.ptr())
		}
	}

	if e.classifier != nil {
		rec.SaleCategory = models.Text(e.classifier.Classify(p))
	}
	return rec
}
