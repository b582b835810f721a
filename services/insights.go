package services

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

const topPostalCodes = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises t. Rows without a numeric price are left out of the
// price statistics.
func (s *InsightService) Generate(t *models.Table) *models.InsightReport {
	report := &models.InsightReport{
		ByPropertyType: make(map[string]int),
		BySaleCategory: make(map[string]int),
	}
	if t == nil || t.Len() == 0 {
		return report
	}
	report.TotalProperties = t.Len()

	var prices []float64
	mostExpensive := -1
	postal := make(map[string]int)

	for i := 0; i < t.Len(); i++ {
		if price, ok := t.Get(i, "price").Float64(); ok {
			prices = append(prices, price)
			if mostExpensive < 0 || price > report.MaxPrice {
				report.MaxPrice = price
				mostExpensive = i
			}
		}
		if v := t.Get(i, "property_type"); !v.IsNull() {
			report.ByPropertyType[v.String()]++
		}
		if v := t.Get(i, "sale_category"); !v.IsNull() {
			report.BySaleCategory[v.String()]++
		}
		if v := t.Get(i, "postal_code"); !v.IsNull() {
			postal[v.String()]++
		}
	}

	if len(prices) > 0 {
		report.PricedCount = len(prices)
		sort.Float64s(prices)

		var total float64
		for _, p := range prices {
			total += p
		}
		report.AveragePrice = round2(total / float64(len(prices)))
		report.MinPrice = round2(prices[0])
		report.MaxPrice = round2(prices[len(prices)-1])

		mid := len(prices) / 2
		if len(prices)%2 == 0 {
			report.MedianPrice = round2((prices[mid-1] + prices[mid]) / 2)
		} else {
			report.MedianPrice = round2(prices[mid])
		}

		report.MostExpensive = make(map[string]string, len(t.Columns))
		for _, col := range t.Columns {
			report.MostExpensive[col] = t.Get(mostExpensive, col).String()
		}
	}

	for code, n := range postal {
		report.TopPostalCodes = append(report.TopPostalCodes, models.PostalCount{PostalCode: code, Count: n})
	}
	sort.Slice(report.TopPostalCodes, func(i, j int) bool {
		a, b := report.TopPostalCodes[i], report.TopPostalCodes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.PostalCode < b.PostalCode
	})
	if len(report.TopPostalCodes) > topPostalCodes {
		report.TopPostalCodes = report.TopPostalCodes[:topPostalCodes]
	}

	s.logger.Debug("[insights] %d properties, %d with a price", report.TotalProperties, report.PricedCount)
	return report
}

// Print renders r as tables on w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	overview := newReportTable(w, "IMMOWEB PROPERTY INSIGHTS")
	overview.AppendRows([]table.Row{
		{"Total properties", r.TotalProperties},
		{"With a price", r.PricedCount},
	})
	if r.PricedCount > 0 {
		overview.AppendSeparator()
		overview.AppendRows([]table.Row{
			{"Average price", euros(r.AveragePrice)},
			{"Median price", euros(r.MedianPrice)},
			{"Minimum price", euros(r.MinPrice)},
			{"Maximum price", euros(r.MaxPrice)},
		})
	}
	if m := r.MostExpensive; m != nil {
		overview.AppendSeparator()
		overview.AppendRow(table.Row{"Most expensive", fmt.Sprintf("%s %s, %s %s",
			m["street"], m["number"], m["postal_code"], m["locality"])})
	}
	overview.Render()

	if len(r.ByPropertyType) > 0 {
		printCounts(w, "BY PROPERTY TYPE", r.ByPropertyType)
	}
	if len(r.BySaleCategory) > 0 {
		printCounts(w, "BY SALE CATEGORY", r.BySaleCategory)
	}

	if len(r.TopPostalCodes) > 0 {
		tw := newReportTable(w, "TOP POSTAL CODES")
		tw.AppendHeader(table.Row{"Postal code", "Listings"})
		for _, pc := range r.TopPostalCodes {
			tw.AppendRow(table.Row{pc.PostalCode, pc.Count})
		}
		tw.Render()
	}
}

func newReportTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(title)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignCenter
	return tw
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	tw := newReportTable(w, title)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, counts[k]})
	}
	tw.Render()
}

func euros(f float64) string {
	return fmt.Sprintf("€%.2f", f)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
