package dataprocessing

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"time"

	"soleplan/pkg/contracts/domain"
)

// ReferenceProfile is the descriptive summary of one reference's sales history.
type ReferenceProfile struct {
	Reference  string  `json:"reference"`
	Class      string  `json:"class"`
	Family     string  `json:"family"`
	Months     int     `json:"months"`
	Total      float64 `json:"total"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	ZeroMonths int     `json:"zero_months"`
}

// Profile summarizes every sales history. The order of the input is preserved.
func Profile(histories []domain.SalesHistory) []ReferenceProfile {
	profiles := make([]ReferenceProfile, 0, len(histories))
	for _, h := range histories {
		p := ReferenceProfile{
			Reference: h.Reference,
			Class:     h.Class,
			Family:    h.Family,
			Months:    h.Len(),
		}
		if p.Months > 0 {
			p.Min = h.Quantities[0]
			p.Max = h.Quantities[0]
			for _, q := range h.Quantities {
				p.Total += q
				if q < p.Min {
					p.Min = q
				}
				if q > p.Max {
					p.Max = q
				}
				if q == 0 {
					p.ZeroMonths++
				}
			}
			p.Mean = p.Total / float64(p.Months)
			var ss float64
			for _, q := range h.Quantities {
				d := q - p.Mean
				ss += d * d
			}
			p.StdDev = math.Sqrt(ss / float64(p.Months))
		}
		profiles = append(profiles, p)
	}
	return profiles
}

var profileTemplate = template.Must(template.New("profile").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sales History Profile</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 0.3rem 0.6rem; text-align: right; }
th { background: #eee; }
td:first-child, td:nth-child(2), td:nth-child(3) { text-align: left; }
</style>
</head>
<body>
<h1>Sales History Profile</h1>
<p>Generated {{.Generated}} for {{len .Profiles}} references.</p>
<table>
<tr><th>Reference</th><th>Class</th><th>Family</th><th>Months</th><th>Total</th><th>Mean</th><th>Std Dev</th><th>Min</th><th>Max</th><th>Zero Months</th></tr>
{{range .Profiles}}<tr>
<td>{{.Reference}}</td><td>{{.Class}}</td><td>{{.Family}}</td>
<td>{{.Months}}</td><td>{{printf "%.1f" .Total}}</td><td>{{printf "%.2f" .Mean}}</td>
<td>{{printf "%.2f" .StdDev}}</td><td>{{printf "%.1f" .Min}}</td><td>{{printf "%.1f" .Max}}</td>
<td>{{.ZeroMonths}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

// WriteProfileReport renders the profiles as a standalone HTML report.
func WriteProfileReport(path string, profiles []ReferenceProfile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		Generated string
		Profiles  []ReferenceProfile
	}{
		Generated: time.Now().Format("2006-01-02 15:04"),
		Profiles:  profiles,
	}
	if err := profileTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render profile report: %w", err)
	}
	return nil
}
