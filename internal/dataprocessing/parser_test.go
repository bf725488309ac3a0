package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSalesHistory(t *testing.T) {
	path := writeInput(t, "monthly_sales.csv",
		"reference,class,family,month,quantity\n"+
			"R101,argyll,bota,2025-02,80\n"+
			"R101,argyll,bota,2025-01,120\n"+
			"R202,pvc,sandalia,2025-01,40\n")

	loader := NewLoader(nil)
	histories, err := loader.LoadSalesHistory(path)
	require.NoError(t, err)
	require.Len(t, histories, 2)

	r101 := histories[0]
	assert.Equal(t, "R101", r101.Reference)
	assert.Equal(t, "argyll", r101.Class)
	assert.Equal(t, "bota", r101.Family)
	// Months come back sorted even when the file is out of order.
	assert.Equal(t, []float64{120, 80}, r101.Quantities)
	assert.True(t, r101.Months[0].Before(r101.Months[1]))

	assert.Equal(t, "R202", histories[1].Reference)
	assert.Equal(t, "pvc", histories[1].Class)
}

func TestLoadSalesHistory_Errors(t *testing.T) {
	loader := NewLoader(nil)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing column",
			content: "reference,month,quantity\nR1,2025-01,5\n",
			wantErr: "missing required column",
		},
		{
			name:    "bad month",
			content: "reference,class,family,month,quantity\nR1,argyll,bota,enero,5\n",
			wantErr: "bad month",
		},
		{
			name:    "bad quantity",
			content: "reference,class,family,month,quantity\nR1,argyll,bota,2025-01,many\n",
			wantErr: "bad quantity",
		},
		{
			name:    "no data rows",
			content: "reference,class,family,month,quantity\n",
			wantErr: "no data rows",
		},
		{
			name:    "mojibake rejected",
			content: "reference,class,family,month,quantity\nR1,argyll,botÃ­n,2025-01,5\n",
			wantErr: "encoding validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeInput(t, "sales.csv", tt.content)
			_, err := loader.LoadSalesHistory(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadStock(t *testing.T) {
	path := writeInput(t, "stock.csv",
		"reference,final_inventory\nR101,35\nR202,0\n")

	stock, err := NewLoader(nil).LoadStock(path)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, 35.0, stock["R101"].FinalInventory)
	assert.Equal(t, 0.0, stock["R202"].FinalInventory)
}

func TestLoadStock_DuplicateReference(t *testing.T) {
	path := writeInput(t, "stock.csv",
		"reference,final_inventory\nR101,35\nR101,12\n")

	_, err := NewLoader(nil).LoadStock(path)
	assert.ErrorContains(t, err, "duplicate reference")
}

func TestLoadStandardTimes(t *testing.T) {
	path := writeInput(t, "standard_time.csv",
		"reference,standard_time_per_unit,cost_per_unit\nR101,0.5,12.5\n")

	times, err := NewLoader(nil).LoadStandardTimes(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, times["R101"].StandardTimePerUnit)
	assert.Equal(t, 12.5, times["R101"].CostPerUnit)
}

func TestLoadStandardTimes_RejectsZeroTime(t *testing.T) {
	path := writeInput(t, "standard_time.csv",
		"reference,standard_time_per_unit,cost_per_unit\nR101,0,12.5\n")

	_, err := NewLoader(nil).LoadStandardTimes(path)
	assert.ErrorContains(t, err, "must be positive")
}

func TestLoadHourCalendar(t *testing.T) {
	path := writeInput(t, "hours_available_argyll.csv",
		"month,cost_per_hour,cost_per_extra_hour,hours_available,extra_hours_available\n"+
			"2025-01,10,15,320,80\n"+
			"2025-02,10,15,300,75\n")

	cal, err := NewLoader(nil).LoadHourCalendar(path, "argyll")
	require.NoError(t, err)
	assert.Equal(t, "argyll", cal.Class)
	assert.Equal(t, 2, cal.Months())
	assert.Equal(t, []float64{320, 300}, cal.HoursAvailable)
	assert.Equal(t, []float64{15, 15}, cal.CostPerExtraHour)
}

func TestBuildCatalog(t *testing.T) {
	path := writeInput(t, "monthly_sales.csv",
		"reference,class,family,month,quantity\n"+
			"R101,argyll,bota,2025-01,10\n"+
			"R102,argyll,bota,2025-01,20\n"+
			"R201,argyll,mocasin,2025-01,5\n"+
			"R301,pvc,sandalia,2025-01,7\n")

	histories, err := NewLoader(nil).LoadSalesHistory(path)
	require.NoError(t, err)

	catalog := BuildCatalog(histories, "argyll")
	assert.Equal(t, []string{"R101", "R102"}, catalog.Families["bota"])
	assert.Equal(t, []string{"R201"}, catalog.Families["mocasin"])
	assert.NotContains(t, catalog.Families, "sandalia")
	assert.ElementsMatch(t, []string{"R101", "R102", "R201"}, catalog.References())
}

func TestProfile(t *testing.T) {
	path := writeInput(t, "monthly_sales.csv",
		"reference,class,family,month,quantity\n"+
			"R101,argyll,bota,2025-01,10\n"+
			"R101,argyll,bota,2025-02,0\n"+
			"R101,argyll,bota,2025-03,20\n")

	histories, err := NewLoader(nil).LoadSalesHistory(path)
	require.NoError(t, err)

	profiles := Profile(histories)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, 3, p.Months)
	assert.Equal(t, 30.0, p.Total)
	assert.InDelta(t, 10.0, p.Mean, 1e-9)
	assert.Equal(t, 0.0, p.Min)
	assert.Equal(t, 20.0, p.Max)
	assert.Equal(t, 1, p.ZeroMonths)
	assert.InDelta(t, 8.1649658, p.StdDev, 1e-6)
}

func TestWriteProfileReport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "profile_report.html")

	profiles := []ReferenceProfile{
		{Reference: "R101", Class: "argyll", Family: "bota", Months: 3, Total: 30, Mean: 10},
	}
	require.NoError(t, WriteProfileReport(out, profiles))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "R101")
	assert.Contains(t, string(content), "<table>")
}
