package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const demandCSV = `id,name,required_qty,unit,needed_by,on_hand_qty,shelf_life_hours,prep_minutes_per_unit,allergens,waste_cost_per_unit,category,outlet
salmon,Salmon,40,kg,2025-06-14T18:00:00Z,,72,3,fish,18,protein,ballroom
# comment rows are skipped
romaine,Romaine,30,kg,2025-06-14,6,,2,,,produce,terrace
`

func TestLoadScenario(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		DemandFile: demandCSV,
		InventoryFile: `item_id,on_hand_qty,unit_cost,shelf_life_hours
salmon,4,20,
romaine,6,3,96
`,
		CatalogFile: `unit_cost,id,vendor_id,item_id,pack_size,lead_time_days,minimum_order_qty,allergens
20,opt-1,north-sea,salmon,5,1,10,fish;shellfish
`,
		HistoryFile: `item_id,service_date,fulfilled_qty,waste_qty
salmon,2025-06-07,38,2
`,
		CartsFile:    "id,name,outlet,capacity\ncart-ballroom,Ballroom,ballroom,4\n",
		StationsFile: "id,name,categories\nhot-kitchen,Hot kitchen,protein; grill\n",
		LockedTasksFile: `id,demand_item_id,station_id,qty,start,end,labor_hours
task-1,salmon,hot-kitchen,40,2025-06-14T10:00:00Z,2025-06-14T12:00:00Z,2
`,
	})

	in, err := NewLoader(nil).LoadScenario(dir)
	require.NoError(t, err)

	require.Len(t, in.Demand, 2)
	salmon := in.Demand[0]
	assert.Equal(t, "salmon", salmon.ID)
	assert.True(t, salmon.RequiredQty.Equal(decimal.NewFromInt(40)))
	assert.False(t, salmon.OnHandQty.Valid, "empty cells stay unset")
	require.NotNil(t, salmon.ShelfLifeHours)
	assert.Equal(t, 72.0, *salmon.ShelfLifeHours)
	assert.Equal(t, []string{"fish"}, salmon.Allergens)
	assert.True(t, salmon.WasteCostPerUnit.Valid)
	assert.Equal(t, time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC), salmon.NeededBy)

	romaine := in.Demand[1]
	assert.True(t, romaine.OnHandQty.Valid)
	assert.Nil(t, romaine.ShelfLifeHours)
	assert.Nil(t, romaine.Allergens)

	require.Len(t, in.Inventory, 2)
	assert.Nil(t, in.Inventory[0].ShelfLifeHours)

	require.Len(t, in.Catalog, 1)
	assert.Equal(t, "north-sea", in.Catalog[0].VendorID, "columns are matched by name")
	assert.Equal(t, []string{"fish", "shellfish"}, in.Catalog[0].Allergens)
	assert.Equal(t, 1, in.Catalog[0].LeadTimeDays)

	require.Len(t, in.History, 1)
	assert.True(t, in.History[0].WasteQty.Equal(decimal.NewFromInt(2)))
	require.Len(t, in.CartTemplates, 1)
	assert.Equal(t, 4, in.CartTemplates[0].Capacity)
	require.Len(t, in.PrepStations, 1)
	assert.Equal(t, []string{"protein", "grill"}, in.PrepStations[0].Categories)
	require.Len(t, in.LockedPrepTasks, 1)
	assert.Equal(t, 2*time.Hour, in.LockedPrepTasks[0].End.Sub(in.LockedPrepTasks[0].Start))
}

func TestLoadScenario_OptionalFiles(t *testing.T) {
	dir := writeScenario(t, map[string]string{DemandFile: demandCSV})

	in, err := NewLoader(nil).LoadScenario(dir)
	require.NoError(t, err)
	assert.Len(t, in.Demand, 2)
	assert.Empty(t, in.Inventory)
	assert.Empty(t, in.Catalog)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "missing demand",
			files:   map[string]string{},
			wantErr: "failed to open demand file",
		},
		{
			name:    "missing required column",
			files:   map[string]string{DemandFile: "id,name\ncarrots,Carrots\n"},
			wantErr: `missing column "required_qty"`,
		},
		{
			name:    "bad quantity",
			files:   map[string]string{DemandFile: "id,required_qty\ncarrots,lots\n"},
			wantErr: "demand CSV row 2: invalid required_qty",
		},
		{
			name:    "empty id",
			files:   map[string]string{DemandFile: "id,required_qty\n,5\n"},
			wantErr: "id cannot be empty",
		},
		{
			name: "bad catalog lead time",
			files: map[string]string{
				DemandFile:  "id,required_qty\ncarrots,5\n",
				CatalogFile: "id,vendor_id,item_id,unit_cost,lead_time_days\nopt,v,carrots,2,soon\n",
			},
			wantErr: "catalog CSV row 2: invalid lead_time_days",
		},
		{
			name: "bad locked task time",
			files: map[string]string{
				DemandFile:      "id,required_qty\ncarrots,5\n",
				LockedTasksFile: "demand_item_id,start,end\ncarrots,tomorrow,2025-06-14\n",
			},
			wantErr: "invalid start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeScenario(t, tt.files)
			_, err := NewLoader(nil).LoadScenario(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTable_RaggedRow(t *testing.T) {
	err := parseTable(strings.NewReader("id,required_qty\ncarrots\n"), "demand", nil, func(row) error { return nil })
	assert.Error(t, err)
}
