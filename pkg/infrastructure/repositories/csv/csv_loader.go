// Package csv loads committee scenarios from a directory of CSV files.
//
// A scenario directory holds demand.csv and, optionally, inventory.csv,
// catalog.csv, history.csv, carts.csv, stations.csv and locked_tasks.csv.
// Columns are matched by header name, so order does not matter and unknown
// columns are ignored. List columns are separated by semicolons.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
)

// Scenario file names.
const (
	DemandFile      = "demand.csv"
	InventoryFile   = "inventory.csv"
	CatalogFile     = "catalog.csv"
	HistoryFile     = "history.csv"
	CartsFile       = "carts.csv"
	StationsFile    = "stations.csv"
	LockedTasksFile = "locked_tasks.csv"
)

// Loader handles loading committee inputs from CSV files
type Loader struct {
	logger logging.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(logger logging.Logger) *Loader {
	return &Loader{logger: logging.OrNop(logger)}
}

// LoadScenario reads every scenario file in dir. Only demand.csv is required.
func (l *Loader) LoadScenario(dir string) (*dto.CommitteeInputs, error) {
	in := &dto.CommitteeInputs{}
	var err error

	if in.Demand, err = l.LoadDemand(filepath.Join(dir, DemandFile)); err != nil {
		return nil, err
	}
	optional := []struct {
		name string
		load func(string) error
	}{
		{InventoryFile, func(p string) (err error) { in.Inventory, err = l.LoadInventory(p); return }},
		{CatalogFile, func(p string) (err error) { in.Catalog, err = l.LoadCatalog(p); return }},
		{HistoryFile, func(p string) (err error) { in.History, err = l.LoadHistory(p); return }},
		{CartsFile, func(p string) (err error) { in.CartTemplates, err = l.LoadCarts(p); return }},
		{StationsFile, func(p string) (err error) { in.PrepStations, err = l.LoadStations(p); return }},
		{LockedTasksFile, func(p string) (err error) { in.LockedPrepTasks, err = l.LoadLockedTasks(p); return }},
	}
	for _, f := range optional {
		path := filepath.Join(dir, f.name)
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			l.logger.Debug("scenario file absent", "file", f.name)
			continue
		}
		if err := f.load(path); err != nil {
			return nil, err
		}
	}

	l.logger.Info("scenario loaded",
		"dir", dir,
		"demand", len(in.Demand),
		"inventory", len(in.Inventory),
		"catalog", len(in.Catalog),
		"history", len(in.History))
	return in, nil
}

// LoadDemand loads demand items from a CSV file
func (l *Loader) LoadDemand(filename string) ([]entities.DemandItem, error) {
	var items []entities.DemandItem
	err := readTable(filename, "demand", []string{"id", "required_qty"}, func(r row) error {
		item := entities.DemandItem{
			ID:                 r.str("id"),
			Name:               r.str("name"),
			RequiredQty:        r.decimal("required_qty"),
			Unit:               r.str("unit"),
			NeededBy:           r.time("needed_by"),
			OnHandQty:          r.nullDecimal("on_hand_qty"),
			ParLevel:           r.nullDecimal("par_level"),
			ShelfLifeHours:     r.optFloat("shelf_life_hours"),
			PrepMinutesPerUnit: r.float("prep_minutes_per_unit"),
			Allergens:          r.list("allergens"),
			UnderOrderRisk:     r.optFloat("under_order_risk"),
			WasteCostPerUnit:   r.nullDecimal("waste_cost_per_unit"),
			Category:           r.str("category"),
			Outlet:             r.str("outlet"),
		}
		if item.ID == "" {
			return fmt.Errorf("id cannot be empty")
		}
		items = append(items, item)
		return r.err
	})
	return items, err
}

// LoadInventory loads inventory counts from a CSV file
func (l *Loader) LoadInventory(filename string) ([]entities.InventorySnapshotItem, error) {
	var items []entities.InventorySnapshotItem
	err := readTable(filename, "inventory", []string{"item_id", "on_hand_qty"}, func(r row) error {
		items = append(items, entities.InventorySnapshotItem{
			ItemID:         r.str("item_id"),
			Name:           r.str("name"),
			OnHandQty:      r.decimal("on_hand_qty"),
			Unit:           r.str("unit"),
			UnitCost:       r.decimal("unit_cost"),
			ShelfLifeHours: r.optFloat("shelf_life_hours"),
			LastCountedAt:  r.time("last_counted_at"),
			Location:       r.str("location"),
		})
		return r.err
	})
	return items, err
}

// LoadCatalog loads supplier options from a CSV file
func (l *Loader) LoadCatalog(filename string) ([]entities.SupplierOption, error) {
	var options []entities.SupplierOption
	err := readTable(filename, "catalog", []string{"id", "vendor_id", "item_id", "unit_cost"}, func(r row) error {
		options = append(options, entities.SupplierOption{
			ID:              r.str("id"),
			VendorID:        r.str("vendor_id"),
			VendorName:      r.str("vendor_name"),
			ItemID:          r.str("item_id"),
			OrderUnit:       r.str("order_unit"),
			PackSize:        r.decimal("pack_size"),
			UnitCost:        r.decimal("unit_cost"),
			LeadTimeDays:    r.int("lead_time_days"),
			ShelfLifeHours:  r.optFloat("shelf_life_hours"),
			Allergens:       r.list("allergens"),
			MinimumOrderQty: r.decimal("minimum_order_qty"),
			Currency:        r.str("currency"),
		})
		return r.err
	})
	return options, err
}

// LoadHistory loads historical demand samples from a CSV file
func (l *Loader) LoadHistory(filename string) ([]entities.HistoricalDemandSample, error) {
	var samples []entities.HistoricalDemandSample
	err := readTable(filename, "history", []string{"item_id", "fulfilled_qty"}, func(r row) error {
		samples = append(samples, entities.HistoricalDemandSample{
			ItemID:       r.str("item_id"),
			ServiceDate:  r.time("service_date"),
			FulfilledQty: r.decimal("fulfilled_qty"),
			WasteQty:     r.decimal("waste_qty"),
		})
		return r.err
	})
	return samples, err
}

// LoadCarts loads cart templates from a CSV file
func (l *Loader) LoadCarts(filename string) ([]entities.CartTemplate, error) {
	var carts []entities.CartTemplate
	err := readTable(filename, "carts", []string{"id"}, func(r row) error {
		carts = append(carts, entities.CartTemplate{
			ID:       r.str("id"),
			Name:     r.str("name"),
			Outlet:   r.str("outlet"),
			Capacity: r.int("capacity"),
		})
		return r.err
	})
	return carts, err
}

// LoadStations loads prep stations from a CSV file
func (l *Loader) LoadStations(filename string) ([]entities.PrepStation, error) {
	var stations []entities.PrepStation
	err := readTable(filename, "stations", []string{"id"}, func(r row) error {
		stations = append(stations, entities.PrepStation{
			ID:         r.str("id"),
			Name:       r.str("name"),
			Categories: r.list("categories"),
		})
		return r.err
	})
	return stations, err
}

// LoadLockedTasks loads the locked versions of prep tasks from a CSV file
func (l *Loader) LoadLockedTasks(filename string) ([]entities.PrepTask, error) {
	var tasks []entities.PrepTask
	err := readTable(filename, "locked tasks", []string{"demand_item_id", "start", "end"}, func(r row) error {
		tasks = append(tasks, entities.PrepTask{
			ID:           r.str("id"),
			DemandItemID: r.str("demand_item_id"),
			StationID:    r.str("station_id"),
			Qty:          r.decimal("qty"),
			Unit:         r.str("unit"),
			Start:        r.time("start"),
			End:          r.time("end"),
			LaborHours:   r.float("labor_hours"),
			OvertimeRisk: r.float("overtime_risk"),
		})
		return r.err
	})
	return tasks, err
}

// readTable opens filename, checks that the required columns are present and
// calls fn once per data row. Row numbers in errors count the header as 1.
func readTable(filename, kind string, required []string, fn func(row) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()
	return parseTable(file, kind, required, fn)
}

func parseTable(src io.Reader, kind string, required []string, fn func(row) error) error {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s CSV must have a header row", kind)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("%s CSV header missing column %q. Got: %v", kind, name, records[0])
		}
	}

	for i, record := range records[1:] {
		if len(record) != len(records[0]) {
			return fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(records[0]), len(record))
		}
		r := row{columns: columns, record: record}
		if err := fn(r); err != nil {
			return fmt.Errorf("%s CSV row %d: %w", kind, i+2, err)
		}
	}
	return nil
}

// row reads typed cells by column name. Missing columns and empty cells read
// as zero values. The first parse failure is kept in err.
type row struct {
	columns map[string]int
	record  []string
	err     error
}

func (r *row) str(col string) string {
	i, ok := r.columns[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *row) fail(col, value, expected string) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %q (expected %s)", col, value, expected)
	}
}

func (r *row) decimal(col string) decimal.Decimal {
	v := r.str(col)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(col, v, "a decimal number")
		return decimal.Zero
	}
	return d
}

func (r *row) nullDecimal(col string) decimal.NullDecimal {
	if r.str(col) == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r.decimal(col))
}

func (r *row) float(col string) float64 {
	if f := r.optFloat(col); f != nil {
		return *f
	}
	return 0
}

func (r *row) optFloat(col string) *float64 {
	v := r.str(col)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(col, v, "a number")
		return nil
	}
	return &f
}

func (r *row) int(col string) int {
	v := r.str(col)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(col, v, "an integer")
		return 0
	}
	return n
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func (r *row) time(col string) time.Time {
	v := r.str(col)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	r.fail(col, v, "RFC 3339 or YYYY-MM-DD")
	return time.Time{}
}

func (r *row) list(col string) []string {
	v := r.str(col)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
