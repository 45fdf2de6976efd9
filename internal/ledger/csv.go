package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/models"
)

/*
CSV layout

Single-project:
date,bond_yield,total_rate,annual_payment,total_interest,household_impact

Portfolio:
date,bond_yield,total_rate,grand_annual,grand_interest[,source]

One data row per calendar day under append_dedup_by_day; exactly one data
row ever under overwrite_single. Every mutation builds the full file in
memory and replaces it via temp-file + fsync + rename, so an interrupted
run never leaves a truncated log behind.
*/

// CSVStore persists ImpactRecords into a delimited log file.
type CSVStore struct {
	path          string
	policy        models.WritePolicy
	portfolio     bool
	includeSource bool
	log           *logrus.Logger
}

// NewCSVStore creates a writer for path. portfolio selects the aggregate
// schema; includeSource appends a trailing source column (portfolio schema
// only).
func NewCSVStore(path string, policy models.WritePolicy, portfolio, includeSource bool, log *logrus.Logger) *CSVStore {
	return &CSVStore{
		path:          path,
		policy:        policy,
		portfolio:     portfolio,
		includeSource: includeSource,
		log:           log,
	}
}

// Write records rec according to the configured policy. Any failure is a
// *PersistenceError.
func (w *CSVStore) Write(rec models.ImpactRecord) error {
	row := w.row(rec)

	var rows [][]string
	switch w.policy {
	case models.WriteOverwriteSingle:
		rows = [][]string{w.header(), row}
	case models.WriteAppendDedupByDay:
		existing, err := w.readRows()
		if err != nil {
			return &PersistenceError{Op: "read existing log", Err: err}
		}
		if existing == nil {
			rows = [][]string{w.header(), row}
		} else if len(existing) > 1 && existing[len(existing)-1][0] == rec.Date {
			// Same-day rerun: last write wins, no duplicate row.
			w.log.Infof("Replacing today's ledger entry with bond yield %.3f%%", rec.BondYield)
			existing[len(existing)-1] = row
			rows = existing
		} else {
			rows = append(existing, row)
		}
	default:
		return &PersistenceError{Op: "write", Err: fmt.Errorf("unknown write policy %q", w.policy)}
	}

	if err := atomicWriteCSV(w.path, rows); err != nil {
		return &PersistenceError{Op: "write log", Err: err}
	}
	return nil
}

// History returns every persisted record in file order.
func (w *CSVStore) History() ([]models.ImpactRecord, error) {
	rows, err := w.readRows()
	if err != nil {
		return nil, &PersistenceError{Op: "read log", Err: err}
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([]models.ImpactRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := w.parseRow(row)
		if err != nil {
			return nil, &PersistenceError{Op: "parse log row", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Last returns the most recent record, if any.
func (w *CSVStore) Last() (models.ImpactRecord, bool, error) {
	history, err := w.History()
	if err != nil || len(history) == 0 {
		return models.ImpactRecord{}, false, err
	}
	return history[len(history)-1], true, nil
}

// readRows loads the full file including the header. nil means the file
// does not exist yet.
func (w *CSVStore) readRows() ([][]string, error) {
	f, err := os.Open(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (w *CSVStore) header() []string {
	if w.portfolio {
		h := []string{"date", "bond_yield", "total_rate", "grand_annual", "grand_interest"}
		if w.includeSource {
			h = append(h, "source")
		}
		return h
	}
	return []string{"date", "bond_yield", "total_rate", "annual_payment", "total_interest", "household_impact"}
}

// row renders rec in the fixed column order for the configured schema.
// Rounding happens here and nowhere earlier.
func (w *CSVStore) row(rec models.ImpactRecord) []string {
	if w.portfolio {
		row := []string{
			rec.Date,
			fmtFloat(rec.BondYield, 3),
			fmtFloat(rec.TotalRate, 3),
			fmtFloat(rec.GrandAnnual, 2),
			fmtFloat(rec.GrandInterest, 2),
		}
		if w.includeSource {
			row = append(row, rec.Source)
		}
		return row
	}
	return []string{
		rec.Date,
		fmtFloat(rec.BondYield, 3),
		fmtFloat(rec.TotalRate, 3),
		fmtFloat(rec.AnnualPayment, 2),
		fmtFloat(rec.TotalInterest, 2),
		fmtFloat(rec.HouseholdImpact, 2),
	}
}

func (w *CSVStore) parseRow(row []string) (models.ImpactRecord, error) {
	want := len(w.header())
	if len(row) < want {
		return models.ImpactRecord{}, fmt.Errorf("short row: %d fields, want %d", len(row), want)
	}

	rec := models.ImpactRecord{Date: row[0]}
	vals := make([]float64, 0, want-1)
	for _, s := range row[1:want] {
		if w.portfolio && w.includeSource && len(vals) == 4 {
			break
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.ImpactRecord{}, fmt.Errorf("bad numeric field %q: %v", s, err)
		}
		vals = append(vals, v)
	}

	rec.BondYield = vals[0]
	rec.TotalRate = vals[1]
	if w.portfolio {
		rec.GrandAnnual = vals[2]
		rec.GrandInterest = vals[3]
		if w.includeSource {
			rec.Source = row[5]
		}
	} else {
		rec.AnnualPayment = vals[2]
		rec.TotalInterest = vals[3]
		rec.HouseholdImpact = vals[4]
	}
	return rec, nil
}

func fmtFloat(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// atomicWriteCSV writes rows to a temp file in the target directory, syncs
// it, then renames it over path. Success means the bytes are on disk.
func atomicWriteCSV(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "tmp-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
