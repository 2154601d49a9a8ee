// Package dataset reads and writes the tabular files around a cleaning run:
// the raw trip feed, the cleaned trip file and the audit log.
package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// Raw feed columns
const (
	ColID               = "id"
	ColVendorID         = "vendor_id"
	ColPickupDatetime   = "pickup_datetime"
	ColDropoffDatetime  = "dropoff_datetime"
	ColPassengerCount   = "passenger_count"
	ColPickupLongitude  = "pickup_longitude"
	ColPickupLatitude   = "pickup_latitude"
	ColDropoffLongitude = "dropoff_longitude"
	ColDropoffLatitude  = "dropoff_latitude"
	ColStoreAndFwdFlag  = "store_and_fwd_flag"
	ColTripDuration     = "trip_duration"
)

// RawRequiredColumns must appear in the header of every raw feed.
// A missing column is a schema failure; missing cells are not.
var RawRequiredColumns = []string{
	ColID,
	ColPickupDatetime,
	ColDropoffDatetime,
	ColPassengerCount,
	ColPickupLongitude,
	ColPickupLatitude,
	ColDropoffLongitude,
	ColDropoffLatitude,
	ColTripDuration,
}

// RawOptionalColumns are read when present
var RawOptionalColumns = []string{ColVendorID, ColStoreAndFwdFlag}

// timestampLayouts are tried in order; the wall clock is kept as written
var timestampLayouts = []string{
	models.DateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ReadRawFile reads a raw trip feed from path
func ReadRawFile(path string) ([]models.RawTripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.New(apperrors.SourceUnreadable, "open raw feed", err)
	}
	defer f.Close()

	return ReadRaw(f)
}

// ReadRaw reads a raw trip feed. Empty, absent or unparsable cells become
// nulls; only an unreadable stream or a missing required column is an error.
func ReadRaw(r io.Reader) ([]models.RawTripRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	// short rows are kept and their trailing cells read as null
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Newf(apperrors.SchemaMismatch, "read raw header", "empty input, no header row")
		}
		return nil, apperrors.New(apperrors.SourceUnreadable, "read raw header", err)
	}

	idx, err := indexHeader(header, RawRequiredColumns, RawOptionalColumns)
	if err != nil {
		return nil, err
	}

	var records []models.RawTripRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.SourceUnreadable, "read raw row", err)
		}

		cell := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		records = append(records, models.RawTripRecord{
			ID:               cell(ColID),
			VendorID:         parseNullInt(cell(ColVendorID)),
			PickupDatetime:   parseNullTime(cell(ColPickupDatetime)),
			DropoffDatetime:  parseNullTime(cell(ColDropoffDatetime)),
			PassengerCount:   parseNullInt(cell(ColPassengerCount)),
			PickupLongitude:  parseNullFloat(cell(ColPickupLongitude)),
			PickupLatitude:   parseNullFloat(cell(ColPickupLatitude)),
			DropoffLongitude: parseNullFloat(cell(ColDropoffLongitude)),
			DropoffLatitude:  parseNullFloat(cell(ColDropoffLatitude)),
			StoreAndFwdFlag:  parseNullString(cell(ColStoreAndFwdFlag)),
			TripDuration:     parseNullInt(cell(ColTripDuration)),
		})
	}

	return records, nil
}

// indexHeader maps known column names to positions. Every missing required
// column is reported in one SchemaMismatch error.
func indexHeader(header, required, optional []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Newf(apperrors.SchemaMismatch, "validate header",
			"missing required columns: %s", strings.Join(missing, ", "))
	}

	known := make(map[string]bool, len(required)+len(optional))
	for _, col := range required {
		known[col] = true
	}
	for _, col := range optional {
		known[col] = true
	}
	for name := range idx {
		if !known[name] {
			delete(idx, name)
		}
	}
	return idx, nil
}

func parseNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseNullFloat(s string) sql.NullFloat64 {
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// parseNullInt accepts plain integers and integral floats such as "2.0"
func parseNullInt(s string) sql.NullInt64 {
	if s == "" {
		return sql.NullInt64{}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: v, Valid: true}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f > math.MaxInt64 || f < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

func parseNullTime(s string) sql.NullTime {
	if s == "" {
		return sql.NullTime{}
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// ParseTimestamp parses a trip timestamp in any accepted layout
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
