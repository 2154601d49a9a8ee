package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// CleanColumns is the column order of the cleaned trip file
var CleanColumns = []string{
	ColID,
	ColVendorID,
	ColPickupDatetime,
	ColDropoffDatetime,
	ColPassengerCount,
	ColPickupLongitude,
	ColPickupLatitude,
	ColDropoffLongitude,
	ColDropoffLatitude,
	ColStoreAndFwdFlag,
	ColTripDuration,
	"trip_duration_minutes",
	"trip_distance_miles",
	"avg_speed_mph",
	"pickup_hour",
	"pickup_day_of_week",
	"pickup_day_name",
	"pickup_month",
	"is_weekend",
	"time_of_day",
	"is_rush_hour",
	"speed_category",
}

// WriteCleanFile writes cleaned records to path, replacing any existing file
func WriteCleanFile(path string, records []models.CleanTripRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "create cleaned file", err)
	}
	if err := WriteClean(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "close cleaned file", err)
	}
	return nil
}

// WriteClean writes a header row followed by one row per record.
// Booleans are written as 0/1 and missing optional values as empty cells.
func WriteClean(w io.Writer, records []models.CleanTripRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CleanColumns); err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "write cleaned header", err)
	}

	row := make([]string, len(CleanColumns))
	for _, r := range records {
		row[0] = r.ID
		row[1] = formatNullInt(r.VendorID)
		row[2] = r.PickupDatetime.Format(models.DateTimeLayout)
		row[3] = r.DropoffDatetime.Format(models.DateTimeLayout)
		row[4] = strconv.Itoa(r.PassengerCount)
		row[5] = formatFloat(r.PickupLongitude)
		row[6] = formatFloat(r.PickupLatitude)
		row[7] = formatFloat(r.DropoffLongitude)
		row[8] = formatFloat(r.DropoffLatitude)
		row[9] = r.StoreAndFwdFlag.String
		row[10] = strconv.Itoa(r.TripDuration)
		row[11] = formatFloat(r.TripDurationMinutes)
		row[12] = formatFloat(r.TripDistanceMiles)
		row[13] = formatFloat(r.AvgSpeedMph)
		row[14] = strconv.Itoa(r.PickupHour)
		row[15] = strconv.Itoa(r.PickupDayOfWeek)
		row[16] = r.PickupDayName
		row[17] = strconv.Itoa(r.PickupMonth)
		row[18] = formatBool(r.IsWeekend)
		row[19] = r.TimeOfDay
		row[20] = formatBool(r.IsRushHour)
		row[21] = r.SpeedCategory

		if err := cw.Write(row); err != nil {
			return apperrors.New(apperrors.PersistenceFailure, "write cleaned row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "flush cleaned file", err)
	}
	return nil
}

// ReadCleanFile reads a cleaned trip file from path
func ReadCleanFile(path string) ([]models.CleanTripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.New(apperrors.SourceUnreadable, "open cleaned file", err)
	}
	defer f.Close()

	return ReadClean(f)
}

// ReadClean parses a file written by WriteClean. Every column must be
// present; a cell that does not parse makes the whole file unreadable.
func ReadClean(r io.Reader) ([]models.CleanTripRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Newf(apperrors.SchemaMismatch, "read cleaned header", "empty input, no header row")
		}
		return nil, apperrors.New(apperrors.SourceUnreadable, "read cleaned header", err)
	}

	idx, err := indexHeader(header, CleanColumns, nil)
	if err != nil {
		return nil, err
	}

	var records []models.CleanTripRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.SourceUnreadable, "read cleaned row", err)
		}
		line++

		p := cleanRowParser{row: row, idx: idx}
		rec := models.CleanTripRecord{
			TripRecord: models.TripRecord{
				ID:               p.text(ColID),
				VendorID:         parseNullInt(p.text(ColVendorID)),
				PickupDatetime:   p.timestamp(ColPickupDatetime),
				DropoffDatetime:  p.timestamp(ColDropoffDatetime),
				PassengerCount:   p.integer(ColPassengerCount),
				PickupLongitude:  p.number(ColPickupLongitude),
				PickupLatitude:   p.number(ColPickupLatitude),
				DropoffLongitude: p.number(ColDropoffLongitude),
				DropoffLatitude:  p.number(ColDropoffLatitude),
				StoreAndFwdFlag:  parseNullString(p.text(ColStoreAndFwdFlag)),
				TripDuration:     p.integer(ColTripDuration),
			},
			TripDurationMinutes: p.number("trip_duration_minutes"),
			TripDistanceMiles:   p.number("trip_distance_miles"),
			AvgSpeedMph:         p.number("avg_speed_mph"),
			PickupHour:          p.integer("pickup_hour"),
			PickupDayOfWeek:     p.integer("pickup_day_of_week"),
			PickupDayName:       p.text("pickup_day_name"),
			PickupMonth:         p.integer("pickup_month"),
			IsWeekend:           p.flag("is_weekend"),
			TimeOfDay:           p.text("time_of_day"),
			IsRushHour:          p.flag("is_rush_hour"),
			SpeedCategory:       p.text("speed_category"),
		}
		if p.err != nil {
			return nil, apperrors.New(apperrors.SourceUnreadable, fmt.Sprintf("parse cleaned row %d", line), p.err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// cleanRowParser parses typed cells, keeping the first error
type cleanRowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *cleanRowParser) text(col string) string {
	i := p.idx[col]
	if i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *cleanRowParser) fail(col, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: invalid value %q: %w", col, value, err)
	}
}

func (p *cleanRowParser) integer(col string) int {
	s := p.text(col)
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(col, s, err)
	}
	return v
}

func (p *cleanRowParser) number(col string) float64 {
	s := p.text(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(col, s, err)
	}
	return v
}

func (p *cleanRowParser) flag(col string) bool {
	s := p.text(col)
	switch strings.ToLower(s) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	p.fail(col, s, errors.New("expected 0 or 1"))
	return false
}

func (p *cleanRowParser) timestamp(col string) time.Time {
	s := p.text(col)
	v, err := ParseTimestamp(s)
	if err != nil {
		p.fail(col, s, err)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatNullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}
