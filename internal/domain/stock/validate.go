package stock

import (
	"time"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

func validDate(field, value string) error {
	if len(value) != len(DateLayout) {
		return apiclient.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return apiclient.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return nil
}

func nonNegative(field string, n int) error {
	if n < 0 {
		return apiclient.Invalid(field, "must not be negative")
	}
	return nil
}

// Validate checks a log entry before it is sent.
func (in *LogInput) Validate() error {
	if in.StockID == "" {
		return apiclient.Invalid("stockId", "is required")
	}
	if in.LocationID == "" {
		return apiclient.Invalid("locationId", "is required")
	}
	if err := validDate("date", in.Date); err != nil {
		return err
	}
	if err := nonNegative("openingBalance", in.OpeningBalance); err != nil {
		return err
	}
	if err := nonNegative("medicineConsumed", in.MedicineConsumed); err != nil {
		return err
	}
	return nonNegative("medicineBalance", in.MedicineBalance)
}

// Validate checks the date range. Dates in YYYY-MM-DD order
// lexicographically, so the range check compares strings.
func (q *LogQuery) Validate() error {
	if err := validDate("startDate", q.StartDate); err != nil {
		return err
	}
	if err := validDate("endDate", q.EndDate); err != nil {
		return err
	}
	if q.StartDate > q.EndDate {
		return apiclient.Invalid("startDate", "must not be after endDate")
	}
	return nil
}

func (q *ExportQuery) Validate() error {
	if q.StartDate != "" {
		if err := validDate("startDate", q.StartDate); err != nil {
			return err
		}
	}
	if q.EndDate != "" {
		if err := validDate("endDate", q.EndDate); err != nil {
			return err
		}
	}
	if q.StartDate != "" && q.EndDate != "" && q.StartDate > q.EndDate {
		return apiclient.Invalid("startDate", "must not be after endDate")
	}
	return nil
}
