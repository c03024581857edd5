package stock

import (
	"errors"
	"testing"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

func validInput() LogInput {
	return LogInput{
		StockID:          "s1",
		LocationID:       "l1",
		Date:             "2024-05-01",
		OpeningBalance:   40,
		MedicineConsumed: 5,
		MedicineBalance:  35,
	}
}

func TestLogInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *LogInput)
		field  string
	}{
		{"valid", func(in *LogInput) {}, ""},
		{"zero balances", func(in *LogInput) { in.OpeningBalance, in.MedicineConsumed, in.MedicineBalance = 0, 0, 0 }, ""},
		{"missing stock", func(in *LogInput) { in.StockID = "" }, "stockId"},
		{"missing location", func(in *LogInput) { in.LocationID = "" }, "locationId"},
		{"slashed date", func(in *LogInput) { in.Date = "2024/05/01" }, "date"},
		{"short date", func(in *LogInput) { in.Date = "2024-5-1" }, "date"},
		{"impossible date", func(in *LogInput) { in.Date = "2024-02-30" }, "date"},
		{"negative opening", func(in *LogInput) { in.OpeningBalance = -1 }, "openingBalance"},
		{"negative consumed", func(in *LogInput) { in.MedicineConsumed = -3 }, "medicineConsumed"},
		{"negative balance", func(in *LogInput) { in.MedicineBalance = -10 }, "medicineBalance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var ve *apiclient.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestLogQuery_Validate(t *testing.T) {
	tests := []struct {
		start, end string
		wantErr    bool
	}{
		{"2024-05-01", "2024-05-31", false},
		{"2024-05-01", "2024-05-01", false},
		{"2024-06-01", "2024-05-31", true},
		{"2024-05-01", "", true},
		{"", "2024-05-01", true},
		{"01-05-2024", "2024-05-31", true},
	}
	for _, tt := range tests {
		q := LogQuery{StartDate: tt.start, EndDate: tt.end}
		if err := q.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q, %q) = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
		}
	}
}

func TestExportQuery_Validate(t *testing.T) {
	if err := (&ExportQuery{}).Validate(); err != nil {
		t.Errorf("open range should be valid: %v", err)
	}
	if err := (&ExportQuery{StartDate: "2024-02-01", EndDate: "2024-01-01"}).Validate(); err == nil {
		t.Error("expected inverted range to fail")
	}
	if err := (&ExportQuery{EndDate: "yesterday"}).Validate(); err == nil {
		t.Error("expected malformed end date to fail")
	}
}

func TestFilterType_Valid(t *testing.T) {
	for _, f := range []FilterType{FilterDay, FilterWeek, FilterMonth, FilterYear} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if FilterType("quarter").Valid() || FilterType("").Valid() {
		t.Error("unexpected valid filter type")
	}
}
