package stock

import (
	"github.com/uhs/uhs/pkg/listview"
)

// DateLayout is the backend's date format.
const DateLayout = "2006-01-02"

type StockRef struct {
	ID        string `json:"id"`
	Medicine  string `json:"medicineName"`
	BatchNo   string `json:"batchNumber,omitempty"`
	Composite string `json:"composition,omitempty"`
}

type Location struct {
	ID   string `json:"id"`
	Name string `json:"locationName"`
}

// DailyLog is one day's usage of one stock item at one location. The backend
// keeps MedicineBalance = OpeningBalance - MedicineConsumed.
type DailyLog struct {
	ID               string   `json:"id"`
	Stock            StockRef `json:"stock"`
	Location         Location `json:"location"`
	Date             string   `json:"date"`
	OpeningBalance   int      `json:"openingBalance"`
	MedicineConsumed int      `json:"medicineConsumed"`
	MedicineBalance  int      `json:"medicineBalance"`
	EnteredBy        string   `json:"enteredBy"`
}

// LogInput is the body of POST /api/daily-log/log.
type LogInput struct {
	StockID          string `json:"stockId"`
	LocationID       string `json:"locationId"`
	Date             string `json:"date"`
	OpeningBalance   int    `json:"openingBalance"`
	MedicineConsumed int    `json:"medicineConsumed"`
	MedicineBalance  int    `json:"medicineBalance"`
}

// LogQuery selects logs for GET /api/daily-log/logs.
type LogQuery struct {
	LocationID string `query:"locationId" json:"locationId"`
	StartDate  string `query:"startDate" json:"startDate"`
	EndDate    string `query:"endDate" json:"endDate"`
}

// FilterType is the period of a daily log export.
type FilterType string

const (
	FilterDay   FilterType = "day"
	FilterWeek  FilterType = "week"
	FilterMonth FilterType = "month"
	FilterYear  FilterType = "year"
)

func (f FilterType) Valid() bool {
	switch f {
	case FilterDay, FilterWeek, FilterMonth, FilterYear:
		return true
	}
	return false
}

// ExportQuery parameterises the advanced stock export.
type ExportQuery struct {
	Role       string `query:"role"`
	LocationID string `query:"locationId"`
	StartDate  string `query:"startDate"`
	EndDate    string `query:"endDate"`
	Medicine   string `query:"medicine"`
}

func LogColumns() []listview.Column[DailyLog] {
	return []listview.Column[DailyLog]{
		{Key: "date", Title: "Date", Text: func(l DailyLog) string { return l.Date }},
		{Key: "medicine", Title: "Medicine", Text: func(l DailyLog) string { return l.Stock.Medicine }, Searchable: true},
		{Key: "location", Title: "Location", Text: func(l DailyLog) string { return l.Location.Name }, Searchable: true},
		{Key: "opening", Title: "Opening", Number: func(l DailyLog) float64 { return float64(l.OpeningBalance) }},
		{Key: "consumed", Title: "Consumed", Number: func(l DailyLog) float64 { return float64(l.MedicineConsumed) }},
		{Key: "balance", Title: "Balance", Number: func(l DailyLog) float64 { return float64(l.MedicineBalance) }},
		{Key: "batch", Title: "Batch", Text: func(l DailyLog) string { return l.Stock.BatchNo }, Searchable: true, Secondary: true},
		{Key: "enteredBy", Title: "Entered by", Text: func(l DailyLog) string { return l.EnteredBy }, Searchable: true, Secondary: true},
	}
}
