package transform

import (
	"testing"
	"time"

	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

func TestBuildCalendarDistinctAscending(t *testing.T) {
	// Three distinct dates spread across several sources, with repeats:
	// the calendar must contain exactly one row per date, ascending.
	ds := &rawdata.Dataset{
		SalesOrders: []rawdata.SalesOrder{
			{OrderID: "O-1", OrderDate: ts("2024-03-10")},
			{OrderID: "O-2", OrderDate: ts("2024-03-05")},
		},
		Payments: []rawdata.Payment{
			{PaymentID: "PAY-1", PaidAt: ts("2024-03-10 14:00:00")},
		},
		WebSessions: []rawdata.WebSession{
			{SessionID: "WS-1", StartedAt: ts("2024-03-01 09:30:00")},
			{SessionID: "WS-2", StartedAt: ts("2024-03-05 10:00:00")},
		},
	}

	b := New(Options{})
	snap := &warehouse.Snapshot{}
	b.buildCalendar(ds, snap)

	if len(snap.Calendar) != 3 {
		t.Fatalf("Expected 3 calendar rows, got %d", len(snap.Calendar))
	}
	wantDates := []string{"2024-03-01", "2024-03-05", "2024-03-10"}
	for i, want := range wantDates {
		row := snap.Calendar[i]
		if row.ID != int64(i+1) {
			t.Errorf("row %d: ID %d, want %d", i, row.ID, i+1)
		}
		if got := row.Date.Format(warehouse.DateLayout); got != want {
			t.Errorf("row %d: date %s, want %s", i, got, want)
		}
	}

	// Every date resolves through the calendar lookup.
	for _, want := range wantDates {
		if _, ok := b.resolver.Resolve(DimCalendar, want); !ok {
			t.Errorf("date %s not registered in resolver", want)
		}
	}
	if b.resolver.Size(DimCalendar) != 3 {
		t.Errorf("resolver has %d calendar keys, want 3", b.resolver.Size(DimCalendar))
	}
}

func TestBuildCalendarAttributes(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		day        int
		month      int
		year       int
		dayName    string
		monthName  string
		quarter    int
		weekNumber int
		yearMonth  string
		isWeekend  bool
	}{
		{
			name: "weekday mid-year", date: "2024-05-15",
			day: 15, month: 5, year: 2024, dayName: "Wednesday", monthName: "May",
			quarter: 2, weekNumber: 20, yearMonth: "2024-05", isWeekend: false,
		},
		{
			name: "saturday", date: "2024-01-06",
			day: 6, month: 1, year: 2024, dayName: "Saturday", monthName: "January",
			quarter: 1, weekNumber: 1, yearMonth: "2024-01", isWeekend: true,
		},
		{
			name: "sunday fourth quarter", date: "2024-12-01",
			day: 1, month: 12, year: 2024, dayName: "Sunday", monthName: "December",
			quarter: 4, weekNumber: 48, yearMonth: "2024-12", isWeekend: true,
		},
		{
			name: "iso week rollover", date: "2024-12-30",
			day: 30, month: 12, year: 2024, dayName: "Monday", monthName: "December",
			quarter: 4, weekNumber: 1, yearMonth: "2024-12", isWeekend: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &rawdata.Dataset{
				SalesOrders: []rawdata.SalesOrder{{OrderID: "O-1", OrderDate: ts(tt.date)}},
			}
			b := New(Options{})
			snap := &warehouse.Snapshot{}
			b.buildCalendar(ds, snap)

			if len(snap.Calendar) != 1 {
				t.Fatalf("Expected 1 calendar row, got %d", len(snap.Calendar))
			}
			row := snap.Calendar[0]
			if row.Day != tt.day || row.Month != tt.month || row.Year != tt.year {
				t.Errorf("date parts: got %d-%d-%d, want %d-%d-%d",
					row.Year, row.Month, row.Day, tt.year, tt.month, tt.day)
			}
			if row.DayName != tt.dayName {
				t.Errorf("DayName: got %q, want %q", row.DayName, tt.dayName)
			}
			if row.MonthName != tt.monthName {
				t.Errorf("MonthName: got %q, want %q", row.MonthName, tt.monthName)
			}
			if row.Quarter != tt.quarter {
				t.Errorf("Quarter: got %d, want %d", row.Quarter, tt.quarter)
			}
			if row.WeekNumber != tt.weekNumber {
				t.Errorf("WeekNumber: got %d, want %d", row.WeekNumber, tt.weekNumber)
			}
			if row.YearMonth != tt.yearMonth {
				t.Errorf("YearMonth: got %q, want %q", row.YearMonth, tt.yearMonth)
			}
		})
	}
}

func TestBuildCalendarIsWeekend(t *testing.T) {
	ds := &rawdata.Dataset{
		SalesOrders: []rawdata.SalesOrder{
			{OrderID: "O-1", OrderDate: ts("2024-01-05")}, // Friday
			{OrderID: "O-2", OrderDate: ts("2024-01-06")}, // Saturday
			{OrderID: "O-3", OrderDate: ts("2024-01-07")}, // Sunday
			{OrderID: "O-4", OrderDate: ts("2024-01-08")}, // Monday
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	b.buildCalendar(ds, snap)

	want := []bool{false, true, true, false}
	for i, w := range want {
		if snap.Calendar[i].IsWeekend != w {
			t.Errorf("%s: IsWeekend %v, want %v",
				snap.Calendar[i].Date.Format(warehouse.DateLayout), snap.Calendar[i].IsWeekend, w)
		}
	}
}

func TestBuildCalendarCoversEveryDateField(t *testing.T) {
	// One distinct date per date-valued field across the snapshot.
	ds := &rawdata.Dataset{
		Customers: []rawdata.Customer{{CustomerID: "C1", CreatedAt: ts("2024-01-01")}},
		Addresses: []rawdata.Address{{AddressID: "AD-1", CreatedAt: ts("2024-01-02")}},
		Products:  []rawdata.Product{{SKU: "SKU-1", CreatedAt: ts("2024-01-03")}},
		SalesOrders: []rawdata.SalesOrder{
			{OrderID: "O-1", OrderDate: ts("2024-01-04")},
		},
		Payments: []rawdata.Payment{{PaymentID: "PAY-1", PaidAt: ts("2024-01-05 08:00:00")}},
		Shipments: []rawdata.Shipment{
			{ShipmentID: "SH-1", ShippedAt: ts("2024-01-06 08:00:00"), DeliveredAt: ts("2024-01-07 08:00:00")},
		},
		WebSessions: []rawdata.WebSession{
			{SessionID: "WS-1", StartedAt: ts("2024-01-08 08:00:00"), EndedAt: ts("2024-01-09 08:00:00")},
		},
		NPSResponses: []rawdata.NPSResponse{{NPSID: "N1", RespondedAt: ts("2024-01-10 08:00:00")}},
	}

	b := New(Options{})
	snap := &warehouse.Snapshot{}
	b.buildCalendar(ds, snap)

	if len(snap.Calendar) != 10 {
		t.Fatalf("Expected 10 calendar rows, got %d", len(snap.Calendar))
	}
	for i := 0; i < 10; i++ {
		want := time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
		if !snap.Calendar[i].Date.Equal(want) {
			t.Errorf("row %d: date %v, want %v", i, snap.Calendar[i].Date, want)
		}
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"full timestamp", ts("2024-01-10 14:05:09"), "14:05:09"},
		{"midnight from date-only", ts("2024-01-10"), "00:00:00"},
		{"zero time", time.Time{}, "00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeOfDay(tt.in); got != tt.want {
				t.Errorf("timeOfDay: got %q, want %q", got, tt.want)
			}
		})
	}
}
