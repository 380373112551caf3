//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"sort"
	"time"

	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

// buildCalendar collects every distinct date carried by any date-valued
// field in the snapshot and emits one dim_calendar row per date, ascending.
// By construction no fact can reference a date outside the calendar.
func (b *Builder) buildCalendar(ds *rawdata.Dataset, snap *warehouse.Snapshot) {
	seen := make(map[string]time.Time)
	add := func(t time.Time) {
		if t.IsZero() {
			return
		}
		d := dateOnly(t)
		seen[d.Format(warehouse.DateLayout)] = d
	}

	for i := range ds.Customers {
		add(ds.Customers[i].CreatedAt)
	}
	for i := range ds.Addresses {
		add(ds.Addresses[i].CreatedAt)
	}
	for i := range ds.Products {
		add(ds.Products[i].CreatedAt)
	}
	for i := range ds.SalesOrders {
		add(ds.SalesOrders[i].OrderDate)
	}
	for i := range ds.Payments {
		add(ds.Payments[i].PaidAt)
	}
	for i := range ds.Shipments {
		add(ds.Shipments[i].ShippedAt)
		add(ds.Shipments[i].DeliveredAt)
	}
	for i := range ds.WebSessions {
		add(ds.WebSessions[i].StartedAt)
		add(ds.WebSessions[i].EndedAt)
	}
	for i := range ds.NPSResponses {
		add(ds.NPSResponses[i].RespondedAt)
	}

	// ISO date strings sort chronologically.
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap.Calendar = make([]warehouse.CalendarDay, 0, len(keys))
	for i, k := range keys {
		d := seen[k]
		weekday := d.Weekday()
		_, week := d.ISOWeek()
		day := warehouse.CalendarDay{
			ID:         int64(i + 1),
			Date:       d,
			Day:        d.Day(),
			Month:      int(d.Month()),
			Year:       d.Year(),
			DayName:    weekday.String(),
			MonthName:  d.Month().String(),
			Quarter:    (int(d.Month())-1)/3 + 1,
			WeekNumber: week,
			YearMonth:  d.Format("2006-01"),
			IsWeekend:  weekday == time.Saturday || weekday == time.Sunday,
		}
		snap.Calendar = append(snap.Calendar, day)
		b.resolver.Add(DimCalendar, k, day.ID)
	}
}

// dateOnly strips the clock component, keeping the wall-clock date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateKey formats a timestamp as its calendar natural key.
func dateKey(t time.Time) string {
	return dateOnly(t).Format(warehouse.DateLayout)
}

// timeOfDay formats the clock component; absent timestamps render midnight.
func timeOfDay(t time.Time) string {
	if t.IsZero() {
		return "00:00:00"
	}
	return t.Format("15:04:05")
}
