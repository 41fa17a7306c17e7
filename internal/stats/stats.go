// Package stats computes the managerial dashboard figures from the
// appointment set. Every function here is pure.
package stats

import (
	"time"

	"neokids-server/internal/models"
)

// DashboardStats is the payload of GET /dashboard/stats.
type DashboardStats struct {
	TotalAppointments int                              `json:"totalAppointments"`
	TodayAppointments int                              `json:"todayAppointments"`
	TotalRevenue      float64                          `json:"totalRevenue"`
	TodayRevenue      float64                          `json:"todayRevenue"`
	StatusCounts      map[models.AppointmentStatus]int `json:"statusCounts"`
	AverageTicket     float64                          `json:"averageTicket"`
}

// Compute scans appointments once. An appointment counts as "today" when its
// creation time falls on asOf's calendar date in asOf's location. Statuses
// that do not occur are absent from StatusCounts.
func Compute(appointments []models.Appointment, asOf time.Time) DashboardStats {
	out := DashboardStats{
		TotalAppointments: len(appointments),
		StatusCounts:      map[models.AppointmentStatus]int{},
	}

	for _, a := range appointments {
		out.TotalRevenue += a.TotalAmount
		if sameDay(a.CreatedAt, asOf) {
			out.TodayAppointments++
			out.TodayRevenue += a.TotalAmount
		}
		out.StatusCounts[a.Status]++
	}

	if out.TotalAppointments > 0 {
		out.AverageTicket = out.TotalRevenue / float64(out.TotalAppointments)
	}
	return out
}

func sameDay(t, asOf time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(asOf.Location()).Date()
	y2, m2, d2 := asOf.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
