package projections

import (
	"github.com/shopspring/decimal"

	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
)

// DashboardStats is the read model the dashboard renders from
type DashboardStats struct {
	TotalPatients     int             `json:"totalPatients"`
	TotalAttendances  int             `json:"totalAttendances"`
	TotalAbsences     int             `json:"totalAbsences"`
	TotalHolidays     int             `json:"totalHolidays"`
	TotalMyAbsences   int             `json:"totalMyAbsences"`
	PendingPayments   int             `json:"pendingPayments"`
	TotalBilled       decimal.Decimal `json:"totalBilled"`
	TotalCollected    decimal.Decimal `json:"totalCollected"`
	PendingCollection decimal.Decimal `json:"pendingCollection"`
	AttendanceRate    float64         `json:"attendanceRate"`
	PaymentRate       float64         `json:"paymentRate"`
}

// ComputeStats derives dashboard statistics from the full patient list. It is
// a pure total function, recomputed after every mutation rather than updated
// incrementally: input sizes are small and recomputation keeps the contract
// trivially testable. Records with unset status are excluded from every
// attendance counter; records with zero amount are excluded from billing.
func ComputeStats(patients []entities.Patient) DashboardStats {
	stats := DashboardStats{
		TotalPatients:  len(patients),
		TotalBilled:    decimal.Zero,
		TotalCollected: decimal.Zero,
	}

	for i := range patients {
		for j := range patients[i].Attendance {
			record := &patients[i].Attendance[j]

			switch record.Status {
			case valueobjects.StatusPresent:
				stats.TotalAttendances++
			case valueobjects.StatusAbsent:
				stats.TotalAbsences++
			case valueobjects.StatusHoliday:
				stats.TotalHolidays++
			case valueobjects.StatusMyAbsence:
				stats.TotalMyAbsences++
			}

			if record.Billable() {
				stats.TotalBilled = stats.TotalBilled.Add(record.Amount)
				if record.Paid {
					stats.TotalCollected = stats.TotalCollected.Add(record.Amount)
				} else {
					stats.PendingPayments++
				}
			}
		}
	}

	stats.PendingCollection = stats.TotalBilled.Sub(stats.TotalCollected)

	marked := stats.TotalAttendances + stats.TotalAbsences + stats.TotalHolidays + stats.TotalMyAbsences
	if marked > 0 {
		stats.AttendanceRate = float64(stats.TotalAttendances) / float64(marked) * 100
	}
	if stats.TotalBilled.IsPositive() {
		rate, _ := stats.TotalCollected.Div(stats.TotalBilled).Mul(decimal.NewFromInt(100)).Float64()
		stats.PaymentRate = rate
	}

	return stats
}
