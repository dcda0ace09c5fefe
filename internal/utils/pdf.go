package utils

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// TicketPDF renders a printable one-page e-ticket for the given ticket view.
func TicketPDF(d *repository.TicketDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Ticket No    : TCK-%d", d.ID),
		fmt.Sprintf("Passenger    : %s", orDash(d.UserFullName)),
		fmt.Sprintf("Phone        : %s", orDash(d.UserPhone)),
		fmt.Sprintf("Route        : %s -> %s", d.DepartureLocation, d.ArrivalLocation),
		fmt.Sprintf("Seat         : %d", d.SeatNumber),
		fmt.Sprintf("Price        : %d.%02d", d.PriceCents/100, d.PriceCents%100),
		fmt.Sprintf("Status       : %s", d.Status),
		fmt.Sprintf("Booked At    : %s", d.CreatedAt),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This e-ticket covers one passenger on one seat. Please present it at departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
