package bankacct

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// renderStatement writes a point-in-time summary of a single account as a
// PDF. It reflects only current state; there is no transaction history.
func renderStatement(w io.Writer, acct *Account) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Account Statement", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC1123)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Account ID", acct.ID.String()},
		{"Account number", acct.AccountNumber},
		{"Account type", string(acct.AccountType)},
		{"Customer ID", fmt.Sprintf("%d", acct.CustomerID)},
		{"Current balance", acct.Balance.String()},
	}
	pdf.SetFont("Helvetica", "", 12)
	for _, row := range rows {
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 8, row[1], "1", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
