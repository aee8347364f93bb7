package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dagfinn/faktura/internal/domain"
)

var invoiceNumberPattern = regexp.MustCompile(`INV-(\d+)`)

// AllocateInvoiceNumber produces the next sequential "INV-%04d" number by
// parsing the most recent numbered invoice. It never fails: when the
// lookup errors or the latest number does not parse, it degrades to a
// timestamp-derived number so generation can proceed.
func AllocateInvoiceNumber(ctx context.Context, store domain.InvoiceStore, now time.Time) string {
	last, err := store.LatestNumberedInvoice(ctx)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return formatInvoiceNumber(1)
		}
		return fallbackInvoiceNumber(now)
	}

	next := 1
	if last != nil && last.InvoiceNumber != nil {
		if m := invoiceNumberPattern.FindStringSubmatch(*last.InvoiceNumber); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				next = n + 1
			}
		}
	}

	return formatInvoiceNumber(next)
}

func formatInvoiceNumber(n int) string {
	return fmt.Sprintf("INV-%04d", n)
}

// fallbackInvoiceNumber derives a number from the last four digits of the
// millisecond clock. Not sequential, but unique enough to not block a
// generation cycle.
func fallbackInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%04d", now.UnixMilli()%10000)
}
