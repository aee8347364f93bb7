package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dagfinn/faktura/internal/domain"
)

func TestAllocateInvoiceNumber(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastNumber *string
		want       string
	}{
		{name: "empty store starts at one", lastNumber: nil, want: "INV-0001"},
		{name: "increments the latest number", lastNumber: strPtr("INV-0042"), want: "INV-0043"},
		{name: "pads short sequences", lastNumber: strPtr("INV-7"), want: "INV-0008"},
		{name: "grows past four digits", lastNumber: strPtr("INV-9999"), want: "INV-10000"},
		{name: "unparseable number restarts at one", lastNumber: strPtr("DRAFT-7"), want: "INV-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeInvoiceStore()
			if tt.lastNumber != nil {
				store.latest = &domain.Invoice{InvoiceNumber: tt.lastNumber}
			}

			got := AllocateInvoiceNumber(context.Background(), store, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocateInvoiceNumber_StoreErrorFallsBackToTimestamp(t *testing.T) {
	store := newFakeInvoiceStore()
	store.latestErr = domain.Internal(fmt.Errorf("connection refused"), "invoice.latest_numbered", "query failed")

	now := time.UnixMilli(1741600007321)
	got := AllocateInvoiceNumber(context.Background(), store, now)

	// Never blocks generation: degrades to the clock's last four digits.
	assert.Equal(t, "INV-7321", got)
}

func TestAllocateInvoiceNumber_LatestWithoutNumber(t *testing.T) {
	store := newFakeInvoiceStore()
	store.latest = &domain.Invoice{}

	got := AllocateInvoiceNumber(context.Background(), store, time.Now())
	assert.Equal(t, "INV-0001", got)
}
