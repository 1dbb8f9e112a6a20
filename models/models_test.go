package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicket_MatchesCodeEitherKey(t *testing.T) {
	ticket := Ticket{TicketNumber: "T-001", QRCode: "QR-001"}

	assert.True(t, ticket.MatchesCode("T-001"))
	assert.True(t, ticket.MatchesCode("QR-001"))
	assert.False(t, ticket.MatchesCode("T-002"))
	assert.False(t, ticket.MatchesCode(""))
}

func TestTicketSet_FindReturnsSameRecordForBothKeys(t *testing.T) {
	set := TicketSet{
		Tickets: []Ticket{
			{ID: "t1", TicketNumber: "T-001", QRCode: "QR-001"},
			{ID: "t2", TicketNumber: "T-002", QRCode: "QR-002"},
		},
	}

	byNumber := set.Find("T-002")
	byQR := set.Find("QR-002")
	require.NotNil(t, byNumber)
	require.NotNil(t, byQR)
	assert.Same(t, byNumber, byQR)

	assert.Nil(t, set.Find("T-404"))
}

func TestTicketSet_FindReturnsMutablePointer(t *testing.T) {
	set := TicketSet{Tickets: []Ticket{{ID: "t1", TicketNumber: "T-001", Status: StatusValid}}}

	now := time.Now()
	ticket := set.Find("T-001")
	require.NotNil(t, ticket)
	ticket.Status = StatusUsed
	ticket.UsedAt = &now

	assert.Equal(t, StatusUsed, set.Tickets[0].Status)
	assert.NotNil(t, set.Tickets[0].UsedAt)
}

func TestTicketSet_PendingSync(t *testing.T) {
	set := TicketSet{
		Tickets: []Ticket{
			{ID: "t1", NeedsSync: true},
			{ID: "t2"},
			{ID: "t3", NeedsSync: true},
		},
	}

	assert.Equal(t, 2, set.PendingSync())
	assert.Equal(t, 0, (&TicketSet{}).PendingSync())
}
