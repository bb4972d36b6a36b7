package ui

import (
	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/wizard"
)

// Completion messages carry the session ticket issued when the call
// began; FinishX drops them when the ticket has gone stale.

type categoriesMsg struct {
	ticket  wizard.Ticket
	records []catalog.Record
	err     error
}

type playlistMsg struct {
	ticket  wizard.Ticket
	payload *services.Payload
	err     error
}

type guideMsg struct {
	ticket  wizard.Ticket
	payload *services.Payload
	err     error
}
