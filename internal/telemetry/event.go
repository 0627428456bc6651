// Package telemetry batches user-activity events and writes them durably.
// Events enter an in-memory ordered queue and leave only after a confirmed
// write; a failed batch goes back to the front so replay order survives.
package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// EventType is a dotted action identifier; the prefix before the dot is the
// category.
type EventType string

const (
	EventLogin                  EventType = "auth.login"
	EventLoginFailed            EventType = "auth.login_failed"
	EventLogout                 EventType = "auth.logout"
	EventSignup                 EventType = "auth.signup"
	EventSignupConfirmed        EventType = "auth.signup_confirmed"
	EventMagicLinkSent          EventType = "auth.magic_link_sent"
	EventPasswordResetRequested EventType = "auth.password_reset_requested"
	EventPasswordResetCompleted EventType = "auth.password_reset_completed"

	EventPageView  EventType = "navigation.page_view"
	EventTabSwitch EventType = "navigation.tab_switch"

	EventTicketView     EventType = "ticket.view"
	EventTicketListView EventType = "ticket.list_view"
	EventPriorityChange EventType = "ticket.update_priority"
	EventStatusChange   EventType = "ticket.update_status"
	EventNoteAdd        EventType = "ticket.add_note"

	EventSearch  EventType = "search.query"
	EventRefresh EventType = "refresh.data"
)

// Category returns the portion before the first dot.
func (t EventType) Category() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t)[:i]
	}
	return string(t)
}

// Data is the free-form payload attached to an event.
type Data map[string]any

// Event is one queued activity record.
type Event struct {
	UserID         string
	OrganizationID string
	Type           EventType
	Category       string
	Description    string
	Data           Data
	ContextURL     string
	ClientInfo     string
	Timestamp      time.Time
}

// Describe renders a human-readable line for an event type and its payload.
// Unknown types fall back to the raw type string.
func Describe(t EventType, data Data) string {
	str := func(key, fallback string) string {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
		return fallback
	}

	switch t {
	case EventLogin:
		if m := str("method", ""); m != "" {
			return "User logged in via " + m
		}
		return "User logged in"
	case EventLoginFailed:
		return "Login attempt failed: " + str("reason", "Unknown reason")
	case EventLogout:
		return "User logged out"
	case EventSignup:
		return "User signed up"
	case EventSignupConfirmed:
		return "Email confirmed, account activated"
	case EventMagicLinkSent:
		return "Magic link sent to " + str("email", "email")
	case EventPasswordResetRequested:
		return "Password reset requested for " + str("email", "email")
	case EventPasswordResetCompleted:
		return "Password reset completed"
	case EventPageView:
		return "Viewed page: " + str("page", str("url", "unknown"))
	case EventTabSwitch:
		return "Switched to tab: " + str("tab", "unknown")
	case EventTicketView:
		return "Viewed ticket #" + str("ticket_number", str("ticket_id", "unknown"))
	case EventTicketListView:
		count := 0
		if v, ok := data["count"].(int); ok {
			count = v
		}
		return fmt.Sprintf("Viewed ticket list (%d tickets)", count)
	case EventPriorityChange:
		return fmt.Sprintf("Changed priority from %s to %s on ticket #%s",
			str("old_value", "unknown"), str("new_value", "unknown"), str("ticket_number", ""))
	case EventStatusChange:
		return fmt.Sprintf("Changed status from %s to %s on ticket #%s",
			str("old_value", "unknown"), str("new_value", "unknown"), str("ticket_number", ""))
	case EventNoteAdd:
		return "Added note to ticket #" + str("ticket_number", str("ticket_id", ""))
	case EventSearch:
		return fmt.Sprintf("Searched for: %q", str("query", ""))
	case EventRefresh:
		return "Refreshed data"
	default:
		return string(t)
	}
}
