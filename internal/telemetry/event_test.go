package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, "auth", EventLogin.Category())
	assert.Equal(t, "navigation", EventPageView.Category())
	assert.Equal(t, "refresh", EventRefresh.Category())
	assert.Equal(t, "bare", EventType("bare").Category())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		t    EventType
		data Data
		want string
	}{
		{"login with method", EventLogin, Data{"method": "magic_link"}, "User logged in via magic_link"},
		{"login without method", EventLogin, nil, "User logged in"},
		{"login failed", EventLoginFailed, Data{"reason": "bad password"}, "Login attempt failed: bad password"},
		{"login failed no reason", EventLoginFailed, nil, "Login attempt failed: Unknown reason"},
		{"signup confirmed", EventSignupConfirmed, nil, "Email confirmed, account activated"},
		{"magic link", EventMagicLinkSent, Data{"email": "a@b.c"}, "Magic link sent to a@b.c"},
		{"page view", EventPageView, Data{"page": "/dashboard/tickets"}, "Viewed page: /dashboard/tickets"},
		{"page view url fallback", EventPageView, Data{"url": "https://x"}, "Viewed page: https://x"},
		{"ticket list", EventTicketListView, Data{"count": 4}, "Viewed ticket list (4 tickets)"},
		{"status change", EventStatusChange, Data{"old_value": "open", "new_value": "closed", "ticket_number": "9"},
			"Changed status from open to closed on ticket #9"},
		{"search", EventSearch, Data{"query": "boiler"}, `Searched for: "boiler"`},
		{"unknown type", EventType("custom.thing"), nil, "custom.thing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.t, tt.data))
		})
	}
}
