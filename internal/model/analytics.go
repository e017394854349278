package model

import "time"

// VisitEvent records one public menu page view. Events are written by an
// unauthenticated endpoint and read in bulk for reporting.
type VisitEvent struct {
	ID             uint64    // analytics_events.id
	RestaurantName string    // analytics_events.restaurant_name
	DurationSec    int       // analytics_events.duration_sec, seconds on page
	ViewedSections []string  // analytics_events.viewed_sections (JSON)
	Referrer       string    // analytics_events.referrer
	IPAddress      string    // analytics_events.ip_address
	VisitedAt      time.Time // analytics_events.visited_at
}

// ContactLead stores one submitted contact form.
type ContactLead struct {
	ID          uint64    // contact_leads.id
	FirstName   string    // contact_leads.first_name
	LastName    string    // contact_leads.last_name
	Email       string    // contact_leads.email
	PhoneNumber string    // contact_leads.phone_number
	Company     string    // contact_leads.company
	Message     string    // contact_leads.message
	Country     string    // contact_leads.country
	Agreed      bool      // contact_leads.agreed
	CreatedAt   time.Time // contact_leads.created_at
}
