package carriers

import "time"

// Carrier is one transit provider in the network inventory.
type Carrier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Region       string    `json:"region"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListFilters narrows carrier listings.
type ListFilters struct {
	Search string
	Page   int
	Limit  int
}
