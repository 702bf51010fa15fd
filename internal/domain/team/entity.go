package team

import "time"

// Profile is a founder's co-founder matching card. One per user email.
type Profile struct {
	ID              string    `json:"id"`
	UserEmail       string    `json:"user_email"`
	Name            string    `json:"name"`
	Bio             string    `json:"bio"`
	Skills          []string  `json:"skills"`
	IndustryFocus   []string  `json:"industry_focus"`
	Role            string    `json:"role,omitempty"`
	LookingFor      string    `json:"looking_for,omitempty"`
	Location        string    `json:"location,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	Availability    string    `json:"availability,omitempty"`
	LinkedInURL     string    `json:"linkedin_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
