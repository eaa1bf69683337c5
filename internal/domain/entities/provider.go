package entities

import (
	"time"
)

// Provider represents a business offering services
type Provider struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Avatar        string    `json:"avatar,omitempty" db:"avatar"`
	Rating        float64   `json:"rating" db:"rating"`
	ReviewCount   int       `json:"review_count" db:"review_count"`
	Verified      bool      `json:"verified" db:"verified"`
	Description   string    `json:"description" db:"description"`
	ServicesCount int       `json:"services_count" db:"services_count"`
	Location      string    `json:"location" db:"location"`
	JoinedDate    time.Time `json:"joined_date" db:"joined_date"`
}

// AvailabilityWindow is a provider's working hours for one weekday
type AvailabilityWindow struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// ContactInfo holds the channels a provider can be reached on
type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website,omitempty"`
}

// SocialLinks holds optional social profiles
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// ProviderProfile is the extended profile shown on a provider's page
type ProviderProfile struct {
	BusinessName    string                        `json:"business_name"`
	Specialties     []string                      `json:"specialties"`
	ExperienceYears int                           `json:"experience_years"`
	Certifications  []string                      `json:"certifications"`
	InsuranceInfo   string                        `json:"insurance_info,omitempty"`
	ServiceAreas    []string                      `json:"service_areas"`
	Availability    map[string]AvailabilityWindow `json:"availability"`
	PortfolioImages []string                      `json:"portfolio_images"`
	Contact         ContactInfo                   `json:"contact_info"`
	SocialLinks     *SocialLinks                  `json:"social_links,omitempty"`
}

// DetailedProvider is a provider with its full profile
type DetailedProvider struct {
	Provider
	ProviderProfile
}

// Weekdays orders the keys of ProviderProfile.Availability
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DaySchedule is one weekday of a provider's ordered weekly schedule
type DaySchedule struct {
	Day string `json:"day"`
	AvailabilityWindow
}

// WeeklySchedule lists the availability windows Monday first. Days without
// an entry are reported as unavailable.
func (p *ProviderProfile) WeeklySchedule() []DaySchedule {
	schedule := make([]DaySchedule, 0, len(Weekdays))
	for _, day := range Weekdays {
		schedule = append(schedule, DaySchedule{Day: day, AvailabilityWindow: p.Availability[day]})
	}
	return schedule
}
