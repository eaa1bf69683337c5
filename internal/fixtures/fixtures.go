// Package fixtures provides the marketplace seed data used by the in-memory
// store, the seed command and tests.
package fixtures

import (
	"strconv"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// DemoUserID is the seeded customer account
const DemoUserID = "user_1"

// Set is a self-consistent batch of seed records
type Set struct {
	Providers     []*entities.DetailedProvider
	Services      []*entities.Service
	Quotes        []*entities.Quote
	Bookings      []*entities.Booking
	Reviews       []*entities.Review
	Conversations []*entities.Conversation
	Messages      []*entities.Message
}

// Default builds the seed set with dates relative to now, resolved in loc
func Default(now time.Time, loc *time.Location) *Set {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	created := now.Add(-72 * time.Hour)

	providers := defaultProviders()
	services := defaultServices(created)

	slot := func(days int, clock string) (string, string, time.Time) {
		day := now.AddDate(0, 0, days)
		date := day.Format("2006-01-02")
		at, _ := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
		return date, clock, at
	}

	price := func(v int64) *int64 { return &v }
	ts := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	d1, t1, at1 := slot(3, "09:00")
	d2, t2, at2 := slot(0, "08:00")
	d3, t3, at3 := slot(-5, "10:00")
	d4, t4, at4 := slot(7, "14:00")
	d5, t5, at5 := slot(-10, "11:00")

	bookings := []*entities.Booking{
		{ID: "booking_1", ServiceID: "s1", UserID: DemoUserID, ProviderID: "p1", Status: entities.BookingStatusConfirmed,
			ScheduledDate: d1, ScheduledTime: t1, ScheduledAt: at1, DurationHours: 4, TotalAmount: 180,
			Address: "123 Main Ave, Downtown", ContactPhone: "+1 (555) 123-4567",
			SpecialInstructions: "Use eco-friendly products, enter through the main door"},
		{ID: "booking_2", ServiceID: "s3", UserID: DemoUserID, ProviderID: "p2", Status: entities.BookingStatusInProgress,
			ScheduledDate: d2, ScheduledTime: t2, ScheduledAt: at2, DurationHours: 4, TotalAmount: 480,
			Address: "456 Commerce St, North Zone", ContactPhone: "+1 (555) 234-5678"},
		{ID: "booking_3", ServiceID: "3", UserID: DemoUserID, ProviderID: "p3", Status: entities.BookingStatusCompleted,
			ScheduledDate: d3, ScheduledTime: t3, ScheduledAt: at3, DurationHours: 6, TotalAmount: 720,
			Address: "789 Industrial Blvd", ContactPhone: "+1 (555) 345-6789"},
		{ID: "booking_4", ServiceID: "4", UserID: DemoUserID, ProviderID: "p4", Status: entities.BookingStatusPending,
			ScheduledDate: d4, ScheduledTime: t4, ScheduledAt: at4, DurationHours: 2, TotalAmount: 400,
			Address: "321 Market Rd", ContactPhone: "+1 (555) 456-7890"},
		{ID: "booking_5", ServiceID: "2", UserID: DemoUserID, ProviderID: "p2", Status: entities.BookingStatusCancelled,
			ScheduledDate: d5, ScheduledTime: t5, ScheduledAt: at5, DurationHours: 1, TotalAmount: 150,
			Address: "456 Commerce St, North Zone", ContactPhone: "+1 (555) 234-5678"},
	}
	for _, b := range bookings {
		b.Version = 1
		b.CreatedAt = created
		b.UpdatedAt = created
	}

	quotes := []*entities.Quote{
		{ID: "quote_1", ServiceID: "s1", UserID: DemoUserID, ProviderID: "p1", Status: entities.QuoteStatusSent,
			Description: "Weekly cleaning for a 200m² office", EstimatedPrice: price(180), EstimatedDuration: "3 hours",
			ValidUntil: ts(36 * time.Hour), Notes: "Includes eco-friendly products and basic supplies",
			PreferredDate: now.AddDate(0, 0, 5).Format("2006-01-02"), Address: "123 Main Ave, Downtown", ContactPhone: "+1 (555) 123-4567"},
		{ID: "quote_2", ServiceID: "s3", UserID: DemoUserID, ProviderID: "p2", Status: entities.QuoteStatusPending,
			Description: "Preventive maintenance for office equipment", Address: "456 Commerce St, North Zone",
			SpecialInstructions: "Twelve workstations and two printers"},
		{ID: "quote_3", ServiceID: "4", UserID: DemoUserID, ProviderID: "p4", Status: entities.QuoteStatusSent,
			Description: "Quarterly fumigation for a warehouse", EstimatedPrice: price(650), EstimatedDuration: "1 day",
			ValidUntil: ts(10 * 24 * time.Hour), Address: "789 Industrial Blvd"},
		{ID: "quote_4", ServiceID: "5", UserID: DemoUserID, ProviderID: "p5", Status: entities.QuoteStatusSent,
			Description: "Move a 20 desk office across town", EstimatedPrice: price(2400), EstimatedDuration: "8 hours",
			ValidUntil: ts(-24 * time.Hour), Address: "55 Harbor St"},
	}
	for _, q := range quotes {
		q.Version = 1
		q.CreatedAt = created
		q.UpdatedAt = created
	}

	reviews := []*entities.Review{
		{ID: "review_1", BookingID: "booking_3", ServiceID: "3", ProviderID: "p3", UserID: DemoUserID, Rating: 5,
			Comment: "Floors look brand new", CreatedAt: at3.Add(8 * time.Hour)},
	}

	convAt := now.Add(-2 * time.Hour)
	conversations := []*entities.Conversation{
		{ID: "conv_1", Participants: []string{DemoUserID, "p1"}, LastMessageID: "msg_5", LastMessageAt: &convAt,
			LastSequence: 5, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: convAt},
	}

	lines := []struct {
		sender  string
		content string
	}{
		{"p1", "Hi! Thanks for reaching out. How can I help with your cleaning project?"},
		{DemoUserID, "Hi Carlos! I need a quote for office cleaning. It is roughly 200m² downtown."},
		{"p1", "Great. Is this regular cleaning, a deep clean, or something specific?"},
		{DemoUserID, "Regular weekly cleaning: floors, bathrooms, windows and common areas. Do you use eco-friendly products?"},
		{"p1", "Yes, 100% eco-friendly. For 200m² weekly it would be $180 per session. Shall we schedule a visit?"},
	}
	messages := make([]*entities.Message, 0, len(lines))
	for i, l := range lines {
		receiver := "p1"
		if l.sender == "p1" {
			receiver = DemoUserID
		}
		sentAt := now.Add(-3*time.Hour + time.Duration(i)*15*time.Minute)
		msg := &entities.Message{
			ID:             "msg_" + strconv.Itoa(i+1),
			ConversationID: "conv_1",
			SenderID:       l.sender,
			ReceiverID:     receiver,
			Type:           entities.MessageTypeText,
			Content:        l.content,
			Sequence:       int64(i + 1),
			CreatedAt:      sentAt,
		}
		if i < len(lines)-1 {
			read := sentAt.Add(time.Minute)
			msg.ReadAt = &read
		}
		messages = append(messages, msg)
	}

	return &Set{
		Providers:     providers,
		Services:      services,
		Quotes:        quotes,
		Bookings:      bookings,
		Reviews:       reviews,
		Conversations: conversations,
		Messages:      messages,
	}
}

func defaultProviders() []*entities.DetailedProvider {
	weekdays := map[string]entities.AvailabilityWindow{
		"monday":    {Start: "08:00", End: "18:00", Available: true},
		"tuesday":   {Start: "08:00", End: "18:00", Available: true},
		"wednesday": {Start: "08:00", End: "18:00", Available: true},
		"thursday":  {Start: "08:00", End: "18:00", Available: true},
		"friday":    {Start: "08:00", End: "18:00", Available: true},
		"saturday":  {Start: "09:00", End: "14:00", Available: true},
		"sunday":    {Start: "", End: "", Available: false},
	}

	joined := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	return []*entities.DetailedProvider{
		{
			Provider: entities.Provider{ID: "p1", Name: "Carlos Rodríguez", Avatar: "/api/placeholder/80/80", Rating: 4.9, ReviewCount: 234,
				Verified: true, Description: "Commercial cleaning specialist with more than 10 years of experience", ServicesCount: 2,
				Location: "Downtown", JoinedDate: joined(2022, time.January, 15)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName:    "Limpieza Pro Servicios",
				Specialties:     []string{"Office cleaning", "Deep cleaning", "Eco-friendly products"},
				ExperienceYears: 10,
				Certifications:  []string{"ISSA Cleaning Management", "Green Seal"},
				InsuranceInfo:   "Liability coverage up to $1,000,000",
				ServiceAreas:    []string{"Downtown", "North Zone", "Business District"},
				Availability:    weekdays,
				PortfolioImages: []string{"/api/placeholder/400/300", "/api/placeholder/400/300"},
				Contact:         entities.ContactInfo{Email: "carlos@limpiezapro.example", Phone: "+1 (555) 100-2000", Website: "https://limpiezapro.example"},
				SocialLinks:     &entities.SocialLinks{Facebook: "https://facebook.com/limpiezapro", Instagram: "https://instagram.com/limpiezapro"},
			},
		},
		{
			Provider: entities.Provider{ID: "p2", Name: "Ana García", Avatar: "/api/placeholder/80/80", Rating: 4.7, ReviewCount: 156,
				Verified: true, Description: "Plumbing and full maintenance services", ServicesCount: 2,
				Location: "Citywide", JoinedDate: joined(2021, time.August, 20)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName: "Plomería Rápida", Specialties: []string{"Emergency plumbing", "Preventive maintenance"},
				ExperienceYears: 8, Certifications: []string{"Licensed plumber"}, ServiceAreas: []string{"Citywide"},
				Availability: weekdays, Contact: entities.ContactInfo{Email: "ana@plomeriarapida.example", Phone: "+1 (555) 200-3000"},
			},
		},
		{
			Provider: entities.Provider{ID: "p3", Name: "Pisos Brillantes", Avatar: "/api/placeholder/80/80", Rating: 4.7, ReviewCount: 98,
				Verified: true, Description: "Floor polishing specialists", ServicesCount: 1,
				Location: "Business District", JoinedDate: joined(2022, time.May, 2)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName: "Pisos Brillantes", Specialties: []string{"Marble polishing", "Waxing"}, ExperienceYears: 6,
				ServiceAreas: []string{"Business District"}, Availability: weekdays,
				Contact: entities.ContactInfo{Email: "hola@pisosbrillantes.example", Phone: "+1 (555) 300-4000"},
			},
		},
		{
			Provider: entities.Provider{ID: "p4", Name: "Control de Plagas Pro", Avatar: "/api/placeholder/80/80", Rating: 4.9, ReviewCount: 143,
				Verified: true, Description: "Pest control specialists", ServicesCount: 1,
				Location: "Metro Area", JoinedDate: joined(2020, time.March, 11)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName: "Control de Plagas Pro", Specialties: []string{"Fumigation", "Rodent control"}, ExperienceYears: 12,
				Certifications: []string{"State pesticide applicator"}, ServiceAreas: []string{"Metro Area"}, Availability: weekdays,
				Contact: entities.ContactInfo{Email: "info@plagaspro.example", Phone: "+1 (555) 400-5000"},
			},
		},
		{
			Provider: entities.Provider{ID: "p5", Name: "Mudanzas Seguras", Avatar: "/api/placeholder/80/80", Rating: 4.8, ReviewCount: 76,
				Verified: false, Description: "Commercial moving specialists", ServicesCount: 1,
				Location: "Regional", JoinedDate: joined(2023, time.February, 7)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName: "Mudanzas Seguras", Specialties: []string{"Office moves", "Packing"}, ExperienceYears: 5,
				ServiceAreas: []string{"Regional"}, Availability: weekdays,
				Contact: entities.ContactInfo{Email: "contacto@mudanzasseguras.example", Phone: "+1 (555) 500-6000"},
			},
		},
		{
			Provider: entities.Provider{ID: "p6", Name: "Técnicos Expertos", Avatar: "/api/placeholder/80/80", Rating: 4.6, ReviewCount: 64,
				Verified: true, Description: "Specialized technical services", ServicesCount: 1,
				Location: "Suburbs", JoinedDate: joined(2021, time.November, 30)},
			ProviderProfile: entities.ProviderProfile{
				BusinessName: "Técnicos Expertos", Specialties: []string{"Office equipment", "HVAC"}, ExperienceYears: 9,
				ServiceAreas: []string{"Suburbs"}, Availability: weekdays,
				Contact: entities.ContactInfo{Email: "soporte@tecnicosexpertos.example", Phone: "+1 (555) 600-7000"},
			},
		},
	}
}

func defaultServices(created time.Time) []*entities.Service {
	services := []*entities.Service{
		{ID: "1", Title: "Commercial Office Cleaning", Description: "Complete cleaning for commercial offices. Floors, windows, bathrooms and common areas with eco-friendly products.",
			Category: entities.CategoryGeneralCleaning, PricePerHour: 299, Rating: 4.9, ReviewCount: 127, ProviderID: "p1",
			Availability: []string{"Monday to Friday"}, Location: "Downtown"},
		{ID: "2", Title: "Emergency Plumbing", Description: "Fast, reliable plumbing repairs for businesses. Available 24/7 for emergencies. Licensed and insured.",
			Category: entities.CategoryPlumbing, PricePerHour: 150, Rating: 4.8, ReviewCount: 89, ProviderID: "p2",
			Availability: []string{"24/7"}, Location: "Citywide"},
		{ID: "3", Title: "Floor Polishing and Waxing", Description: "Professional floor polishing and waxing for commercial offices. Includes deep cleaning and a glossy finish.",
			Category: entities.CategoryFloorPolishing, PricePerHour: 120, Rating: 4.7, ReviewCount: 98, ProviderID: "p3",
			Availability: []string{"Monday to Saturday"}, Location: "Business District"},
		{ID: "4", Title: "Commercial Fumigation", Description: "Integrated pest control for commercial properties. Inspection, treatment and follow-up with safe products.",
			Category: entities.CategoryFumigation, PricePerHour: 200, Rating: 4.9, ReviewCount: 143, ProviderID: "p4",
			Availability: []string{"Monday to Friday"}, Location: "Metro Area"},
		{ID: "5", Title: "Commercial Moving", Description: "Complete moves for offices and businesses. Packing, transport and assembly.",
			Category: entities.CategoryMoving, PricePerHour: 450, Rating: 4.8, ReviewCount: 76, ProviderID: "p5",
			Availability: []string{"Weekends"}, Location: "Regional"},
		{ID: "6", Title: "Equipment Installation and Repair", Description: "Installation and repair of office equipment and commercial systems, including preventive maintenance.",
			Category: entities.CategoryInstallationRepair, PricePerHour: 180, Rating: 4.6, ReviewCount: 64, ProviderID: "p6",
			Availability: []string{"Monday to Friday"}, Location: "Suburbs"},
		{ID: "s1", Title: "Office Cleaning", Description: "Complete office cleaning service",
			Category: entities.CategoryGeneralCleaning, PricePerHour: 45, Rating: 4.9, ReviewCount: 89, ProviderID: "p1",
			Availability: []string{"Monday to Friday"}, Location: "Downtown"},
		{ID: "s3", Title: "Integrated Preventive Maintenance", Description: "Preventive maintenance program for office equipment",
			Category: entities.CategoryInstallationRepair, PricePerHour: 120, Rating: 4.7, ReviewCount: 45, ProviderID: "p2",
			Availability: []string{"Monday to Saturday"}, Location: "North Zone"},
	}
	for _, s := range services {
		s.Images = []string{"/api/placeholder/300/200"}
		s.CreatedAt = created
		s.UpdatedAt = created
	}
	return services
}
