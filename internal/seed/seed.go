// Package seed holds the demo event catalog loaded into a fresh store when
// demo seeding is enabled.
package seed

import (
	"time"

	"github.com/example/club-events/internal/persistence"
)

// Events returns the demo catalog: six club events across every lifecycle
// status, two of them multi-day and one without attendance tracking.
func Events() []persistence.Event {
	day := func(y int, m time.Month, d, h int) time.Time {
		return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	}
	end := func(t time.Time) *time.Time { return &t }

	return []persistence.Event{
		{
			ID:                    1,
			Title:                 "Web Development Workshop",
			Description:           "Learn the fundamentals of modern web development with HTML, CSS, and JavaScript.",
			Location:              "Tech Building, Room 101",
			StartDate:             day(2023, time.December, 15, 9),
			RegistrationStartDate: day(2023, time.November, 15, 0),
			RegistrationDeadline:  day(2023, time.December, 10, 23),
			MaxParticipants:       50,
			Status:                persistence.StatusUpcoming,
			EventDays:             1,
			RequiresAttendance:    true,
			Organizers:            []string{"Alex Johnson", "Samantha Lee"},
			Attendees: []persistence.Attendee{
				{
					Name: "John Doe", Email: "john.doe@example.com",
					College: "Example College", Department: "Computer Science",
					RegistrationDate: day(2023, time.November, 20, 14), Status: "confirmed",
					Attendance: map[string]persistence.DayAttendance{"2023-12-15": {Morning: true}},
				},
				{
					Name: "Jane Smith", Email: "jane.smith@example.com",
					College: "Example University", Department: "Information Technology",
					RegistrationDate: day(2023, time.November, 21, 10), Status: "confirmed",
					Attendance: map[string]persistence.DayAttendance{"2023-12-15": {Morning: true, Afternoon: true}},
				},
			},
			CurrentParticipants: 2,
		},
		{
			ID:                    2,
			Title:                 "Hackathon 2023",
			Description:           "Join our annual hackathon and compete to build innovative solutions in teams of up to four.",
			Location:              "Main Campus, Innovation Center",
			StartDate:             day(2023, time.December, 20, 8),
			EndDate:               end(day(2023, time.December, 21, 20)),
			RegistrationStartDate: day(2023, time.November, 20, 0),
			RegistrationDeadline:  day(2023, time.December, 15, 23),
			MaxParticipants:       100,
			Status:                persistence.StatusRegistrationOpen,
			EventDays:             2,
			RequiresAttendance:    true,
			Organizers:            []string{"Michael Chen", "Priya Patel"},
			Attendees:             []persistence.Attendee{},
		},
		{
			ID:                    3,
			Title:                 "Introduction to Machine Learning",
			Description:           "Discover the basics of machine learning and artificial intelligence.",
			Location:              "Science Building, Room 305",
			StartDate:             day(2023, time.November, 10, 10),
			RegistrationStartDate: day(2023, time.October, 20, 0),
			RegistrationDeadline:  day(2023, time.November, 5, 23),
			MaxParticipants:       40,
			Status:                persistence.StatusPast,
			EventDays:             1,
			RequiresAttendance:    true,
			Organizers:            []string{"Alex Johnson"},
			Attendees: []persistence.Attendee{
				{
					Name: "Mark Wilson", Email: "mark.wilson@example.com",
					College: "Example College", Department: "Computer Science",
					RegistrationDate: day(2023, time.October, 25, 14), Status: "confirmed",
					Attendance: map[string]persistence.DayAttendance{"2023-11-10": {Morning: true, Afternoon: true}},
				},
			},
			CurrentParticipants: 1,
		},
		{
			ID:                    4,
			Title:                 "Mobile App Development",
			Description:           "Learn how to build mobile applications for iOS and Android.",
			Location:              "Tech Building, Room 202",
			StartDate:             day(2023, time.December, 5, 14),
			RegistrationStartDate: day(2023, time.November, 15, 0),
			RegistrationDeadline:  day(2023, time.December, 1, 23),
			MaxParticipants:       30,
			Status:                persistence.StatusOngoing,
			EventDays:             1,
			RequiresAttendance:    true,
			Organizers:            []string{"Samantha Lee", "Michael Chen"},
			Attendees: []persistence.Attendee{
				{
					Name: "Sarah Johnson", Email: "sarah.j@example.com",
					College: "Example University", Department: "Information Technology",
					RegistrationDate: day(2023, time.November, 20, 10), Status: "confirmed",
					Attendance: map[string]persistence.DayAttendance{"2023-12-05": {Afternoon: true}},
				},
			},
			CurrentParticipants: 1,
		},
		{
			ID:                    5,
			Title:                 "Competitive Programming Contest",
			Description:           "Test your algorithmic and problem-solving skills against the clock.",
			Location:              "Virtual (Online)",
			StartDate:             day(2024, time.January, 15, 9),
			RegistrationStartDate: day(2023, time.December, 15, 0),
			RegistrationDeadline:  day(2024, time.January, 10, 23),
			MaxParticipants:       60,
			Status:                persistence.StatusUpcoming,
			EventDays:             1,
			RequiresAttendance:    false,
			Organizers:            []string{"Priya Patel"},
			Attendees:             []persistence.Attendee{},
		},
		{
			ID:                    6,
			Title:                 "Cloud Computing Workshop",
			Description:           "Explore cloud concepts, services, and hands-on deployment exercises.",
			Location:              "Tech Building, Room 303",
			StartDate:             day(2024, time.January, 25, 13),
			EndDate:               end(day(2024, time.January, 26, 17)),
			RegistrationStartDate: day(2023, time.December, 25, 0),
			RegistrationDeadline:  day(2024, time.January, 20, 23),
			MaxParticipants:       35,
			Status:                persistence.StatusRegistrationOpen,
			EventDays:             2,
			RequiresAttendance:    true,
			Organizers:            []string{"Michael Chen"},
			Attendees:             []persistence.Attendee{},
		},
	}
}
