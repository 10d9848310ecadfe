// Package data seeds the demo city: a grid of ambulances, hospitals and
// signalled intersections around central Pune. Coordinates are real
// intersections so provider-backed routing returns plausible geometry.
package data

import (
	"greencorridor/geo"
	"greencorridor/model"
)

// DefaultSpeedKmh is the seeded cruising speed for every ambulance.
const DefaultSpeedKmh = 50.0

// Ambulances returns the demo fleet, all available.
func Ambulances() []*model.Ambulance {
	return []*model.Ambulance{
		{ID: "amb-01", CallSign: "Alpha-1", Status: model.AmbulanceAvailable, Driver: "R. Kulkarni",
			Position: geo.Position{Lat: 18.5204, Lng: 73.8567}, SpeedKmh: DefaultSpeedKmh},
		{ID: "amb-02", CallSign: "Alpha-2", Status: model.AmbulanceAvailable, Driver: "S. Patil",
			Position: geo.Position{Lat: 18.5310, Lng: 73.8446}, SpeedKmh: DefaultSpeedKmh},
		{ID: "amb-03", CallSign: "Bravo-1", Status: model.AmbulanceAvailable, Driver: "A. Deshmukh",
			Position: geo.Position{Lat: 18.5089, Lng: 73.8077}, SpeedKmh: DefaultSpeedKmh},
		{ID: "amb-04", CallSign: "Bravo-2", Status: model.AmbulanceAvailable, Driver: "M. Joshi",
			Position: geo.Position{Lat: 18.5529, Lng: 73.8090}, SpeedKmh: DefaultSpeedKmh},
	}
}

// Hospitals returns the demo hospitals with their specialties.
func Hospitals() []*model.Hospital {
	return []*model.Hospital{
		{ID: "hosp-01", Name: "Sassoon General", Beds: 120, Contact: "+91-20-2612-0000",
			Position:    geo.Position{Lat: 18.5255, Lng: 73.8688},
			Specialties: []string{"trauma", "general", "burns"}},
		{ID: "hosp-02", Name: "Ruby Hall Clinic", Beds: 80, Contact: "+91-20-6645-5100",
			Position:    geo.Position{Lat: 18.5362, Lng: 73.8777},
			Specialties: []string{"cardiac", "trauma", "general"}},
		{ID: "hosp-03", Name: "Deenanath Mangeshkar", Beds: 95, Contact: "+91-20-4015-1000",
			Position:    geo.Position{Lat: 18.5018, Lng: 73.8269},
			Specialties: []string{"cardiac", "neuro", "general"}},
		{ID: "hosp-04", Name: "Aundh District Hospital", Beds: 60, Contact: "+91-20-2588-0011",
			Position:    geo.Position{Lat: 18.5602, Lng: 73.8079},
			Specialties: []string{"general", "pediatric"}},
	}
}

// Signals returns the signalled intersections, all lanes red and no
// emergency override.
func Signals() []*model.Signal {
	mk := func(id, name string, lat, lng float64) *model.Signal {
		return &model.Signal{
			ID:       id,
			Name:     name,
			Position: geo.Position{Lat: lat, Lng: lng},
			Lanes: []model.Lane{
				{Direction: "north", State: model.LaneRed},
				{Direction: "south", State: model.LaneRed},
				{Direction: "east", State: model.LaneRed},
				{Direction: "west", State: model.LaneRed},
			},
		}
	}
	return []*model.Signal{
		mk("sig-01", "Shivajinagar Chowk", 18.5309, 73.8478),
		mk("sig-02", "Deccan Gymkhana", 18.5158, 73.8413),
		mk("sig-03", "JM Road / FC Road", 18.5224, 73.8478),
		mk("sig-04", "Swargate Junction", 18.5018, 73.8636),
		mk("sig-05", "Pune Station Chowk", 18.5289, 73.8744),
		mk("sig-06", "Nal Stop", 18.5074, 73.8226),
		mk("sig-07", "Khandujibaba Chowk", 18.5167, 73.8562),
		mk("sig-08", "University Circle", 18.5530, 73.8253),
		mk("sig-09", "Parihar Chowk", 18.5594, 73.8077),
		mk("sig-10", "Seven Loves Chowk", 18.5103, 73.8674),
	}
}
