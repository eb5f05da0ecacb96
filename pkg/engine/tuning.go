package engine

import "github.com/jwebster45206/outbreak-engine/pkg/scenario"

const (
	GrowthPerR0         = 0.1 // daily growth rate per unit of r0 above 1
	SpreadMinNewCases   = 10  // spread is only possible when more new cases appear
	SpreadThreshold     = 0.7 // a draw above this spreads to a new region
	SpreadCaseFraction  = 0.2 // share of the day's new cases seeded in the new region
	DayPenalty          = 10
	BaseScore           = 1000
	DeathPenalty        = 100
	CasesPenaltyPer10   = 5
	BudgetBonusPer10k   = 10
	SourceIdentifyBonus = 200
)

// SpreadRegions are the candidate regions a growing outbreak can reach.
var SpreadRegions = []scenario.Location{
	{Region: "North District", Coordinates: scenario.Coordinates{Lat: 40.82, Lng: -73.95}},
	{Region: "South District", Coordinates: scenario.Coordinates{Lat: 40.65, Lng: -73.97}},
	{Region: "East District", Coordinates: scenario.Coordinates{Lat: 40.74, Lng: -73.82}},
	{Region: "West District", Coordinates: scenario.Coordinates{Lat: 40.73, Lng: -74.05}},
	{Region: "Central District", Coordinates: scenario.Coordinates{Lat: 40.75, Lng: -73.98}},
	{Region: "Harbor", Coordinates: scenario.Coordinates{Lat: 40.69, Lng: -74.02}},
	{Region: "Airport", Coordinates: scenario.Coordinates{Lat: 40.64, Lng: -73.78}},
	{Region: "University Campus", Coordinates: scenario.Coordinates{Lat: 40.81, Lng: -73.96}},
}
