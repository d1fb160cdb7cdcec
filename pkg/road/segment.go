package road

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

type RoadType int

const (
	Unknown RoadType = iota
	Motorway
	MotorwayLink
	Raceway
	Trunk
	TrunkLink
	Primary
	PrimaryLink
	Secondary
	SecondaryLink
	Tertiary
	TertiaryLink
	Service
	Residential
	Unclassified
	Road
	LivingStreet
	Cycleway
	Track
	Pedestrian
	Bridleway
	Footway
	Ford
	Path
	Construction
	Services
	Steps
)

// highway tag and default max speed in km/h of every road type
var roadTypes = []struct {
	tag   string
	speed int
}{
	Unknown:       {"unknown", 0},
	Motorway:      {"motorway", 100},
	MotorwayLink:  {"motorway_link", 100},
	Raceway:       {"raceway", 100},
	Trunk:         {"trunk", 70},
	TrunkLink:     {"trunk_link", 70},
	Primary:       {"primary", 60},
	PrimaryLink:   {"primary_link", 60},
	Secondary:     {"secondary", 50},
	SecondaryLink: {"secondary_link", 50},
	Tertiary:      {"tertiary", 40},
	TertiaryLink:  {"tertiary_link", 40},
	Service:       {"service", 30},
	Residential:   {"residential", 30},
	Unclassified:  {"unclassified", 30},
	Road:          {"road", 30},
	LivingStreet:  {"living_street", 20},
	Cycleway:      {"cycleway", 20},
	Track:         {"track", 20},
	Pedestrian:    {"pedestrian", 6},
	Bridleway:     {"bridleway", 6},
	Footway:       {"footway", 6},
	Ford:          {"ford", 6},
	Path:          {"path", 6},
	Construction:  {"construction", 10},
	Services:      {"services", 10},
	Steps:         {"steps", 10},
}

var tagToType = func() map[string]RoadType {
	m := make(map[string]RoadType, len(roadTypes))
	for t, rt := range roadTypes {
		m[rt.tag] = RoadType(t)
	}
	return m
}()

// ParseHighway maps the value of an OSM highway tag to its RoadType. Unknown values yield Unknown.
func ParseHighway(tag string) RoadType {
	if t, ok := tagToType[strings.TrimSpace(strings.ToLower(tag))]; ok {
		return t
	}
	return Unknown
}

func (r RoadType) String() string {
	if r < 0 || int(r) >= len(roadTypes) {
		return roadTypes[Unknown].tag
	}
	return roadTypes[r].tag
}

// DefaultSpeed is the max speed in km/h assumed when a way carries no maxspeed tag.
func (r RoadType) DefaultSpeed() int {
	if r < 0 || int(r) >= len(roadTypes) {
		return 0
	}
	return roadTypes[r].speed
}

type Segment struct {
	ID       int64
	Type     RoadType
	Points   []orb.Point
	Tags     map[string]string
	OneWay   bool
	MaxSpeed int // km/h
}

// NewSegment creates a segment with the speed taken from the maxspeed tag, or the default of its type.
func NewSegment(id int64, tags map[string]string, points []orb.Point) *Segment {
	t := ParseHighway(tags["highway"])
	return &Segment{
		ID:       id,
		Type:     t,
		Points:   points,
		Tags:     tags,
		OneWay:   tags["oneway"] == "yes" || tags["oneway"] == "1",
		MaxSpeed: ParseMaxSpeed(tags["maxspeed"], t.DefaultSpeed()),
	}
}

// ParseMaxSpeed reads an OSM maxspeed value ("50", "30 mph"). Anything else yields fallback.
func ParseMaxSpeed(value string, fallback int) int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return fallback
	}
	speed, err := strconv.Atoi(fields[0])
	if err != nil || speed <= 0 {
		return fallback
	}
	if len(fields) > 1 && fields[1] == "mph" {
		speed = int(float64(speed)*1.609344 + 0.5)
	}
	return speed
}

func (s *Segment) LineString() orb.LineString {
	return orb.LineString(s.Points)
}

// Length returns the geodesic length of the segment in meters.
func (s *Segment) Length() float64 {
	return geo.Length(s.LineString())
}
