// Package world provides the electoral geography: seats, regions, and the
// demographic reference table consumed by the influence and election models.
package world

import "sort"

// Ethnicity identifies a demographic community.
type Ethnicity string

const (
	EthnicMalay   Ethnicity = "Malay"
	EthnicChinese Ethnicity = "Chinese"
	EthnicIndian  Ethnicity = "Indian"
	EthnicOther   Ethnicity = "Other"
)

// Ethnicities lists the communities tracked in seat composition, in display order.
var Ethnicities = []Ethnicity{EthnicMalay, EthnicChinese, EthnicIndian, EthnicOther}

// DefaultElectorate is used for seats that have no demographic record.
const DefaultElectorate = 10000

// Seat is a single-member electoral constituency.
type Seat struct {
	Code   string `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Region string `json:"region" yaml:"region"`
}

// Demographics describes a seat's electorate.
type Demographics struct {
	SeatCode        string `json:"seat_code" yaml:"seat_code"`
	TotalElectorate int    `json:"total_electorate" yaml:"electorate"`

	// Percent of the electorate per community (0–100).
	Composition map[Ethnicity]float64 `json:"composition" yaml:"composition"`
}

// Share returns the percentage of the electorate belonging to e.
// A nil record yields 0.
func (d *Demographics) Share(e Ethnicity) float64 {
	if d == nil || d.Composition == nil {
		return 0
	}
	return d.Composition[e]
}

// Electorate returns the seat electorate, falling back to DefaultElectorate.
func (d *Demographics) Electorate() int {
	if d == nil || d.TotalElectorate <= 0 {
		return DefaultElectorate
	}
	return d.TotalElectorate
}

// Geography is the static seat table plus demographic lookups.
type Geography struct {
	Seats        []Seat
	Demographics map[string]*Demographics

	index map[string]int
}

// NewGeography indexes seats by code. Demographics may be sparse.
func NewGeography(seats []Seat, demos map[string]*Demographics) *Geography {
	if demos == nil {
		demos = make(map[string]*Demographics)
	}
	idx := make(map[string]int, len(seats))
	for i, s := range seats {
		idx[s.Code] = i
	}
	return &Geography{Seats: seats, Demographics: demos, index: idx}
}

// Seat looks up a seat by code.
func (g *Geography) Seat(code string) (Seat, bool) {
	i, ok := g.index[code]
	if !ok {
		return Seat{}, false
	}
	return g.Seats[i], true
}

// Demographic returns the record for a seat, or nil when none is known.
func (g *Geography) Demographic(code string) *Demographics {
	return g.Demographics[code]
}

// SeatCodes returns every seat code in table order.
func (g *Geography) SeatCodes() []string {
	codes := make([]string, len(g.Seats))
	for i, s := range g.Seats {
		codes[i] = s.Code
	}
	return codes
}

// Regions returns the distinct region names, sorted.
func (g *Geography) Regions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range g.Seats {
		if s.Region != "" && !seen[s.Region] {
			seen[s.Region] = true
			out = append(out, s.Region)
		}
	}
	sort.Strings(out)
	return out
}

// TotalElectorate sums the electorate over all seats.
func (g *Geography) TotalElectorate() int {
	total := 0
	for _, s := range g.Seats {
		total += g.Demographic(s.Code).Electorate()
	}
	return total
}

// SeatCount returns the number of seats in parliament.
func (g *Geography) SeatCount() int {
	return len(g.Seats)
}
