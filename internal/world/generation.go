// Seat map generation using layered simplex noise.
// Neighbouring seats get correlated community mixes so regions read as
// coherent heartlands rather than white noise.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds seat map generation parameters.
type GenConfig struct {
	Seed          int64    `yaml:"seed"`
	Seats         int      `yaml:"seats"`
	Regions       []string `yaml:"regions"`
	MinElectorate int      `yaml:"min_electorate"`
	MaxElectorate int      `yaml:"max_electorate"`
}

// DefaultGenConfig returns a peninsula-sized parliament.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seats: 104,
		Regions: []string{
			"Perlis", "Kedah", "Penang", "Perak", "Selangor", "Negeri Sembilan",
			"Malacca", "Johor", "Pahang", "Terengganu", "Kelantan",
		},
		MinElectorate: 8000,
		MaxElectorate: 40000,
	}
}

// SmallTestConfig returns a tiny parliament for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Seed:          42,
		Seats:         12,
		Regions:       []string{"North", "Central", "South"},
		MinElectorate: 5000,
		MaxElectorate: 15000,
	}
}

var seatSyllables = []string{
	"ku", "ala", "ba", "tu", "pa", "sir", "jaya", "ke", "ta", "nah",
	"lum", "pur", "ri", "ma", "sung", "gai", "bu", "kit", "la", "ngat",
}

// Generate creates a deterministic seat table and demographics from the seed.
func Generate(cfg GenConfig) *Geography {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Seats <= 0 {
		cfg.Seats = DefaultGenConfig().Seats
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = DefaultGenConfig().Regions
	}
	if cfg.MaxElectorate < cfg.MinElectorate {
		cfg.MaxElectorate = cfg.MinElectorate
	}

	malayNoise := opensimplex.NewNormalized(seed)
	urbanNoise := opensimplex.NewNormalized(seed + 1)
	estateNoise := opensimplex.NewNormalized(seed + 2)
	rng := rand.New(rand.NewSource(seed + 100))

	cols := int(math.Ceil(math.Sqrt(float64(cfg.Seats))))
	perRegion := int(math.Ceil(float64(cfg.Seats) / float64(len(cfg.Regions))))

	seats := make([]Seat, 0, cfg.Seats)
	demos := make(map[string]*Demographics, cfg.Seats)

	for i := 0; i < cfg.Seats; i++ {
		x := float64(i%cols) * 0.35
		y := float64(i/cols) * 0.35

		rural := octaveNoise(malayNoise, x, y, 3, 1.0, 0.5)
		urban := octaveNoise(urbanNoise, x, y, 3, 1.0, 0.5)
		estate := octaveNoise(estateNoise, x, y, 2, 1.0, 0.5)

		// Urban seats skew Chinese, estate belts skew Indian, the rest Malay.
		weights := map[Ethnicity]float64{
			EthnicMalay:   0.2 + rural*1.6,
			EthnicChinese: 0.05 + math.Pow(urban, 2)*1.8,
			EthnicIndian:  0.02 + math.Pow(estate, 3)*0.9,
			EthnicOther:   0.02 + rng.Float64()*0.04,
		}
		composition := normalizePercent(weights)

		electorate := cfg.MinElectorate
		if span := cfg.MaxElectorate - cfg.MinElectorate; span > 0 {
			electorate += int(float64(span) * (0.3*urban + 0.7*rng.Float64()))
		}

		region := cfg.Regions[(i/perRegion)%len(cfg.Regions)]
		code := fmt.Sprintf("P%03d", i+1)
		seats = append(seats, Seat{
			Code:   code,
			Name:   seatName(rng),
			Region: region,
		})
		demos[code] = &Demographics{
			SeatCode:        code,
			TotalElectorate: electorate,
			Composition:     composition,
		}
	}

	return NewGeography(seats, demos)
}

func normalizePercent(weights map[Ethnicity]float64) map[Ethnicity]float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make(map[Ethnicity]float64, len(weights))
	for e, w := range weights {
		out[e] = math.Round(w/total*1000) / 10
	}
	return out
}

func seatName(rng *rand.Rand) string {
	n := 2 + rng.Intn(2)
	name := ""
	for i := 0; i < n; i++ {
		name += seatSyllables[rng.Intn(len(seatSyllables))]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// octaveNoise samples multi-octave simplex noise, normalized to 0..1.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxAmp := 0.0
	freq := frequency

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxAmp += amplitude
		amplitude *= persistence
		freq *= 2
	}

	return total / maxAmp
}
