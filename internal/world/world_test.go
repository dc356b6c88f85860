package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(SmallTestConfig())
	b := Generate(SmallTestConfig())

	require.Equal(t, a.SeatCodes(), b.SeatCodes())
	for _, code := range a.SeatCodes() {
		assert.Equal(t, a.Demographic(code), b.Demographic(code))
	}
}

func TestGenerateCompositionSumsToHundred(t *testing.T) {
	g := Generate(SmallTestConfig())
	require.Len(t, g.Seats, 12)

	for _, code := range g.SeatCodes() {
		d := g.Demographic(code)
		require.NotNil(t, d)
		total := 0.0
		for _, e := range Ethnicities {
			total += d.Share(e)
		}
		assert.InDelta(t, 100, total, 0.5, "seat %s", code)
		assert.GreaterOrEqual(t, d.TotalElectorate, 5000)
		assert.LessOrEqual(t, d.TotalElectorate, 15000)
	}
}

func TestMissingDemographicsDegrade(t *testing.T) {
	var d *Demographics
	assert.Equal(t, 0.0, d.Share(EthnicMalay))
	assert.Equal(t, DefaultElectorate, d.Electorate())

	g := NewGeography([]Seat{{Code: "P001", Name: "Alpha"}}, nil)
	assert.Nil(t, g.Demographic("P001"))
	assert.Equal(t, DefaultElectorate, g.TotalElectorate())
}

func TestParseReference(t *testing.T) {
	data := []byte(`
seats:
  - code: P001
    name: Kota Bharu
    region: Kelantan
    electorate: 20000
    composition:
      Malay: 90
      Chinese: 8
      Indian: 2
  - code: P002
    name: Bachok
    region: Kelantan
`)
	g, err := ParseReference(data)
	require.NoError(t, err)
	require.Equal(t, 2, g.SeatCount())

	seat, ok := g.Seat("P001")
	require.True(t, ok)
	assert.Equal(t, "Kota Bharu", seat.Name)
	assert.Equal(t, 90.0, g.Demographic("P001").Share(EthnicMalay))
	assert.Nil(t, g.Demographic("P002"))
	assert.Equal(t, []string{"Kelantan"}, g.Regions())
}

func TestParseReferenceRejectsDuplicates(t *testing.T) {
	_, err := ParseReference([]byte("seats:\n  - code: P1\n  - code: P1\n"))
	assert.Error(t, err)
}
