package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	l := Parse("Anna Berg 1890 Turku K. Pekka  Berg\nfarmer **")

	assert.Equal(t, "Anna Berg 1890 Turku K. Pekka  Berg", l.Primary)
	assert.Equal(t, []string{"farmer **"}, l.Rest)
	assert.True(t, l.HasMarker())
	assert.Equal(t, "Pekka  Berg", l.MarkerText)
	assert.True(t, l.Asterisk)
	assert.Equal(t, 0, l.Quotes)
	assert.Equal(t, -1, l.YearGap)
	assert.Nil(t, l.Range)
	if assert.NotNil(t, l.FirstYear) {
		assert.Equal(t, "1890", l.Primary[l.FirstYear.Start:l.FirstYear.End])
	}
}

func TestParse_YearGap(t *testing.T) {
	tests := []struct {
		name string
		gap  int
	}{
		{"John 1900-1910", 0},
		{"John 1900 - 1910", 3},
		{"John 1900 Oulu 1910", 6},
		{"Jöns 1900 Åbo 1910", 5},
		{"John 1900", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.gap, Parse(tt.name).YearGap)
		})
	}
}

func TestRangeLacksApprox(t *testing.T) {
	assert.True(t, Parse("John 1900-1910").RangeLacksApprox())
	assert.False(t, Parse("John arviolta 1900-1910").RangeLacksApprox())
	assert.True(t, Parse("John 1900-1910 arviolta").RangeLacksApprox())
	assert.False(t, Parse("John 1900").RangeLacksApprox())
}

func TestSecondLineStartsWithMarker(t *testing.T) {
	assert.True(t, Parse("John\nK. Mary").SecondLineStartsWithMarker())
	assert.False(t, Parse("John K. Mary").SecondLineStartsWithMarker())
	assert.False(t, Parse("John").SecondLineStartsWithMarker())
}

func TestSignature(t *testing.T) {
	sig, ok := Parse("Jane Doe-1920 Helsinki").Signature()
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe-1920", sig)

	sig, ok = Parse("Jane Doe 1920").Signature()
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe 1920", sig)

	_, ok = Parse("Jane K. Doe 1920").Signature()
	assert.False(t, ok)
}

func TestLifespan(t *testing.T) {
	born, died, ok := Parse("Matti Virtanen 1850 Oulu K. 1920 Turku").Lifespan()
	assert.True(t, ok)
	assert.Equal(t, "1850", born)
	assert.Equal(t, "1920", died)

	_, _, ok = Parse("Matti Virtanen 1850 Oulu").Lifespan()
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	assert.True(t, HasYear("Anna 1890"))
	assert.False(t, HasYear("Anna"))
	assert.True(t, IsDated("Anna 1890"))
	assert.False(t, IsDated("Anna 2001"))

	assert.Equal(t, "Anna", FirstLine("Anna\nfarmer"))
	assert.Equal(t, "Anna farmer", Flatten("Anna\nfarmer\n"))
	assert.Equal(t, "Anna", FirstWord("  Anna Berg\nx"))
	assert.Equal(t, "", FirstWord(""))

	assert.Equal(t, "Ö", Initial("Östen"))
	assert.Equal(t, "", Initial(""))
	assert.Equal(t, "Östen B", Prefix("Östen Berg", 7))
	assert.Equal(t, "Ann", Prefix("Ann", 8))
}
