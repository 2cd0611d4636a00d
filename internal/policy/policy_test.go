package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	p, err := Parse("h24d30w8m6y1")
	require.NoError(t, err)
	assert.Equal(t, Policy{Hourly: 24, Daily: 30, Weekly: 8, Monthly: 6, Yearly: 1}, p)
}

func TestParseAnyOrder(t *testing.T) {
	p, err := Parse("y1h24")
	require.NoError(t, err)
	assert.Equal(t, Policy{Hourly: 24, Yearly: 1}, p)
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Policy{}, p)
}

func TestParseZeroCount(t *testing.T) {
	// An explicit zero disables the granularity, same as omitting it.
	p, err := Parse("h0d7")
	require.NoError(t, err)
	assert.Equal(t, Policy{Daily: 7}, p)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"missing count":       "h",
		"unknown unit":        "x5",
		"repeated unit":       "h1h2",
		"trailing junk":       "h24!",
		"count without unit":  "24h",
		"interior bare unit":  "d30hm6",
		"count out of bounds": "h99999999999999999",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			var perr *InvalidPolicyError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, input, perr.Input)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	policies := []Policy{
		{},
		{Hourly: 24, Daily: 30, Weekly: 8, Monthly: 6, Yearly: 1},
		{Daily: 7},
		{Weekly: 52, Yearly: 10},
	}
	for _, p := range policies {
		parsed, err := Parse(p.String())
		require.NoError(t, err, "formatted policy %q must parse", p.String())
		assert.Equal(t, p, parsed)
	}
}

func TestStringCanonicalOrder(t *testing.T) {
	p, err := Parse("y1h24d30")
	require.NoError(t, err)
	assert.Equal(t, "h24d30y1", p.String())
	assert.Equal(t, "", Policy{}.String())
}

func TestCount(t *testing.T) {
	p := Policy{Hourly: 24, Yearly: 1}
	assert.Equal(t, 24, p.Count(Hourly))
	assert.Equal(t, 0, p.Count(Monthly))
	assert.Equal(t, 1, p.Count(Yearly))
}

func TestTruncate(t *testing.T) {
	// 2021-10-02 is a Saturday.
	at := time.Date(2021, 10, 2, 10, 30, 45, 123, time.UTC)
	cases := []struct {
		g    Granularity
		want time.Time
	}{
		{Hourly, time.Date(2021, 10, 2, 10, 0, 0, 0, time.UTC)},
		{Daily, time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)},
		{Weekly, time.Date(2021, 9, 27, 0, 0, 0, 0, time.UTC)}, // Monday
		{Monthly, time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)},
		{Yearly, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.g.Truncate(at), "granularity %s", c.g)
	}
}

func TestTruncateWeekStartsMonday(t *testing.T) {
	sunday := time.Date(2021, 10, 3, 23, 59, 0, 0, time.UTC)
	monday := time.Date(2021, 10, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2021, 9, 27, 0, 0, 0, 0, time.UTC), Weekly.Truncate(sunday))
	// An instant exactly on the boundary belongs to the bucket it starts.
	assert.Equal(t, monday, Weekly.Truncate(monday))
}

func TestTruncateBoundaryInclusive(t *testing.T) {
	onTheHour := time.Date(2021, 10, 2, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, onTheHour, Hourly.Truncate(onTheHour))
}

func TestTruncateNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2021, 10, 2, 22, 30, 0, 0, est) // 03:30 UTC next day
	assert.Equal(t, time.Date(2021, 10, 3, 3, 0, 0, 0, time.UTC), Hourly.Truncate(at))
}

func TestGranularityUnits(t *testing.T) {
	for _, g := range Granularities {
		p, err := Parse(string(g.Unit()) + "3")
		require.NoError(t, err)
		assert.Equal(t, 3, p.Count(g))
	}
}
