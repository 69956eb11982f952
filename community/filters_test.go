package community

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutDuration(t *testing.T) {
	assert := assert.New(t)

	d, err := TimeoutOneHour.Duration()
	assert.NoError(err)
	assert.Equal(time.Hour, d)

	d, err = TimeoutOneDay.Duration()
	assert.NoError(err)
	assert.Equal(24*time.Hour, d)

	d, err = TimeoutOneWeek.Duration()
	assert.NoError(err)
	assert.Equal(7*24*time.Hour, d)

	_, err = TimeoutDuration("1-month").Duration()
	assert.Error(err)
	_, err = TimeoutDuration("").Duration()
	assert.Error(err)
}

func TestParseEnums(t *testing.T) {
	assert := assert.New(t)

	for _, raw := range []string{"admin", "member", "spammer", "banned"} {
		r, err := ParseRole(raw)
		assert.NoError(err)
		assert.Equal(raw, string(r))
	}
	_, err := ParseRole("moderator")
	assert.Error(err)

	a, err := ParseAction("blockPost")
	assert.NoError(err)
	assert.Equal(ActionBlockPost, a)
	_, err = ParseAction("shadowban")
	assert.Error(err)
}

func TestPresetFilterHasAction(t *testing.T) {
	assert := assert.New(t)

	f := PresetFilter{
		Name:    "Spam Filter",
		Actions: []Action{ActionBlockPost},
	}
	assert.True(f.HasAction(ActionBlockPost))
	assert.False(f.HasAction(ActionTimeoutUser))
}

func TestGeneratedConfigEnabledOptions(t *testing.T) {
	assert := assert.New(t)

	cfg := GeneratedConfig{
		Enabled: true,
		Options: []GeneratedFilter{
			{Title: "No Promo", Description: "Block promotional posts", Enabled: true},
			{Title: "Off Topic", Description: "Block off-topic posts", Enabled: false},
			{Title: "No Politics", Description: "Block political posts", Enabled: true},
		},
	}
	opts := cfg.EnabledOptions()
	assert.Len(opts, 2)
	assert.Equal("No Promo", opts[0].Title)
	assert.Equal("No Politics", opts[1].Title)
}
