package drop

import (
	"testing"
	"time"

	"candy-drop/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestBannerSwitchesAtGoLive(t *testing.T) {
	goLive := time.Date(2021, 12, 20, 11, 33, 20, 0, time.UTC)
	stats := models.DropStats{
		ItemsAvailable:  10,
		GoLiveSet:       true,
		GoLiveTimestamp: goLive.Unix(),
		GoLiveDisplay:   goLive.Format(GoLiveLayout),
	}

	before := Banner(stats, goLive.Add(-26*time.Hour-3*time.Minute-4*time.Second))
	assert.False(t, before.Live, "timer path before go-live")
	assert.Equal(t, 26*time.Hour+3*time.Minute+4*time.Second, before.Countdown)
	assert.Equal(t, "Candy drop starting in 1d 02h 03m 04s", before.Message)

	at := Banner(stats, goLive)
	assert.True(t, at.Live)
	assert.Equal(t, "The drop went live on Mon, 20 Dec 2021 11:33:20 GMT!", at.Message)

	after := Banner(stats, goLive.Add(time.Minute))
	assert.True(t, after.Live)
	assert.Zero(t, after.Countdown)
}

func TestBannerWithoutGoLive(t *testing.T) {
	view := Banner(models.DropStats{ItemsAvailable: 10}, time.Now())
	assert.False(t, view.Live)
	assert.Zero(t, view.Countdown)
	assert.NotEmpty(t, view.Message)
}

func TestMintButton(t *testing.T) {
	tests := []struct {
		name     string
		stats    models.DropStats
		inFlight bool
		want     ButtonView
	}{
		{"available", models.DropStats{ItemsAvailable: 10, ItemsRedeemed: 3}, false, ButtonView{Label: LabelMint, Enabled: true}},
		{"in flight", models.DropStats{ItemsAvailable: 10, ItemsRedeemed: 3}, true, ButtonView{Label: LabelMinting}},
		{"sold out", models.DropStats{ItemsAvailable: 10, ItemsRedeemed: 10}, false, ButtonView{Label: LabelSoldOut}},
		{"sold out while in flight", models.DropStats{ItemsAvailable: 10, ItemsRedeemed: 10}, true, ButtonView{Label: LabelSoldOut}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MintButton(tt.stats, tt.inFlight))
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "1d 02h 03m 04s", FormatCountdown(26*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "00h 00m 59s", FormatCountdown(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "00h 00m 00s", FormatCountdown(-time.Second))
}
