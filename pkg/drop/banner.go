package drop

import (
	"fmt"
	"time"

	"candy-drop/pkg/models"
)

const (
	LabelSoldOut = "SOLD OUT"
	LabelMinting = "MINTING..."
	LabelMint    = "MINT!"
)

// BannerView is what the drop header shows
type BannerView struct {
	Live      bool
	Countdown time.Duration // time left until go-live, zero once live
	Message   string
}

// ButtonView is the label and state of the mint button
type ButtonView struct {
	Label   string
	Enabled bool
}

// Banner selects the timer path before go-live and the message path after
func Banner(stats models.DropStats, now time.Time) BannerView {
	if !stats.GoLiveSet {
		return BannerView{Message: "The drop has not been scheduled yet."}
	}

	goLive := time.Unix(stats.GoLiveTimestamp, 0)
	if now.Before(goLive) {
		left := goLive.Sub(now)
		return BannerView{
			Countdown: left,
			Message:   fmt.Sprintf("Candy drop starting in %s", FormatCountdown(left)),
		}
	}

	return BannerView{
		Live:    true,
		Message: fmt.Sprintf("The drop went live on %s!", stats.GoLiveDisplay),
	}
}

// MintButton derives the mint button from the drop stats and the in-flight flag
func MintButton(stats models.DropStats, inFlight bool) ButtonView {
	switch {
	case stats.SoldOut():
		return ButtonView{Label: LabelSoldOut}
	case inFlight:
		return ButtonView{Label: LabelMinting}
	default:
		return ButtonView{Label: LabelMint, Enabled: true}
	}
}

// FormatCountdown renders d as "1d 02h 03m 04s", dropping the day part when zero
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
}
