package leadextract

import (
	"strings"
	"time"
)

// MaxScore bounds the advisory lead score.
const MaxScore = 10

var availabilityLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Score computes the advisory 0-10 commercial priority of a conversation.
// It gates nothing by itself: persistence is the consent gate's job.
func Score(ctx Context) int {
	return ScoreAt(ctx, time.Now())
}

// ScoreAt is Score with an injectable clock for the availability window.
func ScoreAt(ctx Context, now time.Time) int {
	info := ctx.Lead
	score := 0

	switch info.PersonaTipo {
	case PersonaOwner:
		score += 3
	case PersonaCompany:
		score += 2
	}

	if info.ZonaCobertura {
		score += 2
	}

	if availableWithin(info, now, 30*24*time.Hour) {
		score += 2
	}

	if info.ServicioInteres == ServiceFullManagement {
		score += 2
	}

	hasEmail := info.Email != ""
	hasPhone := info.Telefono != ""
	if hasEmail || hasPhone {
		score++
	}
	if hasEmail && hasPhone {
		score++
	}

	if info.M2 > 0 {
		score++
	}
	if info.Habitaciones > 0 {
		score++
	}

	if ctx.MessageCount > 3 {
		score++
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

// availableWithin reports whether the property is available inside the window:
// either the urgency is immediate or the declared date parses and falls within.
func availableWithin(info LeadInfo, now time.Time, window time.Duration) bool {
	if info.Urgencia == "inmediata" {
		return true
	}
	raw := strings.TrimSpace(info.FechaDisponible)
	if raw == "" {
		return false
	}
	for _, layout := range availabilityLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if !t.Before(now.Add(-24*time.Hour)) && t.Before(now.Add(window)) {
			return true
		}
	}
	return false
}
