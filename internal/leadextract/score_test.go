package leadextract

import (
	"testing"
	"time"
)

var scoreNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestScorePointTable(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want int
	}{
		{"empty", Context{}, 0},
		{"owner persona", Context{Lead: LeadInfo{PersonaTipo: PersonaOwner}}, 3},
		{"company persona", Context{Lead: LeadInfo{PersonaTipo: PersonaCompany}}, 2},
		{"tenant persona scores nothing", Context{Lead: LeadInfo{PersonaTipo: PersonaTenant}}, 0},
		{"coverage area", Context{Lead: LeadInfo{ZonaCobertura: true}}, 2},
		{"immediate availability", Context{Lead: LeadInfo{Urgencia: "inmediata"}}, 2},
		{"full management interest", Context{Lead: LeadInfo{ServicioInteres: ServiceFullManagement}}, 2},
		{"one contact field", Context{Lead: LeadInfo{Email: "a@b.com"}}, 1},
		{"both contact fields", Context{Lead: LeadInfo{Email: "a@b.com", Telefono: "612345678"}}, 2},
		{"area and rooms", Context{Lead: LeadInfo{M2: 80, Habitaciones: 3}}, 2},
		{"engagement", Context{MessageCount: 4}, 1},
		{"no engagement at 3", Context{MessageCount: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreAt(tt.ctx, scoreNow); got != tt.want {
				t.Errorf("ScoreAt(%+v) = %d, want %d", tt.ctx, got, tt.want)
			}
		})
	}
}

func TestScoreIsClamped(t *testing.T) {
	ctx := Context{
		MessageCount: 10,
		Lead: LeadInfo{
			PersonaTipo:     PersonaOwner,
			ZonaCobertura:   true,
			Urgencia:        "inmediata",
			ServicioInteres: ServiceFullManagement,
			Email:           "a@b.com",
			Telefono:        "612345678",
			M2:              80,
			Habitaciones:    3,
		},
	}
	got := ScoreAt(ctx, scoreNow)
	if got != MaxScore {
		t.Errorf("expected clamped score %d, got %d", MaxScore, got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	personas := []string{"", PersonaOwner, PersonaTenant, PersonaCompany}
	services := []string{"", ServiceValuation, ServiceFullManagement}
	urgencies := []string{"", "inmediata", "sin prisa"}
	for _, p := range personas {
		for _, s := range services {
			for _, u := range urgencies {
				for _, count := range []int{0, 2, 5, 100} {
					ctx := Context{
						MessageCount: count,
						Lead: LeadInfo{
							PersonaTipo: p, ServicioInteres: s, Urgencia: u,
							ZonaCobertura: count%2 == 0,
							Email:         "a@b.com", M2: 80,
						},
					}
					got := ScoreAt(ctx, scoreNow)
					if got < 0 || got > MaxScore {
						t.Fatalf("score out of range: %d for %+v", got, ctx)
					}
				}
			}
		}
	}
}

func TestScoreAvailabilityWindow(t *testing.T) {
	within := Context{Lead: LeadInfo{FechaDisponible: "2026-03-15"}}
	if got := ScoreAt(within, scoreNow); got != 2 {
		t.Errorf("date inside 30-day window should score 2, got %d", got)
	}

	far := Context{Lead: LeadInfo{FechaDisponible: "2026-09-01"}}
	if got := ScoreAt(far, scoreNow); got != 0 {
		t.Errorf("date outside window should score 0, got %d", got)
	}

	garbage := Context{Lead: LeadInfo{FechaDisponible: "en verano"}}
	if got := ScoreAt(garbage, scoreNow); got != 0 {
		t.Errorf("unparseable date should score 0, got %d", got)
	}
}
