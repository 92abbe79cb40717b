package routing

import (
	"errors"
	"math"
	"testing"
)

func TestBuiltinProfilesAreValid(t *testing.T) {
	catalog := BuiltinProfiles()
	if len(catalog) != 10 {
		t.Fatalf("expected 10 builtin profiles, got %d", len(catalog))
	}

	for name, profile := range catalog {
		if err := profile.Validate(); err != nil {
			t.Errorf("builtin profile %q invalid: %v", name, err)
		}
		if !profile.Builtin {
			t.Errorf("builtin profile %q not flagged Builtin", name)
		}
		if profile.Name != name {
			t.Errorf("catalog key %q does not match profile name %q", name, profile.Name)
		}
	}
}

func TestBalancedProfileWeights(t *testing.T) {
	balanced := BuiltinProfiles()[ProfileBalanced]
	want := map[StrategyType]float64{
		StrategyRules:         0.4,
		StrategyCost:          0.3,
		StrategyReliability:   0.2,
		StrategyLoadBalancing: 0.1,
	}
	for st, w := range want {
		if got := balanced.Strategies[st]; got != w {
			t.Errorf("balanced weight for %s = %v, want %v", st, got, w)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile RoutingProfile
		wantErr bool
	}{
		{
			"single strategy at full weight",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{StrategyCost: 1.0}},
			false,
		},
		{
			"sum within tolerance",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{
				StrategyCost: 0.5, StrategyRules: 0.4999,
			}},
			false,
		},
		{
			"no strategies",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{}},
			true,
		},
		{
			"empty name",
			RoutingProfile{Strategies: map[StrategyType]float64{StrategyCost: 1.0}},
			true,
		},
		{
			"unknown strategy",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{"chaos": 1.0}},
			true,
		},
		{
			"zero weight",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{
				StrategyCost: 0, StrategyRules: 1.0,
			}},
			true,
		},
		{
			"sum off by too much",
			RoutingProfile{Name: "p", Strategies: map[StrategyType]float64{
				StrategyCost: 0.5, StrategyRules: 0.4,
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveProfile(t *testing.T) {
	custom := &RoutingProfile{
		Name: "merchant_special",
		Strategies: map[StrategyType]float64{
			StrategyCost:        0.6,
			StrategyReliability: 0.4,
		},
	}
	broken := &RoutingProfile{
		Name: "broken",
		Strategies: map[StrategyType]float64{
			StrategyCost: 0.2,
		},
	}
	snapshot := DefaultSnapshot()
	snapshot.CustomProfiles = map[string]*RoutingProfile{
		"merchant_special": custom,
		"broken":           broken,
	}

	t.Run("builtin", func(t *testing.T) {
		p, err := ResolveProfile(ProfileCostOptimized, snapshot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != ProfileCostOptimized {
			t.Errorf("resolved %q, want %q", p.Name, ProfileCostOptimized)
		}
	})

	t.Run("custom", func(t *testing.T) {
		p, err := ResolveProfile("merchant_special", snapshot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "merchant_special" {
			t.Errorf("resolved %q, want merchant_special", p.Name)
		}
	})

	t.Run("unknown falls back to balanced", func(t *testing.T) {
		p, err := ResolveProfile("does_not_exist", snapshot)
		if !errors.Is(err, ErrUnknownProfile) {
			t.Errorf("expected ErrUnknownProfile, got %v", err)
		}
		if p.Name != ProfileBalanced {
			t.Errorf("fallback resolved %q, want %q", p.Name, ProfileBalanced)
		}
	})

	t.Run("invalid custom falls back to balanced", func(t *testing.T) {
		p, err := ResolveProfile("broken", snapshot)
		if !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("expected ErrInvalidProfile, got %v", err)
		}
		if p.Name != ProfileBalanced {
			t.Errorf("fallback resolved %q, want %q", p.Name, ProfileBalanced)
		}
	})

	t.Run("custom shadows builtin name", func(t *testing.T) {
		shadow := &RoutingProfile{
			Name:       ProfileBalanced,
			Strategies: map[StrategyType]float64{StrategyReliability: 1.0},
		}
		snap := DefaultSnapshot()
		snap.CustomProfiles = map[string]*RoutingProfile{ProfileBalanced: shadow}

		p, err := ResolveProfile(ProfileBalanced, snap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(p.Strategies) != 1 {
			t.Errorf("expected the custom override, got %v", p.Strategies)
		}
	})
}

func TestResolveProfileReturnsClone(t *testing.T) {
	p1, _ := ResolveProfile(ProfileBalanced, nil)
	p1.Strategies[StrategyCost] = 99

	p2, _ := ResolveProfile(ProfileBalanced, nil)
	if math.Abs(p2.Strategies[StrategyCost]-0.3) > 1e-9 {
		t.Error("mutating a resolved profile leaked into later resolutions")
	}
}
