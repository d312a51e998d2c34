package sightengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) *ImageResponse {
	var r ImageResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return &r
}

func TestEvaluate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		raw     string
		flagged bool
		reason  string
	}{
		{
			name: "all below thresholds",
			raw:  `{"nudity":{"sexual_activity":0.5,"sexual_display":0.5},"weapon":0.7,"offensive":{"prob":0.6},"gore":{"prob":0.5}}`,
		},
		{
			name: "missing scores",
			raw:  `{"status":"success"}`,
		},
		{
			name:    "sexual activity",
			raw:     `{"nudity":{"sexual_activity":0.51}}`,
			flagged: true,
			reason:  ReasonSexual,
		},
		{
			name:    "sexual display",
			raw:     `{"nudity":{"sexual_display":0.9}}`,
			flagged: true,
			reason:  ReasonSexual,
		},
		{
			name:    "weapon",
			raw:     `{"weapon":0.71}`,
			flagged: true,
			reason:  ReasonWeapon,
		},
		{
			name:    "offensive",
			raw:     `{"offensive":{"prob":0.61}}`,
			flagged: true,
			reason:  ReasonOffensive,
		},
		{
			name:    "gore",
			raw:     `{"gore":{"prob":0.51}}`,
			flagged: true,
			reason:  ReasonGore,
		},
		{
			name:    "first category wins",
			raw:     `{"nudity":{"sexual_activity":0.9},"weapon":0.9,"offensive":{"prob":0.9},"gore":{"prob":0.9}}`,
			flagged: true,
			reason:  ReasonSexual,
		},
		{
			name:    "weapon before gore",
			raw:     `{"weapon":0.8,"gore":{"prob":0.9}}`,
			flagged: true,
			reason:  ReasonWeapon,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Evaluate(decode(t, tc.raw))
			require.NoError(t, err)
			require.Equal(t, tc.flagged, result.Flagged)
			require.Equal(t, tc.reason, result.Reason)
		})
	}
}

func TestEvaluate_UnexpectedWeaponShape(t *testing.T) {
	// Nudity is checked before the weapon score is decoded.
	result, err := Evaluate(decode(t, `{"nudity":{"sexual_activity":0.9},"weapon":{"classes":{"firearm":0.9}}}`))
	require.NoError(t, err)
	require.True(t, result.Flagged)
	require.Equal(t, ReasonSexual, result.Reason)

	_, err = Evaluate(decode(t, `{"weapon":{"classes":{"firearm":0.9}}}`))
	require.Error(t, err)
}
