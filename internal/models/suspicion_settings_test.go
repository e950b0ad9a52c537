package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSuspicionSettingsAreValid(t *testing.T) {
	settings := DefaultSuspicionSettings()
	assert.NoError(t, settings.Validate())
	assert.Equal(t, 100, settings.NewAccountWeight+settings.ZeroRepoWeight+
		settings.FollowerRatioWeight+settings.NoActivityWeight)
}

func TestSuspicionSettingsValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*SuspicionSettings)
		wantErr bool
	}{
		{
			name:    "defaults pass",
			mutate:  func(s *SuspicionSettings) {},
			wantErr: false,
		},
		{
			name:    "negative weight rejected",
			mutate:  func(s *SuspicionSettings) { s.ZeroRepoWeight = -1 },
			wantErr: true,
		},
		{
			name: "all weights zero rejected",
			mutate: func(s *SuspicionSettings) {
				s.NewAccountWeight = 0
				s.ZeroRepoWeight = 0
				s.FollowerRatioWeight = 0
				s.NoActivityWeight = 0
			},
			wantErr: true,
		},
		{
			name: "single positive weight is enough",
			mutate: func(s *SuspicionSettings) {
				s.NewAccountWeight = 0
				s.ZeroRepoWeight = 0
				s.FollowerRatioWeight = 0
			},
			wantErr: false,
		},
		{
			name:    "zero age threshold rejected",
			mutate:  func(s *SuspicionSettings) { s.AgeThresholdDays = 0 },
			wantErr: true,
		},
		{
			name:    "zero ratio threshold rejected",
			mutate:  func(s *SuspicionSettings) { s.RatioThreshold = 0 },
			wantErr: true,
		},
		{
			name:    "flag threshold above 100 rejected",
			mutate:  func(s *SuspicionSettings) { s.FlagThreshold = 101 },
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSuspicionSettings()
			tc.mutate(settings)
			err := settings.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
