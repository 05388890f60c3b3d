package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityVerdictValidate(t *testing.T) {
	tests := []struct {
		name    string
		verdict QualityVerdict
		wantErr bool
	}{
		{
			name:    "accurate above threshold",
			verdict: QualityVerdict{QualityScore: 350, IsAccurate: true, ImprovementNeeded: false},
		},
		{
			name:    "inaccurate below threshold",
			verdict: QualityVerdict{QualityScore: 250, IsAccurate: false, ImprovementNeeded: true},
		},
		{
			name:    "exactly at threshold is not accurate",
			verdict: QualityVerdict{QualityScore: 300, IsAccurate: false, ImprovementNeeded: true},
		},
		{
			name:    "accurate flag contradicts score",
			verdict: QualityVerdict{QualityScore: 200, IsAccurate: true, ImprovementNeeded: false},
			wantErr: true,
		},
		{
			name:    "improvement flag contradicts accuracy",
			verdict: QualityVerdict{QualityScore: 350, IsAccurate: true, ImprovementNeeded: true},
			wantErr: true,
		},
		{
			name:    "score out of range",
			verdict: QualityVerdict{QualityScore: 450, IsAccurate: true},
			wantErr: true,
		},
		{
			name:    "negative score",
			verdict: QualityVerdict{QualityScore: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.verdict.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFallbackVerdictIsConservativePass(t *testing.T) {
	v := FallbackVerdict()
	assert.Equal(t, 350, v.QualityScore)
	assert.True(t, v.IsAccurate)
	assert.NoError(t, v.Validate())
}
