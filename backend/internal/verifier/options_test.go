package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage-verifier/backend/pkg/config"
	apperrors "lineage-verifier/backend/pkg/errors"
)

func TestStages(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 16)
	assert.Equal(t, StageUniqueness, stages[0].Stage)
	assert.Equal(t, StageNamingConvention, stages[len(stages)-1].Stage)

	for _, st := range stages {
		if st.Stage == StageStripLegacy {
			assert.False(t, st.Toggleable)
		} else {
			assert.True(t, st.Toggleable, st.Stage)
		}
	}
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("family-size")
	require.NoError(t, err)
	assert.Equal(t, StageFamilySize, s)

	_, err = ParseStage(string(StageStripLegacy))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))

	_, err = ParseStage("nope")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestParseSoftViolationPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SoftViolationPolicy
		wantErr bool
	}{
		{"", Escalate, false},
		{"escalate", Escalate, false},
		{"log-only", LogOnly, false},
		{"log", LogOnly, false},
		{"ignore", Escalate, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSoftViolationPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "log-only", LogOnly.String())
	assert.Equal(t, "escalate", Escalate.String())
}

func TestEnabled(t *testing.T) {
	var opts Options
	assert.True(t, opts.Enabled(StageUniqueness))
	assert.True(t, opts.Enabled(StageStripLegacy))
	assert.False(t, opts.Enabled(StageCousinMarriages))
	assert.False(t, opts.Enabled(StageNamingConvention))
	assert.False(t, opts.Enabled("unknown"))

	opts.Verbose = true
	assert.True(t, opts.Enabled(StageCousinMarriages))

	opts.Disable(StageCousinMarriages, StageStripLegacy)
	assert.False(t, opts.Enabled(StageCousinMarriages))
	assert.True(t, opts.Enabled(StageStripLegacy))
}

func TestNormalize(t *testing.T) {
	opts := Options{CousinLevels: []int{0, 3, -1}}.normalize()
	assert.Equal(t, []int{3}, opts.CousinLevels)
	assert.NotNil(t, opts.KnownProblemCases)
	assert.NotNil(t, opts.SimilarPersonExceptions)
	assert.Equal(t, defaultMysteryCheckLevel, opts.MysteryCheckLevel)

	opts = Options{}.normalize()
	assert.Equal(t, []int{1, 2}, opts.CousinLevels)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		RaiseException:          false,
		KnownProblemCases:       []string{"Known"},
		SimilarPersonExceptions: []string{"Twin"},
		EnableStages:            []string{"naming-convention"},
		DisableStages:           []string{"family-size"},
	}

	opts, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, LogOnly, opts.OnSoftViolation)
	assert.Equal(t, []string{"Known"}, opts.KnownProblemCases)
	assert.Equal(t, []string{"Twin"}, opts.SimilarPersonExceptions)
	assert.True(t, opts.Enabled(StageNamingConvention))
	assert.False(t, opts.Enabled(StageFamilySize))

	cfg.RaiseException = true
	cfg.EnableStages = []string{"strip-legacy-attributes"}
	_, err = FromConfig(cfg)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	base := DefaultOptions()
	base.Disable(StageFamilySize)

	clone := base.Clone()
	clone.Enable(StageFamilySize)
	clone.KnownProblemCases = append(clone.KnownProblemCases, "x")

	assert.False(t, base.Enabled(StageFamilySize))
	assert.True(t, clone.Enabled(StageFamilySize))
	assert.Empty(t, base.KnownProblemCases)
}
