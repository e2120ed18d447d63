package gate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/skillreflect/internal/ledger"
	"github.com/roasbeef/skillreflect/internal/oracle"
)

func reflection(target string, conf oracle.Confidence) *oracle.Reflection {
	return &oracle.Reflection{
		Target:     target,
		Confidence: conf,
	}
}

// TestDecide walks the full policy table across modes and confidences.
func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		conf oracle.Confidence
		mode Mode
		want Decision
	}{
		{
			name: "high auto applies unattended",
			conf: oracle.ConfidenceHigh,
			mode: ModeAutoApprove,
			want: Decision{
				Action:     ActionApply,
				Outcome:    ledger.OutcomeApplied,
				ReviewedBy: ledger.ReviewerAutoApproved,
			},
		},
		{
			name: "high interactive asks",
			conf: oracle.ConfidenceHigh,
			mode: ModeInteractive,
			want: Decision{Action: ActionAskReviewer},
		},
		{
			name: "medium interactive asks",
			conf: oracle.ConfidenceMedium,
			mode: ModeInteractive,
			want: Decision{Action: ActionAskReviewer},
		},
		{
			name: "medium auto parks without reviewer",
			conf: oracle.ConfidenceMedium,
			mode: ModeAutoApprove,
			want: Decision{
				Action:  ActionPark,
				Outcome: ledger.OutcomePendingReview,
			},
		},
		{
			name: "low interactive parks",
			conf: oracle.ConfidenceLow,
			mode: ModeInteractive,
			want: Decision{
				Action:  ActionPark,
				Outcome: ledger.OutcomePendingReview,
			},
		},
		{
			name: "low auto parks",
			conf: oracle.ConfidenceLow,
			mode: ModeAutoApprove,
			want: Decision{
				Action:  ActionPark,
				Outcome: ledger.OutcomePendingReview,
			},
		},
		{
			name: "dry run computes the auto decision",
			conf: oracle.ConfidenceHigh,
			mode: ModeDryRun,
			want: Decision{
				Action:     ActionApply,
				Outcome:    ledger.OutcomeApplied,
				ReviewedBy: ledger.ReviewerAutoApproved,
			},
		},
		{
			name: "dry run medium would ask",
			conf: oracle.ConfidenceMedium,
			mode: ModeDryRun,
			want: Decision{Action: ActionAskReviewer},
		},
		{
			name: "dry run low would park",
			conf: oracle.ConfidenceLow,
			mode: ModeDryRun,
			want: Decision{
				Action:  ActionPark,
				Outcome: ledger.OutcomePendingReview,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decide(
				reflection("api-conventions", tc.conf), tc.mode,
			)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

// TestDecideNewSkill verifies the recorded-skip short circuit in every
// mode. An unrecorded skip here is the failure that causes a signal to be
// re-detected forever.
func TestDecideNewSkill(t *testing.T) {
	for _, mode := range []Mode{
		ModeInteractive, ModeAutoApprove, ModeDryRun,
	} {
		t.Run(string(mode), func(t *testing.T) {
			got, err := Decide(
				reflection(
					oracle.NewSkillTarget,
					oracle.ConfidenceHigh,
				),
				mode,
			)
			require.NoError(t, err)
			require.Equal(t, Decision{
				Action:     ActionSkipNewSkill,
				Outcome:    ledger.OutcomeSkippedNewSkill,
				ReviewedBy: ledger.ReviewerAutoSkipped,
			}, got)
		})
	}
}

// TestDecideRejectsUnknowns covers mode and confidence validation.
func TestDecideRejectsUnknowns(t *testing.T) {
	_, err := Decide(
		reflection("api-conventions", oracle.ConfidenceHigh),
		Mode("yolo"),
	)
	require.Error(t, err)

	_, err = Decide(
		reflection("api-conventions", oracle.Confidence("maybe")),
		ModeAutoApprove,
	)
	require.Error(t, err)
}
