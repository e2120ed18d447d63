package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/skillreflect/internal/gate"
)

// TestResolveRunMode exercises the merge of the --mode flag with the
// --dry-run and --auto-approve shorthands.
func TestResolveRunMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modeFlag    string
		modeSet     bool
		dryRun      bool
		autoApprove bool
		want        gate.Mode
		wantErr     string
	}{
		{
			name:     "default interactive",
			modeFlag: string(gate.ModeInteractive),
			want:     gate.ModeInteractive,
		},
		{
			name:     "explicit mode",
			modeFlag: string(gate.ModeAutoApprove),
			modeSet:  true,
			want:     gate.ModeAutoApprove,
		},
		{
			name:     "dry run shorthand",
			modeFlag: string(gate.ModeInteractive),
			dryRun:   true,
			want:     gate.ModeDryRun,
		},
		{
			name:        "auto approve shorthand",
			modeFlag:    string(gate.ModeInteractive),
			autoApprove: true,
			want:        gate.ModeAutoApprove,
		},
		{
			name:     "dry run agrees with explicit mode",
			modeFlag: string(gate.ModeDryRun),
			modeSet:  true,
			dryRun:   true,
			want:     gate.ModeDryRun,
		},
		{
			name:        "both shorthands conflict",
			modeFlag:    string(gate.ModeInteractive),
			dryRun:      true,
			autoApprove: true,
			wantErr:     "mutually exclusive",
		},
		{
			name:     "dry run conflicts with explicit mode",
			modeFlag: string(gate.ModeAutoApprove),
			modeSet:  true,
			dryRun:   true,
			wantErr:  "--dry-run conflicts",
		},
		{
			name:        "auto approve conflicts with explicit mode",
			modeFlag:    string(gate.ModeDryRun),
			modeSet:     true,
			autoApprove: true,
			wantErr:     "--auto-approve conflicts",
		},
		{
			name:     "unknown mode",
			modeFlag: "yolo",
			modeSet:  true,
			wantErr:  "unknown mode",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveRunMode(
				tc.modeFlag, tc.modeSet, tc.dryRun,
				tc.autoApprove,
			)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
