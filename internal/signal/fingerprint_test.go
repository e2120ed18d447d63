package signal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestNormalize exercises the canonical form on fixed inputs.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases and trims punctuation",
			in:   "Always use HTTPS!",
			want: "always use https",
		},
		{
			name: "collapses whitespace",
			in:   "never\t\tcommit   secrets\n\nto git",
			want: "never commit secrets to git",
		},
		{
			name: "strips uuid",
			in:   "session 123e4567-e89b-12d3-a456-426614174000 failed",
			want: "session failed",
		},
		{
			name: "strips hex nonce",
			in:   "commit deadbeefdeadbeef broke the build",
			want: "commit broke the build",
		},
		{
			name: "strips iso timestamp",
			in:   "deploy at 2026-08-30T12:34:56Z went fine",
			want: "deploy at went fine",
		},
		{
			name: "keeps short hex words",
			in:   "use feed rather than beef",
			want: "use feed rather than beef",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

// TestNormalizeCapsLength verifies the fixed-length cap used for
// fingerprinting.
func TestNormalizeCapsLength(t *testing.T) {
	long := strings.Repeat("always use https ", 40)
	norm := Normalize(long)

	require.LessOrEqual(t, len([]rune(norm)), maxNormalizedRunes)
	require.False(t, strings.HasSuffix(norm, " "))

	// Anything past the cap never changes the result.
	require.Equal(t, norm, Normalize(long+" and one more thing"))
}

// TestFingerprintStability asserts that session-varying noise never
// perturbs the fingerprint of an otherwise identical phrase.
func TestFingerprintStability(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		session := rapid.StringMatching(`[a-z0-9-]{8,36}`).
			Draw(t, "session")
		phrase := rapid.StringMatching(
			`always [a-z]{3,10} [a-z]{3,10} [a-z]{3,10}`,
		).Draw(t, "phrase")

		base := Fingerprint(session, phrase)

		// Case changes collapse.
		require.Equal(t, base, Fingerprint(
			session, strings.ToUpper(phrase),
		))

		// Whitespace runs collapse.
		require.Equal(t, base, Fingerprint(
			session, "  "+strings.ReplaceAll(phrase, " ", "\t ")+"\n",
		))

		// Appended nonces strip out.
		require.Equal(t, base, Fingerprint(
			session,
			phrase+" 123e4567-e89b-12d3-a456-426614174000",
		))
		require.Equal(t, base, Fingerprint(
			session, phrase+" 2026-08-30T10:00:00Z",
		))

		// Trailing punctuation trims.
		require.Equal(t, base, Fingerprint(session, phrase+"!!"))
	})
}

// TestFingerprintDistinguishes verifies that sessions and phrases both
// contribute to the key.
func TestFingerprintDistinguishes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phrase := rapid.StringMatching(`[a-z]{5,20} [a-z]{5,20}`).
			Draw(t, "phrase")
		other := rapid.StringMatching(`[a-z]{5,20} [a-z]{5,20}`).
			Draw(t, "other")

		if Normalize(phrase) != Normalize(other) {
			require.NotEqual(t,
				Fingerprint("s1", phrase),
				Fingerprint("s1", other),
			)
		}

		// Same phrase in different sessions keys separately.
		require.NotEqual(t,
			Fingerprint("s1", phrase),
			Fingerprint("s2", phrase),
		)
	})
}

// TestFingerprintShape pins the output format down for the ledger and the
// skill document markers that embed it.
func TestFingerprintShape(t *testing.T) {
	fp := Fingerprint("session", "always use https")
	require.Len(t, fp, 64)
	require.Regexp(t, `^[0-9a-f]{64}$`, fp)
}
