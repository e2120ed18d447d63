package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/roasbeef/skillreflect/internal/signal"
)

// stubClient answers chat completions per model name. A nil entry means
// the member call fails.
type stubClient struct {
	responses map[string]string
	errs      map[string]error
}

func (s *stubClient) CreateChatCompletion(
	_ context.Context, req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	if err, ok := s.errs[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}

	content, ok := s.responses[req.Model]
	if !ok {
		return openai.ChatCompletionResponse{}, fmt.Errorf(
			"unexpected model %s", req.Model,
		)
	}

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Content: content,
			},
		}},
	}, nil
}

func proposalJSON(target, confidence string) string {
	return fmt.Sprintf(`{"target":%q,"change_description":"Use HTTPS.",`+
		`"rationale":"User corrected this.","confidence":%q}`,
		target, confidence)
}

func testCouncil(t *testing.T, client chatClient) *Council {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Models = []string{"model-a", "model-b", "model-c"}

	return newCouncilWithClient(cfg, client, slog.Default())
}

func testSignal() signal.Signal {
	return signal.NewSignal(
		"sess-1", "Always use HTTPS for API calls, not HTTP.",
		signal.KindExplicitCorrection, 4,
	)
}

// TestAnalyzeConsensus verifies majority agreement with minimum-confidence
// merging.
func TestAnalyzeConsensus(t *testing.T) {
	council := testCouncil(t, &stubClient{
		responses: map[string]string{
			"model-a": proposalJSON("api-conventions", "high"),
			"model-b": proposalJSON("api-conventions", "medium"),
			"model-c": proposalJSON("testing-habits", "high"),
		},
	})

	sig := testSignal()
	refl, err := council.Analyze(
		context.Background(), sig, SessionContext{},
	)
	require.NoError(t, err)

	require.Equal(t, "api-conventions", refl.Target)
	require.Equal(t, ConfidenceMedium, refl.Confidence)
	require.Equal(t, sig.Fingerprint, refl.SignalFingerprint)
	require.Equal(t, "Use HTTPS.", refl.ChangeDescription)
}

// TestAnalyzeNoConsensus fails when no target reaches a strict majority of
// the full membership.
func TestAnalyzeNoConsensus(t *testing.T) {
	council := testCouncil(t, &stubClient{
		responses: map[string]string{
			"model-a": proposalJSON("api-conventions", "high"),
			"model-b": proposalJSON("testing-habits", "high"),
			"model-c": proposalJSON("git-workflow", "high"),
		},
	})

	_, err := council.Analyze(
		context.Background(), testSignal(), SessionContext{},
	)
	require.ErrorIs(t, err, ErrNoConsensus)
}

// TestAnalyzeMajorityOfFullCouncil requires the majority to count against
// the configured membership, not the surviving members.
func TestAnalyzeMajorityOfFullCouncil(t *testing.T) {
	council := testCouncil(t, &stubClient{
		responses: map[string]string{
			"model-a": proposalJSON("api-conventions", "high"),
		},
		errs: map[string]error{
			"model-b": errors.New("rate limited"),
			"model-c": errors.New("rate limited"),
		},
	})

	// One vote out of a three-member council is not a majority even
	// though every surviving member agrees.
	_, err := council.Analyze(
		context.Background(), testSignal(), SessionContext{},
	)
	require.ErrorIs(t, err, ErrNoConsensus)
}

// TestAnalyzeAllMembersFail defers rather than resolving anything.
func TestAnalyzeAllMembersFail(t *testing.T) {
	council := testCouncil(t, &stubClient{
		errs: map[string]error{
			"model-a": errors.New("boom"),
			"model-b": errors.New("boom"),
			"model-c": errors.New("boom"),
		},
	})

	_, err := council.Analyze(
		context.Background(), testSignal(), SessionContext{},
	)
	require.ErrorIs(t, err, ErrOracleUnavailable)
}

// TestAnalyzeNewSkillConsensus passes the sentinel target through.
func TestAnalyzeNewSkillConsensus(t *testing.T) {
	council := testCouncil(t, &stubClient{
		responses: map[string]string{
			"model-a": proposalJSON(NewSkillTarget, "high"),
			"model-b": proposalJSON(NewSkillTarget, "high"),
			"model-c": proposalJSON("api-conventions", "low"),
		},
	})

	refl, err := council.Analyze(
		context.Background(), testSignal(), SessionContext{},
	)
	require.NoError(t, err)
	require.True(t, refl.IsNewSkill())
	require.Equal(t, ConfidenceHigh, refl.Confidence)
}

// TestParseProposal covers fence stripping and validation.
func TestParseProposal(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "bare json",
			content: proposalJSON("api-conventions", "high"),
			want:    "api-conventions",
		},
		{
			name: "fenced json",
			content: "```json\n" +
				proposalJSON("api-conventions", "high") +
				"\n```",
			want: "api-conventions",
		},
		{
			name: "json wrapped in prose",
			content: "Here is my proposal:\n" +
				proposalJSON("api-conventions", "medium") +
				"\nLet me know.",
			want: "api-conventions",
		},
		{
			name:    "missing target",
			content: `{"confidence":"high"}`,
			wantErr: true,
		},
		{
			name:    "invalid confidence",
			content: proposalJSON("api-conventions", "certain"),
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "I refuse to answer in JSON.",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := parseProposal(tc.content)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, p.Target)
		})
	}
}
