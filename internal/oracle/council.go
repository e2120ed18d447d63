package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/roasbeef/skillreflect/internal/signal"
)

// DefaultCallTimeout bounds each council member call. Timeout is treated as
// "defer", never as a terminal outcome.
const DefaultCallTimeout = 45 * time.Second

// Analyzer converts a signal into a reflection proposal, or reports that the
// signal should be deferred.
type Analyzer interface {
	// Analyze sends the signal to the multi-model council and returns
	// the consensus reflection. Any error means "defer": the caller
	// must not record a terminal ledger state for the signal.
	Analyze(ctx context.Context, sig signal.Signal,
		sctx SessionContext) (*Reflection, error)
}

// chatClient is the slice of the OpenAI client the council uses, split out
// so tests can stub it.
type chatClient interface {
	CreateChatCompletion(ctx context.Context,
		req openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// Config holds council configuration.
type Config struct {
	// Models lists the council members. Consensus requires a strict
	// majority of the full membership.
	Models []string

	// CallTimeout bounds each member call.
	CallTimeout time.Duration

	// APIKey authenticates against the model provider.
	APIKey string

	// BaseURL overrides the provider endpoint (for gateways that fan
	// out to multiple providers behind one API).
	BaseURL string
}

// DefaultConfig returns the default council configuration.
func DefaultConfig() Config {
	return Config{
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"o3-mini",
		},
		CallTimeout: DefaultCallTimeout,
	}
}

// Council fans a signal out to several models and merges their proposals
// into one consensus reflection.
type Council struct {
	cfg    Config
	client chatClient
	log    *slog.Logger
}

// NewCouncil creates a council analyzer from the given configuration.
func NewCouncil(cfg Config, log *slog.Logger) *Council {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Council{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		log:    log.With("component", "oracle"),
	}
}

// newCouncilWithClient is the test seam.
func newCouncilWithClient(
	cfg Config, client chatClient, log *slog.Logger,
) *Council {
	c := NewCouncil(cfg, log)
	c.client = client
	return c
}

// proposal is the JSON body a council member answers with.
type proposal struct {
	Target            string `json:"target"`
	ChangeDescription string `json:"change_description"`
	Rationale         string `json:"rationale"`
	Confidence        string `json:"confidence"`
}

// memberResult pairs one council member's proposal (or failure) with its
// position in the configured membership.
type memberResult struct {
	index    int
	proposal proposal
	err      error
}

// Analyze implements Analyzer. Member calls run concurrently; each is
// bounded by the configured timeout. Signals are independent until they
// reach the ledger, so this concurrency is a pure optimization.
func (c *Council) Analyze(ctx context.Context, sig signal.Signal,
	sctx SessionContext) (*Reflection, error) {

	if len(c.cfg.Models) == 0 {
		return nil, fmt.Errorf("%w: no council models configured",
			ErrOracleUnavailable)
	}

	prompt := buildCouncilPrompt(sig, sctx)

	results := make([]memberResult, len(c.cfg.Models))

	var wg sync.WaitGroup
	for i, model := range c.cfg.Models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()

			p, err := c.askMember(ctx, model, prompt)
			results[i] = memberResult{
				index:    i,
				proposal: p,
				err:      err,
			}
		}(i, model)
	}
	wg.Wait()

	var ok []memberResult
	for _, res := range results {
		if res.err != nil {
			c.log.Warn("Council member failed",
				"model", c.cfg.Models[res.index],
				"fingerprint", sig.Fingerprint,
				"error", res.err,
			)
			continue
		}
		ok = append(ok, res)
	}

	if len(ok) == 0 {
		return nil, fmt.Errorf("%w: all %d council members failed",
			ErrOracleUnavailable, len(c.cfg.Models))
	}

	return c.consensus(sig, ok)
}

// consensus merges member proposals: a strict majority of the full council
// must agree on the target; the consensus confidence is the minimum among
// the agreeing members.
func (c *Council) consensus(
	sig signal.Signal, results []memberResult,
) (*Reflection, error) {

	votes := make(map[string][]proposal)
	for _, res := range results {
		votes[res.proposal.Target] = append(
			votes[res.proposal.Target], res.proposal,
		)
	}

	majority := len(c.cfg.Models)/2 + 1

	var winner string
	for target, ps := range votes {
		if len(ps) >= majority {
			winner = target
			break
		}
	}
	if winner == "" {
		return nil, fmt.Errorf("%w: %d members, no target with %d "+
			"votes", ErrNoConsensus, len(results), majority)
	}

	agreeing := votes[winner]

	confidence := ConfidenceHigh
	for _, p := range agreeing {
		confidence = confidence.Min(Confidence(p.Confidence))
	}

	// The first agreeing member (lowest index, i.e. council order)
	// supplies the prose, keeping the merge deterministic.
	lead := agreeing[0]

	return &Reflection{
		SignalFingerprint: sig.Fingerprint,
		Target:            winner,
		ChangeDescription: lead.ChangeDescription,
		Rationale:         lead.Rationale,
		Confidence:        confidence,
	}, nil
}

// askMember issues one bounded chat-completion call and parses the JSON
// proposal.
func (c *Council) askMember(
	ctx context.Context, model, prompt string,
) (proposal, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(
		callCtx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: councilSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return proposal{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return proposal{}, fmt.Errorf("empty response from %s", model)
	}

	return parseProposal(resp.Choices[0].Message.Content)
}

// parseProposal extracts and validates the JSON proposal from a member
// response, tolerating markdown code fences around the object.
func parseProposal(content string) (proposal, error) {
	text := strings.TrimSpace(content)

	// Strip a surrounding code fence if present.
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	// Fall back to the outermost braces for members that wrap the
	// object in prose.
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return proposal{}, fmt.Errorf(
				"no JSON object in response",
			)
		}
		text = text[start : end+1]
	}

	var p proposal
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return proposal{}, fmt.Errorf("parse proposal: %w", err)
	}

	if p.Target == "" {
		return proposal{}, fmt.Errorf("proposal missing target")
	}
	if !Confidence(p.Confidence).Valid() {
		return proposal{}, fmt.Errorf("invalid confidence %q",
			p.Confidence)
	}

	return p, nil
}
