// Package roast coordinates the critique workflow: capture a screenshot,
// fan it out to every persona in parallel, parse and weight the findings,
// and merge everything into a per-iteration Markdown report.
package roast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"roast/pkg/llm"
	"roast/pkg/memory"
	"roast/pkg/persona"
	"roast/pkg/report"
	"roast/pkg/session"
)

// FixMode is the between-iteration decision.
type FixMode string

const (
	// FixModeQuick limits next steps to the top three findings.
	FixModeQuick FixMode = "quick"
	// FixModeDeep keeps every finding on the list.
	FixModeDeep FixMode = "deep"
	// FixModeShip ends the loop regardless of remaining iterations.
	FixModeShip FixMode = "ship"
)

// ParseFixMode validates a fix mode string. Empty is allowed and means
// "decide interactively".
func ParseFixMode(s string) (FixMode, error) {
	switch FixMode(s) {
	case "", FixModeQuick, FixModeDeep, FixModeShip:
		return FixMode(s), nil
	default:
		return "", fmt.Errorf("invalid fix mode %q (want quick, deep or ship)", s)
	}
}

// Decision is what the decider returns between iterations.
type Decision struct {
	Mode     FixMode
	Continue bool
}

// Decider chooses the fix mode after an iteration. A nil decider keeps
// the configured fix mode and continues until iterations run out.
type Decider func(*Iteration) Decision

// CaptureFunc produces a PNG screenshot for a URL. Injected so the
// orchestrator does not hard-depend on a running browser.
type CaptureFunc func(ctx context.Context, url string) ([]byte, error)

// Target is the subject of a roast run.
type Target struct {
	// Topic names the run, e.g. "checkout".
	Topic string

	// URL is captured with the browser when Image is empty.
	URL string

	// Image is a pre-captured screenshot.
	Image []byte

	// MIMEType of Image, defaults to image/png.
	MIMEType string
}

// Critique is one persona's raw and parsed output.
type Critique struct {
	Persona  persona.Persona
	Raw      string
	Prose    string
	Findings []Finding
	Err      error
}

// Iteration is the result of one pass over the screenshot.
type Iteration struct {
	Number         int
	Critiques      []Critique
	Findings       []Finding
	New            int
	Recurring      int
	FixMode        FixMode
	ReportPath     string
	ScreenshotPath string
}

// RunResult is the complete output of a roast run.
type RunResult struct {
	RunID      string
	Topic      string
	Iterations []*Iteration
	Stopped    string
}

// Config configures the orchestrator.
type Config struct {
	// Iterations is the maximum number of passes (default 2).
	Iterations int

	// Focus is the focused persona tag, empty for none.
	Focus string

	// FixMode preselects the between-iteration decision; empty defers
	// to the decider.
	FixMode FixMode

	// FocusBoost and OffFocusDamp override the 1.5x / 0.5x weighting.
	FocusBoost   float64
	OffFocusDamp float64

	// MaxTokens bounds each persona response.
	MaxTokens int

	// Similarity overrides the recurring-finding threshold.
	Similarity float32
}

// Orchestrator coordinates personas, weighting, memory and reporting.
type Orchestrator struct {
	router   *llm.Router
	registry *persona.Registry
	workdir  *report.Workdir
	store    *memory.Store
	capture  CaptureFunc
	circuit  *CircuitBreaker
	log      arbor.ILogger

	sessionDir string
	cfg        Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithRegistry sets the persona registry.
func WithRegistry(r *persona.Registry) Option {
	return func(o *Orchestrator) error {
		o.registry = r
		return nil
	}
}

// WithWorkdir sets the report workdir.
func WithWorkdir(w *report.Workdir) Option {
	return func(o *Orchestrator) error {
		o.workdir = w
		return nil
	}
}

// WithMemory sets the finding memory store.
func WithMemory(s *memory.Store) Option {
	return func(o *Orchestrator) error {
		o.store = s
		return nil
	}
}

// WithCapture sets the screenshot capture function.
func WithCapture(fn CaptureFunc) Option {
	return func(o *Orchestrator) error {
		o.capture = fn
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log arbor.ILogger) Option {
	return func(o *Orchestrator) error {
		o.log = log
		return nil
	}
}

// WithSessionDir enables per-topic session persistence.
func WithSessionDir(dir string) Option {
	return func(o *Orchestrator) error {
		o.sessionDir = dir
		return nil
	}
}

// WithCircuitBreaker sets the iteration circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(o *Orchestrator) error {
		o.circuit = cb
		return nil
	}
}

// WithConfig sets the orchestrator configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) error {
		o.cfg = cfg
		return nil
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(router *llm.Router, opts ...Option) (*Orchestrator, error) {
	if router == nil {
		return nil, fmt.Errorf("router is nil")
	}

	o := &Orchestrator{
		router:  router,
		circuit: NewCircuitBreaker(CircuitBreakerConfig{}),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.registry == nil {
		o.registry = persona.NewRegistry()
	}
	if o.workdir == nil {
		w, err := report.NewWorkdir("reports")
		if err != nil {
			return nil, err
		}
		o.workdir = w
	}
	if o.cfg.Iterations <= 0 {
		o.cfg.Iterations = 2
	}

	if o.cfg.Focus != "" && !o.registry.HasFocus(o.cfg.Focus) {
		return nil, fmt.Errorf("unknown focus %q", o.cfg.Focus)
	}

	return o, nil
}

// Run executes the roast loop for a target.
func (o *Orchestrator) Run(ctx context.Context, target Target, decide Decider) (*RunResult, error) {
	if target.Topic == "" {
		target.Topic = "untitled"
	}
	if len(target.Image) == 0 && target.URL == "" {
		return nil, fmt.Errorf("target needs a URL or a screenshot")
	}
	if target.MIMEType == "" {
		target.MIMEType = "image/png"
	}

	topic := report.SanitizeTopic(target.Topic)

	var sess *session.Session
	if o.sessionDir != "" {
		s, err := session.New(o.sessionDir, topic, o.cfg.Focus)
		if err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
		sess = s
	}

	result := &RunResult{
		RunID: uuid.NewString(),
		Topic: topic,
	}

	weighting := Weighting{
		Focus: o.cfg.Focus,
		Boost: o.cfg.FocusBoost,
		Damp:  o.cfg.OffFocusDamp,
	}
	mode := o.cfg.FixMode

	startIter := 1
	if sess != nil {
		startIter = sess.Iteration() + 1
	}

	for n := 0; n < o.cfg.Iterations; n++ {
		iterNum := startIter + n

		iter, err := o.runIteration(ctx, target, topic, result.RunID, iterNum, weighting, mode)
		if err != nil {
			return result, err
		}
		result.Iterations = append(result.Iterations, iter)

		if sess != nil {
			if err := sess.RecordIteration(session.Record{
				Iteration:  iter.Number,
				Findings:   len(iter.Findings),
				New:        iter.New,
				Recurring:  iter.Recurring,
				FixMode:    string(iter.FixMode),
				ReportPath: iter.ReportPath,
			}); err != nil && o.log != nil {
				o.log.Warn().Err(err).Msg("Failed to persist session")
			}
		}

		o.circuit.RecordIteration(iter.New, iter.Recurring)

		if mode == FixModeShip {
			result.Stopped = "shipped"
			if sess != nil {
				_ = sess.Complete()
			}
			break
		}

		if o.circuit.IsOpen() {
			result.Stopped = "stalled: " + o.circuit.Reason()
			break
		}

		if n == o.cfg.Iterations-1 {
			result.Stopped = "iterations exhausted"
			break
		}

		if decide != nil {
			d := decide(iter)
			mode = d.Mode
			if !d.Continue || d.Mode == FixModeShip {
				result.Stopped = "shipped"
				if sess != nil {
					_ = sess.Complete()
				}
				break
			}
		}
	}

	if result.Stopped == "" {
		result.Stopped = "iterations exhausted"
	}

	return result, nil
}

// runIteration performs one capture-critique-report pass.
func (o *Orchestrator) runIteration(ctx context.Context, target Target, topic, runID string, iterNum int, weighting Weighting, mode FixMode) (*Iteration, error) {
	image := target.Image
	mime := target.MIMEType

	if len(image) == 0 {
		if o.capture == nil {
			return nil, fmt.Errorf("no capture function configured for URL target")
		}
		captured, err := o.capture(ctx, target.URL)
		if err != nil {
			return nil, fmt.Errorf("capture screenshot: %w", err)
		}
		image = captured
		mime = "image/png"
	}

	screenshotPath, err := o.workdir.SaveScreenshot(topic, iterNum, image)
	if err != nil {
		return nil, err
	}

	critiques, err := o.critiqueAll(ctx, topic, image, mime)
	if err != nil {
		return nil, err
	}

	// Merge, weight and rank findings
	focusByPersona := make(map[string]string)
	for _, p := range o.registry.List() {
		focusByPersona[p.ID] = p.Focus
	}

	var findings []Finding
	for _, c := range critiques {
		findings = append(findings, c.Findings...)
	}
	weighting.Apply(findings, focusByPersona)

	newCount, recurringCount := o.markRecurring(ctx, topic, iterNum, findings)
	SortByWeight(findings)

	summary := o.synthesize(ctx, topic, findings)

	iter := &Iteration{
		Number:         iterNum,
		Critiques:      critiques,
		Findings:       findings,
		New:            newCount,
		Recurring:      recurringCount,
		FixMode:        mode,
		ScreenshotPath: screenshotPath,
	}

	reportPath, err := o.workdir.WriteReport(topic, iterNum, o.buildReport(iter, topic, runID, summary))
	if err != nil {
		return nil, err
	}
	iter.ReportPath = reportPath

	if o.log != nil {
		o.log.Info().
			Str("topic", topic).
			Int("iteration", iterNum).
			Int("findings", len(findings)).
			Int("new", newCount).
			Int("recurring", recurringCount).
			Str("report", reportPath).
			Msg("Roast iteration complete")
	}

	return iter, nil
}

// critiqueAll fans the screenshot out to every persona in parallel and
// waits for all of them. Individual persona failures are recorded on the
// critique; the run only fails when every persona fails.
func (o *Orchestrator) critiqueAll(ctx context.Context, topic string, image []byte, mime string) ([]Critique, error) {
	personas := o.registry.List()
	if len(personas) == 0 {
		return nil, fmt.Errorf("no personas registered")
	}

	critiques := make([]Critique, len(personas))
	provider := o.router.ForCritique()

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range personas {
		g.Go(func() error {
			critiques[i] = o.critiqueOne(gctx, provider, p, topic, image, mime)
			return nil
		})
	}
	// Workers never return errors; Wait only surfaces context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, c := range critiques {
		if c.Err != nil {
			failed++
			if o.log != nil {
				o.log.Warn().Err(c.Err).Str("persona", c.Persona.ID).Msg("Persona critique failed")
			}
		}
	}
	if failed == len(critiques) {
		return nil, fmt.Errorf("all %d personas failed: %w", failed, critiques[0].Err)
	}

	return critiques, nil
}

// critiqueOne runs a single persona against the screenshot.
func (o *Orchestrator) critiqueOne(ctx context.Context, provider llm.Provider, p persona.Persona, topic string, image []byte, mime string) Critique {
	prompt := fmt.Sprintf("Critique this screenshot of the %q screen.", topic)
	if o.cfg.Focus != "" && p.Focus == o.cfg.Focus {
		prompt += " This review is the focus of the report, be thorough."
	}

	req := &llm.CompletionRequest{
		System:    p.System,
		Messages:  []llm.Message{llm.UserImageMessage(prompt, mime, image)},
		MaxTokens: o.cfg.MaxTokens,
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return Critique{Persona: p, Err: err}
	}

	findings, prose := ParseCritique(p.ID, resp.Content)
	return Critique{
		Persona:  p,
		Raw:      resp.Content,
		Prose:    prose,
		Findings: findings,
	}
}

// markRecurring checks each finding against the topic memory and stores
// the new ones. Without a memory store everything counts as new.
func (o *Orchestrator) markRecurring(ctx context.Context, topic string, iteration int, findings []Finding) (newCount, recurringCount int) {
	if o.store == nil {
		return len(findings), 0
	}

	for i := range findings {
		seen, err := o.store.Seen(ctx, topic, findings[i].Text(), o.cfg.Similarity)
		if err != nil {
			if o.log != nil {
				o.log.Warn().Err(err).Msg("Finding memory lookup failed")
			}
			newCount++
			continue
		}

		if seen {
			findings[i].Recurring = true
			recurringCount++
			continue
		}

		newCount++
		if err := o.store.Remember(ctx, topic, findings[i].PersonaID, findings[i].Text(), iteration); err != nil && o.log != nil {
			o.log.Warn().Err(err).Msg("Failed to store finding")
		}
	}

	return newCount, recurringCount
}

// synthesize asks the synthesis model for a short executive summary.
// Summary generation is best-effort; the report works without it.
func (o *Orchestrator) synthesize(ctx context.Context, topic string, findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	limit := len(findings)
	if limit > 10 {
		limit = 10
	}
	for _, f := range findings[:limit] {
		fmt.Fprintf(&sb, "- [%s][%s] %s\n", f.Severity, f.PersonaID, f.Text())
	}

	req := &llm.CompletionRequest{
		System: "You summarize UI review findings for a busy team. Two or three plain sentences, no preamble.",
		Messages: []llm.Message{
			llm.UserMessage(fmt.Sprintf("Findings for the %q screen:\n%s", topic, sb.String())),
		},
		MaxTokens: 256,
	}

	resp, err := o.router.ForSynthesis().Complete(ctx, req)
	if err != nil {
		if o.log != nil {
			o.log.Warn().Err(err).Msg("Summary synthesis failed")
		}
		return ""
	}
	return resp.Content
}

// buildReport converts an iteration into the report package's shape.
func (o *Orchestrator) buildReport(iter *Iteration, topic, runID, summary string) string {
	r := &report.Report{
		Topic:          topic,
		RunID:          runID,
		Iteration:      iter.Number,
		Focus:          o.cfg.Focus,
		FixMode:        string(iter.FixMode),
		Summary:        summary,
		ScreenshotPath: iter.ScreenshotPath,
		GeneratedAt:    time.Now(),
	}

	for _, c := range iter.Critiques {
		critique := c.Raw
		if c.Err != nil {
			critique = fmt.Sprintf("_Critique unavailable: %v_", c.Err)
		}
		r.Sections = append(r.Sections, report.Section{
			PersonaID: c.Persona.ID,
			Heading:   c.Persona.Name,
			Critique:  critique,
		})
	}

	for _, f := range iter.Findings {
		r.Ranked = append(r.Ranked, report.RankedFinding{
			Persona:   f.PersonaID,
			Severity:  f.Severity.String(),
			Title:     f.Title,
			Detail:    f.Detail,
			Score:     f.Weighted,
			Recurring: f.Recurring,
		})
	}

	return r.Markdown()
}
