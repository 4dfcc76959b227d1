// Package session wires the analyzers, trackers and the coaching policy
// engine into one live interview pipeline.
//
// Each Pipeline owns a single-writer event loop: every inbound event —
// utterance, speech-activity change, nudge candidate, relevance judgment,
// manual command — is enqueued onto one channel and handled by one
// goroutine. That loop is the serialization point the policy engine
// requires: candidates are evaluated strictly one at a time against the
// current gate state, in arrival order, while independent sessions proceed
// fully in parallel. Stateless analyzer work for a single utterance fans out
// across goroutines and is reassembled before any stateful tracker sees it.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/attune/internal/analysis/bias"
	"github.com/MrWong99/attune/internal/analysis/pii"
	"github.com/MrWong99/attune/internal/analysis/question"
	"github.com/MrWong99/attune/internal/analysis/sentiment"
	"github.com/MrWong99/attune/internal/coach"
	"github.com/MrWong99/attune/internal/eventlog"
	"github.com/MrWong99/attune/internal/insight"
	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/lexicon"
	"github.com/MrWong99/attune/internal/notify"
	"github.com/MrWong99/attune/internal/observe"
	"github.com/MrWong99/attune/internal/topics"
)

// eventQueueSize bounds the inbound event channel. Push-style collaborators
// briefly block when the loop falls behind rather than dropping events.
const eventQueueSize = 256

// Config holds everything a Pipeline needs for one session.
type Config struct {
	// SessionID identifies the session in logs, metrics and the event log.
	SessionID string

	// Topics seeds the topic awareness tracker.
	Topics []string

	// Coach is the per-session gate configuration.
	Coach coach.Config

	// InsightCap bounds auto-flagged insights; zero uses the default.
	InsightCap int

	// JitterWindowSeconds is the reorder window for out-of-order
	// utterances; zero uses the default.
	JitterWindowSeconds float64

	// Lexicon backs the sentiment analyzer. Nil uses the built-in tables.
	Lexicon *lexicon.Set

	// NormalizeBelowConfidence enables phonetic lexicon alignment for
	// utterances transcribed below this confidence. Zero disables it.
	NormalizeBelowConfidence float64

	// Sink receives the event log at teardown. Optional.
	Sink eventlog.Sink

	// Notifier publishes outward decision/insight events. Optional.
	Notifier *notify.Notifier

	// Metrics records instrumentation; nil uses the package default.
	Metrics *observe.Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// now is the clock, overridable in tests.
	now func() time.Time
}

// UtterancePII pairs an utterance with its proposed PII spans.
type UtterancePII struct {
	UtteranceID uuid.UUID
	Detections  []pii.Detection
}

// event is the tagged union carried on the pipeline's inbound channel.
// Exactly one field is set.
type event struct {
	utterance   *interview.Utterance
	speech      *interview.SpeechActivity
	candidate   *interview.NudgeCandidate
	relevance   *interview.TopicRelevance
	topicReset  *string
	setCoaching *bool
}

// Pipeline is the per-session processing core. All exported methods are safe
// for concurrent use; internally, state is touched only by the event loop.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observe.Metrics
	now     func() time.Time

	sentiment *sentiment.Analyzer
	question  *question.Analyzer
	bias      *bias.Detector
	pii       *pii.Detector

	engine   *coach.Engine
	topics   *topics.Tracker
	insights *insight.Flagger
	log      *eventlog.Log
	reorder  *reorderBuffer

	events chan event
	stop   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	// mu guards the accumulated view state read by Snapshot.
	mu           sync.RWMutex
	utterances   []interview.Utterance
	sentiments   []sentiment.Result
	records      []bias.Record
	alerts       []bias.Alert
	piiSpans     []UtterancePII
	gate         coach.GateState
	decisionSeen int
}

// New creates a Pipeline and starts its event loop.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	lex := cfg.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}

	var sentimentOpts []sentiment.Option
	if cfg.NormalizeBelowConfidence > 0 {
		sentimentOpts = append(sentimentOpts,
			sentiment.WithNormalizer(lexicon.NewNormalizer(lex), cfg.NormalizeBelowConfidence))
	}

	p := &Pipeline{
		cfg:       cfg,
		logger:    cfg.Logger.With("session_id", cfg.SessionID),
		metrics:   cfg.Metrics,
		now:       cfg.now,
		sentiment: sentiment.New(lex, sentimentOpts...),
		question:  question.New(),
		bias:      bias.New(),
		pii:       pii.New(),
		engine:    coach.NewEngine(cfg.Coach),
		topics:    topics.NewTracker(cfg.Topics),
		insights:  insight.NewFlagger(cfg.InsightCap),
		log:       eventlog.NewLog(cfg.SessionID),
		reorder:   newReorderBuffer(cfg.JitterWindowSeconds),
		events:    make(chan event, eventQueueSize),
		stop:      make(chan struct{}),
	}
	p.gate = p.engine.State()

	p.wg.Add(1)
	go p.run()
	return p
}

// HandleUtterance enqueues one transcribed segment.
func (p *Pipeline) HandleUtterance(u interview.Utterance) {
	p.enqueue(event{utterance: &u})
}

// HandleSpeechActivity enqueues a speaking-state change.
func (p *Pipeline) HandleSpeechActivity(sig interview.SpeechActivity) {
	p.enqueue(event{speech: &sig})
}

// HandleCandidate enqueues an externally proposed coaching prompt.
func (p *Pipeline) HandleCandidate(c interview.NudgeCandidate) {
	p.enqueue(event{candidate: &c})
}

// HandleRelevance enqueues a topic relevance judgment.
func (p *Pipeline) HandleRelevance(r interview.TopicRelevance) {
	p.enqueue(event{relevance: &r})
}

// ResetTopic enqueues the user-driven topic reset.
func (p *Pipeline) ResetTopic(topicID string) {
	p.enqueue(event{topicReset: &topicID})
}

// SetCoachingEnabled enqueues the session-level coaching opt-in change.
func (p *Pipeline) SetCoachingEnabled(enabled bool) {
	p.enqueue(event{setCoaching: &enabled})
}

// EventLog exposes the session's append-only decision record.
func (p *Pipeline) EventLog() *eventlog.Log {
	return p.log
}

func (p *Pipeline) enqueue(e event) {
	if p.closed.Load() {
		p.logger.Warn("pipeline: event after close dropped")
		return
	}
	select {
	case p.events <- e:
	case <-p.stop:
		p.logger.Warn("pipeline: event during teardown dropped")
	}
}

// Close stops the loop, drains queued events, admits everything still held
// in the reorder buffer, and flushes the event log to the configured sink.
// Teardown is deterministic: after Close returns, no further decisions or
// flags can be produced for the session.
func (p *Pipeline) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stop)
	p.wg.Wait()
	return p.log.Flush(ctx, p.cfg.Sink)
}

// run is the single-writer event loop.
func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		select {
		case e := <-p.events:
			p.handle(e)
		case <-p.stop:
			for {
				select {
				case e := <-p.events:
					p.handle(e)
				default:
					for _, u := range p.reorder.Flush() {
						p.processUtterance(u)
					}
					return
				}
			}
		}
	}
}

func (p *Pipeline) handle(e event) {
	switch {
	case e.utterance != nil:
		p.admitUtterance(*e.utterance)
	case e.speech != nil:
		p.engine.ObserveSpeechActivity(*e.speech)
		p.publishGateState()
	case e.candidate != nil:
		p.evaluateCandidate(*e.candidate)
	case e.relevance != nil:
		p.topics.Apply(*e.relevance)
	case e.topicReset != nil:
		if err := p.topics.Reset(*e.topicReset, p.now()); err != nil {
			p.logger.Warn("pipeline: topic reset failed", "topic", *e.topicReset, "error", err)
		}
	case e.setCoaching != nil:
		p.engine.SetEnabled(*e.setCoaching)
		p.logger.Info("pipeline: coaching toggled", "enabled", *e.setCoaching)
	}
}

// admitUtterance passes the segment through the jitter reorder buffer and
// processes whatever became admissible.
func (p *Pipeline) admitUtterance(u interview.Utterance) {
	u = u.Sanitize()
	if u.Text == "" && u.DurationSeconds == 0 {
		return
	}

	admitted, late := p.reorder.Add(u)
	if late {
		p.metrics.LateUtterances.Add(context.Background(), 1)
		p.logger.Warn("pipeline: late utterance admitted out of order",
			"utterance_id", u.ID,
			"start_seconds", u.StartSeconds,
		)
	}
	for _, a := range admitted {
		p.processUtterance(a)
	}
}

// processUtterance fans the stateless analyzers out in parallel, then feeds
// the reassembled results to the stateful trackers in order.
func (p *Pipeline) processUtterance(u interview.Utterance) {
	ctx := context.Background()
	now := p.now()

	p.metrics.Utterances.Add(ctx, 1, metricAttr("speaker", string(u.Speaker)))

	var (
		sentRes sentiment.Result
		qRes    question.Result
		spans   []pii.Detection
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		sentRes = timed(p, ctx, "sentiment", func() sentiment.Result { return p.sentiment.Analyze(u) })
		return nil
	})
	g.Go(func() error {
		qRes = timed(p, ctx, "question", func() question.Result { return p.question.Classify(u) })
		return nil
	})
	g.Go(func() error {
		spans = timed(p, ctx, "pii", func() []pii.Detection { return p.pii.Detect(u.Text) })
		return nil
	})
	// Analyzers cannot fail; a missing match is a neutral result, not an error.
	_ = g.Wait()

	for _, s := range spans {
		p.metrics.PIIDetections.Add(ctx, 1, metricAttr("type", string(s.Type)))
	}

	p.mu.Lock()
	p.utterances = append(p.utterances, u)
	p.sentiments = append(p.sentiments, sentRes)
	if len(spans) > 0 {
		p.piiSpans = append(p.piiSpans, UtterancePII{UtteranceID: u.ID, Detections: spans})
	}
	var records []bias.Record
	if u.Speaker == interview.SpeakerInterviewer {
		p.records = append(p.records, bias.Record{
			UtteranceID: u.ID,
			Text:        u.Text,
			Type:        qRes.Type,
		})
		records = make([]bias.Record, len(p.records))
		copy(records, p.records)
	}
	p.mu.Unlock()

	// Bias alerts describe the session so far; recompute and replace.
	if records != nil {
		alerts := p.bias.Analyze(records)
		p.mu.Lock()
		p.alerts = alerts
		p.mu.Unlock()

		for _, fl := range p.insights.ObserveBiasAlerts(alerts, now) {
			p.recordInsight(ctx, fl)
		}
	}

	if fl, ok := p.insights.ObserveSentiment(sentRes, now); ok {
		p.recordInsight(ctx, fl)
	}
	if fl, ok := p.insights.ObserveStatement(u, now); ok {
		p.recordInsight(ctx, fl)
	}
}

// evaluateCandidate runs the policy engine and records the decision —
// shown, suppressed and degraded alike land in the event log with one entry
// each.
func (p *Pipeline) evaluateCandidate(c interview.NudgeCandidate) {
	ctx := context.Background()
	d := p.engine.Evaluate(c, p.now())

	p.log.AppendDecision(d)
	p.metrics.RecordDecision(ctx, string(d.Kind), string(d.ReasonCode))
	p.cfg.Notifier.PublishDecision(p.cfg.SessionID, d)
	p.publishGateState()

	p.mu.Lock()
	p.decisionSeen++
	p.mu.Unlock()

	switch d.Kind {
	case coach.DecisionShow:
		p.logger.Info("coach: prompt shown",
			"candidate_id", d.CandidateID,
			"sequence", d.Sequence,
		)
	case coach.DecisionSuppress:
		// Suppressions are logged with the same weight as shows; staying
		// quiet for a provable reason is the product's trust story.
		p.logger.Info("coach: prompt suppressed",
			"candidate_id", d.CandidateID,
			"reason", d.ReasonCode,
		)
	default:
		p.metrics.DroppedEvents.Add(ctx, 1)
		p.logger.Warn("coach: candidate did not coerce, no action",
			"candidate_id", d.CandidateID,
		)
	}
}

func (p *Pipeline) recordInsight(ctx context.Context, fl insight.Flag) {
	p.log.AppendInsight(fl)
	p.metrics.Insights.Add(ctx, 1, metricAttr("source", string(fl.Source)))
	p.cfg.Notifier.PublishInsight(p.cfg.SessionID, fl)
	p.logger.Info("insight: segment flagged",
		"flag_id", fl.ID,
		"utterance_id", fl.UtteranceID,
		"source", fl.Source,
	)
}

func (p *Pipeline) publishGateState() {
	st := p.engine.State()
	p.mu.Lock()
	p.gate = st
	p.mu.Unlock()
}

// timed records the analyzer latency histogram around fn.
func timed[T any](p *Pipeline, ctx context.Context, analyzer string, fn func() T) T {
	start := p.now()
	out := fn()
	p.metrics.AnalyzerDuration.Record(ctx, p.now().Sub(start).Seconds(), metricAttr("analyzer", analyzer))
	return out
}

func metricAttr(key, value string) metric.MeasurementOption {
	return metric.WithAttributes(observe.Attr(key, value))
}
