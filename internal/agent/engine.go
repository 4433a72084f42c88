// Package agent orchestrates the lead-qualification conversation: one Engine
// call per inbound HTTP request, composing the per-concern packages under
// internal/agent and leaving persistence to the injected repositories.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"groweasy-agent/internal/agent/classify"
	"groweasy-agent/internal/agent/extract"
	"groweasy-agent/internal/agent/gibberish"
	"groweasy-agent/internal/agent/merge"
	"groweasy-agent/internal/agent/normalize"
	"groweasy-agent/internal/agent/planner"
	"groweasy-agent/internal/agent/respond"
	commonerrors "groweasy-agent/internal/common/errors"
	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/common/metrics"
	"groweasy-agent/internal/genai"
	"groweasy-agent/internal/models"
)

// Notifier receives leads the moment they turn hot. Implementations are
// best-effort; the engine never waits on delivery outcomes.
type Notifier interface {
	NotifyHotLead(ctx context.Context, lead *models.Lead)
}

// StartResult is the outcome of opening a conversation.
type StartResult struct {
	LeadID   string                 `json:"leadId"`
	Response string                 `json:"response"`
	Metadata models.Metadata        `json:"metadata"`
	Meta     []models.FieldProgress `json:"meta"`
}

// TurnResult is the outcome of one processed message.
type TurnResult struct {
	LeadID         string                 `json:"leadId"`
	Response       string                 `json:"response"`
	Metadata       models.Metadata        `json:"metadata"`
	Meta           []models.FieldProgress `json:"meta"`
	Classification models.Classification  `json:"classification"`
}

type Engine struct {
	leads      models.LeadRepository
	turns      models.ConversationRepository
	oracle     genai.Oracle
	checker    *gibberish.Checker
	classifier *classify.Classifier
	notifier   Notifier
	logger     logger.Logger

	maxGibberishAttempts int
}

func NewEngine(
	leads models.LeadRepository,
	turns models.ConversationRepository,
	oracle genai.Oracle,
	notifier Notifier,
	maxGibberishAttempts int,
	log logger.Logger,
) *Engine {
	return &Engine{
		leads:                leads,
		turns:                turns,
		oracle:               oracle,
		checker:              gibberish.NewChecker(oracle, log),
		classifier:           classify.NewClassifier(oracle, log),
		notifier:             notifier,
		logger:               log.WithFields(map[string]interface{}{"component": "engine"}),
		maxGibberishAttempts: maxGibberishAttempts,
	}
}

// Start opens (or reopens) a conversation for the phone number. A returning
// lead keeps its confirmed metadata and is greeted accordingly; a new lead is
// created with an empty record. The greeting plus the first planner question
// is persisted as the opening agent turn.
func (e *Engine) Start(ctx context.Context, name, phone, source string) (*StartResult, error) {
	lead, err := e.leads.FindByPhone(ctx, phone)
	returning := true

	switch {
	case errors.Is(err, models.ErrLeadNotFound):
		returning = false
		lead = &models.Lead{
			ID:          uuid.NewString(),
			Name:        name,
			Phone:       phone,
			Source:      source,
			Status:      models.StatusNew,
			Metadata:    models.NewMetadata(),
			LastContact: time.Now().UTC(),
			CreatedAt:   time.Now().UTC(),
		}
		if err := e.leads.Create(ctx, lead); err != nil {
			return nil, commonerrors.NewStoreWriteError(err)
		}
	case err != nil:
		return nil, commonerrors.NewStoreReadError(err)
	}

	response := fmt.Sprintf("%s %s", e.greet(ctx, returning, name), planner.NextQuestion(lead.Metadata))

	if err := e.turns.Append(ctx, lead.ID, models.RoleAgent, response); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}

	e.logger.Info("conversation started", map[string]interface{}{
		"lead_id":   lead.ID,
		"returning": returning,
	})

	return &StartResult{
		LeadID:   lead.ID,
		Response: response,
		Metadata: lead.Metadata,
		Meta:     planner.Progress(lead.Metadata),
	}, nil
}

// Continue processes one user message end to end: gibberish gate, dual-source
// extraction, merge, response selection, classification, persistence and
// hot-lead fan-out.
func (e *Engine) Continue(ctx context.Context, leadID, message string) (*TurnResult, error) {
	started := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(started).Seconds())
	}()

	var (
		lead    *models.Lead
		history []models.Turn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lead, err = e.leads.FindByID(gctx, leadID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = e.turns.History(gctx, leadID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, models.ErrLeadNotFound) {
			return nil, commonerrors.NewLeadNotFoundError(leadID)
		}
		return nil, commonerrors.NewStoreReadError(err)
	}

	if verdict := e.checker.Check(ctx, message, history); verdict.IsGibberish {
		return e.handleGibberish(ctx, lead, message, verdict.Reason)
	}

	if err := e.turns.Append(ctx, lead.ID, models.RoleUser, message); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}

	deterministic := normalize.Candidates(extract.FromMessage(message, history, lead.Metadata))

	prose, annotated := e.generateReply(ctx, message, merge.Apply(lead.Metadata, deterministic))

	// Deterministic extraction outranks the annotation channel on conflict.
	candidates := normalize.Candidates(annotated)
	for field, value := range deterministic {
		candidates[field] = value
	}
	updated := merge.Apply(lead.Metadata, candidates)

	response := respond.Sanitize(prose, history)
	if respond.IsRedundant(response, updated, history) {
		response = planner.NextQuestion(updated)
	}

	complete := updated.IsComplete()
	if complete {
		response = completionSummary(updated)
	}

	recent := append(lastTurns(history, 3), models.Turn{Role: models.RoleUser, Content: message})
	classification := e.classifier.Classify(ctx, recent, updated)

	now := time.Now().UTC()
	lead.Metadata = updated
	lead.Status = models.LeadStatus(classification.Classification)
	lead.ClassificationReasons = classification.Reasons
	lead.GibberishCount = 0
	lead.LastClassifiedAt = now
	lead.LastContact = now

	if err := e.turns.Append(ctx, lead.ID, models.RoleAgent, response); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}
	if err := e.leads.Update(ctx, lead); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}

	if lead.Status == models.StatusHot && e.notifier != nil {
		e.notifier.NotifyHotLead(ctx, lead)
	}

	metrics.TurnsProcessed.WithLabelValues(classification.Classification).Inc()

	return &TurnResult{
		LeadID:         lead.ID,
		Response:       response,
		Metadata:       updated,
		Meta:           planner.Progress(updated),
		Classification: classification,
	}, nil
}

// handleGibberish advances the per-lead counter and either asks for a
// rephrase or, at the threshold, closes the lead as invalid with the fixed
// hand-off message. The user turn is only persisted on the terminal branch.
func (e *Engine) handleGibberish(ctx context.Context, lead *models.Lead, message, reason string) (*TurnResult, error) {
	metrics.GibberishDetected.Inc()
	lead.GibberishCount++

	if lead.GibberishCount >= e.maxGibberishAttempts {
		classification := models.Classification{
			Classification: string(models.StatusInvalid),
			Reasons:        []string{fmt.Sprintf("Multiple unclear responses: %s", reason)},
			Confidence:     80,
		}

		now := time.Now().UTC()
		lead.Status = models.StatusInvalid
		lead.ClassificationReasons = classification.Reasons
		lead.LastClassifiedAt = now
		lead.LastContact = now

		if err := e.turns.Append(ctx, lead.ID, models.RoleUser, message); err != nil {
			return nil, commonerrors.NewStoreWriteError(err)
		}
		if err := e.turns.Append(ctx, lead.ID, models.RoleAgent, handoffReply); err != nil {
			return nil, commonerrors.NewStoreWriteError(err)
		}
		if err := e.leads.Update(ctx, lead); err != nil {
			return nil, commonerrors.NewStoreWriteError(err)
		}

		metrics.TurnsProcessed.WithLabelValues("invalid").Inc()
		e.logger.Warn("lead closed as invalid", map[string]interface{}{
			"lead_id": lead.ID,
			"reason":  reason,
		})

		return &TurnResult{
			LeadID:         lead.ID,
			Response:       handoffReply,
			Metadata:       lead.Metadata,
			Meta:           planner.Progress(lead.Metadata),
			Classification: classification,
		}, nil
	}

	lead.LastContact = time.Now().UTC()
	if err := e.leads.Update(ctx, lead); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}
	if err := e.turns.Append(ctx, lead.ID, models.RoleAgent, clarifyReply); err != nil {
		return nil, commonerrors.NewStoreWriteError(err)
	}

	metrics.TurnsProcessed.WithLabelValues("gibberish").Inc()

	return &TurnResult{
		LeadID:   lead.ID,
		Response: clarifyReply,
		Metadata: lead.Metadata,
		Meta:     planner.Progress(lead.Metadata),
		Classification: models.Classification{
			Classification: string(models.StatusWarm),
			Reasons:        []string{"Needs clarification"},
			Confidence:     60,
		},
	}, nil
}

// greet asks the oracle for the opening line and falls back to a fixed
// greeting when it fails. Greeting failures never fail the start call.
func (e *Engine) greet(ctx context.Context, returning bool, name string) string {
	text, err := e.oracle.Generate(ctx, greetingPrompt(returning, name))
	if err != nil {
		metrics.OracleFailures.WithLabelValues("greeting").Inc()
		e.logger.Warn("greeting oracle failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackGreeting(returning, name)
	}
	greeting := strings.TrimSpace(text)
	if greeting == "" {
		return fallbackGreeting(returning, name)
	}
	return greeting
}

// generateReply runs the oracle turn prompt and splits its output into prose
// and annotation candidates. On failure the fixed stumble line is used and
// the turn proceeds on deterministic extraction alone.
func (e *Engine) generateReply(ctx context.Context, message string, known models.Metadata) (string, map[string]string) {
	text, err := e.oracle.Generate(ctx, turnPrompt(message, known))
	if err != nil {
		metrics.OracleFailures.WithLabelValues("generate").Inc()
		e.logger.Warn("turn oracle failed, using fallback reply", map[string]interface{}{
			"error": err.Error(),
		})
		return oracleStumble, map[string]string{}
	}

	candidates, prose := extract.Annotations(text)
	if prose == "" {
		prose = "What else should I know about your property needs?"
	}
	return prose, candidates
}

func lastTurns(history []models.Turn, n int) []models.Turn {
	if len(history) <= n {
		return append([]models.Turn{}, history...)
	}
	return append([]models.Turn{}, history[len(history)-n:]...)
}
