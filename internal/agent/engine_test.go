package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/models"
)

// scriptedOracle routes prompts to canned replies by distinctive prompt
// markers, one per call site.
type scriptedOracle struct {
	greeting     string
	greetingErr  error
	gibberish    string
	turn         string
	turnErr      error
	classify     string
	classifyErr  error
	turnPrompts  []string
	greetPrompts []string
}

func (o *scriptedOracle) Generate(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "gibberish/test content"):
		if o.gibberish == "" {
			return `{"isGibberish": false, "reason": "genuine inquiry"}`, nil
		}
		return o.gibberish, nil
	case strings.Contains(prompt, "CLASSIFICATION RULES"):
		if o.classifyErr != nil {
			return "", o.classifyErr
		}
		if o.classify == "" {
			return `{"classification": "COLD", "reasons": ["details missing"], "confidence": 60}`, nil
		}
		return o.classify, nil
	case strings.Contains(prompt, "STRICT RULES"):
		o.turnPrompts = append(o.turnPrompts, prompt)
		if o.turnErr != nil {
			return "", o.turnErr
		}
		return o.turn, nil
	default:
		o.greetPrompts = append(o.greetPrompts, prompt)
		if o.greetingErr != nil {
			return "", o.greetingErr
		}
		return o.greeting, nil
	}
}

type memLeads struct {
	leads   map[string]*models.Lead
	updates int
}

func newMemLeads(seed ...*models.Lead) *memLeads {
	repo := &memLeads{leads: map[string]*models.Lead{}}
	for _, lead := range seed {
		repo.leads[lead.ID] = lead
	}
	return repo
}

func (r *memLeads) Create(ctx context.Context, lead *models.Lead) error {
	r.leads[lead.ID] = lead
	return nil
}

func (r *memLeads) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, models.ErrLeadNotFound
	}
	return lead, nil
}

func (r *memLeads) FindByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	for _, lead := range r.leads {
		if lead.Phone == phone {
			return lead, nil
		}
	}
	return nil, models.ErrLeadNotFound
}

func (r *memLeads) Update(ctx context.Context, lead *models.Lead) error {
	r.updates++
	r.leads[lead.ID] = lead
	return nil
}

type memTurns struct {
	turns map[string][]models.Turn
}

func newMemTurns() *memTurns {
	return &memTurns{turns: map[string][]models.Turn{}}
}

func (r *memTurns) Append(ctx context.Context, leadID string, role models.Role, content string) error {
	r.turns[leadID] = append(r.turns[leadID], models.Turn{LeadID: leadID, Role: role, Content: content})
	return nil
}

func (r *memTurns) History(ctx context.Context, leadID string) ([]models.Turn, error) {
	return r.turns[leadID], nil
}

type recordingNotifier struct {
	leads []*models.Lead
}

func (n *recordingNotifier) NotifyHotLead(ctx context.Context, lead *models.Lead) {
	n.leads = append(n.leads, lead)
}

func newTestEngine(t *testing.T, oracle *scriptedOracle, leads *memLeads, turns *memTurns, notifier Notifier) *Engine {
	t.Helper()
	return NewEngine(leads, turns, oracle, notifier, 3, logger.NewTestLogger(t))
}

func TestStart_NewLead(t *testing.T) {
	oracle := &scriptedOracle{greeting: "Thank you for contacting GrowEasy, Asha! How can I assist you today?"}
	leads := newMemLeads()
	turns := newMemTurns()
	engine := newTestEngine(t, oracle, leads, turns, nil)

	result, err := engine.Start(context.Background(), "Asha", "9876500001", "website")
	require.NoError(t, err)

	assert.NotEmpty(t, result.LeadID)
	assert.Equal(t,
		"Thank you for contacting GrowEasy, Asha! How can I assist you today? Which neighborhood are you interested in?",
		result.Response)
	assert.Empty(t, result.Metadata.CompletedFields)

	created := leads.leads[result.LeadID]
	require.NotNil(t, created)
	assert.Equal(t, models.StatusNew, created.Status)
	assert.Equal(t, "website", created.Source)

	require.Len(t, turns.turns[result.LeadID], 1)
	assert.Equal(t, models.RoleAgent, turns.turns[result.LeadID][0].Role)
}

func TestStart_ReturningLeadKeepsMetadata(t *testing.T) {
	existing := &models.Lead{
		ID:     "lead-1",
		Name:   "Asha",
		Phone:  "9876500001",
		Status: models.StatusWarm,
		Metadata: models.Metadata{
			Location:        "baner",
			CompletedFields: []string{models.FieldLocation},
		},
	}
	oracle := &scriptedOracle{greeting: "Welcome back, Asha!"}
	leads := newMemLeads(existing)
	turns := newMemTurns()
	engine := newTestEngine(t, oracle, leads, turns, nil)

	result, err := engine.Start(context.Background(), "Asha", "9876500001", "website")
	require.NoError(t, err)

	assert.Equal(t, "lead-1", result.LeadID)
	// Location is already confirmed, so the first question moves on.
	assert.Equal(t, "Welcome back, Asha! What type of property are you looking for? (flat/villa/plot)", result.Response)
	require.NotEmpty(t, oracle.greetPrompts)
	assert.Contains(t, oracle.greetPrompts[0], "welcome back")
}

func TestStart_GreetingFallbackOnOracleFailure(t *testing.T) {
	oracle := &scriptedOracle{greetingErr: errors.New("boom")}
	engine := newTestEngine(t, oracle, newMemLeads(), newMemTurns(), nil)

	result, err := engine.Start(context.Background(), "Ravi", "9876500002", "")
	require.NoError(t, err)

	assert.Equal(t,
		"Thank you for contacting GrowEasy, Ravi! How can I assist you today? Which neighborhood are you interested in?",
		result.Response)
}

func TestContinue_OneShotMessageCompletesLead(t *testing.T) {
	lead := &models.Lead{
		ID:       "lead-1",
		Name:     "Asha",
		Phone:    "9876500001",
		Status:   models.StatusNew,
		Metadata: models.NewMetadata(),
	}
	oracle := &scriptedOracle{turn: "Noted all your preferences!"}
	leads := newMemLeads(lead)
	turns := newMemTurns()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, oracle, leads, turns, notifier)

	result, err := engine.Continue(context.Background(),
		"lead-1", "I want a villa near Pune, budget 60 lakh, timeline 3 months, for investment")
	require.NoError(t, err)

	assert.Equal(t, "pune", result.Metadata.Location)
	assert.Equal(t, "villa", result.Metadata.PropertyType)
	assert.Equal(t, "60L", result.Metadata.Budget)
	assert.Equal(t, "3M", result.Metadata.Timeline)
	assert.Equal(t, "investment", result.Metadata.Purpose)
	assert.True(t, result.Metadata.IsComplete())

	assert.Equal(t,
		"Great! I'll find villa in pune (~₹60 Lakh) within 3 months options. Would you like me to send similar properties?",
		result.Response)

	assert.Equal(t, string(models.StatusHot), result.Classification.Classification)
	assert.Equal(t, []string{"Completed all required fields"}, result.Classification.Reasons)
	assert.Equal(t, 100, result.Classification.Confidence)

	assert.Equal(t, models.StatusHot, leads.leads["lead-1"].Status)
	require.Len(t, notifier.leads, 1)
	assert.Equal(t, "lead-1", notifier.leads[0].ID)

	// User turn then agent turn.
	require.Len(t, turns.turns["lead-1"], 2)
	assert.Equal(t, models.RoleUser, turns.turns["lead-1"][0].Role)
	assert.Equal(t, models.RoleAgent, turns.turns["lead-1"][1].Role)
}

func TestContinue_AnnotationChannelMergesFields(t *testing.T) {
	lead := &models.Lead{
		ID:       "lead-1",
		Phone:    "9876500001",
		Status:   models.StatusNew,
		Metadata: models.NewMetadata(),
	}
	oracle := &scriptedOracle{
		turn: "Got it, a 2 BHK works. %%propertyType:2 bhk flat%% Which neighborhood are you interested in?",
	}
	leads := newMemLeads(lead)
	engine := newTestEngine(t, oracle, leads, newMemTurns(), nil)

	result, err := engine.Continue(context.Background(), "lead-1", "something with 2 bedrooms please")
	require.NoError(t, err)

	assert.Equal(t, "apartment", result.Metadata.PropertyType)
	assert.NotContains(t, result.Response, "%%")
	assert.Equal(t, string(models.StatusCold), result.Classification.Classification)
}

func TestContinue_GibberishBelowThreshold(t *testing.T) {
	lead := &models.Lead{
		ID:       "lead-1",
		Phone:    "9876500001",
		Status:   models.StatusNew,
		Metadata: models.NewMetadata(),
	}
	oracle := &scriptedOracle{gibberish: `{"isGibberish": true, "reason": "keyboard mash"}`}
	leads := newMemLeads(lead)
	turns := newMemTurns()
	engine := newTestEngine(t, oracle, leads, turns, nil)

	result, err := engine.Continue(context.Background(), "lead-1", "asdasd")
	require.NoError(t, err)

	assert.Equal(t, "Could you please rephrase or provide more details about your requirements?", result.Response)
	assert.Equal(t, string(models.StatusWarm), result.Classification.Classification)
	assert.Equal(t, []string{"Needs clarification"}, result.Classification.Reasons)
	assert.Equal(t, 60, result.Classification.Confidence)

	assert.Equal(t, 1, leads.leads["lead-1"].GibberishCount)
	assert.Equal(t, models.StatusNew, leads.leads["lead-1"].Status)

	// The unclear user message is not persisted on this branch.
	require.Len(t, turns.turns["lead-1"], 1)
	assert.Equal(t, models.RoleAgent, turns.turns["lead-1"][0].Role)
}

func TestContinue_GibberishThresholdClosesLead(t *testing.T) {
	lead := &models.Lead{
		ID:             "lead-1",
		Phone:          "9876500001",
		Status:         models.StatusNew,
		Metadata:       models.NewMetadata(),
		GibberishCount: 2,
	}
	oracle := &scriptedOracle{gibberish: `{"isGibberish": true, "reason": "keyboard mash"}`}
	leads := newMemLeads(lead)
	turns := newMemTurns()
	engine := newTestEngine(t, oracle, leads, turns, nil)

	result, err := engine.Continue(context.Background(), "lead-1", "asdasd")
	require.NoError(t, err)

	assert.Equal(t, "Please contact our support team if you need further assistance!", result.Response)
	assert.Equal(t, string(models.StatusInvalid), result.Classification.Classification)
	assert.Equal(t, []string{"Multiple unclear responses: keyboard mash"}, result.Classification.Reasons)
	assert.Equal(t, 80, result.Classification.Confidence)

	assert.Equal(t, models.StatusInvalid, leads.leads["lead-1"].Status)

	// Terminal branch records both sides of the exchange.
	require.Len(t, turns.turns["lead-1"], 2)
	assert.Equal(t, models.RoleUser, turns.turns["lead-1"][0].Role)
	assert.Equal(t, models.RoleAgent, turns.turns["lead-1"][1].Role)
}

func TestContinue_CounterResetsOnAcceptedMessage(t *testing.T) {
	lead := &models.Lead{
		ID:             "lead-1",
		Phone:          "9876500001",
		Status:         models.StatusNew,
		Metadata:       models.NewMetadata(),
		GibberishCount: 2,
	}
	oracle := &scriptedOracle{turn: "Great, which neighborhood are you interested in?"}
	leads := newMemLeads(lead)
	engine := newTestEngine(t, oracle, leads, newMemTurns(), nil)

	_, err := engine.Continue(context.Background(), "lead-1", "I'd like a flat somewhere quiet")
	require.NoError(t, err)

	assert.Equal(t, 0, leads.leads["lead-1"].GibberishCount)
}

func TestContinue_OracleFailureFallsBackToStumble(t *testing.T) {
	lead := &models.Lead{
		ID:       "lead-1",
		Phone:    "9876500001",
		Status:   models.StatusNew,
		Metadata: models.NewMetadata(),
	}
	oracle := &scriptedOracle{turnErr: errors.New("boom")}
	engine := newTestEngine(t, oracle, newMemLeads(lead), newMemTurns(), nil)

	result, err := engine.Continue(context.Background(), "lead-1", "hello there")
	require.NoError(t, err)

	assert.Equal(t, "Let me check my options. Could you clarify your needs?", result.Response)
	assert.Equal(t, string(models.StatusCold), result.Classification.Classification)
}

func TestContinue_RedundantQuestionReplacedByPlanner(t *testing.T) {
	lead := &models.Lead{
		ID:     "lead-1",
		Phone:  "9876500001",
		Status: models.StatusWarm,
		Metadata: models.Metadata{
			Location:        "baner",
			PropertyType:    "apartment",
			Budget:          "50L",
			CompletedFields: []string{models.FieldLocation, models.FieldPropertyType, models.FieldBudget},
		},
	}
	oracle := &scriptedOracle{turn: "Thanks! What's your budget range?"}
	engine := newTestEngine(t, oracle, newMemLeads(lead), newMemTurns(), nil)

	result, err := engine.Continue(context.Background(), "lead-1", "2 years")
	require.NoError(t, err)

	assert.Equal(t, "2Y", result.Metadata.Timeline)
	// Budget is confirmed, so the repeated question yields to the planner.
	assert.Equal(t, "Is this for investment or personal use?", result.Response)
}

func TestContinue_UnknownLead(t *testing.T) {
	engine := newTestEngine(t, &scriptedOracle{}, newMemLeads(), newMemTurns(), nil)

	_, err := engine.Continue(context.Background(), "no-such-lead", "hello")
	require.Error(t, err)
}
