package careapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/matzehuels/careflow/pkg/cache"
	"github.com/matzehuels/careflow/pkg/client"
	careerrors "github.com/matzehuels/careflow/pkg/errors"
)

// Cache lifetimes per resource. Reference data lives longest; conversations
// and dashboards change constantly.
const (
	PatientTTL       = 5 * time.Minute
	GuardianTTL      = 5 * time.Minute
	QuestionnaireTTL = time.Hour
	ProfileTTL       = 10 * time.Minute
	SearchTTL        = 2 * time.Minute
	CaregiverTTL     = 5 * time.Minute
	MatchesTTL       = time.Minute
	CarePlanTTL      = 10 * time.Minute
	CarePlanListTTL  = time.Minute
	MessagesTTL      = 15 * time.Second
	DashboardTTL     = 30 * time.Second
)

// API is typed access to the care service.
type API struct {
	c *client.Client
}

// New wraps c.
func New(c *client.Client) *API {
	return &API{c: c}
}

// Client returns the underlying resilient client.
func (a *API) Client() *client.Client { return a.c }

func resource(path string) *regexp.Regexp {
	return regexp.MustCompile(cache.ResourcePattern(path))
}

func patientPath(id string, rest ...string) (string, error) {
	if err := careerrors.ValidateID("patient", id); err != nil {
		return "", err
	}
	p := "/patients/" + id
	for _, r := range rest {
		p += "/" + r
	}
	return p, nil
}

// =============================================================================
// Patients
// =============================================================================

// CreatePatient registers a new patient.
func (a *API) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	var out Patient
	if err := a.c.Send(ctx, http.MethodPost, "/patients", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPatient fetches a patient.
func (a *API) GetPatient(ctx context.Context, id string, refresh bool) (*Patient, error) {
	path, err := patientPath(id)
	if err != nil {
		return nil, err
	}
	var out Patient
	if err := a.c.Get(ctx, path, nil, PatientTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePatient replaces a patient's record and drops everything cached
// under that patient.
func (a *API) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	path, err := patientPath(p.ID)
	if err != nil {
		return nil, err
	}
	var out Patient
	if err := a.c.Send(ctx, http.MethodPut, path, p, &out, resource(path)); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Guardians
// =============================================================================

// RegisterGuardian attaches a guardian to a patient.
func (a *API) RegisterGuardian(ctx context.Context, patientID string, g Guardian) (*Guardian, error) {
	path, err := patientPath(patientID, "guardians")
	if err != nil {
		return nil, err
	}
	var out Guardian
	if err := a.c.Send(ctx, http.MethodPost, path, g, &out, resource(path)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGuardians lists a patient's guardians.
func (a *API) ListGuardians(ctx context.Context, patientID string, refresh bool) ([]Guardian, error) {
	path, err := patientPath(patientID, "guardians")
	if err != nil {
		return nil, err
	}
	var out []Guardian
	if err := a.c.Get(ctx, path, nil, GuardianTTL, refresh, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Questionnaire
// =============================================================================

// GetQuestionnaire fetches the current questionnaire.
func (a *API) GetQuestionnaire(ctx context.Context, refresh bool) (*Questionnaire, error) {
	var out Questionnaire
	if err := a.c.Get(ctx, "/questionnaire", nil, QuestionnaireTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAnswers stores questionnaire answers for a patient. The service
// recomputes the profile and matches, so both are invalidated.
func (a *API) SubmitAnswers(ctx context.Context, patientID string, answers []Answer) error {
	path, err := patientPath(patientID, "questionnaire")
	if err != nil {
		return err
	}
	if len(answers) == 0 {
		return careerrors.New(careerrors.ErrCodeInvalidInput, "no answers to submit")
	}
	profile, _ := patientPath(patientID, "profile")
	matches, _ := patientPath(patientID, "matches")
	return a.c.Send(ctx, http.MethodPost, path, map[string]any{"answers": answers}, nil,
		resource(profile), resource(matches))
}

// GetPersonalityProfile fetches the profile derived from submitted answers.
func (a *API) GetPersonalityProfile(ctx context.Context, patientID string, refresh bool) (*PersonalityProfile, error) {
	path, err := patientPath(patientID, "profile")
	if err != nil {
		return nil, err
	}
	var out PersonalityProfile
	if err := a.c.Get(ctx, path, nil, ProfileTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Caregivers
// =============================================================================

// SearchCaregivers lists caregivers matching s.
func (a *API) SearchCaregivers(ctx context.Context, s Search, refresh bool) ([]Caregiver, error) {
	q := url.Values{}
	if s.Region != "" {
		q.Set("region", s.Region)
	}
	if s.Skill != "" {
		q.Set("skill", s.Skill)
	}
	if s.Available != nil {
		q.Set("available", strconv.FormatBool(*s.Available))
	}
	var out []Caregiver
	if err := a.c.Get(ctx, "/caregivers", q, SearchTTL, refresh, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCaregiver fetches one caregiver.
func (a *API) GetCaregiver(ctx context.Context, id string, refresh bool) (*Caregiver, error) {
	if err := careerrors.ValidateID("caregiver", id); err != nil {
		return nil, err
	}
	var out Caregiver
	if err := a.c.Get(ctx, "/caregivers/"+id, nil, CaregiverTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMatches returns the service's scored caregiver suggestions.
func (a *API) ListMatches(ctx context.Context, patientID string, refresh bool) ([]Match, error) {
	path, err := patientPath(patientID, "matches")
	if err != nil {
		return nil, err
	}
	var out []Match
	if err := a.c.Get(ctx, path, nil, MatchesTTL, refresh, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectCaregiver records the chosen caregiver. Matches and the dashboard
// are invalidated.
func (a *API) SelectCaregiver(ctx context.Context, patientID, caregiverID string) (*Selection, error) {
	path, err := patientPath(patientID, "selection")
	if err != nil {
		return nil, err
	}
	if err := careerrors.ValidateID("caregiver", caregiverID); err != nil {
		return nil, err
	}
	matches, _ := patientPath(patientID, "matches")
	dashboard, _ := patientPath(patientID, "dashboard")

	var out Selection
	body := map[string]string{"caregiver_id": caregiverID}
	if err := a.c.Send(ctx, http.MethodPost, path, body, &out, resource(matches), resource(dashboard)); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Care plans
// =============================================================================

// GenerateCarePlan asks the service for a new plan. Generation is never
// cached; the patient's plan list and dashboard are invalidated.
func (a *API) GenerateCarePlan(ctx context.Context, patientID string, req CarePlanRequest) (*CarePlan, error) {
	path, err := patientPath(patientID, "care-plans")
	if err != nil {
		return nil, err
	}
	dashboard, _ := patientPath(patientID, "dashboard")

	var out CarePlan
	if err := a.c.Send(ctx, http.MethodPost, path, req, &out, resource(path), resource(dashboard)); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCarePlan fetches one care plan.
func (a *API) GetCarePlan(ctx context.Context, id string, refresh bool) (*CarePlan, error) {
	if err := careerrors.ValidateID("care plan", id); err != nil {
		return nil, err
	}
	var out CarePlan
	if err := a.c.Get(ctx, "/care-plans/"+id, nil, CarePlanTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCarePlans lists a patient's care plans.
func (a *API) ListCarePlans(ctx context.Context, patientID string, refresh bool) ([]CarePlan, error) {
	path, err := patientPath(patientID, "care-plans")
	if err != nil {
		return nil, err
	}
	var out []CarePlan
	if err := a.c.Get(ctx, path, nil, CarePlanListTTL, refresh, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Messages
// =============================================================================

func conversationPath(id string) (string, error) {
	if err := careerrors.ValidateID("conversation", id); err != nil {
		return "", err
	}
	return fmt.Sprintf("/conversations/%s/messages", id), nil
}

// ListMessages lists a conversation's messages.
func (a *API) ListMessages(ctx context.Context, conversationID string, refresh bool) ([]Message, error) {
	path, err := conversationPath(conversationID)
	if err != nil {
		return nil, err
	}
	var out []Message
	if err := a.c.Get(ctx, path, nil, MessagesTTL, refresh, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a message and invalidates the conversation.
func (a *API) SendMessage(ctx context.Context, conversationID string, m Message) (*Message, error) {
	path, err := conversationPath(conversationID)
	if err != nil {
		return nil, err
	}
	if m.Text == "" {
		return nil, careerrors.New(careerrors.ErrCodeInvalidInput, "message text cannot be empty")
	}
	var out Message
	if err := a.c.Send(ctx, http.MethodPost, path, m, &out, resource(path)); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Dashboard
// =============================================================================

// GetDashboard fetches the patient's summary.
func (a *API) GetDashboard(ctx context.Context, patientID string, refresh bool) (*Dashboard, error) {
	path, err := patientPath(patientID, "dashboard")
	if err != nil {
		return nil, err
	}
	var out Dashboard
	if err := a.c.Get(ctx, path, nil, DashboardTTL, refresh, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
