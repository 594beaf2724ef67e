package careapi

import "time"

// Patient is a person receiving care.
type Patient struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BirthDate   string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	Region      string    `json:"region,omitempty"`
	CareNeeds   []string  `json:"care_needs,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	GuardianIDs []string  `json:"guardian_ids,omitempty"`
}

// Guardian is a relative or legal representative attached to a patient.
type Guardian struct {
	ID           string `json:"id,omitempty"`
	PatientID    string `json:"patient_id,omitempty"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Questionnaire is the personality questionnaire served to guardians.
type Questionnaire struct {
	Version   string     `json:"version"`
	Questions []Question `json:"questions"`
}

// Question is one questionnaire item.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Kind    string   `json:"kind"` // scale, choice or text
	Options []string `json:"options,omitempty"`
}

// Answer is a guardian's response to one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// PersonalityProfile is computed server-side from submitted answers.
type PersonalityProfile struct {
	PatientID string             `json:"patient_id"`
	Traits    map[string]float64 `json:"traits"`
	Summary   string             `json:"summary,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

// Caregiver is a professional who can be matched to patients.
type Caregiver struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Region    string   `json:"region,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Available bool     `json:"available"`
	Rating    float64  `json:"rating,omitempty"`
}

// Search filters caregivers. Zero fields are not sent.
type Search struct {
	Region    string
	Skill     string
	Available *bool
}

// Match is a scored caregiver suggestion for a patient.
type Match struct {
	Caregiver Caregiver `json:"caregiver"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons,omitempty"`
}

// Selection records the caregiver chosen for a patient.
type Selection struct {
	PatientID   string    `json:"patient_id"`
	CaregiverID string    `json:"caregiver_id"`
	SelectedAt  time.Time `json:"selected_at,omitempty"`
}

// CarePlan is a generated plan of care activities.
type CarePlan struct {
	ID          string         `json:"id"`
	PatientID   string         `json:"patient_id"`
	CaregiverID string         `json:"caregiver_id,omitempty"`
	Status      string         `json:"status,omitempty"`
	Activities  []CareActivity `json:"activities,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
}

// CareActivity is one recurring item of a care plan.
type CareActivity struct {
	Title    string `json:"title"`
	Schedule string `json:"schedule,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CarePlanRequest asks the service to generate a plan.
type CarePlanRequest struct {
	CaregiverID string   `json:"caregiver_id,omitempty"`
	Goals       []string `json:"goals,omitempty"`
}

// Message is one entry of a conversation between guardian and caregiver.
type Message struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sent_at,omitempty"`
}

// Dashboard summarises a patient's care status.
type Dashboard struct {
	Patient        Patient    `json:"patient"`
	Caregiver      *Caregiver `json:"caregiver,omitempty"`
	ActivePlan     *CarePlan  `json:"active_plan,omitempty"`
	UnreadMessages int        `json:"unread_messages"`
	UpcomingVisits []string   `json:"upcoming_visits,omitempty"`
}
