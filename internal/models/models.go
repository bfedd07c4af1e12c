package models

import (
	"time"

	"github.com/google/uuid"
)

// StateMap holds the named numeric values tracked for one adventure
// session. The key set is fixed by the world's declared systems; turn
// processing only ever updates values of existing keys.
type StateMap map[string]float64

// Clone returns an independent copy of the map.
func (m StateMap) Clone() StateMap {
	out := make(StateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Operator is the mutation operator of a state directive.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpSet Operator = "="
)

// Directive is one inline state-mutation instruction extracted from
// generated text. It only lives for the duration of a single parse pass.
type Directive struct {
	Name      string   `json:"name"`
	Op        Operator `json:"op"`
	Value     float64  `json:"value"`
	SourceTag string   `json:"sourceTag"`
}

// Choice is a single player option. IDs are unique within a turn and
// insertion order is display order.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Turn is the finalized result of one player action. It is immutable
// after assembly; the orchestration layer owns it and it is never
// persisted as-is.
type Turn struct {
	RawText       string             `json:"-"`
	NarrativeText string             `json:"narrativeText"`
	Choices       []Choice           `json:"choices"`
	StateDeltas   map[string]float64 `json:"stateDeltas,omitempty"`
	Rejected      []Directive        `json:"-"`
	Ending        *EndingDefinition  `json:"ending,omitempty"`
}

// EndingClass is the deterministic category assigned to an ending
// condition. Only story and hybrid conditions are sent to the semantic
// judge; system and keyword conditions are resolved against the StateMap.
type EndingClass string

const (
	EndingClassSystem  EndingClass = "system"
	EndingClassKeyword EndingClass = "keyword"
	EndingClassStory   EndingClass = "story"
	EndingClassHybrid  EndingClass = "hybrid"
)

// EndingDefinition is a world-declared ending. Read-only to the engine.
type EndingDefinition struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Content   string `json:"content"`
}

// SystemConfig describes one declared system of a world.
type SystemConfig struct {
	InitialValue float64 `json:"initial_value"`
	Description  string  `json:"description,omitempty"`
}

// World is an adventure setting created by a user.
type World struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"userId"`
	Title         string                  `json:"title"`
	Setting       string                  `json:"setting"`
	Genre         *string                 `json:"genre,omitempty"`
	Tags          []string                `json:"tags"`
	IsPublic      bool                    `json:"isPublic"`
	CoverImageURL *string                 `json:"coverImageUrl,omitempty"`
	StartingPoint *string                 `json:"startingPoint,omitempty"`
	Systems       []string                `json:"systems"`
	SystemConfigs map[string]SystemConfig `json:"systemConfigs"`
	Endings       []EndingDefinition      `json:"endings"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// InitialState builds the starting StateMap from the declared systems.
// Systems without a config entry start at zero.
func (w *World) InitialState() StateMap {
	state := make(StateMap, len(w.Systems))
	for _, name := range w.Systems {
		if cfg, ok := w.SystemConfigs[name]; ok {
			state[name] = cfg.InitialValue
		} else {
			state[name] = 0
		}
	}
	return state
}

// SessionState is the mutable per-session game state. It is created when
// an adventure starts, kept in the session store while the adventure is
// played and discarded when the adventure ends or is deleted.
type SessionState struct {
	SessionID      string                  `json:"sessionId"`
	UserID         uuid.UUID               `json:"userId"`
	WorldID        uuid.UUID               `json:"worldId"`
	WorldTitle     string                  `json:"worldTitle"`
	History        string                  `json:"history"`
	ActiveSystems  StateMap                `json:"activeSystems"`
	SystemConfigs  map[string]SystemConfig `json:"systemConfigs"`
	LastAIResponse string                  `json:"lastAiResponse"`
	LastChoices    []Choice                `json:"lastChoices"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// AdventureSummary is one row of the user's ongoing-adventure list.
type AdventureSummary struct {
	SessionID    string    `json:"session_id"`
	WorldID      uuid.UUID `json:"world_id"`
	WorldTitle   string    `json:"world_title"`
	Summary      string    `json:"summary"`
	LastPlayedAt time.Time `json:"last_played_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
