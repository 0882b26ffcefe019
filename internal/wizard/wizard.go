// Package wizard implements the interactive filter editor as a finite-state machine.
//
// Transition is pure: it maps a state, a draft and one user event to the next
// state, the next draft and a list of effects for the transport to render.
// Session wraps it for one chat and owns the commit callback.
package wizard

import (
	"strconv"
	"strings"

	"rent_bot/internal/model"
	"rent_bot/internal/search"
)

// State is a wizard state.
type State int

const (
	MainMenu State = iota
	AwaitingCity
	AwaitingDistrict
	AwaitingMinPrice
	AwaitingMaxPrice
	AwaitingKeywords
	AwaitingMaxFloor
	AwaitingMinArea
	PetsMenu
	Saved
	Cancelled
)

var stateNames = [...]string{
	MainMenu:         "MainMenu",
	AwaitingCity:     "AwaitingCity",
	AwaitingDistrict: "AwaitingDistrict",
	AwaitingMinPrice: "AwaitingMinPrice",
	AwaitingMaxPrice: "AwaitingMaxPrice",
	AwaitingKeywords: "AwaitingKeywords",
	AwaitingMaxFloor: "AwaitingMaxFloor",
	AwaitingMinArea:  "AwaitingMinArea",
	PetsMenu:         "PetsMenu",
	Saved:            "Saved",
	Cancelled:        "Cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// Terminal reports whether the machine has stopped.
func (s State) Terminal() bool {
	return s == Saved || s == Cancelled
}

// Field identifies an editable criteria field.
type Field string

const (
	FieldCity     Field = "city"
	FieldDistrict Field = "district"
	FieldMinPrice Field = "min_price"
	FieldMaxPrice Field = "max_price"
	FieldKeywords Field = "keywords"
	FieldMaxFloor Field = "max_floor"
	FieldMinArea  Field = "min_area"
	FieldPets     Field = "pets"
)

// Actions carried by menu buttons.
const (
	ActionSave       = "save_and_exit"
	ActionCancel     = "cancel"
	ActionBack       = "back"
	ActionPetCat     = "pet_cat"
	ActionPetDog     = "pet_dog"
	ActionPetOther   = "pet_other"
	ActionPetsClear  = "pets_clear"
	ActionPetsFinish = "pets_finish"
)

// MenuFields lists the main menu entries in display order. The action of each
// entry is the field name.
var MenuFields = []Field{
	FieldCity, FieldDistrict, FieldMinPrice, FieldMaxPrice,
	FieldKeywords, FieldMaxFloor, FieldMinArea, FieldPets,
}

var fieldStates = map[Field]State{
	FieldCity:     AwaitingCity,
	FieldDistrict: AwaitingDistrict,
	FieldMinPrice: AwaitingMinPrice,
	FieldMaxPrice: AwaitingMaxPrice,
	FieldKeywords: AwaitingKeywords,
	FieldMaxFloor: AwaitingMaxFloor,
	FieldMinArea:  AwaitingMinArea,
	FieldPets:     PetsMenu,
}

var stateFields = map[State]Field{
	AwaitingCity:     FieldCity,
	AwaitingDistrict: FieldDistrict,
	AwaitingMinPrice: FieldMinPrice,
	AwaitingMaxPrice: FieldMaxPrice,
	AwaitingKeywords: FieldKeywords,
	AwaitingMaxFloor: FieldMaxFloor,
	AwaitingMinArea:  FieldMinArea,
}

var petActions = map[string]model.Pet{
	ActionPetCat:   model.PetCat,
	ActionPetDog:   model.PetDog,
	ActionPetOther: model.PetOther,
}

// EventKind distinguishes button presses from free text.
type EventKind int

const (
	EventAction EventKind = iota
	EventText
)

// Event is one user input.
type Event struct {
	Kind EventKind
	Data string
}

// ActionEvent returns a button press event.
func ActionEvent(action string) Event { return Event{Kind: EventAction, Data: action} }

// TextEvent returns a free text event.
func TextEvent(text string) Event { return Event{Kind: EventText, Data: text} }

// EffectKind is an instruction for the transport.
type EffectKind int

const (
	// ShowMainMenu renders the main menu with the current draft.
	ShowMainMenu EffectKind = iota
	// Prompt asks for the value of Field.
	Prompt
	// InvalidInput reports that the value for Field was rejected.
	InvalidInput
	FieldSet
	FieldCleared
	// ShowPetsMenu sends the pets menu as a new message.
	ShowPetsMenu
	// RedrawPetsMenu edits the pets menu in place.
	RedrawPetsMenu
	// Commit stores the draft. Session runs it; the transport only confirms.
	Commit
	Discard
)

// Effect is one rendering instruction produced by a transition.
type Effect struct {
	Kind  EffectKind
	Field Field
}

// Transition computes the next state and draft for ev. The given draft is
// never modified; the returned one is a fresh copy.
func Transition(state State, draft model.Criteria, ev Event) (State, model.Criteria, []Effect) {
	draft = draft.Clone()

	switch {
	case state.Terminal():
		return state, draft, nil
	case state == MainMenu:
		return mainMenu(draft, ev)
	case state == PetsMenu:
		return petsMenu(draft, ev)
	}

	field, ok := stateFields[state]
	if !ok {
		return MainMenu, draft, []Effect{{Kind: ShowMainMenu}}
	}
	return awaiting(state, field, draft, ev)
}

func mainMenu(draft model.Criteria, ev Event) (State, model.Criteria, []Effect) {
	if ev.Kind != EventAction {
		return MainMenu, draft, []Effect{{Kind: ShowMainMenu}}
	}

	switch ev.Data {
	case ActionSave:
		return Saved, draft, []Effect{{Kind: Commit}}
	case ActionCancel:
		return Cancelled, draft, []Effect{{Kind: Discard}}
	}

	next, ok := fieldStates[Field(ev.Data)]
	switch {
	case !ok:
		return MainMenu, draft, []Effect{{Kind: ShowMainMenu}}
	case next == PetsMenu:
		return PetsMenu, draft, []Effect{{Kind: ShowPetsMenu}}
	default:
		return next, draft, []Effect{{Kind: Prompt, Field: Field(ev.Data)}}
	}
}

func petsMenu(draft model.Criteria, ev Event) (State, model.Criteria, []Effect) {
	if ev.Kind != EventAction {
		return PetsMenu, draft, []Effect{{Kind: ShowPetsMenu}}
	}

	switch ev.Data {
	case ActionPetsFinish:
		return MainMenu, draft, []Effect{{Kind: ShowMainMenu}}
	case ActionPetsClear:
		draft.PetsAllowed = nil
		return PetsMenu, draft, []Effect{{Kind: RedrawPetsMenu}}
	}

	if p, ok := petActions[ev.Data]; ok {
		draft.AllowPet(p)
	}
	return PetsMenu, draft, []Effect{{Kind: RedrawPetsMenu}}
}

func awaiting(state State, field Field, draft model.Criteria, ev Event) (State, model.Criteria, []Effect) {
	if ev.Kind == EventAction {
		if ev.Data == ActionBack {
			return MainMenu, draft, []Effect{{Kind: ShowMainMenu}}
		}
		return state, draft, []Effect{{Kind: Prompt, Field: field}}
	}

	cleared, ok := apply(&draft, field, ev.Data)
	if !ok {
		return state, draft, []Effect{
			{Kind: InvalidInput, Field: field},
			{Kind: Prompt, Field: field},
		}
	}

	kind := FieldSet
	if cleared {
		kind = FieldCleared
	}
	return MainMenu, draft, []Effect{{Kind: kind, Field: field}, {Kind: ShowMainMenu}}
}

// apply parses text into field. It reports whether the field was cleared and
// whether the input was accepted.
func apply(c *model.Criteria, field Field, text string) (cleared, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == "0" {
		clearField(c, field)
		return true, true
	}

	switch field {
	case FieldCity:
		c.City = text
	case FieldDistrict:
		if _, ok := search.ResolveDistrict(text); !ok {
			return false, false
		}
		c.District = search.NormalizeDistrict(text)
	case FieldKeywords:
		c.Keywords = splitKeywords(text)
		if len(c.Keywords) == 0 {
			return true, true
		}
	default:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return false, false
		}
		*intField(c, field) = n
	}
	return false, true
}

func clearField(c *model.Criteria, field Field) {
	switch field {
	case FieldCity:
		c.City = ""
	case FieldDistrict:
		c.District = ""
	case FieldKeywords:
		c.Keywords = nil
	default:
		*intField(c, field) = 0
	}
}

func intField(c *model.Criteria, field Field) *int {
	switch field {
	case FieldMinPrice:
		return &c.MinPrice
	case FieldMaxPrice:
		return &c.MaxPrice
	case FieldMaxFloor:
		return &c.MaxFloor
	default:
		return &c.MinArea
	}
}

func splitKeywords(text string) []string {
	var out []string
	for _, kw := range strings.Split(text, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
