package wizard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"rent_bot/internal/model"
)

func TestTransitionMainMenu(t *testing.T) {
	tests := []struct {
		name        string
		ev          Event
		wantState   State
		wantEffects []Effect
	}{
		{"city", ActionEvent("city"), AwaitingCity, []Effect{{Kind: Prompt, Field: FieldCity}}},
		{"district", ActionEvent("district"), AwaitingDistrict, []Effect{{Kind: Prompt, Field: FieldDistrict}}},
		{"min price", ActionEvent("min_price"), AwaitingMinPrice, []Effect{{Kind: Prompt, Field: FieldMinPrice}}},
		{"max price", ActionEvent("max_price"), AwaitingMaxPrice, []Effect{{Kind: Prompt, Field: FieldMaxPrice}}},
		{"keywords", ActionEvent("keywords"), AwaitingKeywords, []Effect{{Kind: Prompt, Field: FieldKeywords}}},
		{"max floor", ActionEvent("max_floor"), AwaitingMaxFloor, []Effect{{Kind: Prompt, Field: FieldMaxFloor}}},
		{"min area", ActionEvent("min_area"), AwaitingMinArea, []Effect{{Kind: Prompt, Field: FieldMinArea}}},
		{"pets", ActionEvent("pets"), PetsMenu, []Effect{{Kind: ShowPetsMenu}}},
		{"save", ActionEvent(ActionSave), Saved, []Effect{{Kind: Commit}}},
		{"cancel", ActionEvent(ActionCancel), Cancelled, []Effect{{Kind: Discard}}},
		{"unknown action", ActionEvent("bogus"), MainMenu, []Effect{{Kind: ShowMainMenu}}},
		{"pets action outside pets menu", ActionEvent(ActionPetCat), MainMenu, []Effect{{Kind: ShowMainMenu}}},
		{"free text", TextEvent("hello"), MainMenu, []Effect{{Kind: ShowMainMenu}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := model.Criteria{City: "львів", MinPrice: 5000}
			state, got, effects := Transition(MainMenu, draft, tt.ev)
			if state != tt.wantState {
				t.Errorf("state = %v, want %v", state, tt.wantState)
			}
			if diff := cmp.Diff(tt.wantEffects, effects); diff != "" {
				t.Errorf("effects mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(draft, got); diff != "" {
				t.Errorf("draft must not change (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransitionFieldInput(t *testing.T) {
	base := model.Criteria{
		City:     "київ",
		District: "печерський",
		MinPrice: 8000,
		MaxPrice: 20000,
		Keywords: []string{"балкон"},
		MaxFloor: 9,
		MinArea:  40,
	}

	tests := []struct {
		name      string
		state     State
		input     string
		wantState State
		wantKind  EffectKind
		want      func(c *model.Criteria)
	}{
		{"city set", AwaitingCity, "  Львів ", MainMenu, FieldSet, func(c *model.Criteria) { c.City = "Львів" }},
		{"city cleared", AwaitingCity, "0", MainMenu, FieldCleared, func(c *model.Criteria) { c.City = "" }},
		{"district set", AwaitingDistrict, "Солом’янський", MainMenu, FieldSet, func(c *model.Criteria) { c.District = "солом'янський" }},
		{"district unknown", AwaitingDistrict, "Троєщина", AwaitingDistrict, InvalidInput, nil},
		{"district cleared", AwaitingDistrict, "", MainMenu, FieldCleared, func(c *model.Criteria) { c.District = "" }},
		{"min price set", AwaitingMinPrice, "12000", MainMenu, FieldSet, func(c *model.Criteria) { c.MinPrice = 12000 }},
		{"min price non-numeric", AwaitingMinPrice, "дешево", AwaitingMinPrice, InvalidInput, nil},
		{"min price zero", AwaitingMinPrice, "0", MainMenu, FieldCleared, func(c *model.Criteria) { c.MinPrice = 0 }},
		{"max price negative", AwaitingMaxPrice, "-5", AwaitingMaxPrice, InvalidInput, nil},
		{"max price set", AwaitingMaxPrice, "25000", MainMenu, FieldSet, func(c *model.Criteria) { c.MaxPrice = 25000 }},
		{"max floor decimal", AwaitingMaxFloor, "4.5", AwaitingMaxFloor, InvalidInput, nil},
		{"max floor set", AwaitingMaxFloor, "5", MainMenu, FieldSet, func(c *model.Criteria) { c.MaxFloor = 5 }},
		{"min area empty", AwaitingMinArea, "   ", MainMenu, FieldCleared, func(c *model.Criteria) { c.MinArea = 0 }},
		{"keywords split", AwaitingKeywords, "ремонт, , новобудова ,метро", MainMenu, FieldSet, func(c *model.Criteria) {
			c.Keywords = []string{"ремонт", "новобудова", "метро"}
		}},
		{"keywords only commas", AwaitingKeywords, ", ,", MainMenu, FieldCleared, func(c *model.Criteria) { c.Keywords = nil }},
		{"keywords cleared", AwaitingKeywords, "0", MainMenu, FieldCleared, func(c *model.Criteria) { c.Keywords = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, got, effects := Transition(tt.state, base, TextEvent(tt.input))
			if state != tt.wantState {
				t.Errorf("state = %v, want %v", state, tt.wantState)
			}
			if len(effects) == 0 || effects[0].Kind != tt.wantKind {
				t.Fatalf("effects = %+v, want first kind %v", effects, tt.wantKind)
			}
			if effects[0].Field != stateFields[tt.state] {
				t.Errorf("effect field = %q, want %q", effects[0].Field, stateFields[tt.state])
			}

			want := base.Clone()
			if tt.want != nil {
				tt.want(&want)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("draft mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransitionInvalidInputReprompts(t *testing.T) {
	_, _, effects := Transition(AwaitingMinPrice, model.Criteria{}, TextEvent("abc"))
	want := []Effect{
		{Kind: InvalidInput, Field: FieldMinPrice},
		{Kind: Prompt, Field: FieldMinPrice},
	}
	if diff := cmp.Diff(want, effects); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionAwaitingActions(t *testing.T) {
	state, _, effects := Transition(AwaitingCity, model.Criteria{}, ActionEvent(ActionBack))
	if state != MainMenu {
		t.Errorf("back: state = %v, want MainMenu", state)
	}
	if diff := cmp.Diff([]Effect{{Kind: ShowMainMenu}}, effects); diff != "" {
		t.Errorf("back effects mismatch (-want +got):\n%s", diff)
	}

	state, _, effects = Transition(AwaitingCity, model.Criteria{}, ActionEvent(ActionSave))
	if state != AwaitingCity {
		t.Errorf("stray action: state = %v, want AwaitingCity", state)
	}
	if diff := cmp.Diff([]Effect{{Kind: Prompt, Field: FieldCity}}, effects); diff != "" {
		t.Errorf("stray action effects mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionPetsMenu(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		wantPets []model.Pet
		wantEnd  State
	}{
		{"cat dog finish", []string{ActionPetCat, ActionPetDog, ActionPetsFinish}, []model.Pet{model.PetCat, model.PetDog}, MainMenu},
		{"repeated tap has no toggle-off", []string{ActionPetCat, ActionPetCat}, []model.Pet{model.PetCat}, PetsMenu},
		{"clear resets", []string{ActionPetCat, ActionPetOther, ActionPetsClear}, nil, PetsMenu},
		{"clear then add", []string{ActionPetDog, ActionPetsClear, ActionPetOther, ActionPetsFinish}, []model.Pet{model.PetOther}, MainMenu},
		{"unknown keeps selection", []string{ActionPetDog, "pet_hamster"}, []model.Pet{model.PetDog}, PetsMenu},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, draft := PetsMenu, model.Criteria{}
			for _, a := range tt.events {
				var effects []Effect
				state, draft, effects = Transition(state, draft, ActionEvent(a))
				if state == PetsMenu {
					if diff := cmp.Diff([]Effect{{Kind: RedrawPetsMenu}}, effects); diff != "" {
						t.Errorf("%s: effects mismatch (-want +got):\n%s", a, diff)
					}
				}
			}
			if state != tt.wantEnd {
				t.Errorf("state = %v, want %v", state, tt.wantEnd)
			}
			if diff := cmp.Diff(tt.wantPets, draft.PetsAllowed, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("pets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransitionDoesNotAliasDraft(t *testing.T) {
	draft := model.Criteria{PetsAllowed: make([]model.Pet, 0, 4)}
	_, got, _ := Transition(PetsMenu, draft, ActionEvent(ActionPetCat))
	if len(draft.PetsAllowed) != 0 {
		t.Errorf("input draft modified: %v", draft.PetsAllowed)
	}
	got.PetsAllowed[0] = model.PetDog
	if len(draft.PetsAllowed[:1]) == 1 && draft.PetsAllowed[:1][0] == model.PetDog {
		t.Error("output draft shares backing array with input")
	}
}

func TestTransitionTerminal(t *testing.T) {
	for _, s := range []State{Saved, Cancelled} {
		state, _, effects := Transition(s, model.Criteria{}, ActionEvent("city"))
		if state != s || effects != nil {
			t.Errorf("%v: got state %v effects %v, want unchanged and no effects", s, state, effects)
		}
	}
}

func TestSessionSaveCommitsOnce(t *testing.T) {
	var commits []model.Criteria
	s := New(model.DefaultCriteria(), func(c model.Criteria) error {
		commits = append(commits, c)
		return nil
	})

	steps := []Event{
		ActionEvent("min_price"),
		TextEvent("abc"),
		TextEvent("0"),
		ActionEvent("max_price"),
		TextEvent("15000"),
		ActionEvent("pets"),
		ActionEvent(ActionPetCat),
		ActionEvent(ActionPetDog),
		ActionEvent(ActionPetsFinish),
		ActionEvent(ActionSave),
	}
	for _, ev := range steps {
		if _, err := s.Handle(ev); err != nil {
			t.Fatalf("Handle(%+v): %v", ev, err)
		}
	}

	want := []model.Criteria{{
		City:        model.DefaultCity,
		MaxPrice:    15000,
		PetsAllowed: []model.Pet{model.PetCat, model.PetDog},
	}}
	if diff := cmp.Diff(want, commits); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	if s.State() != Saved {
		t.Errorf("state = %v, want Saved", s.State())
	}

	if _, err := s.Handle(ActionEvent(ActionSave)); !errors.Is(err, ErrFinished) {
		t.Errorf("Handle after save: err = %v, want ErrFinished", err)
	}
	if len(commits) != 1 {
		t.Errorf("commit called %d times, want 1", len(commits))
	}
}

func TestSessionCancelNeverCommits(t *testing.T) {
	called := false
	current := model.Criteria{City: "одеса", Keywords: []string{"море"}}
	s := New(current, func(model.Criteria) error {
		called = true
		return nil
	})

	for _, ev := range []Event{ActionEvent("keywords"), TextEvent("центр"), ActionEvent(ActionCancel)} {
		if _, err := s.Handle(ev); err != nil {
			t.Fatalf("Handle(%+v): %v", ev, err)
		}
	}

	if called {
		t.Error("commit called on cancel")
	}
	if s.State() != Cancelled {
		t.Errorf("state = %v, want Cancelled", s.State())
	}
	if diff := cmp.Diff([]string{"море"}, current.Keywords); diff != "" {
		t.Errorf("current criteria modified (-want +got):\n%s", diff)
	}
	if _, err := s.Handle(TextEvent("x")); !errors.Is(err, ErrFinished) {
		t.Errorf("Handle after cancel: err = %v, want ErrFinished", err)
	}
}

func TestSessionCommitError(t *testing.T) {
	calls := 0
	errDisk := errors.New("disk full")
	s := New(model.Criteria{}, func(model.Criteria) error {
		calls++
		return errDisk
	})

	effects, err := s.Handle(ActionEvent(ActionSave))
	if !errors.Is(err, errDisk) {
		t.Fatalf("err = %v, want %v", err, errDisk)
	}
	if diff := cmp.Diff([]Effect{{Kind: Commit}}, effects); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Handle(ActionEvent(ActionSave)); !errors.Is(err, ErrFinished) {
		t.Errorf("second save: err = %v, want ErrFinished", err)
	}
	if calls != 1 {
		t.Errorf("commit called %d times, want 1", calls)
	}
}

func TestStateString(t *testing.T) {
	if got := AwaitingMinPrice.String(); got != "AwaitingMinPrice" {
		t.Errorf("String() = %q", got)
	}
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("String() = %q", got)
	}
}
