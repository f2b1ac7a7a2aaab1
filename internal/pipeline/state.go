package pipeline

import (
	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/storage"
	"github.com/leengari/cohort-sql/internal/store"
)

// State is everything one session owns: the table store, the alias map built at load time
// and the steps with their current text, output and log.
//
// Runs mutate the store in place and are not crash-atomic: when a statement fails, the
// effects of the statements before it stay.
type State struct {
	Profile *Profile
	Store   *store.Store
	Aliases *storage.AliasMap
	Steps   []*Step
}

// NewState creates a session state whose steps start at the profile's default text
func NewState(profile *Profile, s *store.Store, aliases *storage.AliasMap) *State {
	if s == nil {
		s = store.New()
	}
	if aliases == nil {
		aliases = storage.NewAliasMap()
	}
	steps := make([]*Step, len(profile.Steps))
	for i, def := range profile.Steps {
		steps[i] = &Step{
			Index:       i,
			Name:        def.Name,
			Subtitle:    def.Subtitle,
			DefaultText: def.Text,
			Text:        def.Text,
		}
	}
	return &State{Profile: profile, Store: s, Aliases: aliases, Steps: steps}
}

// Len returns the number of steps
func (st *State) Len() int {
	return len(st.Steps)
}

// Step returns step i
func (st *State) Step(i int) (*Step, error) {
	if err := st.checkIndex(i); err != nil {
		return nil, err
	}
	return st.Steps[i], nil
}

// Edit replaces the text of step i; the default text is kept for Reset
func (st *State) Edit(i int, text string) error {
	if err := st.checkIndex(i); err != nil {
		return err
	}
	st.Steps[i].Text = text
	return nil
}

// Reset restores the default text of step i
func (st *State) Reset(i int) error {
	if err := st.checkIndex(i); err != nil {
		return err
	}
	st.Steps[i].Text = st.Steps[i].DefaultText
	return nil
}

func (st *State) checkIndex(i int) error {
	if i < 0 || i >= len(st.Steps) {
		return &errors.StepRangeError{Index: i, Count: len(st.Steps)}
	}
	return nil
}
