package chat

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intchat "cuepoint/internal/chat"
	"cuepoint/internal/engine"
)

func newTestModel() Model {
	responder := intchat.NewResponder(intchat.DefaultRules(), intchat.DefaultFallback)
	store := engine.NewStore("console-test", nil)
	return New(responder, store)
}

func TestSubmitAppendsTranscript(t *testing.T) {
	m := newTestModel()
	before := len(m.history)

	m.submit("where is your nearest store?")

	require.Len(t, m.history, before+2)
	assert.Equal(t, "user", m.history[before].Role)
	assert.Equal(t, "assistant", m.history[before+1].Role)
	assert.NotEmpty(t, m.history[before+1].Content)
}

func TestSubmitFeedsInterestsIntoEngine(t *testing.T) {
	m := newTestModel()
	m.submit("I want to improve, any training available?")

	state := m.store.State()
	assert.Contains(t, state.Molecules.Interests, "training")
	assert.NotEmpty(t, state.Organs.Recommendations)
}

func TestEnterSendsInput(t *testing.T) {
	m := newTestModel()

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model := sized.(Model)
	model.input.SetValue("how much is a cue?")

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(Model)

	assert.Empty(t, model.input.Value())
	assert.Equal(t, "how much is a cue?", model.history[len(model.history)-2].Content)
}

func TestEscQuits(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
