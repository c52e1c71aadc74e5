package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/spindle/pkg/domain"
)

func drafts() []domain.Node {
	return []domain.Node{
		{Title: "A", Lines: []domain.Line{
			domain.DialogLine{Text: "hi"},
			domain.OptionLine{Possibilities: []domain.OptionPossibility{
				{Text: "to b", Target: "B", Ref: domain.NoRef},
				{Text: "stay", Target: "A", Ref: domain.NoRef},
			}},
		}},
		{Title: "B", Lines: []domain.Line{
			domain.JumpLine{Target: "A", Ref: domain.NoRef},
		}},
	}
}

func TestNewDialog_ResolvesReferences(t *testing.T) {
	d, err := domain.NewDialog(drafts())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"A", "B"}, d.Titles())

	a := d.Node("A")
	b := d.Node("B")
	require.NotNil(t, a)
	require.NotNil(t, b)

	opts := a.Lines[1].(domain.OptionLine)
	assert.Same(t, b, d.At(opts.Possibilities[0].Ref))
	assert.Same(t, a, d.At(opts.Possibilities[1].Ref), "self reference resolves to the same node")

	jump := b.Lines[0].(domain.JumpLine)
	assert.Same(t, a, d.At(jump.Ref))
	assert.Equal(t, []string{"B", "A"}, d.Edges("A"))
}

func TestNewDialog_DoesNotMutateDrafts(t *testing.T) {
	in := drafts()
	_, err := domain.NewDialog(in)
	require.NoError(t, err)
	assert.Equal(t, domain.NoRef, in[1].Lines[0].(domain.JumpLine).Ref)
}

func TestNewDialog_UnknownNode(t *testing.T) {
	in := drafts()
	in[1].Lines = []domain.Line{domain.JumpLine{Target: "Nowhere", Ref: domain.NoRef}}

	d, err := domain.NewDialog(in)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, domain.ErrUnknownNode)

	var unk *domain.UnknownNodeError
	require.ErrorAs(t, err, &unk)
	assert.Equal(t, "Nowhere", unk.Title)
	assert.Equal(t, "B", unk.From)
}

func TestNewDialog_UnknownOptionTarget(t *testing.T) {
	in := drafts()
	in[0].Lines[1] = domain.OptionLine{Possibilities: []domain.OptionPossibility{{Text: "x", Target: "Gone"}}}

	_, err := domain.NewDialog(in)
	var unk *domain.UnknownNodeError
	require.ErrorAs(t, err, &unk)
	assert.Equal(t, "Gone", unk.Title)
}

func TestNewDialog_DuplicateTitle(t *testing.T) {
	in := append(drafts(), domain.Node{Title: "A", Position: 40, Lines: []domain.Line{domain.DialogLine{Text: "again"}}})
	in[0].Position = 1

	_, err := domain.NewDialog(in)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)

	var dup *domain.DuplicateNodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "A", dup.Title)
	assert.Equal(t, []int{1, 40}, dup.Positions)
}

func TestNewDialog_StructuralInvariants(t *testing.T) {
	_, err := domain.NewDialog([]domain.Node{{Title: "Empty"}})
	assert.Error(t, err)

	_, err = domain.NewDialog([]domain.Node{{Title: "A", Lines: []domain.Line{domain.OptionLine{}}}})
	assert.Error(t, err)
}

func TestDialog_Lookups(t *testing.T) {
	d, err := domain.NewDialog(drafts())
	require.NoError(t, err)

	ref, ok := d.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, domain.NodeRef(1), ref)

	_, ok = d.Lookup("Z")
	assert.False(t, ok)
	assert.Nil(t, d.Node("Z"))
	assert.Nil(t, d.At(domain.NoRef))
	assert.Nil(t, d.At(5))
	assert.Nil(t, d.Edges("Z"))
}

func TestCondition_Evaluate(t *testing.T) {
	tests := []struct {
		name   string
		cond   domain.Condition
		stored bool
		ok     bool
		want   bool
	}{
		{"equal match", domain.Condition{Kind: domain.Equal, Value: true}, true, true, true},
		{"equal mismatch", domain.Condition{Kind: domain.Equal, Value: true}, false, true, false},
		{"not equal match", domain.Condition{Kind: domain.NotEqual, Value: true}, false, true, true},
		{"not equal mismatch", domain.Condition{Kind: domain.NotEqual, Value: false}, false, true, false},
		{"unset equal", domain.Condition{Kind: domain.Equal, Value: false}, false, false, false},
		{"unset not equal", domain.Condition{Kind: domain.NotEqual, Value: true}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Evaluate(tt.stored, tt.ok))
		})
	}
}

func TestParseConditionKind(t *testing.T) {
	for _, op := range []string{"==", "is", "eq", "EQ"} {
		k, err := domain.ParseConditionKind(op)
		require.NoError(t, err)
		assert.Equal(t, domain.Equal, k)
	}
	for _, op := range []string{"!=", "neq"} {
		k, err := domain.ParseConditionKind(op)
		require.NoError(t, err)
		assert.Equal(t, domain.NotEqual, k)
	}
	_, err := domain.ParseConditionKind("<")
	assert.Error(t, err)

	c := domain.Condition{Variable: "door", Kind: domain.NotEqual, Value: true}
	assert.Equal(t, "$door != true", c.String())
}

func TestDialogState_String(t *testing.T) {
	assert.Equal(t, "start", domain.StateStart.String())
	assert.Equal(t, "waiting", domain.StateWaiting.String())
	assert.Equal(t, "DialogState(9)", domain.DialogState(9).String())

	err := &domain.WrongStateError{Current: domain.StateEnd, Expected: domain.StateWaiting}
	assert.ErrorIs(t, err, domain.ErrWrongState)
	assert.Contains(t, err.Error(), "current state: end")
}

func TestDialogState_Text(t *testing.T) {
	for _, st := range []domain.DialogState{domain.StateStart, domain.StateDialog, domain.StateWaiting, domain.StateEnd} {
		text, err := st.MarshalText()
		require.NoError(t, err)

		var got domain.DialogState
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, st, got)
	}

	var st domain.DialogState
	assert.Error(t, st.UnmarshalText([]byte("paused")))
}
