package anonymize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/studiowebux/dicomkit/internal/types"
)

func TestBuiltin_Names(t *testing.T) {
	var names []string
	for _, tmpl := range Builtin() {
		names = append(names, tmpl.Name)
		assert.NotEmpty(t, tmpl.Rules, tmpl.Name)
	}
	assert.Equal(t, []string{"Basic", "Full", "Research"}, names)
}

func TestLookup(t *testing.T) {
	basic, err := Lookup("basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic", basic.Name)
	assert.Equal(t, types.AnonymizationRule{Tag: tag.PatientName, Action: types.ActionReplace, Value: "ANONYMOUS"}, basic.Rules[0])

	_, err = Lookup("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestResearch_KeepsStudyRelationships(t *testing.T) {
	research, err := Lookup("Research")
	require.NoError(t, err)

	for _, rule := range research.Rules {
		assert.NotEqual(t, types.ActionGenerateUID, rule.Action, types.FormatTag(rule.Tag))
	}
}

func TestBuiltin_ReturnsCopies(t *testing.T) {
	first := Builtin()
	first[0].Rules[0].Value = "mutated"

	assert.Equal(t, "ANONYMOUS", Builtin()[0].Rules[0].Value)
}
