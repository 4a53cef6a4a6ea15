package tagedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/studiowebux/dicomkit/internal/types"
)

func loadedEditor(t *testing.T) *Editor {
	t.Helper()
	e := New()
	e.LoadTags([]types.Tag{
		types.NewTag(tag.PatientName, "PN", "DOE^JANE"),
		types.NewTag(tag.PatientID, "LO", "12345"),
		types.NewTag(tag.StudyDate, "DA", "20240115"),
	})
	return e
}

func TestEditor_SetTagValueStagesDifference(t *testing.T) {
	e := loadedEditor(t)

	require.NoError(t, e.SetTagValue(tag.PatientName, "ANONYMOUS"))

	v, ok := e.Pending(tag.PatientName)
	assert.True(t, ok)
	assert.Equal(t, "ANONYMOUS", v)
	assert.Len(t, e.State().Modified, 1)
}

func TestEditor_SetTagValueBackToOriginalRemovesEntry(t *testing.T) {
	e := loadedEditor(t)

	require.NoError(t, e.SetTagValue(tag.PatientID, "99999"))
	require.NoError(t, e.SetTagValue(tag.PatientID, "12345"))

	_, ok := e.Pending(tag.PatientID)
	assert.False(t, ok)
	assert.Empty(t, e.State().Modified)
}

func TestEditor_SetTagValueToOriginalNeverAddsEntry(t *testing.T) {
	e := loadedEditor(t)

	notifications := 0
	e.Subscribe(func(types.TagEditState) { notifications++ })

	require.NoError(t, e.SetTagValue(tag.StudyDate, "20240115"))
	assert.Empty(t, e.State().Modified)
	assert.Equal(t, 1, notifications)
}

func TestEditor_SetTagValueUnknownTag(t *testing.T) {
	e := loadedEditor(t)

	err := e.SetTagValue(tag.Modality, "MR")
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.ErrorIs(t, err, types.ErrInvalidReference)
	assert.Empty(t, e.State().Modified)
}

func TestEditor_Value(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetTagValue(tag.PatientName, "X"))

	v, _ := e.Value(tag.PatientName)
	assert.Equal(t, "X", v)
	v, _ = e.Value(tag.PatientID)
	assert.Equal(t, "12345", v)
	_, ok := e.Value(tag.Modality)
	assert.False(t, ok)
}

func TestEditor_CommitReturnsAndClears(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetTagValue(tag.PatientName, "ANONYMOUS"))
	require.NoError(t, e.SetTagValue(tag.PatientID, ""))

	committed := e.Commit()

	assert.Equal(t, map[tag.Tag]string{
		tag.PatientName: "ANONYMOUS",
		tag.PatientID:   "",
	}, committed)
	assert.Empty(t, e.State().Modified)
	assert.Empty(t, e.Commit())
}

func TestEditor_CommittedMapIsDetached(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetTagValue(tag.PatientName, "A"))

	committed := e.Commit()
	committed[tag.PatientID] = "injected"

	assert.Empty(t, e.State().Modified)
}

func TestEditor_Discard(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetTagValue(tag.PatientName, "ANONYMOUS"))

	e.Discard()
	assert.Empty(t, e.State().Modified)
}

func TestEditor_LoadTagsResetsModificationsAndSelection(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetTagValue(tag.PatientName, "ANONYMOUS"))
	require.NoError(t, e.Select(tag.PatientID))
	e.SetSearchQuery("patient")

	e.LoadTags([]types.Tag{types.NewTag(tag.Modality, "CS", "CT")})

	state := e.State()
	assert.Empty(t, state.Modified)
	assert.Empty(t, state.Selected)
	assert.Len(t, state.Tags, 1)
	assert.Equal(t, "patient", state.SearchQuery)
}

func TestEditor_Selection(t *testing.T) {
	e := loadedEditor(t)

	require.NoError(t, e.Select(tag.StudyDate))
	require.NoError(t, e.Select(tag.PatientName))
	require.NoError(t, e.Select(tag.PatientName))
	assert.Equal(t, []tag.Tag{tag.StudyDate, tag.PatientName}, e.Selected())

	e.Deselect(tag.StudyDate)
	assert.Equal(t, []tag.Tag{tag.PatientName}, e.Selected())

	require.NoError(t, e.ToggleSelection(tag.PatientName))
	assert.False(t, e.IsSelected(tag.PatientName))
	require.NoError(t, e.ToggleSelection(tag.PatientID))
	assert.True(t, e.IsSelected(tag.PatientID))

	e.ClearSelection()
	assert.Empty(t, e.Selected())

	assert.ErrorIs(t, e.Select(tag.Modality), ErrUnknownTag)
}

func TestEditor_SearchQueryIsStoredVerbatim(t *testing.T) {
	e := loadedEditor(t)

	e.SetSearchQuery("  (0010,0010) ")
	assert.Equal(t, "  (0010,0010) ", e.State().SearchQuery)
}

func TestEditor_StageTemplate(t *testing.T) {
	e := loadedEditor(t)

	template := types.AnonymizationTemplate{
		Name: "Basic",
		Rules: []types.AnonymizationRule{
			{Tag: tag.PatientName, Action: types.ActionReplace, Value: "ANONYMOUS"},
		},
	}
	e.StageTemplate(template)
	template.Rules[0].Value = "changed later"

	staged := e.State().Anonymization
	require.NotNil(t, staged)
	assert.Equal(t, "Basic", staged.Name)
	assert.Equal(t, "ANONYMOUS", staged.Rules[0].Value)
	assert.Empty(t, e.State().Modified)

	e.ClearTemplate()
	assert.Nil(t, e.State().Anonymization)
}

func TestEditor_OldSnapshotsUnaffectedByEdits(t *testing.T) {
	e := loadedEditor(t)
	before := e.State()

	require.NoError(t, e.SetTagValue(tag.PatientName, "X"))
	require.NoError(t, e.Select(tag.PatientName))

	assert.Empty(t, before.Modified)
	assert.Empty(t, before.Selected)
}
