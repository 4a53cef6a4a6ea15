package anonymize

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/studiowebux/dicomkit/internal/types"
)

// ErrUnknownTemplate is returned by Lookup for names not in the catalogue
var ErrUnknownTemplate = fmt.Errorf("unknown anonymization template: %w", types.ErrInvalidReference)

// Builtin returns the built-in templates in display order. Each call returns
// fresh copies.
func Builtin() []types.AnonymizationTemplate {
	return []types.AnonymizationTemplate{
		basic(),
		full(),
		research(),
	}
}

// Lookup finds a built-in template by name, ignoring case
func Lookup(name string) (types.AnonymizationTemplate, error) {
	for _, t := range Builtin() {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return types.AnonymizationTemplate{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
}

func basic() types.AnonymizationTemplate {
	return types.AnonymizationTemplate{
		Name:        "Basic",
		Description: "Removes basic patient identifiers",
		Rules: []types.AnonymizationRule{
			{Tag: tag.PatientName, Action: types.ActionReplace, Value: "ANONYMOUS"},
			{Tag: tag.PatientID, Action: types.ActionHash},
			{Tag: tag.PatientBirthDate, Action: types.ActionBlank},
		},
	}
}

// identifying lists tags that name or locate the patient, staff or institution
var identifying = []tag.Tag{
	tag.PatientName,
	tag.PatientBirthDate,
	tag.PatientBirthTime,
	tag.PatientAddress,
	tag.PatientTelephoneNumbers,
	tag.OtherPatientIDs,
	tag.PatientMotherBirthName,
	tag.PatientComments,
	tag.InstitutionName,
	tag.InstitutionAddress,
	tag.ReferringPhysicianName,
	tag.PerformingPhysicianName,
	tag.OperatorsName,
	tag.StationName,
	tag.AccessionNumber,
}

func full() types.AnonymizationTemplate {
	rules := []types.AnonymizationRule{
		{Tag: tag.PatientID, Action: types.ActionHash},
		{Tag: tag.StudyInstanceUID, Action: types.ActionGenerateUID},
		{Tag: tag.SeriesInstanceUID, Action: types.ActionGenerateUID},
		{Tag: tag.SOPInstanceUID, Action: types.ActionGenerateUID},
	}
	for _, id := range identifying {
		rules = append(rules, types.AnonymizationRule{Tag: id, Action: types.ActionRemove})
	}
	return types.AnonymizationTemplate{
		Name:        "Full",
		Description: "Comprehensive anonymization following DICOM PS3.15",
		Rules:       rules,
	}
}

func research() types.AnonymizationTemplate {
	rules := []types.AnonymizationRule{
		{Tag: tag.PatientID, Action: types.ActionHash},
		{Tag: tag.PatientName, Action: types.ActionReplace, Value: "RESEARCH"},
	}
	for _, id := range identifying[1:] {
		rules = append(rules, types.AnonymizationRule{Tag: id, Action: types.ActionBlank})
	}
	return types.AnonymizationTemplate{
		Name:        "Research",
		Description: "Anonymizes while preserving study relationships",
		Rules:       rules,
	}
}
