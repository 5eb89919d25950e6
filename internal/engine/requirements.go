package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// ExpandRequirements derives the session requirements for every cohort in
// the reference data. A practical subject yields one 3-period block
// requirement; a theory subject yields one theory-unit requirement per
// weekly credit occurrence. The result is deterministically ordered:
// practical blocks first, then by cohort, subject and occurrence index.
func ExpandRequirements(ref models.ReferenceData) ([]models.SessionRequirement, error) {
	subjects := ref.SubjectByCode()

	var requirements []models.SessionRequirement
	for _, cohort := range ref.Cohorts {
		for _, code := range cohort.SubjectCodes {
			subject, ok := subjects[code]
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrConfig,
					fmt.Sprintf("cohort %s references unknown subject %s", cohort.ID, code))
			}
			if subject.IsPractical {
				requirements = append(requirements, models.SessionRequirement{
					CohortID:    cohort.ID,
					SubjectCode: code,
					Kind:        models.RequirementPracticalBlock,
					Key:         requirementKey(cohort.ID, code, models.RequirementPracticalBlock, 0),
				})
				continue
			}
			for unit := 0; unit < subject.WeeklyUnits(); unit++ {
				requirements = append(requirements, models.SessionRequirement{
					CohortID:    cohort.ID,
					SubjectCode: code,
					Kind:        models.RequirementTheoryUnit,
					Key:         requirementKey(cohort.ID, code, models.RequirementTheoryUnit, unit),
				})
			}
		}
	}

	sort.SliceStable(requirements, func(i, j int) bool {
		a, b := requirements[i], requirements[j]
		if a.Kind != b.Kind {
			return a.Kind == models.RequirementPracticalBlock
		}
		if a.CohortID != b.CohortID {
			return a.CohortID < b.CohortID
		}
		if a.SubjectCode != b.SubjectCode {
			return a.SubjectCode < b.SubjectCode
		}
		return a.Key < b.Key
	})

	seen := make(map[string]bool, len(requirements))
	deduped := requirements[:0]
	for _, req := range requirements {
		if seen[req.Key] {
			continue
		}
		seen[req.Key] = true
		deduped = append(deduped, req)
	}
	return deduped, nil
}

func requirementKey(cohortID, subjectCode string, kind models.RequirementKind, unit int) string {
	return fmt.Sprintf("%s|%s|%s|%d", cohortID, subjectCode, kind, unit)
}
