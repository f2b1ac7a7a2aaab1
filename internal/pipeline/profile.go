package pipeline

import (
	"fmt"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/executor"
	"github.com/leengari/cohort-sql/internal/normalize"
	"github.com/leengari/cohort-sql/internal/parser"
	"github.com/leengari/cohort-sql/internal/storage"
)

const (
	DiseasePipeline = "disease"
	DrugPipeline    = "drug"
)

// StepRule adjusts the SELECT result of one step and returns warnings
type StepRule func(*schema.Table) []string

// Profile bundles the default steps of a pipeline with its business rules
type Profile struct {
	Name  string
	Steps []StepDef

	// Load rules for the source tables, including the alias fold
	Load storage.LoadOptions

	// Exec configures the statement handlers
	Exec executor.Options

	// StepRules are keyed by step index
	StepRules map[int]StepRule
}

// Disease returns the psychosis/ischemic-stroke cohort pipeline
func Disease() *Profile {
	return &Profile{
		Name:  DiseasePipeline,
		Steps: diseaseSteps,
		Load: storage.LoadOptions{
			Fold:              storage.FoldUnderscore,
			StripWhitespace:   true,
			CoerceTimeColumns: true,
		},
		Exec: executor.Options{
			DeleteShapes:   executor.CohortDeleteShapes,
			UpdateShapes:   executor.CohortUpdateShapes,
			BoolColumns:    []string{"with_psychosis", "E"},
			PatientsTable:  "mimiciv_hosp_patients",
			CoerceOnCreate: true,
		},
		StepRules: map[int]StepRule{
			27: castColumnsToFloat("admit_year"),
		},
	}
}

// Drug returns the antithrombotic prescription pipeline
func Drug() *Profile {
	return &Profile{
		Name:  DrugPipeline,
		Steps: drugSteps,
		Load:  storage.LoadOptions{Fold: storage.FoldDot},
		Exec: executor.Options{
			Disabled:          []parser.Kind{parser.KindAlter, parser.KindUpdate},
			DeleteShapes:      []executor.DeleteShape{executor.DeleteWhere},
			ReportMissingDrop: true,
		},
		StepRules: map[int]StepRule{
			0: coerceColumnsToDatetime("starttime", "stoptime"),
		},
	}
}

// ProfileByName returns the built-in profile called name
func ProfileByName(name string) (*Profile, error) {
	switch name {
	case DiseasePipeline:
		return Disease(), nil
	case DrugPipeline:
		return Drug(), nil
	}
	return nil, fmt.Errorf("unknown pipeline %q (want %q or %q)", name, DiseasePipeline, DrugPipeline)
}

func castColumnsToFloat(columns ...string) StepRule {
	return func(t *schema.Table) []string {
		var warnings []string
		for _, c := range columns {
			if w := normalize.CoerceFloat(t, c); w != "" {
				warnings = append(warnings, w)
			}
		}
		return warnings
	}
}

func coerceColumnsToDatetime(columns ...string) StepRule {
	return func(t *schema.Table) []string {
		var warnings []string
		for _, c := range columns {
			if w := normalize.CoerceDatetime(t, c); w != "" {
				warnings = append(warnings, w)
			}
		}
		return warnings
	}
}
