package command

import (
	"fmt"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/schema"
)

func modes(ms ...schema.Mode) map[schema.Mode]bool {
	set := make(map[schema.Mode]bool, len(ms))
	for _, m := range ms {
		set[m] = true
	}
	return set
}

// Options is the static option table, in the order flags are emitted.
var Options = []schema.CliOption{
	{Name: contract.ProjectOption, Flag: "-project", Modes: modes(schema.ClientMode, schema.QServerMode), Quoted: true},
	{Name: contract.BranchNameOption, Flag: "-branchname", Modes: modes(schema.ClientMode, schema.QServerMode), Quoted: true},
	{Name: contract.BranchDirOption, Flag: "-branchdir", Modes: modes(schema.QServerMode), Quoted: true},
	{Name: contract.CdTokenOption, Flag: "-cdtoken", Modes: modes(schema.ClientMode)},
	{Name: contract.CodeTypeOption, Flag: "-codetype", Modes: modes(schema.ClientMode, schema.QServerMode)},
	{Name: contract.CalcOption, Flag: "-calc", Modes: modes(schema.ClientMode, schema.QServerMode)},
	{Name: contract.NoCalcOption, Flag: "-nocalc", Modes: modes(schema.ClientMode, schema.QServerMode)},
	{Name: contract.NoRecalcOption, Flag: "-norecalc", Modes: modes(schema.ClientMode, schema.QServerMode)},
	{Name: contract.RecalcOption, Flag: "-recalc", Modes: modes(schema.ClientMode, schema.QServerMode)},
	{Name: contract.TmpDirOption, Flag: "-tmpdir", Modes: modes(schema.AllModes...), Quoted: true},
	{Name: contract.AdditionalFlagsOption, Modes: modes(schema.AllModes...)},
}

// isSet reports whether an option carries a value worth emitting.
func isSet(opt schema.CliOption, value string) bool {
	if value == "" {
		return false
	}
	return opt.Name != contract.ProjectOption || value != contract.DefaultProject
}

// ValidateOptions checks the option values against the mode.
// It returns a ConfigError for combinations that cannot run, and a warning
// for every option that is set but ignored in this mode.
func ValidateOptions(mode schema.Mode, values map[string]string) ([]string, error) {
	if mode == schema.QServerMode {
		project := values[contract.ProjectOption]
		if project == "" || project == contract.DefaultProject {
			return nil, &contract.ConfigError{
				Param:  contract.ProjectOption,
				Reason: fmt.Sprintf("running TICS with project '%s' is not possible in %s mode", project, mode),
			}
		}
	}

	var warnings []string
	for _, opt := range Options {
		if isSet(opt, values[opt.Name]) && !opt.AppliesTo(mode) {
			warnings = append(warnings, fmt.Sprintf("parameter '%s' is not applicable to mode '%s' and will not be used", opt.Name, mode))
		}
	}
	return warnings, nil
}
