package verifier

import (
	"lineage-verifier/backend/pkg/config"
)

// FromConfig builds run options from application configuration.
func FromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	if !cfg.RaiseException {
		opts.OnSoftViolation = LogOnly
	}
	opts.KnownProblemCases = append(opts.KnownProblemCases, cfg.KnownProblemCases...)
	opts.SimilarPersonExceptions = append(opts.SimilarPersonExceptions, cfg.SimilarPersonExceptions...)

	if err := opts.Toggle(cfg.EnableStages, cfg.DisableStages); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Toggle enables and disables stages by name
func (o *Options) Toggle(enable, disable []string) error {
	for _, name := range enable {
		s, err := ParseStage(name)
		if err != nil {
			return err
		}
		o.Enable(s)
	}
	for _, name := range disable {
		s, err := ParseStage(name)
		if err != nil {
			return err
		}
		o.Disable(s)
	}
	return nil
}

// Clone copies the option collections so per-request changes stay local
func (o Options) Clone() Options {
	o.KnownProblemCases = append([]string{}, o.KnownProblemCases...)
	o.SimilarPersonExceptions = append([]string{}, o.SimilarPersonExceptions...)
	o.CousinLevels = append([]int(nil), o.CousinLevels...)
	stages := make(map[Stage]bool, len(o.Stages))
	for k, v := range o.Stages {
		stages[k] = v
	}
	o.Stages = stages
	return o
}
