package config

import (
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Filter is a condition notes must satisfy to be listed. The condition is
// an expr expression evaluated against FilterNoteEnv; see
// https://expr-lang.org/docs/language-definition for the syntax.
type Filter struct {
	Condition string `yaml:"condition" validate:"required"`

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// FilterNoteEnv describes a note to filters. The expr tag names the
// variable; without it all variables start with capitalized letters.
type FilterNoteEnv struct {
	ID        string    `expr:"id"`
	Owner     string    `expr:"owner"`
	Title     string    `expr:"title"`
	Headings  []string  `expr:"headings"`
	Blocks    int       `expr:"blocks"`
	Tasks     int       `expr:"tasks"`
	OpenTasks int       `expr:"open_tasks"`
	CreatedAt time.Time `expr:"created_at"`
	UpdatedAt time.Time `expr:"updated_at"`
}

func (f *Filter) Evaluate(env FilterNoteEnv) (bool, error) {
	f.once.Do(func() {
		program, err := expr.Compile(
			f.Condition,
			expr.Env(FilterNoteEnv{}),
			expr.AsBool(),
		)
		f.program, f.compileErr = program, errors.Wrap(err, "failed to compile filter program")
	})

	if f.program == nil {
		return false, f.compileErr
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.Wrap(err, "failed to run filter program")
	}
	return result.(bool), nil
}

// Match reports whether env satisfies all filters.
func Match(filters []*Filter, env FilterNoteEnv) (bool, error) {
	for _, f := range filters {
		ok, err := f.Evaluate(env)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
