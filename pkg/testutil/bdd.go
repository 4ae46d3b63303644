package testutil

import "testing"

// Given, When and Then name nested subtests so a scenario reads top down in
// `go test -v` output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}

// Scenario runs the same Given/When/Then shape for each case in a table.
func Scenario[C any](t *testing.T, given string, cases map[string]C, fn func(t *testing.T, c C)) {
	t.Helper()
	Given(t, given, func(t *testing.T) {
		for name, c := range cases {
			When(t, name, func(t *testing.T) {
				fn(t, c)
			})
		}
	})
}
