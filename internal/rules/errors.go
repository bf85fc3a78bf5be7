package rules

import "fmt"

// InvalidDefinitionError is returned by Register when a policy definition is
// missing a required field or carries an invalid value.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	if e.Name == "" {
		return "invalid policy definition: " + e.Reason
	}
	return fmt.Sprintf("invalid policy definition %q: %s", e.Name, e.Reason)
}

// DuplicateNameError is returned by Register when a policy with the same name
// is already registered. The second definition is never added.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate policy name: %q", e.Name)
}
