package gocrm

import (
	"fmt"
	"regexp"
	"strings"
)

var crmPattern = regexp.MustCompile(`^\d+$`)

// ValidateCriteria checks criteria and returns a normalized copy with the state
// upper-cased. Rules are checked in order (state, CRM, name) and the first
// violation is returned as an *Error.
func ValidateCriteria(criteria SearchCriteria) (SearchCriteria, error) {
	state := strings.ToUpper(strings.TrimSpace(criteria.State))
	if state == "" {
		return SearchCriteria{}, newError(ErrCodeInvalidState, "state (UF) is required", nil)
	}
	if !IsValidState(state) {
		return SearchCriteria{}, newError(ErrCodeInvalidState,
			fmt.Sprintf("invalid state %q: must be a valid Brazilian UF", criteria.State), nil)
	}

	normalized := SearchCriteria{State: state}

	if criteria.CRM != nil {
		if !crmPattern.MatchString(*criteria.CRM) {
			return SearchCriteria{}, newError(ErrCodeInvalidCRM, "CRM must contain only numbers", nil)
		}
		normalized.CRM = String(*criteria.CRM)
	}

	if criteria.Name != nil {
		name := strings.TrimSpace(*criteria.Name)
		if name == "" {
			return SearchCriteria{}, newError(ErrCodeInvalidName, "name cannot be empty", nil)
		}
		normalized.Name = String(name)
	}

	return normalized, nil
}
