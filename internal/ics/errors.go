package ics

import "fmt"

// ParseError reports calendar text that cannot be read as iCalendar data.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid iCal data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedRuleError reports an RRULE the recurrence engine cannot expand.
type UnsupportedRuleError struct {
	UID  string
	Rule string
	Err  error
}

func (e *UnsupportedRuleError) Error() string {
	return fmt.Sprintf("unsupported recurrence rule %q (uid %s): %v", e.Rule, e.UID, e.Err)
}

func (e *UnsupportedRuleError) Unwrap() error {
	return e.Err
}
