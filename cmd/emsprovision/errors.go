package main

import "errors"

type userError struct {
	msg  string
	hint string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Hint() string  { return e.hint }

// asUserError unwraps err to a *userError when one is in the chain.
func asUserError(err error) (*userError, bool) {
	var ue *userError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
