// Package wizard implements a generic multi-step form wizard: a fixed list of
// steps, a current step index, accumulated form data and a validation gate on
// forward navigation.
//
// The controller owns navigation only. Rendering is delegated to a render
// callback invoked after every successful navigation, and persistence of the
// completed form data is left to the caller of Complete.
//
// All operations are synchronous and a State is owned by a single caller, so
// nothing here takes a lock. Validators must be pure: they receive a copy of
// the form data and report problems as a ValidationResult instead of an error.
package wizard
