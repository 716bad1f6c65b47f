package models

import "errors"

var (
	// ErrEmployeeNotFound is returned when an employee does not exist
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrTaskNotFound is returned when a task instance does not exist
	ErrTaskNotFound = errors.New("task not found")
	// ErrDefinitionNotFound is returned when no task definition resolves
	ErrDefinitionNotFound = errors.New("task definition not found")
	// ErrNotValid is returned when input fails validation
	ErrNotValid = errors.New("not valid")
)
