package server

import "errors"

var (
	errResourceNotFound = errors.New("resource not found")
	errPromptNotFound   = errors.New("prompt not found")
	errInvalidArguments = errors.New("invalid arguments")
)
