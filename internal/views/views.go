// Package views holds the templ components rendered by the handlers. The *_templ.go
// files are generated from the .templ sources.
package views

//go:generate templ generate
