// Package telemetry wires up the structured logger the crdt package's
// Logger seam expects. *zap.SugaredLogger already implements that seam's
// Debugw/Infow shape directly — there's no adapter type to write, just a
// couple of constructors matching how the pack's services build their
// loggers.
package telemetry

import "go.uber.org/zap"

// NewProduction returns a JSON-structured, production-configured logger
// suitable for crdt.WithLogger.
func NewProduction() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// NewDevelopment returns a human-readable, development-configured logger
// suitable for crdt.WithLogger.
func NewDevelopment() (*zap.SugaredLogger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
