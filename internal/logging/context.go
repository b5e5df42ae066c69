package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAccount is the standardized structured logging key for managed account handles.
	FieldAccount = "account"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldStep is the standardized structured logging key for pipeline step names.
	FieldStep = "step"
	// FieldShortcode is the standardized structured logging key for source item shortcodes.
	FieldShortcode = "shortcode"
	// FieldSource is the standardized structured logging key for source account handles.
	FieldSource = "source"
	// FieldEventType tags log lines with a machine-readable event identifier.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested operator next step on warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	ctxKeyAccount contextKey = "account"
	ctxKeyRunID   contextKey = "run_id"
	ctxKeyStep    contextKey = "step"
)

// WithRun returns a context tagged with the account handle and run identifier
// of a pipeline run.
func WithRun(ctx context.Context, account, runID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyAccount, account)
	return context.WithValue(ctx, ctxKeyRunID, runID)
}

// WithStep returns a context tagged with the current pipeline step name.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, ctxKeyStep, step)
}

// AccountFromContext extracts the account handle recorded by WithRun.
func AccountFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(ctxKeyAccount).(string)
	return value, ok && value != ""
}

// RunIDFromContext extracts the run identifier recorded by WithRun.
func RunIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(ctxKeyRunID).(string)
	return value, ok && value != ""
}

// StepFromContext extracts the step name recorded by WithStep.
func StepFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(ctxKeyStep).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if account, ok := AccountFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAccount, account))
	}
	if runID, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, runID))
	}
	if step, ok := StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
