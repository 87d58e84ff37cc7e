package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/SzematPro/ai-task-manager/api"
	processSpanName    = "task.process.request"
	processEventName   = "ai_task_manager.process.request"
	processEventDomain = "app"
	observabilityEvent = "observability.event"

	attrRoute          = "http.route"
	attrStatusCode     = "http.status_code"
	attrTotalMillis    = "task.process.total_ms"
	attrSourceLanguage = "task.process.source_language"
	attrWasTranslated  = "task.process.was_translated"
	attrConfidence     = "task.process.analysis_confidence"
	attrErrorStage     = "task.process.error_stage"
	attrErrorMessage   = "error.message"
)

// processRequestMetrics times one submission through the pipeline and emits
// a single observability event as a log line and a span event.
type processRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	route  string
	start  time.Time

	stages         map[string]time.Duration
	sourceLanguage string
	wasTranslated  bool
	confidence     int
	errorStage     string
}

func newProcessRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*processRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, processSpanName, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(attribute.String(attrRoute, route))
	return &processRequestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
		stages: map[string]time.Duration{},
	}, spanCtx
}

// ObserveStages records the per-stage durations reported by the pipeline.
func (m *processRequestMetrics) ObserveStages(timings map[string]time.Duration) {
	for stage, d := range timings {
		if d > 0 {
			m.stages[stage] = d
		}
	}
}

func (m *processRequestMetrics) SetResult(sourceLanguage string, wasTranslated bool, confidence int) {
	m.sourceLanguage = sourceLanguage
	m.wasTranslated = wasTranslated
	m.confidence = confidence
}

func (m *processRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *processRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String(attrRoute, m.route),
		attribute.Int(attrStatusCode, status),
		attribute.Float64(attrTotalMillis, durationToMillis(time.Since(m.start))),
		attribute.Bool(attrWasTranslated, m.wasTranslated),
	}
	if m.sourceLanguage != "" {
		attrs = append(attrs, attribute.String(attrSourceLanguage, m.sourceLanguage))
	}
	if m.confidence > 0 {
		attrs = append(attrs, attribute.Int(attrConfidence, m.confidence))
	}
	for stage, d := range m.stages {
		attrs = append(attrs, attribute.Float64(stageAttr(stage), durationToMillis(d)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrErrorStage, m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorMessage, err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", processEventName),
			attribute.String("event.domain", processEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attributes := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attributes[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      processEventName,
		"event.domain":    processEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributes,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	m.logger.WithFields(fields).Log(levelForSeverity(severityNumber), observabilityEvent)
}

func stageAttr(stage string) string {
	return "task.process." + stage + "_ms"
}

// severityForStatus maps an HTTP outcome onto OpenTelemetry log severities.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func levelForSeverity(number int) log.Level {
	switch {
	case number >= 17:
		return log.ErrorLevel
	case number >= 13:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
