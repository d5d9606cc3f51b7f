// Package telemetry wires OpenTelemetry tracing and metrics for regaudit.
//
// Spans cover one pipeline run ("pipeline.run"), each stage
// ("pipeline.stage.<name>"), and every completion call ("llm.complete").
// Export goes to an OTLP collector over gRPC or HTTP/protobuf and is off
// by default:
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tracer := tel.Tracer("regaudit/pipeline")
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
