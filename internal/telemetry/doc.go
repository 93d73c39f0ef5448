// Package telemetry exports traces and metrics over OTLP.
//
// Export is off unless telemetry.enabled is set. The collector endpoint
// takes gRPC (default) or HTTP; plaintext is only accepted for loopback
// addresses:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//	  insecure: true
//
// Every span and metric carries service.name, service.version and the
// configured ai.provider and ai.model. A failed exporter never stops the
// app; DegradedReason says which signal fell back to no-op.
//
// TestTelemetry keeps spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	client, _ := gateway.New(ctx, cfg, gateway.WithTelemetry(tt.Telemetry))
//	tt.AssertSpanExists(t, "gateway.generate_once")
package telemetry
