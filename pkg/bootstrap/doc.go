// Package bootstrap wires the fault-handling stack from configuration.
//
// This package consolidates initialization logic including:
//   - Logger setup with file rotation
//   - Redis connection for fault counters
//   - Kafka producer for fault events
//   - OpenTelemetry tracing initialization
//   - The Translator with its diagnostics sinks and metrics
//
// Example usage:
//
//	func main() {
//	    cfg, err := config.Load()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := bootstrap.InitLogger(cfg.Log, cfg.App.Name); err != nil {
//	        log.Fatal(err)
//	    }
//	    stack, err := bootstrap.InitFaultStack(ctx, cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer stack.Close(ctx)
//
//	    boundary := httpx.NewBoundary(stack.Translator)
//	}
package bootstrap
