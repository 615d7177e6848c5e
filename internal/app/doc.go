// Package app wires the DOL analysis service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (or take it from the CLI)
//  2. Initialize logging and OpenTelemetry
//  3. Create the websocket hub, pipeline, workbook loader and services
//  4. Set up middleware and HTTP routes
//  5. Create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// Run returns after SIGINT, SIGTERM or cancellation of ctx, once in-flight
// requests finished, websocket clients were closed and telemetry was
// flushed. The package never calls os.Exit.
package app
