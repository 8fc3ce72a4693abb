// Package app wires the dashboard server together and runs it.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and EVDASH_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Load and prepare the five input datasets (fatal on any bad file)
//  4. Build the report pipeline, session store and dashboard services
//  5. Mount handlers and middleware on a chi router
//  6. Create the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run serves until SIGINT or SIGTERM. The HTTP server, the session sweeper
// and the live hub share one errgroup; cancelling it drains in-flight
// requests, sends live clients a shutdown frame and flushes telemetry.
//
// The package never calls os.Exit; errors are returned to main.
package app
