// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package supervisor runs shelfmark's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("shelfmark")
	├── DataSupervisor ("data-layer")
	│   └── RebuildService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService (if EVENTS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events
are logged through sutureslog into the zerolog-backed slog handler from
the logging package.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewRebuildService(engine, rebuildCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

See the services subpackage for the service wrappers.
*/
package supervisor
