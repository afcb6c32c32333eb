// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the relay server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the scan relay and forward uploads and OAuth redirects to the event bus",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (default: [server] port)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show the live relay monitor",
			},
			&cli.BoolFlag{
				Name:  "no-qr",
				Usage: "Do not print the scan URL as a QR code",
			},
			&cli.BoolFlag{
				Name:  "no-journal",
				Usage: "Do not record deliveries in the database",
			},
		},
		Action: r.Serve,
	}
}

// oauthCommand handles the desktop OAuth redirect capture
func oauthCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Loopback port the provider redirects to (default: [oauth] redirect_port)",
			},
			&cli.IntFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "Seconds to wait for the redirect (default: [oauth] timeout_seconds)",
			},
		}
	}

	return &cli.Command{
		Name:  "oauth",
		Usage: "Capture OAuth authorization codes",
		Commands: []*cli.Command{
			{
				Name:  "listen",
				Usage: "Wait for one redirect on the loopback port and print its code",
				Flags: append(flags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				}),
				Action: r.OAuthListen,
			},
			{
				Name:  "login",
				Usage: "Open the provider's consent page and capture the returned code",
				Flags: append(flags(), &cli.BoolFlag{
					Name:  "no-browser",
					Usage: "Print the authorization URL instead of opening a browser",
				}),
				Action: r.OAuthLogin,
			},
		},
	}
}

// configCommand inspects and creates configuration
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the resolved data directory, database location, sync interval and scan URL",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:  "init",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
					&cli.BoolFlag{
						Name:  "effective",
						Usage: "Write the configuration currently in effect instead of the commented example",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the delivery journal and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// eventsCommand reads the delivery journal
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Delivery journal commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List relayed events, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of events to show",
						Value:   20,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only show events with this name (scan-received, oauth-code-received)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.EventsList,
			},
		},
	}
}
