// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// imagesCommand handles image listing and deletion against the controller
func imagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "images",
		Aliases: []string{"img"},
		Usage:   "Image operations against the controller",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all images in the fleet",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: txt, csv, markdown, json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write listing to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "deleted",
						Usage: "Include deleted images in the output",
					},
				},
				Action: r.ImagesList,
			},
			{
				Name:  "delete",
				Usage: "Submit a bulk deletion for the given image ids",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "ids",
						Min:  0,
						Max:  -1,
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ImagesDelete,
			},
			{
				Name:   "status",
				Usage:  "Check controller availability (calls /api/health)",
				Action: r.ImagesStatus,
			},
		},
	}
}

// apiCommand handles direct controller API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the controller",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the controller, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for the local controller database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the controller API locally.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the controller API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Seed demo records into an empty database",
			},
		},
		Action: r.Serve,
	}
}

// browseCommand returns the top-level TUI command for interactive image management.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive image browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Browse,
	}
}
