// Command jive inspects and edits large JSON documents from the command
// line, exercising the buffer-and-index engine without a terminal UI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dshills/jive/internal/app"
	"github.com/dshills/jive/internal/config"
	"github.com/dshills/jive/internal/engine/index"
)

func main() {
	cliApp := &cli.App{
		Name:  "jive",
		Usage: "inspect and edit large JSON files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			statCommand(),
			outlineCommand(),
			nodeCommand(),
			queryCommand(),
			setCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "jive:", err)
		os.Exit(1)
	}
}

// openDocument builds the application from flags and opens the file named
// by the first argument.
func openDocument(c *cli.Context) (*app.Application, error) {
	if c.Args().Len() < 1 {
		return nil, fmt.Errorf("missing file argument")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Open(c.Args().First()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func statCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "show document size, mode, and index summary",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			a, err := openDocument(c)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.Stat()
			if err != nil {
				return err
			}
			mode := "rope"
			if s.Mapped {
				mode = "mapped"
			}
			fmt.Printf("path:  %s\n", s.Path)
			fmt.Printf("bytes: %d\n", s.Bytes)
			fmt.Printf("lines: %d\n", s.Lines)
			fmt.Printf("mode:  %s\n", mode)
			fmt.Printf("nodes: %d\n", s.Nodes)
			return nil
		},
	}
}

func outlineCommand() *cli.Command {
	return &cli.Command{
		Name:      "outline",
		Usage:     "print the structural index as an indented tree",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "depth",
				Usage: "maximum nesting depth to print",
				Value: 2,
			},
		},
		Action: func(c *cli.Context) error {
			a, err := openDocument(c)
			if err != nil {
				return err
			}
			defer a.Close()

			maxDepth := c.Int("depth")
			for _, n := range a.Index().Nodes() {
				if n.Depth > maxDepth {
					continue
				}
				indent := strings.Repeat("  ", n.Depth)
				fmt.Printf("%s%s [%d:%d]%s\n",
					indent, n.Kind, n.Start, n.End, nodeLabel(a, n))
			}
			return nil
		},
	}
}

// nodeLabel renders a short content snippet for leaf nodes.
func nodeLabel(a *app.Application, n index.Node) string {
	if n.IsContainer() {
		return ""
	}
	text := a.Buffer().Slice(n.Start, n.End)
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return " " + text
}

func nodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "node",
		Usage:     "show the node at a byte offset and its ancestors",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "offset",
				Usage:    "byte offset to resolve",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			a, err := openDocument(c)
			if err != nil {
				return err
			}
			defer a.Close()

			chain := a.NodeChain(c.Int64("offset"))
			if len(chain) == 0 {
				return fmt.Errorf("no node at offset %d", c.Int64("offset"))
			}
			for i, n := range chain {
				fmt.Printf("%s%s [%d:%d] depth=%d\n",
					strings.Repeat("  ", i), n.Kind, n.Start, n.End, n.Depth)
			}
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "evaluate a gjson path and print the raw match",
		ArgsUsage: "FILE PATH",
		Action: func(c *cli.Context) error {
			a, err := openDocument(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if c.Args().Len() < 2 {
				return fmt.Errorf("missing query path")
			}
			raw, err := a.Query(c.Args().Get(1))
			if err != nil {
				return err
			}
			fmt.Println(raw)
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "write raw JSON at a sjson path and save the file",
		ArgsUsage: "FILE PATH VALUE",
		Action: func(c *cli.Context) error {
			a, err := openDocument(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if c.Args().Len() < 3 {
				return fmt.Errorf("usage: set FILE PATH VALUE")
			}
			if err := a.Set(c.Args().Get(1), c.Args().Get(2)); err != nil {
				return err
			}
			return a.SaveSync()
		},
	}
}
