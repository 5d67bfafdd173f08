// Command uscview serves and maintains a United States Code dataset:
// it runs the viewer web server, builds the search index, merges TOC
// fragments and validates dataset markup.
package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/lawtext/uscview/internal/index"
	"github.com/lawtext/uscview/internal/loader"
	"github.com/lawtext/uscview/internal/logging"
	"github.com/lawtext/uscview/internal/validate"
	"github.com/lawtext/uscview/internal/view"
	"github.com/lawtext/uscview/internal/web"
)

const version = "0.1.0"

// CLI defines the command-line interface for uscview.
var CLI struct {
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `help:"Log format (text, json)" default:"text"`

	Serve   ServeCmd   `cmd:"" help:"Start the viewer web server"`
	Index   IndexCmd   `cmd:"" help:"Build the search index for a dataset"`
	Verify  VerifyCmd  `cmd:"" help:"Validate dataset markup"`
	Toc     TocCmd     `cmd:"" help:"Merge per-title TOC fragments into toc.json"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ServeCmd starts the viewer web server.
type ServeCmd struct {
	Port    int    `help:"HTTP server port" default:"8080"`
	Data    string `help:"Dataset directory" default:"./data" type:"path"`
	Index   string `help:"Search index path (optional)" type:"path"`
	TLSCert string `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey  string `name:"tls-key" help:"TLS private key file" type:"path"`
}

func (c *ServeCmd) Run() error {
	cfg := web.Config{
		Port:      c.Port,
		DataDir:   c.Data,
		IndexPath: c.Index,
	}
	if c.TLSCert != "" || c.TLSKey != "" {
		cfg.TLS = web.TLSConfig{Enabled: true, CertFile: c.TLSCert, KeyFile: c.TLSKey}
	}

	srv, err := web.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Start()
}

// IndexCmd builds the SQLite search index for a dataset.
type IndexCmd struct {
	Data   string   `help:"Dataset directory" default:"./data" type:"path"`
	Out    string   `help:"Index output path" default:"./uscview.db" type:"path"`
	Titles []string `help:"Title numbers to index (default: all loaded)"`
}

func (c *IndexCmd) Run() error {
	store := loader.NewStore(c.Data)
	views := view.NewManager(store, view.DefaultConfig())

	titles := c.Titles
	if len(titles) == 0 {
		toc, err := store.Toc()
		if err != nil {
			return fmt.Errorf("loading table of contents: %w", err)
		}
		for _, t := range toc.Titles {
			titles = append(titles, t.Number)
		}
	}

	ix, err := index.Open(c.Out)
	if err != nil {
		return err
	}
	defer ix.Close()

	cfg := view.DefaultConfig()
	ctx := context.Background()
	total := 0
	for _, title := range titles {
		sections, err := store.Sections(title)
		if err != nil {
			return fmt.Errorf("loading title %s: %w", title, err)
		}
		count, err := ix.BuildTitle(ctx, title, sections)
		if err != nil {
			return fmt.Errorf("indexing title %s: %w", title, err)
		}
		if tc, ok := cfg[title]; ok {
			if tc.PrimarySection != "" {
				st, err := views.Activate(title, tc.PrimarySection)
				if err != nil {
					return fmt.Errorf("deriving t%s/s%s: %w", title, tc.PrimarySection, err)
				}
				if err := ix.IndexTerms(ctx, title, tc.PrimarySection, st.Primary); err != nil {
					return fmt.Errorf("indexing terms of t%s: %w", title, err)
				}
			}
			// Subsection-local records live on their own sections.
			for _, scope := range tc.LocalScopes {
				st, err := views.Activate(title, scope.Section)
				if err != nil {
					return fmt.Errorf("deriving t%s/s%s: %w", title, scope.Section, err)
				}
				if err := ix.IndexTerms(ctx, title, scope.Section, st.Local); err != nil {
					return fmt.Errorf("indexing terms of t%s: %w", title, err)
				}
			}
		}
		total += count
	}

	fmt.Printf("Indexed %d sections across %d titles (%s)\n", total, len(titles), index.DriverInfo())
	return nil
}

// VerifyCmd validates dataset markup.
type VerifyCmd struct {
	Data   string   `help:"Dataset directory" default:"./data" type:"path"`
	Titles []string `help:"Title numbers to verify (default: all in TOC)"`
}

func (c *VerifyCmd) Run() error {
	store := loader.NewStore(c.Data)

	titles := c.Titles
	if len(titles) == 0 {
		toc, err := store.Toc()
		if err != nil {
			return fmt.Errorf("loading table of contents: %w", err)
		}
		for _, t := range toc.Titles {
			titles = append(titles, t.Number)
		}
	}

	problems := 0
	for _, title := range titles {
		found, err := validate.CheckTitle(store, title)
		if err != nil {
			return fmt.Errorf("verifying title %s: %w", title, err)
		}
		for _, p := range found {
			fmt.Println(p)
		}
		problems += len(found)
	}

	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	fmt.Println("OK")
	return nil
}

// TocCmd merges per-title TOC fragments into a single toc.json.
type TocCmd struct {
	Data         string `help:"Dataset directory containing toc-N.json fragments" default:"./data" type:"path"`
	Out          string `help:"Merged TOC output path" default:"./data/toc.json" type:"path"`
	ReleasePoint string `name:"release-point" help:"Release point label for the merged TOC"`
	Updated      string `help:"Publication date (YYYY-MM-DD) for the merged TOC"`
}

func (c *TocCmd) Run() error {
	toc, err := loader.WriteMerged(c.Data, c.Out, c.ReleasePoint, c.Updated)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d titles into %s\n", len(toc.Titles), c.Out)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("uscview %s (search driver: %s)\n", version, index.DriverInfo())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("uscview"),
		kong.Description("United States Code viewer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
