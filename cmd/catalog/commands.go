package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gapless-controller/internal/catalog"
	"gapless-controller/internal/playback"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var errNoSource = errors.New("one of --file or --db is required")

type ListParams struct {
	File  string `short:"f" help:"Catalog JSON file." default:""`
	DB    string `long:"db" help:"Catalog SQLite database." default:""`
	Media string `short:"m" help:"Only list this media id." default:""`
	JSON  bool   `long:"json" help:"Output as JSON"`
}

type ImportParams struct {
	File string `short:"f" help:"Catalog JSON file to import."`
	DB   string `long:"db" help:"Target SQLite database."`
}

func ListCmd() *cobra.Command {
	return boa.CmdT[ListParams]{
		Use:         "ls",
		Aliases:     []string{"list"},
		Short:       "List songs with their virtual timeline positions",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *ListParams, cmd *cobra.Command, args []string) {
			if err := runList(cmd.Context(), params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "catalog ls: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func ImportCmd() *cobra.Command {
	return boa.CmdT[ImportParams]{
		Use:         "import",
		Short:       "Upsert a JSON catalog into a SQLite database",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *ImportParams, cmd *cobra.Command, args []string) {
			n, err := runImport(cmd.Context(), params)
			if err != nil {
				fmt.Fprintf(os.Stderr, "catalog import: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("imported %d songs into %s\n", n, params.DB)
		},
	}.ToCobra()
}

func loadSongs(ctx context.Context, file, db string) ([]playback.Interval, error) {
	switch {
	case db != "":
		src, err := catalog.OpenSQLite(db)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Songs(ctx)
	case file != "":
		return catalog.NewFileSource(file, nil).Songs(ctx)
	default:
		return nil, errNoSource
	}
}

func runList(ctx context.Context, params *ListParams, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	songs, err := loadSongs(ctx, params.File, params.DB)
	if err != nil {
		return err
	}
	songs = catalog.ForMedia(songs, params.Media)

	if params.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(songs)
	}
	renderSongs(w, songs)
	return nil
}

func runImport(ctx context.Context, params *ImportParams) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	songs, err := catalog.NewFileSource(params.File, nil).Songs(ctx)
	if err != nil {
		return 0, err
	}
	db, err := catalog.OpenSQLite(params.DB)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	if err := db.Upsert(ctx, songs...); err != nil {
		return 0, err
	}
	return len(songs), nil
}

// renderSongs prints one table row per song, grouped by medium, with the
// song's place on the gapless track. Media with an open-ended song show
// absolute positions.
func renderSongs(w io.Writer, songs []playback.Interval) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Media", "#", "Title", "Artist", "Start", "End", "Track", "Mode"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
	})

	media := lo.Uniq(lo.Map(songs, func(iv playback.Interval, _ int) string { return iv.MediaID }))
	sort.Strings(media)

	for _, id := range media {
		ix := playback.BuildIndex(songs, id)
		tl := playback.NewTimeline(ix, ix.LastEnd)
		mode := "absolute"
		if tl.Virtual() {
			mode = "gapless"
		}
		total := tl.DisplayDuration()
		for i, iv := range ix.Intervals {
			end := "open"
			if iv.HasEnd() {
				end = playback.FormatTime(iv.End, iv.End)
			}
			t.AppendRow(table.Row{
				id,
				i + 1,
				iv.Title,
				iv.Artist,
				playback.FormatTime(iv.Start, max(iv.Start, 1)),
				end,
				playback.FormatTime(tl.ToVirtual(iv.Start), total),
				mode,
			})
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", len(songs), "songs"})
	t.Render()
}
