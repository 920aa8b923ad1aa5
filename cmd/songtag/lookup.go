package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

type textLookup func(s core.Service, ctx context.Context, tag songtag.SongTag) (core.TextResult, error)

func lyricCommand() *cobra.Command {
	return textCommand("lyric <provider> <lyric-id>", "Fetch the lyric for a search result", core.Service.Lyric)
}

func urlCommand() *cobra.Command {
	return textCommand("url <provider> <song-id>", "Fetch the playable url for a search result", core.Service.SongURL)
}

func picCommand() *cobra.Command {
	return textCommand("pic <provider> <pic-id>", "Fetch the artwork url for a search result", core.Service.PictureURL)
}

func textCommand(use string, short string, fn textLookup) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			tag, err := tagFromArgs(args[0], args[1])
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()

			result, err := fn(app.service, ctx, tag)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func embedCommand() *cobra.Command {
	var title, artist, album string

	cmd := &cobra.Command{
		Use:   "embed <provider> <song-id> <file>",
		Short: "Write lyric, artwork and tags from a search result into an audio file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			tag, err := tagFromArgs(args[0], args[1])
			if err != nil {
				return err
			}
			tag.Title = title
			tag.Artist = artist
			tag.Album = album

			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.Embed(ctx, tag, args[2])
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title to write")
	cmd.Flags().StringVar(&artist, "artist", "", "artist to write")
	cmd.Flags().StringVar(&album, "album", "", "album to write")
	return cmd
}

// tagFromArgs builds a tag from a provider name and id. Every provider uses
// the song id for lyric and artwork lookups as well.
func tagFromArgs(providerName string, id string) (songtag.SongTag, error) {
	provider, err := songtag.ParseProvider(providerName)
	if err != nil {
		return songtag.SongTag{}, core.WrapError(core.ExitUsage, "provider", err)
	}
	return songtag.SongTag{
		SongID:          id,
		LyricID:         id,
		PicID:           id,
		ServiceProvider: provider,
		LangExt:         songtag.LangChinese,
	}, nil
}
