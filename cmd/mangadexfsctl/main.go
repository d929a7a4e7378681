// Command mangadexfsctl is the thin control-socket client for mangadexfsd
// (spec §6 "CLI surface (out of scope beyond this listing)").
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/mangadexfs/mangadexfs/internal/config"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var socketPath string

	root := &cobra.Command{
		Use:   "mangadexfsctl",
		Short: "Control a running mangadexfsd daemon",
	}
	defaultSocket, _ := config.DefaultSocketPath()
	root.PersistentFlags().StringVar(&socketPath, "socket", defaultSocket, "path to the daemon's control socket")

	root.AddCommand(
		newKillCommand(&socketPath),
		newLoginCommand(&socketPath),
		newLogoutCommand(&socketPath),
		newSearchCommand(&socketPath),
		newChapterCommand(&socketPath),
		newFollowsCommand(&socketPath),
		newMangaCommand(&socketPath),
		newMDListCommand(&socketPath),
	)

	return root
}

// roundTrip dials socketPath, sends cmd, reads one response, and sends
// EndConnection — matching spec §4.6's "one connection, one read/eval
// loop" from the client side of a single request.
func roundTrip(socketPath string, cmd wire.Command) (wire.Response, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := wire.EncodeCommand(conn, cmd); err != nil {
		return nil, fmt.Errorf("sending command: %w", err)
	}

	resp, err := wire.DecodeResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	_ = wire.EncodeCommand(conn, wire.EndConnectionCommand{})

	return resp, nil
}

func newKillCommand(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "kill",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip(*socketPath, wire.KillCommand{})
			return err
		},
	}
}

func newLoginCommand(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Authenticate with MangaDex",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*socketPath, &wire.LogInCommand{Username: args[0], Password: args[1]})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.LogInResponse).Err)
		},
	}
}

func newLogoutCommand(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current MangaDex session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*socketPath, wire.LogOutCommand{})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.LogOutResponse).Err)
		},
	}
}

func newSearchCommand(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Search the MangaDex catalog by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*socketPath, &wire.SearchCommand{Params: wire.SearchParams{Title: args[0]}})
			if err != nil {
				return err
			}
			r := resp.(*wire.SearchResponse)
			if r.Err != nil {
				return fmt.Errorf("%s", *r.Err)
			}
			for _, e := range r.Ok {
				fmt.Printf("%d\t%s\n", e.ID, e.Title)
			}
			return nil
		},
	}
}

func newFollowsCommand(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "follows",
		Short: "List the followed manga on your MangaDex account",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*socketPath, wire.FollowsCommand{})
			if err != nil {
				return err
			}
			r := resp.(*wire.FollowsResponse)
			if r.Err != nil {
				return fmt.Errorf("%s", *r.Err)
			}
			for _, e := range r.Ok {
				fmt.Printf("%d\t%s\t%d\n", e.ID, e.Title, e.Status)
			}
			return nil
		},
	}
}

func newChapterCommand(socketPath *string) *cobra.Command {
	chapter := &cobra.Command{
		Use:   "chapter",
		Short: "Mark chapters read or unread",
	}

	chapter.AddCommand(&cobra.Command{
		Use:   "mark <id>",
		Short: "Mark a chapter as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.MarkChapterReadCommand{ID: id})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.MarkChapterReadResponse).Err)
		},
	})

	chapter.AddCommand(&cobra.Command{
		Use:   "unmark <id>",
		Short: "Mark a chapter as unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.MarkChapterUnreadCommand{ID: id})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.MarkChapterUnreadResponse).Err)
		},
	})

	return chapter
}

func newMangaCommand(socketPath *string) *cobra.Command {
	manga := &cobra.Command{
		Use:   "manga",
		Short: "Add, follow, or unfollow manga",
	}

	manga.AddCommand(&cobra.Command{
		Use:   "add <id> [language...]",
		Short: "Materialize a manga into the mounted tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.AddMangaCommand{ID: id, Languages: args[1:]})
			if err != nil {
				return err
			}
			r := resp.(*wire.AddMangaResponse)
			if r.Err != nil {
				return fmt.Errorf("%s", *r.Err)
			}
			fmt.Printf("%s (outcome=%d)\n", r.Ok.Title, r.Ok.Outcome)
			return nil
		},
	})

	manga.AddCommand(&cobra.Command{
		Use:   "follow <id> <status>",
		Short: "Follow a manga with an MDList status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := parseID(args[1])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.FollowMangaCommand{ID: id, Status: uint8(status)})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.FollowMangaResponse).Err)
		},
	})

	manga.AddCommand(&cobra.Command{
		Use:   "unfollow <id>",
		Short: "Unfollow a manga",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.UnfollowMangaCommand{ID: id})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.UnfollowMangaResponse).Err)
		},
	})

	return manga
}

func newMDListCommand(socketPath *string) *cobra.Command {
	mdlist := &cobra.Command{
		Use:   "mdlist",
		Short: "View or modify your MDList",
	}

	mdlist.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List everything on your MDList",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*socketPath, &wire.MDListCommand{Params: wire.MDListParams{SortBy: wire.SortLastUpdatedDesc}})
			if err != nil {
				return err
			}
			r := resp.(*wire.MDListResponse)
			if r.Err != nil {
				return fmt.Errorf("%s", *r.Err)
			}
			for _, e := range r.Ok {
				fmt.Printf("%d\t%s\t%d\n", e.ID, e.Title, e.Status)
			}
			return nil
		},
	})

	mdlist.AddCommand(&cobra.Command{
		Use:   "add <id> <status>",
		Short: "Add a manga to your MDList with a status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := parseID(args[1])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.FollowMangaCommand{ID: id, Status: uint8(status)})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.FollowMangaResponse).Err)
		},
	})

	mdlist.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a manga from your MDList",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(*socketPath, &wire.UnfollowMangaCommand{ID: id})
			if err != nil {
				return err
			}
			return printErr(resp.(*wire.UnfollowMangaResponse).Err)
		},
	})

	return mdlist
}

func parseID(s string) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func printErr(errMsg *string) error {
	if errMsg != nil {
		return fmt.Errorf("%s", *errMsg)
	}
	return nil
}
