package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/filex"
	"github.com/dmitrijs2005/gophvote/internal/netx"
)

const timeLayout = "2006-01-02 15:04:05"

func (a *App) List(ctx context.Context) error {
	list, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No proposals yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tOWNER\tYES\tNO")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Title, p.Owner, p.YesVotes, p.NoVotes)
	}
	return w.Flush()
}

func (a *App) Get(ctx context.Context, id string) error {
	p, err := a.client.Get(ctx, id)
	if err != nil {
		return err
	}
	printProposal(a.out, p)
	return nil
}

func (a *App) Create(ctx context.Context) error {
	title, description, err := a.promptProposal()
	if err != nil {
		return err
	}

	p, err := a.client.Create(ctx, title, description)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created proposal %s\n", p.ID)
	return nil
}

func (a *App) VoteYes(ctx context.Context, id string) error {
	return a.vote(ctx, id, a.client.VoteYes)
}

func (a *App) VoteNo(ctx context.Context, id string) error {
	return a.vote(ctx, id, a.client.VoteNo)
}

func (a *App) vote(ctx context.Context, id string, cast func(context.Context, string) (*api.Proposal, error)) error {
	p, err := cast(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Vote recorded. Yes: %d, No: %d\n", p.YesVotes, p.NoVotes)
	return nil
}

func (a *App) Update(ctx context.Context, id string) error {
	title, description, err := a.promptProposal()
	if err != nil {
		return err
	}

	if _, err := a.client.Update(ctx, id, title, description); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Updated proposal %s\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	p, err := a.client.Delete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted proposal %s (%q)\n", p.ID, p.Title)
	return nil
}

// download and saveTo are test seams for fetching and storing exports.
var download = netx.DownloadPresignedURL
var saveTo = filex.SaveTo

// Export archives all proposals server-side. When dir is set the archive
// is also fetched through its presigned link and written there.
func (a *App) Export(ctx context.Context, dir string) error {
	exp, err := a.client.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d proposals to %s\nDownload: %s\n", exp.Count, exp.Key, exp.URL)

	if dir == "" {
		return nil
	}

	data, err := download(ctx, exp.URL)
	if err != nil {
		return fmt.Errorf("error downloading export: %w", err)
	}
	path, err := saveTo(dir, exp.Key, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

func (a *App) promptProposal() (string, string, error) {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return "", "", err
	}
	description, err := getMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return "", "", err
	}
	return title, description, nil
}

func printProposal(w io.Writer, p *api.Proposal) {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	fmt.Fprintf(w, "Owner:       %s\n", p.Owner)
	fmt.Fprintf(w, "Yes / No:    %d / %d\n", p.YesVotes, p.NoVotes)
	fmt.Fprintf(w, "Voters:      %s\n", strings.Join(p.Voters, ", "))
	fmt.Fprintf(w, "Created:     %s\n", p.CreatedAt.Local().Format(timeLayout))
	if p.UpdatedAt != nil {
		fmt.Fprintf(w, "Updated:     %s\n", p.UpdatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintf(w, "\n%s\n", p.Description)
}

