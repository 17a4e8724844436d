package staffcli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/types/known/structpb"
)

// reviewAPI is the part of Client the console uses.
type reviewAPI interface {
	Ping(ctx context.Context) error
	ListPending(ctx context.Context, page, pageSize int) (*structpb.Struct, error)
	GetApplication(ctx context.Context, id string) (*structpb.Struct, error)
	Approve(ctx context.Context, id string) (*structpb.Struct, error)
	Reject(ctx context.Context, id, reason string) (*structpb.Struct, error)
	CheckMembership(ctx context.Context, applicantID string) (*structpb.Struct, error)
}

// App is the interactive staff console.
type App struct {
	api      reviewAPI
	pageSize int
	out      io.Writer
}

func NewApp(api reviewAPI, pageSize int, out io.Writer) *App {
	return &App{api: api, pageSize: pageSize, out: out}
}

// Run reads commands from stdin until EOF or exit.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Guildgate review console (type 'help' for commands)")
	runREPL(ctx, a, bufio.NewScanner(os.Stdin), a.out)
}

func (a *App) List(ctx context.Context, page int) error {
	res, err := a.api.ListPending(ctx, page, a.pageSize)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, formatPage(res))
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	res, err := a.api.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, formatApplication(res))
	return nil
}

func (a *App) Approve(ctx context.Context, id string) error {
	res, err := a.api.Approve(ctx, id)
	if err != nil {
		return err
	}
	a.printDecision(res)
	return nil
}

func (a *App) Reject(ctx context.Context, id, reason string) error {
	res, err := a.api.Reject(ctx, id, reason)
	if err != nil {
		return err
	}
	a.printDecision(res)
	return nil
}

func (a *App) printDecision(res *structpb.Struct) {
	fmt.Fprint(a.out, formatApplication(res.GetFields()["application"].GetStructValue()))
	if !res.GetFields()["applicant_notified"].GetBoolValue() {
		fmt.Fprintln(a.out, "  Note: the applicant could not be notified.")
	}
}

func (a *App) Member(ctx context.Context, applicantID string) error {
	res, err := a.api.CheckMembership(ctx, applicantID)
	if err != nil {
		return err
	}
	if !res.GetFields()["member"].GetBoolValue() {
		fmt.Fprintf(a.out, "%s is not a member.\n", applicantID)
		return nil
	}
	app := res.GetFields()["application"].GetStructValue()
	fmt.Fprintf(a.out, "%s is a member (application %s, approved by %s).\n", applicantID, str(app, "id"), str(app, "reviewed_by"))
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}
