package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/mapper"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

var (
	cabinStyle    = lipgloss.NewStyle().Width(9)
	occupiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	closedStyle   = lipgloss.NewStyle().Faint(true)
)

type cli struct {
	out           io.Writer
	api           *client.Client
	conversations *chat.ConversationStore
	streamTimeout time.Duration
	recentLimit   int
	logger        *slog.Logger
	now           func() time.Time
}

type command struct {
	name    string
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"login", "sign in (--admin for the back office)", (*cli).login},
		{"logout", "forget the stored token", (*cli).logout},
		{"whoami", "show the signed-in user", (*cli).whoami},
		{"trips", "upcoming and recent trips", (*cli).trips},
		{"orders", "list orders (--tab, --sort, --asc)", (*cli).orders},
		{"order", "show one order: order ID", (*cli).order},
		{"seats", "seat map for an item: order ID, item ID", (*cli).seats},
		{"checkin", "check in an item: order ID, item ID, --seat", (*cli).checkin},
		{"cancel", "preview or confirm cancellation: order ID, --date", (*cli).cancel},
		{"reschedule", "change an item's flight date: item ID, date", (*cli).reschedule},
		{"upgrade", "change an item's cabin: item ID, cabin", (*cli).upgrade},
		{"chat", "ask the assistant (--conversation to continue one)", (*cli).chat},
		{"conversations", "list stored conversations", (*cli).listConversations},
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	name := args[0]
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(c, ctx, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func (c *cli) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrValidation, name, value)
	}
	return id, nil
}

func expectArgs(flagSet *pflag.FlagSet, names ...string) error {
	if flagSet.NArg() != len(names) {
		return fmt.Errorf("%w: expected %s", domain.ErrValidation, strings.Join(names, ", "))
	}
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	flagSet := newFlags("login")
	admin := flagSet.Bool("admin", false, "use the back-office login")
	user := flagSet.StringP("user", "u", "", "username")
	password := flagSet.StringP("password", "p", "", "password")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *user == "" || *password == "" {
		return fmt.Errorf("%w: --user and --password are required", domain.ErrValidation)
	}

	creds := domain.Credentials{Username: *user, Password: *password}
	var (
		token *domain.TokenResponse
		err   error
	)
	if *admin {
		token, err = c.api.AdminLogin(ctx, creds)
	} else {
		token, err = c.api.Login(ctx, creds)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s (%s)\n", *user, token.Role)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *cli) whoami(ctx context.Context, _ []string) error {
	user, err := c.api.Me(ctx)
	if err != nil {
		return err
	}
	name := user.RealName
	if name == "" {
		name = user.Username
	}
	fmt.Fprintf(c.out, "%s (#%d, %s)\n", name, user.ID, c.api.Session().Role())
	return nil
}

func (c *cli) trips(ctx context.Context, _ []string) error {
	orders, err := c.api.ListOrders(ctx, domain.OrderFilter{Limit: 20})
	if err != nil {
		return err
	}
	trips := mapper.RecentTrips(orders, c.clock(), c.recentLimit)
	if len(trips) == 0 {
		fmt.Fprintln(c.out, "no upcoming trips")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tTRIP\tFROM\tSTATUS\tDETAILS")
	for _, t := range trips {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Date, t.Time, t.Title, t.Location, t.StatusText, t.Details)
	}
	return w.Flush()
}

func (c *cli) orders(ctx context.Context, args []string) error {
	flagSet := newFlags("orders")
	tab := flagSet.String("tab", string(mapper.TabAll), "all, unpaid, paid, completed or cancelled")
	sortKey := flagSet.String("sort", string(mapper.SortByTime), "time or amount")
	asc := flagSet.Bool("asc", false, "ascending order")
	limit := flagSet.Int("limit", 50, "page size")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	orders, err := c.api.ListOrders(ctx, domain.OrderFilter{Limit: *limit})
	if err != nil {
		return err
	}
	cards := mapper.FilterCards(mapper.OrderCards(orders), mapper.OrderTab(*tab))
	mapper.SortCards(cards, mapper.SortKey(*sortKey), !*asc)

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSTATUS\tPAYMENT\tTOTAL\tITEMS")
	for _, card := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", card.OrderNo, card.StatusLabel, card.PaymentLabel, card.Total, len(card.Items))
	}
	return w.Flush()
}

func (c *cli) load(ctx context.Context, orderArg string) (*checkin.Synchronizer, error) {
	orderID, err := parseID("order ID", orderArg)
	if err != nil {
		return nil, err
	}
	booking := checkin.NewSynchronizer(c.api, checkin.WithLogger(c.logger))
	if _, err := booking.LoadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (c *cli) order(ctx context.Context, args []string) error {
	flagSet := newFlags("order")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "order ID"); err != nil {
		return err
	}
	booking, err := c.load(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	order := booking.Snapshot()
	card := mapper.OrderCards([]domain.Order{*order})[0]

	fmt.Fprintf(c.out, "%s  %s/%s  %s\n", card.OrderNo, card.StatusLabel, card.PaymentLabel, card.Total)
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tFLIGHT\tCABIN\tPASSENGER\tSEAT\tCHECKED IN\tPRICE")
	for _, row := range mapper.ItemRows(card) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n", row.ItemID, row.Label, row.Cabin, row.Passenger, row.Seat, row.CheckedIn, row.PriceLabel)
	}
	return w.Flush()
}

func (c *cli) seats(ctx context.Context, args []string) error {
	flagSet := newFlags("seats")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "order ID", "item ID"); err != nil {
		return err
	}
	booking, err := c.load(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	itemID, err := parseID("item ID", flagSet.Arg(1))
	if err != nil {
		return err
	}
	grid, err := booking.SeatGrid(itemID)
	if err != nil {
		return err
	}
	writeGrid(c.out, grid)
	return nil
}

// writeGrid prints one line per row. Occupied seats show as x, seats in
// another cabin as a dot.
func writeGrid(out io.Writer, grid []checkin.GridRow) {
	for _, row := range grid {
		var b strings.Builder
		fmt.Fprintf(&b, "%2d %s", row.Row, cabinStyle.Render(string(row.Cabin)))
		for _, seat := range row.Seats {
			mark := seat.Column
			switch {
			case seat.State == checkin.SeatOccupied:
				mark = occupiedStyle.Render("x")
			case seat.State == checkin.SeatSelected:
				mark = selectedStyle.Render("*")
			case !seat.Selectable:
				mark = closedStyle.Render(".")
			}
			b.WriteString(" " + mark)
		}
		fmt.Fprintln(out, b.String())
	}
}

func (c *cli) checkin(ctx context.Context, args []string) error {
	flagSet := newFlags("checkin")
	seat := flagSet.String("seat", "", "seat code, e.g. 12C")
	baggage := flagSet.String("baggage", checkin.DefaultBaggage, "checked baggage option")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "order ID", "item ID"); err != nil {
		return err
	}
	booking, err := c.load(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	itemID, err := parseID("item ID", flagSet.Arg(1))
	if err != nil {
		return err
	}
	if err := booking.SelectSeat(itemID, *seat); err != nil {
		return err
	}
	if err := booking.SelectBaggage(itemID, *baggage); err != nil {
		return err
	}
	result, err := booking.ConfirmCheckIn(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "checked in item %d, seat %s\n", result.Item.ID, result.Seat)
	if result.BaggageFee > 0 {
		fmt.Fprintf(c.out, "baggage: %s, fee %s\n", result.Baggage.Description, result.BaggageFee)
	}
	return nil
}

func (c *cli) cancel(ctx context.Context, args []string) error {
	flagSet := newFlags("cancel")
	date := flagSet.String("date", "", "flight date, YYYY-MM-DD")
	confirm := flagSet.Bool("confirm", false, "cancel after showing the preview")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "order ID"); err != nil {
		return err
	}
	booking, err := c.load(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	preview, err := booking.PreviewCancellation(ctx, *date)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPAID\tPENALTY\tREFUND")
	for _, it := range preview.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.ItemID, it.PaidPrice, it.Penalty, it.Refund)
	}
	fmt.Fprintf(w, "total\t\t%s\t%s\n", preview.PenaltyTotal, preview.RefundTotal)
	if err := w.Flush(); err != nil {
		return err
	}
	if !*confirm {
		fmt.Fprintln(c.out, "estimate only; rerun with --confirm to cancel")
		return nil
	}

	order, err := booking.ConfirmCancellation(ctx, *date)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %s is %s, payment %s\n", order.OrderNo, order.Status, order.PaymentStatus)
	return nil
}

func (c *cli) reschedule(ctx context.Context, args []string) error {
	flagSet := newFlags("reschedule")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "item ID", "date"); err != nil {
		return err
	}
	itemID, err := parseID("item ID", flagSet.Arg(0))
	if err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", flagSet.Arg(1)); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	item, err := c.api.UpdateItemDate(ctx, itemID, flagSet.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "item %d moved to %s\n", item.ID, derefOr(item.FlightDate, flagSet.Arg(1)))
	return nil
}

func (c *cli) upgrade(ctx context.Context, args []string) error {
	flagSet := newFlags("upgrade")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(flagSet, "item ID", "cabin"); err != nil {
		return err
	}
	itemID, err := parseID("item ID", flagSet.Arg(0))
	if err != nil {
		return err
	}
	item, err := c.api.ChangeCabin(ctx, itemID, domain.CabinClass(strings.ToLower(flagSet.Arg(1))))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "item %d is now %s, paid %s\n", item.ID, mapper.CabinLabel(item.CabinClass), item.PaidPrice)
	return nil
}

func (c *cli) chat(ctx context.Context, args []string) error {
	flagSet := newFlags("chat")
	convID := flagSet.String("conversation", "", "conversation ID to continue")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(flagSet.Args(), " "))
	if text == "" {
		return fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}

	if *convID == "" {
		conv, err := c.conversations.Create(ctx, titleFrom(text))
		if err != nil {
			return err
		}
		*convID = conv.ID
		fmt.Fprintf(c.out, "conversation %s\n", conv.ID)
	}

	assistant := chat.NewAssistant(c.api, c.conversations,
		chat.WithStreamTimeout(c.streamTimeout),
		chat.WithAssistantLogger(c.logger),
	)
	var streamed strings.Builder
	reply, err := assistant.Send(ctx, *convID, text, func(ev domain.ChatEvent) {
		if ev.Kind == domain.ChatEventDelta {
			streamed.WriteString(ev.Delta)
			fmt.Fprint(c.out, ev.Delta)
		}
	})
	if err != nil {
		return err
	}
	switch {
	case reply.Fallback:
		fmt.Fprint(c.out, reply.Message.Content)
	case streamed.Len() < len(reply.Message.Content):
		// Order digests are prepended locally and never streamed.
		prefix := strings.TrimSuffix(reply.Message.Content, streamed.String())
		fmt.Fprint(c.out, "\n\n"+strings.TrimSpace(prefix))
	}
	fmt.Fprintln(c.out)
	for _, s := range reply.Suggestions {
		fmt.Fprintf(c.out, "  > %s\n", s.Label)
	}
	return nil
}

func (c *cli) listConversations(ctx context.Context, _ []string) error {
	convs, err := c.conversations.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED")
	for _, conv := range convs {
		title := conv.Title
		if conv.Pinned {
			title = "* " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", conv.ID, title, len(conv.Messages), conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func titleFrom(text string) string {
	const limit = 30
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
