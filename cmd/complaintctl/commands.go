package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/complaint_client/internal/cli"
	"github.com/R3E-Network/complaint_client/internal/domain/user"
	"github.com/R3E-Network/complaint_client/services/auth"
	"github.com/R3E-Network/complaint_client/services/complaints"
	"github.com/R3E-Network/complaint_client/services/notifications"
)

type handlerFunc func(r *runner, ctx context.Context, args []string) error

var commands = map[string]handlerFunc{
	"login":         (*runner).login,
	"register":      (*runner).register,
	"logout":        (*runner).logout,
	"whoami":        (*runner).whoami,
	"dashboard":     (*runner).dashboard,
	"complaints":    (*runner).complaints,
	"notifications": (*runner).notifications,
	"profile":       (*runner).profile,
	"prefs":         (*runner).prefs,
	"leaderboard":   (*runner).leaderboard,
}

func (r *runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.printer.Err)
	return fs
}

// subcommand splits "<verb> [args]" and rejects unknown verbs.
func subcommand(group string, args []string, verbs ...string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, usagef("usage: complaintctl %s <%s>", group, strings.Join(verbs, "|"))
	}
	for _, v := range verbs {
		if args[0] == v {
			return v, args[1:], nil
		}
	}
	return "", nil, usagef("unknown %s command %q", group, args[0])
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, usagef("expected exactly one %s id", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s id %q", what, args[0])
	}
	return id, nil
}

// =============================================================================
// Session
// =============================================================================

func (r *runner) login(ctx context.Context, args []string) error {
	fs := r.flags("login")
	identifier := fs.String("id", "", "Email or student ID")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := r.prompt("Email or student ID", *identifier)
	if err != nil {
		return err
	}
	pw, err := r.prompt("Password", *password)
	if err != nil {
		return err
	}

	spin := r.printer.NewSpinner("Signing in...")
	spin.Start()
	resp, err := r.app.SignIn(ctx, id, pw)
	spin.Stop()
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(resp.User)
	}
	r.printer.Success(fmt.Sprintf("Signed in as %s", resp.User.Name))
	return nil
}

func (r *runner) register(ctx context.Context, args []string) error {
	fs := r.flags("register")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	confirm := fs.String("confirm", "", "Password confirmation (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := auth.RegisterRequest{Name: *name, Email: *email}
	var err error
	if req.Password, err = r.prompt("Password", *password); err != nil {
		return err
	}
	if req.PasswordConfirmation, err = r.prompt("Confirm password", *confirm); err != nil {
		return err
	}

	resp, err := r.app.SignUp(ctx, req)
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(resp.User)
	}
	r.printer.Success(fmt.Sprintf("Welcome, %s", resp.User.Name))
	return nil
}

func (r *runner) logout(ctx context.Context, _ []string) error {
	err := r.app.SignOut(ctx)
	if err != nil {
		r.printer.Warning("The server did not confirm sign-out. The local session was erased.")
		return err
	}
	r.printer.Success("Signed out")
	return nil
}

func (r *runner) whoami(ctx context.Context, _ []string) error {
	u, err := r.app.Auth.GetAuthUser(ctx)
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(u)
	}
	r.printUser(u)
	return nil
}

func (r *runner) printUser(u *user.User) {
	r.printer.Line("%s  %s", r.printer.Bold(u.Name), u.Email)
	r.printer.Line("Role:   %s", u.Role)
	r.printer.Line("Points: %d", u.Points)
	if rank := u.RankOrZero(); rank > 0 {
		r.printer.Line("Rank:   #%d", rank)
	}
}

// =============================================================================
// Complaints
// =============================================================================

func (r *runner) dashboard(ctx context.Context, _ []string) error {
	spin := r.printer.NewSpinner("Loading dashboard...")
	spin.Start()
	dash, err := r.app.LoadDashboard(ctx)
	spin.Stop()
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(dash)
	}

	r.printStats(dash.Stats)
	r.printer.Line("")
	return r.printComplaints(dash.Complaints)
}

func (r *runner) printStats(s complaints.StatsResponse) {
	g := s.Gamification
	r.printer.Line("%s  total %d  %s %d  %s %d  %s %d",
		r.printer.Bold("Complaints"),
		s.Stats.Total,
		r.printer.Status(string(complaints.StatusPending)), s.Stats.Pending,
		r.printer.Status(string(complaints.StatusReviewed)), s.Stats.Reviewed,
		r.printer.Status(string(complaints.StatusResolved)), s.Stats.Resolved,
	)
	r.printer.Line("%s %d  %d points  %s", r.printer.Bold("Level"), g.Level, g.TotalPoints, r.printer.LevelBar(g.LevelProgress(), 20))
	r.printer.Line("%d points to the next level", g.PointsToNextLevel)

	if badges := g.Achievements(); len(badges) > 0 {
		names := make([]string, len(badges))
		for i, b := range badges {
			names[i] = b.Name
		}
		r.printer.Line("Achievements: %s", strings.Join(names, ", "))
	}
}

func (r *runner) printComplaints(list []complaints.Complaint) error {
	if len(list) == 0 {
		r.printer.Info("No complaints yet.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		category := ""
		if c.Category != nil {
			category = c.Category.Name
		}
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			cliTruncate(c.Title),
			r.printer.Status(string(c.Status)),
			r.printer.Priority(string(c.Priority)),
			category,
			c.CreatedAt.Format("2006-01-02"),
		})
	}
	return r.printer.Table([]string{"ID", "TITLE", "STATUS", "PRIORITY", "CATEGORY", "CREATED"}, rows)
}

func (r *runner) complaints(ctx context.Context, args []string) error {
	verb, rest, err := subcommand("complaints", args, "list", "show", "create", "delete", "stats", "categories")
	if err != nil {
		return err
	}
	svc := r.app.Complaints

	switch verb {
	case "list":
		list, err := svc.GetComplaints(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(list)
		}
		return r.printComplaints(list)

	case "show":
		id, err := parseID(rest, "complaint")
		if err != nil {
			return err
		}
		c, err := svc.GetComplaint(ctx, id)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(c)
		}
		r.printComplaint(c)
		return nil

	case "create":
		return r.createComplaint(ctx, rest)

	case "delete":
		id, err := parseID(rest, "complaint")
		if err != nil {
			return err
		}
		if err := svc.DeleteComplaint(ctx, id); err != nil {
			return err
		}
		r.printer.Success(fmt.Sprintf("Complaint %d deleted", id))
		return nil

	case "stats":
		stats, err := svc.GetComplaintStats(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(stats)
		}
		r.printStats(*stats)
		return nil

	default:
		cats, err := svc.GetCategories(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(cats)
		}
		rows := make([][]string, len(cats))
		for i, c := range cats {
			rows[i] = []string{strconv.FormatInt(c.ID, 10), c.Name}
		}
		return r.printer.Table([]string{"ID", "NAME"}, rows)
	}
}

func (r *runner) printComplaint(c *complaints.Complaint) {
	r.printer.Line("%s  #%d", r.printer.Bold(c.Title), c.ID)
	r.printer.Line("Status:   %s", r.printer.Status(string(c.Status)))
	if c.Priority != "" {
		r.printer.Line("Priority: %s", r.printer.Priority(string(c.Priority)))
	}
	if c.Category != nil {
		r.printer.Line("Category: %s", c.Category.Name)
	}
	r.printer.Line("Filed:    %s", c.CreatedAt.Format(time.RFC1123))
	if c.HasImage() {
		r.printer.Line("Image:    %s", r.app.Complaints.ImageURL(*c))
	}
	r.printer.Line("")
	r.printer.Line("%s", c.Description)
}

func (r *runner) createComplaint(ctx context.Context, args []string) error {
	fs := r.flags("complaints create")
	title := fs.String("title", "", "Short summary")
	description := fs.String("description", "", "What happened")
	category := fs.Int64("category", 0, "Category id (see `complaints categories`)")
	priority := fs.String("priority", string(complaints.DefaultPriority), "low, medium, high or urgent")
	image := fs.String("image", "", "Photo to attach (path or file:// URI)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := complaints.ParsePriority(*priority)
	if err != nil {
		return usagef("%v", err)
	}
	fields := complaints.NewComplaint{
		Title:       *title,
		Description: *description,
		CategoryID:  *category,
		Priority:    p,
	}

	var sub complaints.Submission = &complaints.JSONSubmission{NewComplaint: fields}
	if *image != "" {
		sub = &complaints.MultipartSubmission{
			NewComplaint: fields,
			Image:        complaints.NewImageAttachment(*image),
		}
	}

	spin := r.printer.NewSpinner("Submitting complaint...")
	spin.Start()
	c, err := r.app.Complaints.CreateComplaint(ctx, sub)
	spin.Stop()
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(c)
	}
	r.printer.Success(fmt.Sprintf("Complaint #%d submitted (%s)", c.ID, r.printer.Status(string(c.Status))))
	return nil
}

// =============================================================================
// Notifications
// =============================================================================

func (r *runner) notifications(ctx context.Context, args []string) error {
	verb, rest, err := subcommand("notifications", args, "list", "read", "read-all", "watch")
	if err != nil {
		return err
	}
	svc := r.app.Notifications

	switch verb {
	case "list":
		page, err := svc.GetNotifications(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(page)
		}
		if len(page.Data) == 0 {
			r.printer.Info("No notifications.")
			return nil
		}
		rows := make([][]string, len(page.Data))
		for i, n := range page.Data {
			rows[i] = notificationRow(r, n)
		}
		if err := r.printer.Table([]string{"ID", "", "TITLE", "MESSAGE", "RECEIVED"}, rows); err != nil {
			return err
		}
		r.printer.Line("%d unread, page %d of %d", page.Unread(), page.CurrentPage, page.LastPage)
		return nil

	case "read":
		id, err := parseID(rest, "notification")
		if err != nil {
			return err
		}
		n, err := svc.MarkNotificationAsRead(ctx, id)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(n)
		}
		r.printer.Success(fmt.Sprintf("Notification %d marked as read", id))
		return nil

	case "read-all":
		if err := svc.MarkAllNotificationsAsRead(ctx); err != nil {
			return err
		}
		r.printer.Success("All notifications marked as read")
		return nil

	default:
		return r.watch(ctx)
	}
}

func notificationRow(r *runner, n notifications.Notification) []string {
	marker := " "
	if !n.Read {
		marker = r.printer.Colorize("•", cli.ColorBlue)
	}
	return []string{
		strconv.FormatInt(n.ID, 10),
		marker,
		cliTruncate(n.Title),
		cliTruncate(n.Message),
		n.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func (r *runner) watch(ctx context.Context) error {
	if !r.printer.Structured() {
		r.printer.Info("Watching for notifications. Press Ctrl+C to stop.")
	}
	items, errs := r.app.WatchNotifications(ctx)
	for n := range items {
		if r.printer.Structured() {
			if err := r.printer.Render(n); err != nil {
				return err
			}
			continue
		}
		r.printer.Line("%s %s  %s", r.printer.Colorize("•", cli.ColorBlue), r.printer.Bold(n.Title), n.Message)
	}
	return <-errs
}

// =============================================================================
// Account
// =============================================================================

func (r *runner) profile(ctx context.Context, args []string) error {
	verb, rest, err := subcommand("profile", args, "show", "update", "password")
	if err != nil {
		return err
	}
	svc := r.app.Users

	switch verb {
	case "show":
		u, err := svc.GetUserProfile(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(u)
		}
		r.printUser(u)
		return nil

	case "update":
		fs := r.flags("profile update")
		name := fs.String("name", "", "New name")
		email := fs.String("email", "", "New email")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		u, err := svc.UpdateUserProfile(ctx, *name, *email)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(u)
		}
		r.printer.Success("Profile updated")
		return nil

	default:
		fs := r.flags("profile password")
		current := fs.String("current", "", "Current password (prompted when omitted)")
		next := fs.String("new", "", "New password (prompted when omitted)")
		confirm := fs.String("confirm", "", "New password again (prompted when omitted)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		cur, err := r.prompt("Current password", *current)
		if err != nil {
			return err
		}
		nw, err := r.prompt("New password", *next)
		if err != nil {
			return err
		}
		conf, err := r.prompt("Confirm new password", *confirm)
		if err != nil {
			return err
		}
		if err := svc.ChangePassword(ctx, cur, nw, conf); err != nil {
			return err
		}
		r.printer.Success("Password changed")
		return nil
	}
}

func (r *runner) prefs(ctx context.Context, args []string) error {
	verb, rest, err := subcommand("prefs", args, "show", "set")
	if err != nil {
		return err
	}
	svc := r.app.Users

	if verb == "show" {
		p, err := svc.GetNotificationPreferences(ctx)
		if err != nil {
			return err
		}
		if r.printer.Structured() {
			return r.printer.Render(p)
		}
		r.printer.Line("Email: %s", onOff(p.EmailNotifications))
		r.printer.Line("Push:  %s", onOff(p.PushNotifications))
		r.printer.Line("SMS:   %s", onOff(p.SMSNotifications))
		return nil
	}

	fs := r.flags("prefs set")
	email := fs.Bool("email", false, "Email notifications")
	push := fs.Bool("push", false, "Push notifications")
	sms := fs.Bool("sms", false, "SMS notifications")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if err := svc.UpdateNotifications(ctx, *email, *push, *sms); err != nil {
		return err
	}
	r.printer.Success("Notification preferences saved")
	return nil
}

func (r *runner) leaderboard(ctx context.Context, _ []string) error {
	board, err := r.app.Users.GetLeaderboard(ctx)
	if err != nil {
		return err
	}
	if r.printer.Structured() {
		return r.printer.Render(board)
	}

	rows := make([][]string, len(board.Leaderboard))
	for i, u := range board.Leaderboard {
		name := u.Name
		if u.ID == board.CurrentUser.ID {
			name = r.printer.Bold(name + " (you)")
		}
		rank := u.RankOrZero()
		if rank == 0 {
			rank = i + 1
		}
		rows[i] = []string{strconv.Itoa(rank), name, strconv.Itoa(u.Points)}
	}
	if err := r.printer.Table([]string{"#", "NAME", "POINTS"}, rows); err != nil {
		return err
	}
	if !board.CurrentUserListed() {
		me := board.CurrentUser
		r.printer.Line("")
		r.printer.Line("You: %d points, rank #%d", me.Points, me.RankOrZero())
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// cliTruncate collapses whitespace so table cells stay on one line.
func cliTruncate(s string) string {
	return cli.Truncate(strings.Join(strings.Fields(s), " "), 40)
}
