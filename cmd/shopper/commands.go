package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"labelshop/internal/apiclient"
	"labelshop/internal/cart"
	"labelshop/internal/checkout"
	"labelshop/internal/session"
)

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprint(os.Stderr, `usage: shopper <command> [flags]

catalog:
  products [-kind record|merch|ticket]   list products
  events [-past]                         list events
cart:
  add <product-id-or-slug> [qty]         add a product
  add-ticket <event-slug> [qty]          add tickets for an event
  remove <product-id>                    remove a line
  qty <product-id> <qty>                 set a line quantity (minimum 1)
  cart                                   show the cart
  clear                                  empty the cart
account:
  register -username u -email e -password p
  login -id email-or-username -password p
  logout
  me
orders:
  checkout -name n -phone p -address a -city c -country c [-email e] [-postal z] [-notes n]
  orders                                 list my orders
  order <id>                             show one order
`)
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.products(ctx, args)
	case "events":
		return a.events(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "add-ticket":
		return a.addTicket(ctx, args)
	case "remove":
		if len(args) != 1 {
			return errUsage
		}
		a.cart.Remove(ctx, args[0])
		return a.showCart(os.Stdout)
	case "qty":
		if len(args) != 2 {
			return errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		a.cart.UpdateQuantity(ctx, args[0], n)
		return a.showCart(os.Stdout)
	case "cart":
		return a.showCart(os.Stdout)
	case "clear":
		a.cart.Clear(ctx)
		fmt.Println("cart cleared")
		return nil
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.client.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	case "me":
		return a.me(ctx)
	case "checkout":
		return a.placeOrder(ctx, args)
	case "orders":
		return a.orders(ctx)
	case "order":
		if len(args) != 1 {
			return errUsage
		}
		return a.order(ctx, args[0])
	case "help", "-h", "--help":
		usage()
		return nil
	}
	return errUsage
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	kind := fs.String("kind", "", "filter by kind")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	list, err := a.client.ListProducts(ctx, *kind)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tKIND\tNAME\tPRICE")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n", p.Slug, p.Kind, p.Name, p.Price.StringFixed(2), p.Currency)
	}
	return w.Flush()
}

func (a *app) events(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	past := fs.Bool("past", false, "include past events")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	list, err := a.client.ListEvents(ctx, *past)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tDATE\tTITLE\tWHERE\tTICKET")
	for _, e := range list {
		ticket := "-"
		if e.Ticket != nil {
			ticket = e.Ticket.Price.StringFixed(2) + " " + e.Ticket.Currency
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s, %s\t%s\n", e.Slug, e.StartsAt.Local().Format("2006-01-02 15:04"), e.Title, e.Venue, e.City, ticket)
	}
	return w.Flush()
}

func quantityArg(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 1, nil
	}
	n, err := strconv.Atoi(args[pos])
	if err != nil || n < 1 {
		return 0, errUsage
	}
	return n, nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	qty, err := quantityArg(args, 1)
	if err != nil {
		return err
	}
	p, err := a.client.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.cart.Add(ctx, apiclient.ProductLine(*p), qty); err != nil {
		return err
	}
	return a.showCart(os.Stdout)
}

func (a *app) addTicket(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	qty, err := quantityArg(args, 1)
	if err != nil {
		return err
	}
	e, err := a.client.GetEvent(ctx, args[0])
	if err != nil {
		return err
	}
	line, err := apiclient.TicketLine(*e)
	if err != nil {
		return err
	}
	if err := a.cart.Add(ctx, line, qty); err != nil {
		return err
	}
	return a.showCart(os.Stdout)
}

func (a *app) showCart(out io.Writer) error {
	s := a.cart.Snapshot()
	if len(s.Lines) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tUNIT\tTOTAL")
	for _, l := range s.Lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Total().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%d items\t\t%s %s\n", s.Count, s.Total.StringFixed(2), s.Currency)
	if err := w.Flush(); err != nil {
		return err
	}
	if a.cart.Degraded() {
		fmt.Fprintln(out, "warning: cart could not be saved and will not survive a restart")
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var in apiclient.RegisterRequest
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", os.Getenv("SHOPPER_PASSWORD"), "password")
	if err := fs.Parse(args); err != nil || in.Username == "" || in.Email == "" || in.Password == "" {
		return errUsage
	}
	u, err := a.client.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("registered and signed in as %s\n", u.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	id := fs.String("id", "", "email or username")
	password := fs.String("password", os.Getenv("SHOPPER_PASSWORD"), "password")
	if err := fs.Parse(args); err != nil || *id == "" || *password == "" {
		return errUsage
	}
	u, err := a.client.Login(ctx, *id, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", u.Username)
	return nil
}

func (a *app) me(ctx context.Context) error {
	u, err := a.client.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s> (%s)\n", u.Username, u.Email, u.Role)
	return nil
}

func (a *app) placeOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var (
		customer apiclient.Customer
		shipping apiclient.Shipping
	)
	fs.StringVar(&customer.FullName, "name", "", "full name")
	fs.StringVar(&customer.Email, "email", "", "email")
	fs.StringVar(&customer.Phone, "phone", "", "phone number")
	fs.StringVar(&shipping.Address, "address", "", "street address")
	fs.StringVar(&shipping.City, "city", "", "city")
	fs.StringVar(&shipping.PostalCode, "postal", "", "postal code")
	fs.StringVar(&shipping.Country, "country", "", "country")
	fs.StringVar(&shipping.Notes, "notes", "", "delivery notes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	order, err := a.checkout.PlaceCOD(ctx, customer, shipping)
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed: %s %s, pay on delivery\n", order.ID, order.Total.StringFixed(2), order.Currency)
	return nil
}

func (a *app) orders(ctx context.Context) error {
	list, err := a.client.MyOrders(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSTATUS\tTOTAL")
	for _, o := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n", o.ID, o.CreatedAt.Local().Format("2006-01-02"), o.Status, o.Total.StringFixed(2), o.Currency)
	}
	return w.Flush()
}

func (a *app) order(ctx context.Context, id string) error {
	o, err := a.client.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	items, err := a.client.OrderItems(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("order %s (%s), %s %s\n", o.ID, o.Status, o.Total.StringFixed(2), o.Currency)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, l := range items {
		fmt.Fprintf(w, "  %s\tx%d\t%s\n", l.Name, l.Quantity, l.Total.StringFixed(2))
	}
	return w.Flush()
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return "not signed in, run `shopper login` first"
	case errors.Is(err, session.ErrNetwork):
		return "cannot reach the shop, check your connection"
	case errors.Is(err, checkout.ErrEmptyCart):
		return "your cart is empty"
	case errors.Is(err, cart.ErrCurrencyMismatch):
		return "this item is priced in a different currency than your cart"
	case errors.Is(err, apiclient.ErrNoTicket):
		return "tickets for this event are not on sale"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return err.Error()
}
