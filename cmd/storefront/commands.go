package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/internal/toast"
	"github.com/fjod/go_storefront/internal/wishlist"
)

const requestTimeout = 10 * time.Second

type cli struct {
	gate        *session.Gate
	client      *api.Client
	catalog     *catalog.Service
	cart        *cart.Service
	wishlist    *wishlist.Service
	toasts      *toast.Manager
	newCheckout func() *checkout.Orchestrator
	in          *bufio.Scanner
}

func (c *cli) run(ctx context.Context) {
	c.runWith(ctx, os.Stdin)
}

func (c *cli) runWith(ctx context.Context, input io.Reader) {
	fmt.Println("storefront ready, type 'help' for commands")

	// A single scanner owns the input stream; interactive prompts like
	// the payment confirmation read through it too, never directly from
	// the stream.
	c.in = bufio.NewScanner(input)
	for c.in.Scan() {
		if ctx.Err() != nil {
			return
		}

		args := strings.Fields(c.in.Text())
		if len(args) == 0 {
			continue
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		quitting := c.dispatch(reqCtx, args)
		cancel()
		if quitting {
			return
		}

		if n := c.toasts.Current(); n != nil {
			fmt.Printf("* added to cart: %s x%d %s\n", n.ProductName, n.Quantity, n.VariantName)
		}
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) (quit bool) {
	switch args[0] {
	case "quit", "exit":
		return true
	case "help":
		c.printHelp()
	case "login":
		c.login(ctx, args[1:])
	case "register":
		c.register(ctx, args[1:])
	case "logout":
		c.gate.ClearSession()
		fmt.Println("logged out")
	case "session":
		c.printSession()
	case "products":
		c.listProducts(ctx)
	case "product":
		c.showProduct(ctx, args[1:])
	case "add":
		c.addToCart(ctx, args[1:])
	case "remove":
		c.removeFromCart(args[1:])
	case "qty":
		c.updateQuantity(args[1:])
	case "cart":
		c.printCart()
	case "clear":
		c.cart.Clear()
		fmt.Println("cart cleared")
	case "wish":
		c.toggleWishlist(ctx, args[1:])
	case "wishlist":
		c.printWishlist()
	case "checkout":
		c.checkout(ctx, args[1:])
	case "orders":
		c.listOrders(ctx)
	case "status":
		c.updateOrderStatus(ctx, args[1:])
	case "pnew":
		c.createProduct(ctx, args[1:])
	case "pedit":
		c.updateProduct(ctx, args[1:])
	case "pdel":
		c.deleteProduct(ctx, args[1:])
	default:
		fmt.Printf("unknown command %q, type 'help'\n", args[0])
	}
	return false
}

func (c *cli) printHelp() {
	fmt.Print(`commands:
  products                     list the catalog
  product <id>                 show one product
  add <id> [qty] [color]       add to cart
  remove <id>                  remove a product from the cart
  qty <id> <color|-> <n>       change line quantity
  cart                         show the cart
  clear                        empty the cart
  wish <id>                    toggle wishlist
  wishlist                     show the wishlist
  login <email> <password>     authenticate
  register <email> <password> <first> <last>
  logout                       drop the session
  session                      show session state
  checkout pickup|delivery <card|banking|ewallet> [first last street city postcode phone]
  orders                       list orders (staff)
  status <order-id> <STATUS>   update order status (staff)
  pnew <name> <price> [description...]    create product (staff)
  pedit <id> <name> <price> [description...]
  pdel <id>                    delete product (staff)
  quit
`)
}

func (c *cli) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: login <email> <password>")
		return
	}

	result, err := c.client.Login(ctx, args[0], args[1])
	if err != nil {
		fmt.Printf("login failed: %v\n", err)
		return
	}
	if errSet := c.gate.SetSession(result.Token, result.Role, string(result.User)); errSet != nil {
		fmt.Printf("failed to store session: %v\n", errSet)
		return
	}
	fmt.Printf("logged in as %s, session valid for %ds\n", result.Role, c.gate.TimeRemaining())
}

func (c *cli) register(ctx context.Context, args []string) {
	if len(args) != 4 {
		fmt.Println("usage: register <email> <password> <first> <last>")
		return
	}

	err := c.client.Register(ctx, api.RegisterRequest{
		Email: args[0], Password: args[1], FirstName: args[2], LastName: args[3],
	})
	if err != nil {
		fmt.Printf("registration failed: %v\n", err)
		return
	}
	fmt.Println("registered, you can now log in")
}

func (c *cli) printSession() {
	if c.gate.IsExpired() {
		fmt.Println("no valid session")
		return
	}
	fmt.Printf("role %s, %ds remaining\n", c.gate.Role(), c.gate.TimeRemaining())
}

func (c *cli) listProducts(ctx context.Context) {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		fmt.Printf("failed to list products: %v\n", err)
		return
	}
	for _, p := range products {
		marker := " "
		if c.wishlist.Contains(p.ID) {
			marker = "*"
		}
		fmt.Printf("%s %3d  %-20s %8.2f\n", marker, p.ID, p.Name, p.Price)
	}
}

func (c *cli) showProduct(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("usage: product <id>")
		return
	}

	product, err := c.catalog.GetProduct(ctx, id)
	if err != nil {
		fmt.Printf("failed to get product: %v\n", err)
		return
	}
	fmt.Printf("%d  %s  %.2f\n%s\n", product.ID, product.Name, product.Price, product.Description)
	for _, v := range product.Variants {
		fmt.Printf("  variant %s (%d in stock)\n", v.ColorName, v.Stock)
	}
}

func (c *cli) addToCart(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("usage: add <id> [qty] [color]")
		return
	}

	qty := 1
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			qty = n
		}
	}

	product, err := c.catalog.GetProduct(ctx, id)
	if err != nil {
		fmt.Printf("failed to get product: %v\n", err)
		return
	}

	var variant *domain.Variant
	if len(args) > 2 {
		for i := range product.Variants {
			if product.Variants[i].ColorName == args[2] {
				variant = &product.Variants[i]
				break
			}
		}
		if variant == nil {
			fmt.Printf("product has no variant %q\n", args[2])
			return
		}
	}

	c.cart.AddItem(*product, qty, variant)
}

func (c *cli) removeFromCart(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("usage: remove <id>")
		return
	}
	c.cart.RemoveItem(id)
}

func (c *cli) updateQuantity(args []string) {
	if len(args) != 3 {
		fmt.Println("usage: qty <id> <color|-> <n>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("invalid product id")
		return
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println("invalid quantity")
		return
	}

	variantKey := args[1]
	if variantKey == "-" {
		variantKey = ""
	}
	c.cart.UpdateQuantity(id, variantKey, n)
}

func (c *cli) printCart() {
	lines := c.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, l := range lines {
		variant := l.Variant.Key()
		if variant == "" {
			variant = "-"
		}
		fmt.Printf("%3d  %-20s %-8s x%-3d %8.2f\n", l.ProductID, l.Name, variant, l.Quantity, l.LineTotal())
	}
	fmt.Printf("subtotal: %.2f\n", c.cart.Subtotal())
}

func (c *cli) toggleWishlist(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("usage: wish <id>")
		return
	}

	product, err := c.catalog.GetProduct(ctx, id)
	if err != nil {
		fmt.Printf("failed to get product: %v\n", err)
		return
	}

	added := c.wishlist.Toggle(domain.WishlistItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
	})
	if added {
		fmt.Printf("%s added to wishlist\n", product.Name)
	} else {
		fmt.Printf("%s removed from wishlist\n", product.Name)
	}
}

func (c *cli) printWishlist() {
	items := c.wishlist.Items()
	if len(items) == 0 {
		fmt.Println("wishlist is empty")
		return
	}
	for _, item := range items {
		fmt.Printf("%3d  %-20s %8.2f\n", item.ProductID, item.Name, item.UnitPrice)
	}
}

func (c *cli) checkout(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: checkout pickup|delivery <card|banking|ewallet> [first last street city postcode phone]")
		return
	}

	var method domain.ShippingMethod
	switch args[0] {
	case "pickup":
		method = domain.ShippingPickup
	case "delivery":
		method = domain.ShippingDelivery
	default:
		fmt.Println("shipping method must be pickup or delivery")
		return
	}

	var payment checkout.PaymentMethod
	switch args[1] {
	case "card":
		payment = checkout.PaymentCard
	case "banking":
		payment = checkout.PaymentOnlineBanking
	case "ewallet":
		payment = checkout.PaymentEWallet
	default:
		fmt.Println("payment must be card, banking or ewallet")
		return
	}

	var addr domain.Address
	if method == domain.ShippingDelivery {
		if len(args) != 8 {
			fmt.Println("delivery needs: first last street city postcode phone")
			return
		}
		addr = domain.Address{
			FirstName: args[2], LastName: args[3], Street: args[4],
			City: args[5], Postcode: args[6], Phone: args[7],
		}
	}

	orch := c.newCheckout()

	quote := checkout.Quote(c.cart.Lines(), method)
	fmt.Printf("subtotal %.2f, delivery %.2f, discount %.2f, total %.2f\n",
		quote.Subtotal, quote.DeliveryFee, quote.Discount, quote.Total)

	if payment.NeedsConfirmation() {
		// Simulated third-party confirmation: confirm then proceed.
		if err := orch.BeginConfirmation(); err != nil {
			fmt.Printf("checkout failed: %v\n", err)
			return
		}
		fmt.Print("confirm payment? [y/N] ")
		var answer string
		if c.in.Scan() {
			answer = strings.TrimSpace(c.in.Text())
		}
		if !strings.EqualFold(answer, "y") {
			orch.CancelConfirmation()
			fmt.Println("payment cancelled")
			return
		}
	}

	receipt, err := orch.Submit(ctx, method, addr, payment)
	if err != nil {
		c.reportCheckoutError(err)
		return
	}

	fmt.Printf("order %s placed\n", receipt.OrderID)
	for _, item := range receipt.Items {
		fmt.Printf("  %3d x%-3d %8.2f\n", item.ProductID, item.Quantity, item.UnitPrice)
	}
	fmt.Printf("paid %.2f\n", receipt.Total)
}

func (c *cli) reportCheckoutError(err error) {
	var validationErr *checkout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		for _, f := range validationErr.Fields {
			fmt.Printf("missing field: %s\n", f.Field)
		}
	case errors.Is(err, checkout.ErrSessionExpired):
		fmt.Println("session expired, log in and try again")
	case errors.Is(err, checkout.ErrEmptyCart):
		fmt.Println("cart is empty")
	default:
		fmt.Printf("checkout failed, cart preserved: %v\n", err)
	}
}

func (c *cli) listOrders(ctx context.Context) {
	orders, err := c.client.ListOrders(ctx)
	if err != nil {
		fmt.Printf("failed to list orders: %v\n", err)
		return
	}
	for _, o := range orders {
		fmt.Printf("%s  %-10s %8.2f  %s\n", o.ID, o.Status, o.TotalAmount, o.CreatedAt.Format(time.RFC3339))
	}
}

func (c *cli) updateOrderStatus(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: status <order-id> <PENDING|SHIPPED|COMPLETED|CANCELLED>")
		return
	}

	if err := c.client.UpdateOrderStatus(ctx, args[0], domain.OrderStatus(args[1])); err != nil {
		fmt.Printf("failed to update status: %v\n", err)
		return
	}
	fmt.Println("status updated")
}

func (c *cli) createProduct(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: pnew <name> <price> [description...]")
		return
	}
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Println("invalid price")
		return
	}

	created, err := c.client.CreateProduct(ctx, domain.Product{
		Name:        args[0],
		Price:       price,
		Description: strings.Join(args[2:], " "),
	})
	if err != nil {
		fmt.Printf("failed to create product: %v\n", err)
		return
	}
	c.invalidateCatalog(ctx, created.ID)
	fmt.Printf("product %d created\n", created.ID)
}

func (c *cli) updateProduct(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: pedit <id> <name> <price> [description...]")
		return
	}
	id, ok := parseID(args)
	if !ok {
		fmt.Println("invalid product id")
		return
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		fmt.Println("invalid price")
		return
	}

	updated, err := c.client.UpdateProduct(ctx, domain.Product{
		ID:          id,
		Name:        args[1],
		Price:       price,
		Description: strings.Join(args[3:], " "),
	})
	if err != nil {
		fmt.Printf("failed to update product: %v\n", err)
		return
	}
	c.invalidateCatalog(ctx, updated.ID)
	fmt.Printf("product %d updated\n", updated.ID)
}

func (c *cli) deleteProduct(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("usage: pdel <id>")
		return
	}

	if err := c.client.DeleteProduct(ctx, id); err != nil {
		fmt.Printf("failed to delete product: %v\n", err)
		return
	}
	c.invalidateCatalog(ctx, id)
	fmt.Println("product deleted")
}

// invalidateCatalog drops the cached entries after a staff mutation so
// the next browse fetches fresh data.
func (c *cli) invalidateCatalog(ctx context.Context, id int64) {
	if err := c.catalog.Invalidate(ctx, id); err != nil {
		fmt.Printf("failed to refresh catalog: %v\n", err)
	}
}

func parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
