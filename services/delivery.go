package services

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/config"
	"storefront/models"

	"github.com/shopspring/decimal"
)

// Delivery builds the deep links the storefront hands off to: the
// messaging chat with the shop and the payment URI.
type Delivery struct {
	number    string
	payeeID   string
	payeeName string
	currency  string
	qrService string
}

func NewDelivery(cfg config.Checkout) Delivery {
	return Delivery{
		number:    cfg.MessagingNumber,
		payeeID:   cfg.PayeeID,
		payeeName: cfg.PayeeName,
		currency:  cfg.Currency,
		qrService: cfg.QRServiceURL,
	}
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s the way browsers encode a URI
// component: spaces become %20 and !'()* stay literal.
func EncodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

func rupees(v decimal.Decimal) string {
	return "₹" + v.String()
}

// MessageLink opens a chat with the shop pre-filled with text.
func (d Delivery) MessageLink(text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", d.number, EncodeURIComponent(text))
}

// upiValue encodes one query value of a payment URI. '@' is legal in a
// query and payment apps expect the payee address unescaped.
func upiValue(s string) string {
	return strings.ReplaceAll(EncodeURIComponent(s), "%40", "@")
}

func (d Delivery) PaymentURI(amount decimal.Decimal) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=%s&tn=GamePurchase",
		upiValue(d.payeeID), upiValue(d.payeeName), amount.String(), upiValue(d.currency))
}

// PaymentQRURL renders the payment URI as a scannable image.
func (d Delivery) PaymentQRURL(amount decimal.Decimal) string {
	return d.qrService + "?size=200x200&data=" + EncodeURIComponent(d.PaymentURI(amount))
}

// OrderMessage is the summary sent to the shop once payment completes.
func OrderMessage(order models.Order) string {
	items := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, fmt.Sprintf("• %s [%s] (x%d) - %s", line.Title, line.Edition, line.Quantity, rupees(line.Total())))
	}

	var b strings.Builder
	if order.AccessCode != "" {
		b.WriteString(order.AccessCode + "\n")
	}
	fmt.Fprintf(&b, "NEW ORDER: %s\n", order.ID)
	fmt.Fprintf(&b, "Date: %s\n", order.Date)
	b.WriteString("-----------------------------\n")
	b.WriteString("*CUSTOMER DETAILS:*\n")
	fmt.Fprintf(&b, "Name: %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", order.Customer.Phone)
	b.WriteString("-----------------------------\n")
	b.WriteString("*ORDER ITEMS:*\n")
	b.WriteString(strings.Join(items, "\n") + "\n")
	b.WriteString("-----------------------------\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", rupees(order.Subtotal))
	fmt.Fprintf(&b, "Fee: %s\n", rupees(order.PlatformFee))
	if order.TotalDiscount.IsPositive() {
		fmt.Fprintf(&b, "Discount: %s\n", rupees(order.TotalDiscount))
	}
	fmt.Fprintf(&b, "Wallet Used: %s\n", rupees(order.WalletUsed))
	fmt.Fprintf(&b, "*FINAL TOTAL: %s*\n", rupees(order.FinalTotal))
	b.WriteString("-----------------------------\n")
	fmt.Fprintf(&b, "Payment Mode: %s\n", strings.ToUpper(string(order.PaymentMethod)))
	b.WriteString("*STATUS: PAYMENT COMPLETED*\n\n")
	b.WriteString("Please verify my payment screenshot and send the digital game.")
	return b.String()
}

// EnquiryMessage asks the shop about a single item.
func EnquiryMessage(item models.CatalogItem) string {
	return fmt.Sprintf("I am interested in buying: %s\nPlatform: %s\nPrice: %s\n\nIs this available?",
		item.Title, item.Platform, rupees(item.Price))
}

// ListingRequest offers an item for sale on the marketplace.
type ListingRequest struct {
	GameName      string          `json:"game_name"`
	Platform      string          `json:"platform"`
	Type          string          `json:"type"`
	ExpectedPrice decimal.Decimal `json:"expected_price"`
}

func (r ListingRequest) Message() (string, error) {
	fields := FieldErrors{}
	if strings.TrimSpace(r.GameName) == "" {
		fields["game_name"] = "game name is required"
	}
	if strings.TrimSpace(r.Platform) == "" {
		fields["platform"] = "platform is required"
	}
	if !r.ExpectedPrice.IsPositive() {
		fields["expected_price"] = "must be positive"
	}
	if err := fields.orNil(); err != nil {
		return "", err
	}
	kind := r.Type
	if strings.TrimSpace(kind) == "" {
		kind = "Game Account"
	}
	return fmt.Sprintf("*SELL REQUEST (MARKETPLACE)*\nI want to sell my %s.\n\nGame: %s\nPlatform: %s\nExpected Price: %s\n\nPlease check and revert.",
		kind, r.GameName, r.Platform, rupees(r.ExpectedPrice)), nil
}

// InstantSellRequest asks the shop to buy an item outright against an
// invoice.
type InstantSellRequest struct {
	UserName        string          `json:"user_name"`
	GameName        string          `json:"game_name"`
	Platform        string          `json:"platform"`
	OriginalValue   decimal.Decimal `json:"original_value"`
	InvoiceAttached bool            `json:"invoice_attached"`
}

// OfferRange is the system estimate: 10% to 30% of the original value,
// floored.
func (r InstantSellRequest) OfferRange() (low, high decimal.Decimal) {
	low = r.OriginalValue.Mul(decimal.NewFromInt(10)).Div(hundred).Floor()
	high = r.OriginalValue.Mul(decimal.NewFromInt(30)).Div(hundred).Floor()
	return low, high
}

func (r InstantSellRequest) Message() (string, error) {
	fields := FieldErrors{}
	if strings.TrimSpace(r.GameName) == "" {
		fields["game_name"] = "game name is required"
	}
	if !r.OriginalValue.IsPositive() {
		fields["original_value"] = "must be positive"
	}
	if !r.InvoiceAttached {
		fields["invoice"] = "invoice proof is required"
	}
	if err := fields.orNil(); err != nil {
		return "", err
	}
	user := r.UserName
	if strings.TrimSpace(user) == "" {
		user = "Gamer"
	}
	low, high := r.OfferRange()
	return fmt.Sprintf("*INSTANT SELL REQUEST*\nI want to INSTANT SELL my game.\n\nUser: %s\nGame: %s\nPlatform: %s\nOriginal Value: %s\n\n*System Estimate: %s - %s*\n\nI am sending the invoice proof image now.\nPlease verify and send my Wallet Coupon Code.",
		user, r.GameName, r.Platform, rupees(r.OriginalValue), rupees(low), rupees(high)), nil
}
